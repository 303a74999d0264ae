// Coinbase BTC-USD market maker — reconciles a level-3 order book against
// the exchange's per-order feed and manages a single resting bid/ask pair.
//
// Architecture:
//
//	main.go                  — entry point: loads config, starts the supervisor, waits for SIGINT/SIGTERM
//	internal/supervisor       — reconnect loop: backoff, session lifecycle, startup reconciliation
//	internal/feed             — per-order feed synchronizer: sequence/seam checks, event dispatch
//	internal/book             — price-level tree order book (O(log P) price ops, O(1) per-order ops)
//	internal/quote            — quote-management state machine: post/cancel with hysteresis and rejection bias
//	internal/restclient       — REST client for snapshot, order placement/cancellation
//	internal/auth             — request-signing abstraction
//	internal/logx             — rotating CSV event log + command-line status line
//	internal/config           — YAML + env configuration
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"coinbase-mm/internal/auth"
	"coinbase-mm/internal/config"
	"coinbase-mm/internal/logx"
	"coinbase-mm/internal/restclient"
	"coinbase-mm/internal/supervisor"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("CBMM_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// No arguments → interactive command-line mode: echo to stdout and
	// render the status line on every book update. Any argument → file
	// log only, matching the original tool's len(sys.argv) == 1 check.
	cliMode := len(os.Args) == 1

	logger := logx.New(logx.Options{
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		EchoStdout: cliMode,
	})

	var signer auth.Signer
	switch cfg.Auth.Mode {
	case "none":
		signer = auth.NullSigner{}
	default:
		signer = auth.EnvSigner{APIKey: cfg.Auth.APIKey, Secret: cfg.Auth.Secret, Passphrase: cfg.Auth.Passphrase}
	}

	rest := restclient.New(cfg.Feed.RESTURL, signer, cfg.DryRun, logger)
	sup := supervisor.New(cfg.Feed.WSURL, rest, logger)
	if cliMode {
		sup.OnStatus = func(s logx.Status) { fmt.Println(s.String()) }
	}

	if cfg.DryRun {
		logger.Warn("DRY-RUN MODE — no real orders will be placed")
	}
	logger.Info("coinbase market maker started",
		"product_id", cfg.Feed.ProductID,
		"dry_run", cfg.DryRun,
		"auth_mode", cfg.Auth.Mode,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			logger.Error("supervisor exited", "error", err)
			os.Exit(1)
		}
	}
}
