package supervisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"

	"coinbase-mm/internal/book"
	"coinbase-mm/internal/feed"
	"coinbase-mm/internal/logx"
	"coinbase-mm/internal/quote"
	"coinbase-mm/internal/restclient"
)

const subscribeFrame = `{"type":"subscribe","product_id":"BTC-USD"}`

// Session runs one full connect→warmup→snapshot→replay→live cycle against
// a fresh order book and quote-manager state. The supervisor constructs a
// new Session for every reconnect attempt.
type Session struct {
	wsURL  string
	rest   *restclient.Client
	logger *slog.Logger

	Book   *book.OrderBook
	Quotes *quote.Manager
	Sync   *feed.Synchronizer

	// OnStatus, if set, is called with a freshly rendered status line after
	// every successfully applied book event — the command-line status
	// display hooks in here.
	OnStatus func(logx.Status)
}

// NewSession wires a fresh book, quote manager and synchronizer together.
func NewSession(wsURL string, rest *restclient.Client, logger *slog.Logger) *Session {
	b := book.New()
	q := quote.New(rest, logger)
	return &Session{
		wsURL:  wsURL,
		rest:   rest,
		logger: logger,
		Book:   b,
		Quotes: q,
		Sync:   feed.New(b, q, logger),
	}
}

// Run executes the full session lifecycle. It always returns a non-nil
// error: ctx's error once ctx is cancelled, otherwise the cause of a session
// termination the supervisor must react to (measuring wall time and
// reconnecting with backoff).
func (s *Session) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(subscribeFrame)); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	buffered, err := s.warmup(ctx, conn)
	if err != nil {
		return err
	}

	if err := s.loadSnapshot(ctx); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := s.reconcileOpenOrders(ctx); err != nil {
		s.logger.Warn("open order reconciliation failed", "error", err)
	}

	for _, raw := range buffered {
		if err := s.applyAndEvaluate(ctx, raw); err != nil {
			return err
		}
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if err := s.applyAndEvaluate(ctx, raw); err != nil {
			return err
		}
	}
}

// warmup reads at least WarmupMessages+1 raw frames before the snapshot is
// fetched, guaranteeing the buffer spans the snapshot's sequence number.
func (s *Session) warmup(ctx context.Context, conn *websocket.Conn) ([][]byte, error) {
	var buffered [][]byte
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("warmup read: %w", err)
		}
		buffered = append(buffered, raw)
		if len(buffered) > feed.WarmupMessages {
			return buffered, nil
		}
	}
}

func (s *Session) loadSnapshot(ctx context.Context) error {
	snap, err := s.rest.GetSnapshot(ctx)
	if err != nil {
		return err
	}
	for _, lvl := range snap.Bids {
		s.Book.InsertOrder(&book.Order{ID: lvl.OrderID, Price: lvl.Price, Size: lvl.Size, Side: book.Buy}, true)
	}
	for _, lvl := range snap.Asks {
		s.Book.InsertOrder(&book.Order{ID: lvl.OrderID, Price: lvl.Price, Size: lvl.Size, Side: book.Sell}, true)
	}
	s.Book.SnapshotSequence = snap.Sequence
	return nil
}

// reconcileOpenOrders adopts the account's first resting buy/sell order, if
// any, as the managed bid/ask — so a restart doesn't blindly post a second
// quote alongside an order the exchange still considers open.
func (s *Session) reconcileOpenOrders(ctx context.Context) error {
	open, err := s.rest.GetOpenOrders(ctx)
	if err != nil {
		return err
	}
	for _, o := range open {
		switch o.Side {
		case "buy":
			if s.Quotes.Open.Bid == nil {
				s.Quotes.Open.Bid = &quote.RestingOrder{ID: o.ID, Price: o.Price}
			}
		case "sell":
			if s.Quotes.Open.Ask == nil {
				s.Quotes.Open.Ask = &quote.RestingOrder{ID: o.ID, Price: o.Price}
			}
		}
	}
	return nil
}

func (s *Session) applyAndEvaluate(ctx context.Context, raw []byte) error {
	if err := s.Sync.Apply(raw); err != nil {
		return err
	}
	if err := s.Quotes.Evaluate(ctx, s.Book); err != nil {
		return err
	}
	if s.OnStatus != nil {
		if status, err := logx.BuildStatus(s.Book, s.Quotes); err == nil {
			s.OnStatus(status)
		}
	}
	return nil
}
