// Package restclient is the REST client for the exchange's order-book
// snapshot and order-management endpoints.
package restclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"coinbase-mm/internal/auth"
)

// Client wraps a resty HTTP client with retry and request signing.
type Client struct {
	http   *resty.Client
	signer auth.Signer
	dryRun bool
	logger *slog.Logger
}

// New creates a REST client against baseURL.
func New(baseURL string, signer auth.Signer, dryRun bool, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Client{http: httpClient, signer: signer, dryRun: dryRun, logger: logger}
}

// GetSnapshot fetches the level-3 order book snapshot.
func (c *Client) GetSnapshot(ctx context.Context) (*SnapshotResponse, error) {
	var result SnapshotResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("level", "3").
		SetResult(&result).
		Get("/products/BTC-USD/book")
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get snapshot: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &result, nil
}

// GetOpenOrders fetches every order currently resting for this account, used
// at the start of every session to reconcile locally-tracked state with the
// exchange.
func (c *Client) GetOpenOrders(ctx context.Context) ([]OpenOrder, error) {
	headers, err := c.signer.Sign("GET", "/orders", "")
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get("/orders")
	if err != nil {
		return nil, fmt.Errorf("get open orders: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get open orders: status %d: %s", resp.StatusCode(), resp.String())
	}
	return decodeOpenOrders(resp.Body())
}

// PostOrder places a single post-only limit order.
func (c *Client) PostOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	if c.dryRun {
		c.logger.Info("dry-run: would post order", "side", req.Side, "price", req.Price, "size", req.Size)
		return &OrderResponse{ID: "dry-run", Status: "pending"}, nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	headers, err := c.signer.Sign("POST", "/orders", string(body))
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	var result OrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(req).
		SetResult(&result).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("post order: %w", err)
	}
	if resp.StatusCode() >= 500 {
		return nil, fmt.Errorf("post order: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &result, nil
}

// CancelOrder cancels a single order by id.
func (c *Client) CancelOrder(ctx context.Context, id string) (*CancelResponse, error) {
	if c.dryRun {
		c.logger.Info("dry-run: would cancel order", "id", id)
		return &CancelResponse{}, nil
	}

	path := fmt.Sprintf("/orders/%s", id)
	headers, err := c.signer.Sign("DELETE", path, "")
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	var result CancelResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Delete(path)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if resp.StatusCode() == http.StatusOK {
		return &result, nil
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("cancel order: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &result, nil
}

// CancelAll cancels every open order for this account — used once before
// the first session to establish the clean-slate invariant.
func (c *Client) CancelAll(ctx context.Context) (*CancelResponse, error) {
	if c.dryRun {
		c.logger.Info("dry-run: would cancel all orders")
		return &CancelResponse{}, nil
	}

	headers, err := c.signer.Sign("DELETE", "/orders", "")
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	var result CancelResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Delete("/orders")
	if err != nil {
		return nil, fmt.Errorf("cancel all: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("cancel all: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &result, nil
}
