package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/shopspring/decimal"

	"coinbase-mm/internal/book"
	"coinbase-mm/internal/restclient"
)

// ErrCrossedBook is returned when the best ask is below the best bid — data
// corruption the caller must treat as a session abort. A zero spread (equal
// best bid and best ask) does not trigger it.
var ErrCrossedBook = errors.New("crossed book: min ask below max bid")

// ErrUnhandledResponse is returned when an order/cancel response carries a
// status or message this manager doesn't recognize.
var ErrUnhandledResponse = errors.New("unhandled exchange response")

const (
	rebalanceSize = "0.10"
	normalSize    = "0.01"
)

// RestClient is the subset of the REST client the quote manager needs to
// place and cancel orders.
type RestClient interface {
	PostOrder(ctx context.Context, req restclient.OrderRequest) (*restclient.OrderResponse, error)
	CancelOrder(ctx context.Context, id string) (*restclient.CancelResponse, error)
}

// Manager is the C4 quote-management state machine: it holds the account's
// single resting bid and ask and reacts to book/order-response state.
type Manager struct {
	Open    *OpenOrders
	Spreads Spreads

	client RestClient
	rng    *rand.Rand
	logger *slog.Logger
}

// New creates a quote manager against the given REST client.
func New(client RestClient, logger *slog.Logger) *Manager {
	return &Manager{
		Open:    NewOpenOrders(),
		Spreads: Spreads{BidSpread: decimal.NewFromFloat(0.10), AskSpread: decimal.NewFromFloat(0.10)},
		client:  client,
		rng:     rand.New(rand.NewSource(1)),
		logger:  logger,
	}
}

// randomSpreadCents draws a spread uniformly from {0.06, 0.07, ..., 0.20}.
func (m *Manager) randomSpreadCents() decimal.Decimal {
	cents := 6 + m.rng.Intn(15)
	return decimal.New(int64(cents), -2)
}

// Evaluate runs one quote-management cycle: it reads top of book, attempts
// to post any missing side, then cancels any quote that has drifted outside
// its hysteresis band. Called after every successfully applied book event.
func (m *Manager) Evaluate(ctx context.Context, b *book.OrderBook) error {
	maxBid, errBid := b.MaxBid()
	minAsk, errAsk := b.MinAsk()
	if errBid != nil || errAsk != nil {
		return nil // one side empty: nothing to quote against yet
	}
	if minAsk.Sub(maxBid).IsNegative() {
		return ErrCrossedBook
	}

	if err := m.maybePostBid(ctx, maxBid, minAsk); err != nil {
		return err
	}
	if err := m.maybePostAsk(ctx, maxBid, minAsk); err != nil {
		return err
	}
	if err := m.maybeCancelBid(ctx, minAsk); err != nil {
		return err
	}
	if err := m.maybeCancelAsk(ctx, maxBid); err != nil {
		return err
	}
	return nil
}

func (m *Manager) maybePostBid(ctx context.Context, maxBid, minAsk decimal.Decimal) error {
	if m.Open.Bid != nil || m.Open.InsufficientUSD {
		return nil
	}

	var size, price decimal.Decimal
	if m.Open.InsufficientBTC {
		size = decimal.RequireFromString(rebalanceSize)
		price = maxBid.Add(m.Open.BidRejectionBias).Round(2)
	} else {
		size = decimal.RequireFromString(normalSize)
		m.Spreads.BidSpread = m.randomSpreadCents()
		price = minAsk.Sub(m.Spreads.BidSpread).Sub(m.Open.BidRejectionBias).Round(2)
	}

	resp, err := m.client.PostOrder(ctx, restclient.OrderRequest{
		Size: size, Price: price, Side: "buy", ProductID: "BTC-USD", PostOnly: true,
	})
	if err != nil {
		return fmt.Errorf("post bid: %w", err)
	}

	switch {
	case resp.Status == "pending":
		m.Open.Bid = &RestingOrder{ID: resp.ID, Price: price}
		m.Open.BidRejectionBias = decimal.Zero
		m.logger.Info("new bid", "price", price)
	case resp.Status == "rejected":
		m.Open.Bid = nil
		m.Open.BidRejectionBias = m.Open.BidRejectionBias.Add(book.RejectionCents)
		m.logger.Warn("bid rejected", "price", price)
	case resp.Message == "Insufficient funds":
		m.Open.InsufficientUSD = true
		m.Open.Bid = nil
		m.logger.Warn("insufficient USD")
	default:
		return fmt.Errorf("post bid: %w: %+v", ErrUnhandledResponse, resp)
	}
	return nil
}

func (m *Manager) maybePostAsk(ctx context.Context, maxBid, minAsk decimal.Decimal) error {
	if m.Open.Ask != nil || m.Open.InsufficientBTC {
		return nil
	}

	var size, price decimal.Decimal
	if m.Open.InsufficientUSD {
		size = decimal.RequireFromString(rebalanceSize)
		price = minAsk.Add(m.Open.AskRejectionBias).Round(2)
	} else {
		size = decimal.RequireFromString(normalSize)
		m.Spreads.AskSpread = m.randomSpreadCents()
		price = maxBid.Add(m.Spreads.AskSpread).Add(m.Open.AskRejectionBias).Round(2)
	}

	resp, err := m.client.PostOrder(ctx, restclient.OrderRequest{
		Size: size, Price: price, Side: "sell", ProductID: "BTC-USD", PostOnly: true,
	})
	if err != nil {
		return fmt.Errorf("post ask: %w", err)
	}

	switch {
	case resp.Status == "pending":
		m.Open.Ask = &RestingOrder{ID: resp.ID, Price: price}
		m.Open.AskRejectionBias = decimal.Zero
		m.logger.Info("new ask", "price", price)
	case resp.Status == "rejected":
		m.Open.Ask = nil
		m.Open.AskRejectionBias = m.Open.AskRejectionBias.Add(book.RejectionCents)
		m.logger.Warn("ask rejected", "price", price)
	case resp.Message == "Insufficient funds":
		m.Open.InsufficientBTC = true
		m.Open.Ask = nil
		m.logger.Warn("insufficient BTC")
	default:
		return fmt.Errorf("post ask: %w: %+v", ErrUnhandledResponse, resp)
	}
	return nil
}

func (m *Manager) maybeCancelBid(ctx context.Context, minAsk decimal.Decimal) error {
	if m.Open.Bid == nil {
		return nil
	}
	threshold := minAsk.Sub(m.Spreads.BidAdjustmentSpread()).Round(2)
	if m.Open.Bid.Price.LessThan(threshold) {
		return m.cancel(ctx, Bid)
	}
	return nil
}

func (m *Manager) maybeCancelAsk(ctx context.Context, maxBid decimal.Decimal) error {
	if m.Open.Ask == nil {
		return nil
	}
	threshold := maxBid.Add(m.Spreads.AskAdjustmentSpread()).Round(2)
	if m.Open.Ask.Price.GreaterThan(threshold) {
		return m.cancel(ctx, Ask)
	}
	return nil
}

// side identifies which of the two resting orders is being cancelled.
type side int

const (
	Bid side = iota
	Ask
)

func (m *Manager) cancel(ctx context.Context, s side) error {
	var order *RestingOrder
	if s == Bid {
		order = m.Open.Bid
	} else {
		order = m.Open.Ask
	}
	if order == nil {
		return nil
	}

	resp, err := m.client.CancelOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("cancel %v: %w", s, err)
	}
	if resp.Message != "" && resp.Message != "order not found" && resp.Message != "Order already done" {
		return fmt.Errorf("cancel %v: %w: %s", s, ErrUnhandledResponse, resp.Message)
	}

	if s == Bid {
		m.Open.Bid = nil
		m.logger.Info("bid cancelled", "id", order.ID)
	} else {
		m.Open.Ask = nil
		m.logger.Info("ask cancelled", "id", order.ID)
	}
	return nil
}

// OnDone clears the managed slot when one of our own orders reaches a
// terminal "done" state, logging a fill and clearing the matching
// insufficient-funds flag per the feed synchronizer's dispatch contract.
func (m *Manager) OnDone(s side, orderID string, filled bool) {
	if s == Bid && m.Open.Bid != nil && m.Open.Bid.ID == orderID {
		price := m.Open.Bid.Price
		m.Open.Bid = nil
		m.Open.InsufficientBTC = false
		if filled {
			m.logger.Info("bid filled", "price", price)
		}
	}
	if s == Ask && m.Open.Ask != nil && m.Open.Ask.ID == orderID {
		price := m.Open.Ask.Price
		m.Open.Ask = nil
		m.Open.InsufficientUSD = false
		if filled {
			m.logger.Info("ask filled", "price", price)
		}
	}
}
