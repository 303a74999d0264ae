// Package quote maintains at most one resting bid and one resting ask and
// decides when to cancel and repost them as the book moves.
package quote

import "github.com/shopspring/decimal"

// RestingOrder is the bot's own order currently on the book.
type RestingOrder struct {
	ID    string
	Price decimal.Decimal
}

// OpenOrders is the quote manager's view of its own resting orders and the
// feedback it has accumulated from the exchange.
type OpenOrders struct {
	Bid *RestingOrder
	Ask *RestingOrder

	InsufficientUSD bool
	InsufficientBTC bool

	BidRejectionBias decimal.Decimal
	AskRejectionBias decimal.Decimal
}

// NewOpenOrders returns an empty tracking state.
func NewOpenOrders() *OpenOrders {
	return &OpenOrders{
		BidRejectionBias: decimal.Zero,
		AskRejectionBias: decimal.Zero,
	}
}

// Spreads holds the per-cycle randomized spread and the wider hysteresis
// band at which a resting quote is cancelled.
type Spreads struct {
	BidSpread decimal.Decimal
	AskSpread decimal.Decimal
}

// hysteresis is added to the placement spread to get the cancellation
// threshold, an 8-cent band between posting and withdrawing a quote.
var hysteresis = decimal.NewFromFloat(0.08)

// BidAdjustmentSpread is the cancellation threshold for the resting bid.
func (s Spreads) BidAdjustmentSpread() decimal.Decimal { return s.BidSpread.Add(hysteresis) }

// AskAdjustmentSpread is the cancellation threshold for the resting ask.
func (s Spreads) AskAdjustmentSpread() decimal.Decimal { return s.AskSpread.Add(hysteresis) }
