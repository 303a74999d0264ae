package logx

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coinbase-mm/internal/book"
	"coinbase-mm/internal/quote"
)

// Status is one rendered snapshot of the command-line status line:
// "Latency, Min ask, Max bid, Spread, Your ask, Your bid, Your spread".
type Status struct {
	Latency    time.Duration
	MinAsk     decimal.Decimal
	MaxBid     decimal.Decimal
	Spread     decimal.Decimal
	YourAsk    decimal.Decimal
	YourBid    decimal.Decimal
	YourSpread decimal.Decimal
}

// BuildStatus computes the status line fields from the current book and
// quote manager state. Resting-order fields are zero when no quote is
// posted on that side.
func BuildStatus(b *book.OrderBook, q *quote.Manager) (Status, error) {
	minAsk, err := b.MinAsk()
	if err != nil {
		return Status{}, err
	}
	maxBid, err := b.MaxBid()
	if err != nil {
		return Status{}, err
	}

	s := Status{
		Latency: time.Since(b.LastEventTime),
		MinAsk:  minAsk,
		MaxBid:  maxBid,
		Spread:  minAsk.Sub(maxBid),
	}
	if q.Open.Ask != nil {
		s.YourAsk = q.Open.Ask.Price
	}
	if q.Open.Bid != nil {
		s.YourBid = q.Open.Bid.Price
	}
	if q.Open.Ask != nil && q.Open.Bid != nil {
		s.YourSpread = s.YourAsk.Sub(s.YourBid)
	}
	return s, nil
}

// String renders the status line in the documented column order.
func (s Status) String() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		s.Latency, s.MinAsk, s.MaxBid, s.Spread, s.YourAsk, s.YourBid, s.YourSpread)
}
