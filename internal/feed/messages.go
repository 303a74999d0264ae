package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coinbase-mm/internal/book"
)

// rawMessage mirrors the wire shape of a single per-order feed event. Not
// every field is present on every message type; empty strings decode to
// zero values and are only read when the dispatch table calls for them.
type rawMessage struct {
	Sequence      json.Number `json:"sequence"`
	Type          string      `json:"type"`
	Time          string      `json:"time"`
	Side          string      `json:"side"`
	OrderID       string      `json:"order_id"`
	MakerOrderID  string      `json:"maker_order_id"`
	Size          string      `json:"size"`
	RemainingSize string      `json:"remaining_size"`
	Price         string      `json:"price"`
	NewSize       string      `json:"new_size"`
	Reason        string      `json:"reason"`
	OrderType     string      `json:"order_type"`
}

func sideFromWire(s string) (book.Side, error) {
	switch s {
	case "buy":
		return book.Buy, nil
	case "sell":
		return book.Sell, nil
	default:
		return 0, fmt.Errorf("unrecognized side %q", s)
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
