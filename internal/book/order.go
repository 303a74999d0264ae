// Package book implements the price-level tree and order book that mirror
// a single instrument's level-3 depth from a per-order exchange feed.
package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies which side of the book an order or match rests on.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Order is a single resting order, identified by an opaque exchange id.
type Order struct {
	ID    string
	Price decimal.Decimal
	Size  decimal.Decimal
	Side  Side
}

// MatchRecord is one completed trade, as reported by the feed.
type MatchRecord struct {
	Time  time.Time
	Side  Side
	Size  decimal.Decimal
	Price decimal.Decimal
}

// RejectionCents is the price adjustment applied for every post-only
// rejection, exactly 4 cents.
var RejectionCents = decimal.NewFromFloat(0.04)
