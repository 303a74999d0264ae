package book

import (
	"time"

	"github.com/shopspring/decimal"
)

const matchHistoryCapacity = 100

// OrderBook owns the two price-level trees and the sequence-number state
// that anchors the feed synchronizer's replay/live transition.
type OrderBook struct {
	Bids *PriceTree
	Asks *PriceTree

	matches    []MatchRecord // ring buffer, oldest overwritten first
	matchHead  int
	matchCount int

	SnapshotSequence     int64
	FirstLiveSequence    int64
	LastAppliedSequence  int64
	LastEventTime        time.Time
}

// New creates an empty order book.
func New() *OrderBook {
	return &OrderBook{
		Bids:    newPriceTree(true),
		Asks:    newPriceTree(false),
		matches: make([]MatchRecord, matchHistoryCapacity),
	}
}

func (b *OrderBook) treeFor(side Side) *PriceTree {
	if side == Buy {
		return b.Bids
	}
	return b.Asks
}

// InsertOrder places a resting order on its side's tree.
func (b *OrderBook) InsertOrder(o *Order, initial bool) {
	b.treeFor(o.Side).InsertOrder(o, initial)
}

// Receive is a no-op kept for symmetry with the feed's "received" events.
func (b *OrderBook) Receive(side Side, id string, size decimal.Decimal) {
	b.treeFor(side).Receive(id, size)
}

// Match reduces the maker order's remaining size on the given side.
func (b *OrderBook) Match(side Side, makerID string, size decimal.Decimal) error {
	return b.treeFor(side).Match(makerID, size)
}

// Change replaces an order's remaining size in place.
func (b *OrderBook) Change(side Side, id string, newSize decimal.Decimal) error {
	return b.treeFor(side).Change(id, newSize)
}

// RemoveOrder deletes an order from its side's tree.
func (b *OrderBook) RemoveOrder(side Side, id string) error {
	return b.treeFor(side).RemoveOrder(id)
}

// MaxBid returns the current best bid price.
func (b *OrderBook) MaxBid() (decimal.Decimal, error) { return b.Bids.BestPrice() }

// MinAsk returns the current best ask price.
func (b *OrderBook) MinAsk() (decimal.Decimal, error) { return b.Asks.BestPrice() }

// ApplyMatchRecord pushes a completed trade onto the bounded match history,
// dropping the oldest entry once the ring is full.
func (b *OrderBook) ApplyMatchRecord(rec MatchRecord) {
	idx := (b.matchHead + b.matchCount) % matchHistoryCapacity
	b.matches[idx] = rec
	if b.matchCount < matchHistoryCapacity {
		b.matchCount++
	} else {
		b.matchHead = (b.matchHead + 1) % matchHistoryCapacity
	}
}

// RecentMatches returns the retained match history, most recent first.
func (b *OrderBook) RecentMatches() []MatchRecord {
	out := make([]MatchRecord, b.matchCount)
	for i := 0; i < b.matchCount; i++ {
		idx := (b.matchHead + b.matchCount - 1 - i) % matchHistoryCapacity
		out[i] = b.matches[idx]
	}
	return out
}
