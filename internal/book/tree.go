package book

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// ErrEmptyTree is returned by Best when a side has no resting orders.
var ErrEmptyTree = errors.New("price tree is empty")

// PriceTree is one side (bids or asks) of the order book: a sorted map from
// price to PriceLevel, plus a flat id→price index so that match/change/
// remove operations that only carry an order id can look up their price in
// O(1) and then their level in O(log P), without scanning every price.
//
// Both bid and ask trees are built so that Min() on the underlying btree
// always returns the best (most aggressive) price for that side — bids
// compare by descending price, asks by ascending price.
type PriceTree struct {
	levels     *btree.BTreeG[*PriceLevel]
	orderPrice map[string]decimal.Decimal
	bids       bool
}

func newPriceTree(bids bool) *PriceTree {
	var less func(a, b *PriceLevel) bool
	if bids {
		less = func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	} else {
		less = func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }
	}
	return &PriceTree{
		levels:     btree.NewBTreeG(less),
		orderPrice: make(map[string]decimal.Decimal),
		bids:       bids,
	}
}

func (t *PriceTree) levelAt(price decimal.Decimal) (*PriceLevel, bool) {
	return t.levels.Get(&PriceLevel{Price: price})
}

// InsertOrder appends the order to the tail of its price level, creating
// the level if it doesn't already exist. initial is accepted only as a
// hook for snapshot-load counters/validation; it has no effect on state.
func (t *PriceTree) InsertOrder(o *Order, initial bool) {
	level, ok := t.levelAt(o.Price)
	if !ok {
		level = newPriceLevel(o.Price)
		t.levels.Set(level)
	}
	level.append(o)
	t.orderPrice[o.ID] = o.Price
}

// Receive acknowledges a "received" event. It intentionally never mutates
// book state — resting depth only changes on open/match/change/done.
func (t *PriceTree) Receive(id string, size decimal.Decimal) {}

// Match subtracts size from the remaining size of the resting order at
// makerID. The order is never removed here, even if its size reaches zero;
// removal is the exclusive job of a subsequent done/RemoveOrder call.
func (t *PriceTree) Match(makerID string, size decimal.Decimal) error {
	price, ok := t.orderPrice[makerID]
	if !ok {
		return &ErrOrderNotFound{ID: makerID}
	}
	level, ok := t.levelAt(price)
	if !ok {
		return &ErrOrderNotFound{ID: makerID}
	}
	order, ok := level.get(makerID)
	if !ok {
		return &ErrOrderNotFound{ID: makerID}
	}
	order.Size = order.Size.Sub(size)
	return nil
}

// Change replaces an order's remaining size in place, preserving its
// time-priority position within the level.
func (t *PriceTree) Change(id string, newSize decimal.Decimal) error {
	price, ok := t.orderPrice[id]
	if !ok {
		return &ErrOrderNotFound{ID: id}
	}
	level, ok := t.levelAt(price)
	if !ok {
		return &ErrOrderNotFound{ID: id}
	}
	order, ok := level.get(id)
	if !ok {
		return &ErrOrderNotFound{ID: id}
	}
	order.Size = newSize
	return nil
}

// RemoveOrder deletes the order with the given id. If its level becomes
// empty as a result, the level itself is deleted from the tree.
func (t *PriceTree) RemoveOrder(id string) error {
	price, ok := t.orderPrice[id]
	if !ok {
		return &ErrOrderNotFound{ID: id}
	}
	level, ok := t.levelAt(price)
	if !ok {
		return &ErrOrderNotFound{ID: id}
	}
	level.remove(id)
	delete(t.orderPrice, id)
	if level.empty() {
		t.levels.Delete(level)
	}
	return nil
}

// Best returns the top-of-book level for this side: the level holding the
// highest price for bids, or the lowest price for asks.
func (t *PriceTree) Best() (*PriceLevel, error) {
	level, ok := t.levels.Min()
	if !ok {
		return nil, ErrEmptyTree
	}
	return level, nil
}

// BestPrice is a convenience wrapper around Best returning just the price.
func (t *PriceTree) BestPrice() (decimal.Decimal, error) {
	level, err := t.Best()
	if err != nil {
		return decimal.Zero, err
	}
	return level.Price, nil
}

// Len reports how many distinct price levels this side currently holds.
func (t *PriceTree) Len() int { return t.levels.Len() }
