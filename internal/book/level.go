package book

import (
	"container/list"
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceLevel holds every order resting at a single price, in time priority
// (oldest first). Orders live in a doubly linked list so that match/change/
// remove — each keyed only by order id — are O(1): the id index maps
// straight to the list element to splice out, with no slice shift and no
// reindexing of the orders that follow it.
type PriceLevel struct {
	Price  decimal.Decimal
	orders *list.List
	index  map[string]*list.Element
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		orders: list.New(),
		index:  make(map[string]*list.Element),
	}
}

func (l *PriceLevel) append(o *Order) {
	l.index[o.ID] = l.orders.PushBack(o)
}

func (l *PriceLevel) get(id string) (*Order, bool) {
	el, ok := l.index[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*Order), true
}

// remove deletes the order at id in O(1), preserving the relative order of
// the orders that remain. Returns false if id was not present in this level.
func (l *PriceLevel) remove(id string) bool {
	el, ok := l.index[id]
	if !ok {
		return false
	}
	l.orders.Remove(el)
	delete(l.index, id)
	return true
}

func (l *PriceLevel) empty() bool { return l.orders.Len() == 0 }

// Orders returns the level's resting orders in time priority (oldest
// first). It's an O(level size) snapshot for inspection/testing; the hot
// mutation paths (append/get/remove) never walk the list.
func (l *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, l.orders.Len())
	for e := l.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Order))
	}
	return out
}

// ErrOrderNotFound is returned when an operation names an order id that is
// not resting anywhere in the book.
type ErrOrderNotFound struct {
	ID string
}

func (e *ErrOrderNotFound) Error() string {
	return fmt.Sprintf("order not found: %s", e.ID)
}
