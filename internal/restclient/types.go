package restclient

import "github.com/shopspring/decimal"

// SnapshotLevel is one [price, size, order_id] entry from the level-3 book
// snapshot. The exchange encodes price and size as strings to avoid
// floating-point precision loss over the wire.
type SnapshotLevel struct {
	Price   decimal.Decimal
	Size    decimal.Decimal
	OrderID string
}

// SnapshotResponse is the decoded level-3 REST snapshot.
type SnapshotResponse struct {
	Sequence int64
	Bids     []SnapshotLevel
	Asks     []SnapshotLevel
}

// OrderRequest is a post-only limit order to place.
type OrderRequest struct {
	Size      decimal.Decimal `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Side      string          `json:"side"`
	ProductID string          `json:"product_id"`
	PostOnly  bool            `json:"post_only"`
}

// OrderResponse is the exchange's reply to a POST /orders call.
type OrderResponse struct {
	ID      string
	Status  string
	Message string
}

// CancelResponse is the exchange's reply to a DELETE /orders{,/{id}} call.
type CancelResponse struct {
	Message string
}

// OpenOrder is one currently-resting order as reported by GET /orders.
type OpenOrder struct {
	ID    string
	Side  string
	Price decimal.Decimal
}
