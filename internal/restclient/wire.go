package restclient

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// wireSnapshot mirrors the raw JSON shape of the level-3 snapshot response,
// where each book entry is a 3-element [price, size, order_id] array of
// strings.
type wireSnapshot struct {
	Sequence int64      `json:"sequence"`
	Bids     [][3]string `json:"bids"`
	Asks     [][3]string `json:"asks"`
}

func (r *SnapshotResponse) UnmarshalJSON(data []byte) error {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	bids, err := decodeLevels(w.Bids)
	if err != nil {
		return fmt.Errorf("decode bids: %w", err)
	}
	asks, err := decodeLevels(w.Asks)
	if err != nil {
		return fmt.Errorf("decode asks: %w", err)
	}
	r.Sequence = w.Sequence
	r.Bids = bids
	r.Asks = asks
	return nil
}

func decodeLevels(raw [][3]string) ([]SnapshotLevel, error) {
	out := make([]SnapshotLevel, len(raw))
	for i, entry := range raw {
		price, err := decimal.NewFromString(entry[0])
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", entry[0], err)
		}
		size, err := decimal.NewFromString(entry[1])
		if err != nil {
			return nil, fmt.Errorf("size %q: %w", entry[1], err)
		}
		out[i] = SnapshotLevel{Price: price, Size: size, OrderID: entry[2]}
	}
	return out, nil
}

// wireOrderResponse mirrors the raw POST /orders response.
type wireOrderResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r *OrderResponse) UnmarshalJSON(data []byte) error {
	var w wireOrderResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.ID, r.Status, r.Message = w.ID, w.Status, w.Message
	return nil
}

type wireOpenOrder struct {
	ID    string `json:"id"`
	Side  string `json:"side"`
	Price string `json:"price"`
}

func decodeOpenOrders(data []byte) ([]OpenOrder, error) {
	var wires []wireOpenOrder
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, err
	}
	out := make([]OpenOrder, len(wires))
	for i, w := range wires {
		price, err := decimal.NewFromString(w.Price)
		if err != nil {
			return nil, fmt.Errorf("open order price %q: %w", w.Price, err)
		}
		out[i] = OpenOrder{ID: w.ID, Side: w.Side, Price: price}
	}
	return out, nil
}
