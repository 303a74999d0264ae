// Package feed implements the per-order feed synchronizer (C3): it
// reconciles a REST snapshot with a concurrently running websocket stream
// using sequence numbers, and dispatches each applied event into the order
// book and the quote manager.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"coinbase-mm/internal/book"
	"coinbase-mm/internal/quote"
)

// WarmupMessages is the minimum number of pre-snapshot messages buffered
// before fetching the REST snapshot, guaranteeing the buffer spans the
// snapshot's sequence number. 50 is a heuristic inherited from the source
// implementation, not a tight bound.
const WarmupMessages = 50

// Synchronizer applies per-order feed events to an order book in strict
// sequence order, per the three-phase contract: buffered replay against a
// loaded snapshot, then live application.
type Synchronizer struct {
	Book   *book.OrderBook
	Quotes *quote.Manager
	logger *slog.Logger
}

// New creates a synchronizer around an already-constructed book and quote
// manager (the book is expected to be freshly loaded from a snapshot before
// the first call to Apply).
func New(b *book.OrderBook, q *quote.Manager, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{Book: b, Quotes: q, logger: logger}
}

// Apply decodes and dispatches a single raw feed message. It returns nil
// for any message that was successfully processed, including ones
// discarded for being behind the snapshot seam — per the synchronizer
// contract, "discard and return success" is a successful application, not
// a no-op the caller should distinguish.
func (s *Synchronizer) Apply(raw []byte) error {
	var msg rawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	seq, err := msg.Sequence.Int64()
	if err != nil {
		return fmt.Errorf("%w: bad sequence %q", ErrDecodeFailure, msg.Sequence)
	}

	if seq <= s.Book.SnapshotSequence {
		return nil // behind the snapshot seam: discard, success
	}

	if s.Book.FirstLiveSequence == 0 {
		if seq != s.Book.SnapshotSequence+1 {
			return fmt.Errorf("%w: snapshot %d, first live %d", ErrSeamMismatch, s.Book.SnapshotSequence, seq)
		}
		s.Book.FirstLiveSequence = seq
	} else if seq != s.Book.LastAppliedSequence+1 {
		return fmt.Errorf("%w: want %d, got %d", ErrSequenceGap, s.Book.LastAppliedSequence+1, seq)
	}
	s.Book.LastAppliedSequence = seq
	s.Book.LastEventTime = parseTime(msg.Time)

	if msg.OrderType == "market" {
		return nil // counted for sequence purposes only; market orders never rest
	}

	return s.dispatch(msg)
}

func (s *Synchronizer) dispatch(msg rawMessage) error {
	switch msg.Type {
	case "received":
		side, err := sideFromWire(msg.Side)
		if err != nil {
			return fmt.Errorf("%w: received/%s", ErrUnknownEvent, msg.Side)
		}
		size, _ := parseDecimal(msg.Size)
		s.Book.Receive(side, msg.OrderID, size)
		return nil

	case "open":
		side, err := sideFromWire(msg.Side)
		if err != nil {
			return fmt.Errorf("%w: open/%s", ErrUnknownEvent, msg.Side)
		}
		size, err := parseDecimal(msg.RemainingSize)
		if err != nil {
			return fmt.Errorf("%w: remaining_size %q", ErrDecodeFailure, msg.RemainingSize)
		}
		price, err := parseDecimal(msg.Price)
		if err != nil {
			return fmt.Errorf("%w: price %q", ErrDecodeFailure, msg.Price)
		}
		s.Book.InsertOrder(&book.Order{ID: msg.OrderID, Price: price, Size: size, Side: side}, false)
		return nil

	case "match":
		// The message's own side field names the resting (maker) order's
		// side, not the taker's — see the match-side convention note.
		makerSide, err := sideFromWire(msg.Side)
		if err != nil {
			return fmt.Errorf("%w: match/%s", ErrUnknownEvent, msg.Side)
		}
		size, err := parseDecimal(msg.Size)
		if err != nil {
			return fmt.Errorf("%w: size %q", ErrDecodeFailure, msg.Size)
		}
		price, _ := parseDecimal(msg.Price)
		if err := s.Book.Match(makerSide, msg.MakerOrderID, size); err != nil {
			return fmt.Errorf("match %s: %w", msg.MakerOrderID, err)
		}
		s.Book.ApplyMatchRecord(book.MatchRecord{
			Time: s.Book.LastEventTime, Side: makerSide, Size: size, Price: price,
		})
		return nil

	case "done":
		side, err := sideFromWire(msg.Side)
		if err != nil {
			return fmt.Errorf("%w: done/%s", ErrUnknownEvent, msg.Side)
		}
		if err := s.Book.RemoveOrder(side, msg.OrderID); err != nil {
			var notFound *book.ErrOrderNotFound
			if !errors.As(err, &notFound) {
				return fmt.Errorf("remove %s: %w", msg.OrderID, err)
			}
			// done for an order that never rested (e.g. a market order's
			// own id) is expected and not an error.
		}
		qSide := quote.Bid
		if side == book.Sell {
			qSide = quote.Ask
		}
		s.Quotes.OnDone(qSide, msg.OrderID, msg.Reason == "filled")
		return nil

	case "change":
		side, err := sideFromWire(msg.Side)
		if err != nil {
			return fmt.Errorf("%w: change/%s", ErrUnknownEvent, msg.Side)
		}
		newSize, err := parseDecimal(msg.NewSize)
		if err != nil {
			return fmt.Errorf("%w: new_size %q", ErrDecodeFailure, msg.NewSize)
		}
		if err := s.Book.Change(side, msg.OrderID, newSize); err != nil {
			return fmt.Errorf("change %s: %w", msg.OrderID, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s/%s", ErrUnknownEvent, msg.Type, msg.Side)
	}
}
