// Package orderbook implements the dual price-time-priority book: two
// sides, one mutex, four operations (Insert, Peek, Pop, IsEmpty), plus
// an id-indexed Cancel used by the matching engine's optional
// cancel-by-id path.
package orderbook

import (
	"sync"

	"github.com/cockroachdb/errors"

	"matchcore/domain"
)

// Book is the dual priority book: bids and asks, guarded by a single
// mutex per spec's lock-granularity mandate. The book has no identity
// beyond the process.
type Book struct {
	mu   sync.Mutex
	bids *bookSide
	asks *bookSide

	// byID indexes resting orders by id for cancel-by-id. A slice per
	// id tolerates spec's legal duplicate ids; cancel removes the
	// most recently rested match.
	byID map[uint64][]*domain.Order
}

// NewBook constructs an empty book.
func NewBook() *Book {
	return &Book{
		bids: newBookSide(true),
		asks: newBookSide(false),
		byID: make(map[uint64][]*domain.Order),
	}
}

func (b *Book) side(s domain.Side) *bookSide {
	if s == domain.SideBuy {
		return b.bids
	}
	return b.asks
}

// Lock acquires the book's single mutex. Callers that need atomicity
// across several operations (a full crossing pass, stop-loss
// conversion-then-execution, FOK feasibility-then-execution) must call
// Lock once and use the Locked variants below, rather than the
// auto-locking convenience methods.
func (b *Book) Lock() { b.mu.Lock() }

// Unlock releases the book's single mutex.
func (b *Book) Unlock() { b.mu.Unlock() }

// InsertLocked adds a resting order to side, assuming the caller
// already holds the book lock.
func (b *Book) InsertLocked(s domain.Side, o *domain.Order) {
	b.side(s).insert(o)
	b.byID[o.ID] = append(b.byID[o.ID], o)
}

// ReinsertLocked re-adds a popped-and-mutated order without refreshing
// its timestamp, assuming the caller already holds the book lock.
func (b *Book) ReinsertLocked(s domain.Side, o *domain.Order) {
	b.side(s).reinsert(o)
	b.byID[o.ID] = append(b.byID[o.ID], o)
}

// PeekLocked returns the best (price, time) resting order on side
// without removing it, or nil if side is empty.
func (b *Book) PeekLocked(s domain.Side) *domain.Order {
	return b.side(s).peek()
}

// PopLocked removes and returns the best (price, time) resting order
// on side, or nil if side is empty. The popped order is also dropped
// from byID; ReinsertLocked adds it back if it returns to the book.
func (b *Book) PopLocked(s domain.Side) *domain.Order {
	o := b.side(s).pop()
	if o != nil {
		b.forgetID(s, o)
	}
	return o
}

// IsEmptyLocked reports whether side has no resting orders.
func (b *Book) IsEmptyLocked(s domain.Side) bool {
	return b.side(s).isEmpty()
}

// BestPriceLocked returns the best resting price on side and whether
// side is non-empty, used by stop-loss conversion (spec §4.4) to
// inspect the opposite side's top under the same critical section
// used to execute the converted order.
func (b *Book) BestPriceLocked(s domain.Side) (float64, bool) {
	return b.side(s).bestPrice()
}

// AggregateLiquidityLocked sums resting volume on side in best-price
// order until it reaches want or the next level is unacceptable,
// without mutating the book. Used by FOK feasibility (spec §4.5),
// which must observe the same locked snapshot as the crossing it
// gates.
func (b *Book) AggregateLiquidityLocked(s domain.Side, want uint64, acceptable func(levelPrice float64) bool) uint64 {
	return b.side(s).aggregateLiquidity(want, acceptable)
}

// CancelByIDLocked removes one resting order matching id from side,
// if present, and forgets its byID entry. It is a no-op for unknown
// ids — spec leaves cancel-by-id optional and requires no book
// mutation either way for an id that was never resting.
func (b *Book) CancelByIDLocked(s domain.Side, id uint64) (*domain.Order, bool) {
	matches := b.byID[id]
	for i := len(matches) - 1; i >= 0; i-- {
		o := matches[i]
		if o.Side != s {
			continue
		}
		b.side(s).removeOrder(o)
		b.byID[id] = append(matches[:i], matches[i+1:]...)
		if len(b.byID[id]) == 0 {
			delete(b.byID, id)
		}
		return o, true
	}
	return nil, false
}

func (b *Book) forgetID(s domain.Side, o *domain.Order) {
	matches := b.byID[o.ID]
	for i, m := range matches {
		if m == o {
			b.byID[o.ID] = append(matches[:i], matches[i+1:]...)
			break
		}
	}
	if len(b.byID[o.ID]) == 0 {
		delete(b.byID, o.ID)
	}
}

// Insert, Peek, Pop, and IsEmpty are the auto-locking convenience
// forms of the spec's four book operations, for callers (tests,
// standalone inspection) that do not need multi-step atomicity.

func (b *Book) Insert(s domain.Side, o *domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.InsertLocked(s, o)
}

func (b *Book) Peek(s domain.Side) *domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.PeekLocked(s)
}

func (b *Book) Pop(s domain.Side) *domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.PopLocked(s)
}

func (b *Book) IsEmpty(s domain.Side) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.IsEmptyLocked(s)
}

// CheckInvariantsLocked is a programming-fault assertion used by
// tests and, optionally, by callers wanting to sanity-check book
// state after a crossing pass. A violation here is the "book
// invariant violation" fault class spec §7 treats as a programming
// fault rather than a reportable order outcome.
func (b *Book) CheckInvariantsLocked() error {
	for _, s := range []domain.Side{domain.SideBuy, domain.SideSell} {
		side := b.side(s)
		it := side.tree.Iterator()
		var prevPrice float64
		first := true
		for it.Next() {
			level := it.Value()
			for e := level.Orders.Front(); e != nil; e = e.Next() {
				o := e.Value.(*domain.Order)
				if o.RemainingQuantity == 0 || o.RemainingQuantity > o.Quantity {
					return errors.AssertionFailedf("resting order %d has invalid remaining quantity %d/%d", o.ID, o.RemainingQuantity, o.Quantity)
				}
				if !o.Status.IsResting() {
					return errors.AssertionFailedf("resting order %d has non-resting status %v", o.ID, o.Status)
				}
			}
			if !first && level.Price == prevPrice {
				return errors.AssertionFailedf("duplicate price level %v on side %v", level.Price, s)
			}
			prevPrice = level.Price
			first = false
		}
	}
	return nil
}
