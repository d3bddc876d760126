package matching

import (
	"math/rand"
	"testing"

	"matchcore/domain"
	"matchcore/orderbook"
)

// TestPropertyFilledPlusRemainingEqualsOriginal is invariant 1: for
// every processed order, filled + remaining == original. ioc is the
// one discipline where an unfilled remainder is discarded rather than
// left resting or handed back whole (scenario S5: confirmation
// remaining is always 0, even on a total no-fill), so for ioc the
// check is filled <= original with remaining forced to 0, and for
// every other discipline the strict sum holds.
func TestPropertyFilledPlusRemainingEqualsOriginal(t *testing.T) {
	book := orderbook.NewBook()
	e := NewEngine(book)
	rng := rand.New(rand.NewSource(1))

	for i := uint64(1); i <= 2000; i++ {
		o := randomOrder(rng, i)
		discipline := o.Discipline
		original := o.Quantity
		c, resting := e.Process(o)

		if discipline == domain.DisciplineIOC {
			if c.RemainingQuantity != 0 {
				t.Fatalf("order %d: ioc confirmation remaining should always be 0, got %d", i, c.RemainingQuantity)
			}
			if c.FilledQuantity > original {
				t.Fatalf("order %d: ioc filled(%d) exceeds original(%d)", i, c.FilledQuantity, original)
			}
		} else if c.FilledQuantity+c.RemainingQuantity != original {
			t.Fatalf("order %d: filled(%d)+remaining(%d) != original(%d)", i, c.FilledQuantity, c.RemainingQuantity, original)
		}

		if !resting {
			o.Release()
		}
	}
}

// TestPropertyRestingOrdersAreWellFormed is invariant 2.
func TestPropertyRestingOrdersAreWellFormed(t *testing.T) {
	book := orderbook.NewBook()
	e := NewEngine(book)
	rng := rand.New(rand.NewSource(2))

	for i := uint64(1); i <= 2000; i++ {
		o := randomOrder(rng, i)
		_, resting := e.Process(o)
		if !resting {
			o.Release()
		}
	}

	book.Lock()
	err := book.CheckInvariantsLocked()
	book.Unlock()
	if err != nil {
		t.Fatalf("resting-order invariant violated: %v", err)
	}
}

// TestPropertyBookOrdering is invariant 3: best-price-first, FIFO
// within a price on both sides.
func TestPropertyBookOrdering(t *testing.T) {
	book := orderbook.NewBook()

	book.Insert(domain.SideBuy, restingOrderFor(1, domain.SideBuy, 50, 10))
	book.Insert(domain.SideBuy, restingOrderFor(2, domain.SideBuy, 52, 10))
	book.Insert(domain.SideBuy, restingOrderFor(3, domain.SideBuy, 51, 10))

	top := book.Pop(domain.SideBuy)
	if top.Price != 52 {
		t.Fatalf("expected highest bid price first, got %v", top.Price)
	}

	book.Insert(domain.SideSell, restingOrderFor(4, domain.SideSell, 51, 10))
	book.Insert(domain.SideSell, restingOrderFor(5, domain.SideSell, 49, 10))
	book.Insert(domain.SideSell, restingOrderFor(6, domain.SideSell, 50, 10))

	topAsk := book.Pop(domain.SideSell)
	if topAsk.Price != 49 {
		t.Fatalf("expected lowest ask price first, got %v", topAsk.Price)
	}
}

// TestPropertyConservation is invariant 4: aggregate remaining
// quantity across both sides only decreases by the traded amount per
// cross, or increases by a newly-rested order's own remainder.
func TestPropertyConservation(t *testing.T) {
	book := orderbook.NewBook()
	e := NewEngine(book)

	sumBefore := func() uint64 {
		var total uint64
		book.Lock()
		defer book.Unlock()
		for _, s := range []domain.Side{domain.SideBuy, domain.SideSell} {
			for !book.IsEmptyLocked(s) {
				o := book.PopLocked(s)
				total += o.RemainingQuantity
			}
		}
		return total
	}

	book.Insert(domain.SideSell, restingOrderFor(1, domain.SideSell, 50, 100))
	before := sumBefore()
	if before != 100 {
		t.Fatalf("setup: expected 100 resting, got %d", before)
	}

	book.Insert(domain.SideSell, restingOrderFor(1, domain.SideSell, 50, 100))
	buy := newOrder(2, domain.DisciplineLimit, domain.SideBuy, 50, 40)
	e.Process(buy)

	after := sumBefore()
	if after != 60 {
		t.Fatalf("expected 60 remaining after a 40-unit trade against 100, got %d", after)
	}
}

// TestPropertyTelemetryBounds is invariant 5.
func TestPropertyTelemetryBounds(t *testing.T) {
	book := orderbook.NewBook()
	e := NewEngine(book)
	tel := NewTelemetry()
	rng := rand.New(rand.NewSource(3))

	for i := uint64(1); i <= 500; i++ {
		o := randomOrder(rng, i)
		o.RecvTimestampNs = 0
		_, resting := e.Process(o)
		tel.RecordLatency(uint64(i)) // deterministic synthetic latency
		if !resting {
			o.Release()
		}
	}

	snap := tel.Snapshot()
	if snap.OrdersProcessed != 500 {
		t.Fatalf("expected 500 orders processed, got %d", snap.OrdersProcessed)
	}
	avg := snap.TotalLatencyNs / snap.OrdersProcessed
	if snap.MinLatencyNs > avg || avg > snap.MaxLatencyNs {
		t.Fatalf("expected min(%d) <= avg(%d) <= max(%d)", snap.MinLatencyNs, avg, snap.MaxLatencyNs)
	}
}

// TestPropertyCancelNeverMutatesBook is invariant 6.
func TestPropertyCancelNeverMutatesBook(t *testing.T) {
	book := orderbook.NewBook()
	e := NewEngine(book)

	book.Insert(domain.SideBuy, restingOrderFor(1, domain.SideBuy, 50, 100))
	before := book.Peek(domain.SideBuy)
	beforeQty := before.RemainingQuantity

	e.Process(newOrder(999, domain.DisciplineCancel, domain.SideBuy, 0, 0))

	after := book.Peek(domain.SideBuy)
	if after.ID != 1 || after.RemainingQuantity != beforeQty {
		t.Fatalf("expected cancel of an unrelated id to never mutate the book")
	}
}

func randomOrder(rng *rand.Rand, id uint64) *domain.Order {
	disciplines := []domain.Discipline{
		domain.DisciplineMarket, domain.DisciplineLimit, domain.DisciplineIOC, domain.DisciplineFOK,
	}
	sides := []domain.Side{domain.SideBuy, domain.SideSell}

	o := domain.AcquireOrder()
	o.ID = id
	o.Discipline = disciplines[rng.Intn(len(disciplines))]
	o.Side = sides[rng.Intn(len(sides))]
	o.Price = float64(45 + rng.Intn(10))
	o.Quantity = uint64(1 + rng.Intn(50))
	o.RemainingQuantity = o.Quantity
	o.Status = domain.StatusNew
	o.RecvTimestampNs = int64(id)
	return o
}
