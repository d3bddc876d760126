package orderbook

import (
	"testing"

	"matchcore/domain"
)

func restingOrder(id uint64, side domain.Side, price float64, qty uint64, recv int64) *domain.Order {
	o := domain.AcquireOrder()
	o.ID = id
	o.Side = side
	o.Discipline = domain.DisciplineLimit
	o.Price = price
	o.Quantity = qty
	o.RemainingQuantity = qty
	o.Status = domain.StatusOpen
	o.RecvTimestampNs = recv
	return o
}

func TestBookPricePriority(t *testing.T) {
	b := NewBook()
	b.Insert(domain.SideSell, restingOrder(1, domain.SideSell, 51, 100, 1))
	b.Insert(domain.SideSell, restingOrder(2, domain.SideSell, 50, 100, 2)) // best
	b.Insert(domain.SideSell, restingOrder(3, domain.SideSell, 52, 100, 3))

	if top := b.Peek(domain.SideSell); top == nil || top.Price != 50 {
		t.Fatalf("expected best ask 50, got %v", top)
	}

	b.Insert(domain.SideBuy, restingOrder(4, domain.SideBuy, 49, 100, 1))
	b.Insert(domain.SideBuy, restingOrder(5, domain.SideBuy, 50, 100, 2)) // best
	b.Insert(domain.SideBuy, restingOrder(6, domain.SideBuy, 48, 100, 3))

	if top := b.Peek(domain.SideBuy); top == nil || top.Price != 50 {
		t.Fatalf("expected best bid 50, got %v", top)
	}
}

func TestBookFIFOTieBreak(t *testing.T) {
	b := NewBook()
	b.Insert(domain.SideSell, restingOrder(1, domain.SideSell, 50, 50, 10))
	b.Insert(domain.SideSell, restingOrder(2, domain.SideSell, 50, 50, 20))
	b.Insert(domain.SideSell, restingOrder(3, domain.SideSell, 50, 50, 30))

	first := b.Pop(domain.SideSell)
	if first.ID != 1 {
		t.Errorf("expected id 1 (earliest) first, got %d", first.ID)
	}
	second := b.Pop(domain.SideSell)
	if second.ID != 2 {
		t.Errorf("expected id 2 second, got %d", second.ID)
	}
}

func TestBookReinsertKeepsFrontPriority(t *testing.T) {
	b := NewBook()
	// Two orders at the same price, o1 earlier than o2.
	o1 := restingOrder(1, domain.SideSell, 50, 100, 10)
	o2 := restingOrder(2, domain.SideSell, 50, 100, 20)
	b.Insert(domain.SideSell, o1)
	b.Insert(domain.SideSell, o2)

	// Simulate a partial cross against o1: pop it, decrement, and
	// re-insert via ReinsertLocked, which the matching engine uses for
	// every partially-filled passive order.
	popped := b.Pop(domain.SideSell)
	if popped.ID != 1 {
		t.Fatalf("expected o1 to be at the front, got %d", popped.ID)
	}
	popped.RemainingQuantity = 40
	popped.Status = domain.StatusPartiallyFilled
	b.Lock()
	b.ReinsertLocked(domain.SideSell, popped)
	b.Unlock()

	// o1, still the earliest arrival at this price, must remain ahead
	// of o2 despite having been popped and re-inserted.
	front := b.Peek(domain.SideSell)
	if front.ID != 1 {
		t.Errorf("expected re-inserted o1 to keep front priority over o2, got %d", front.ID)
	}
}

func TestBookCancelByID(t *testing.T) {
	b := NewBook()
	o := restingOrder(7, domain.SideBuy, 50, 100, 1)
	b.Insert(domain.SideBuy, o)

	b.Lock()
	got, ok := b.CancelByIDLocked(domain.SideBuy, 7)
	b.Unlock()
	if !ok || got.ID != 7 {
		t.Fatalf("expected to cancel order 7, ok=%v got=%v", ok, got)
	}
	if !b.IsEmpty(domain.SideBuy) {
		t.Errorf("expected bids empty after cancelling the only resting order")
	}
}

func TestBookCancelUnknownIDIsNoOp(t *testing.T) {
	b := NewBook()
	b.Insert(domain.SideBuy, restingOrder(1, domain.SideBuy, 50, 100, 1))

	b.Lock()
	_, ok := b.CancelByIDLocked(domain.SideBuy, 999)
	b.Unlock()
	if ok {
		t.Errorf("expected cancel of unknown id to report not found")
	}
	if b.IsEmpty(domain.SideBuy) {
		t.Errorf("expected book to be untouched by cancelling an unknown id")
	}
}

func TestBookAggregateLiquidity(t *testing.T) {
	b := NewBook()
	b.Insert(domain.SideSell, restingOrder(1, domain.SideSell, 50, 10, 1))
	b.Insert(domain.SideSell, restingOrder(2, domain.SideSell, 51, 20, 2))
	b.Insert(domain.SideSell, restingOrder(3, domain.SideSell, 60, 1000, 3))

	b.Lock()
	total := b.AggregateLiquidityLocked(domain.SideSell, 25, func(levelPrice float64) bool {
		return levelPrice <= 51 // aggressor's limit price
	})
	b.Unlock()

	if total != 30 {
		t.Errorf("expected aggregate liquidity 30 (stops before the 60 level), got %d", total)
	}
}

func TestBookInvariantsHoldAfterInserts(t *testing.T) {
	b := NewBook()
	b.Insert(domain.SideBuy, restingOrder(1, domain.SideBuy, 50, 100, 1))
	b.Insert(domain.SideSell, restingOrder(2, domain.SideSell, 51, 100, 2))

	b.Lock()
	err := b.CheckInvariantsLocked()
	b.Unlock()
	if err != nil {
		t.Errorf("expected no invariant violation, got %v", err)
	}
}
