package orderbook

import (
	"container/list"
	"math"

	"matchcore/domain"
)

// priceTick is the quantization used for price-level map/tree keys.
// Crossing comparisons (P_b < ask.price) always use the order's exact
// float64 Price field; only bucketing into a FIFO queue for the
// price-time tie-break uses the quantized key. See DESIGN.md's
// "Price tie-break tolerance vs. tick quantization" entry.
const priceTick = 1e9

func priceKey(price float64) int64 {
	return int64(math.Round(price * priceTick))
}

// priceLevel is every resting order at one price, in FIFO (receive
// time) order.
type priceLevel struct {
	Price  float64
	Orders *list.List // FIFO of *domain.Order
	Volume uint64
}

func newPriceLevel(price float64) *priceLevel {
	return &priceLevel{Price: price, Orders: list.New()}
}

func (l *priceLevel) push(o *domain.Order) {
	elem := l.Orders.PushBack(o)
	o.SetRestingElement(elem)
	l.Volume += o.RemainingQuantity
}

// pushFront re-inserts a popped-and-mutated order ahead of every
// order already in this level, without refreshing its timestamp. The
// order being re-inserted was popped from the front (the
// earliest-timestamped order in the level), so every order left in
// the list has a later timestamp; putting it back at the front keeps
// it highest-priority at this price, matching the reference
// implementation's re-push-to-top behavior.
func (l *priceLevel) pushFront(o *domain.Order) {
	elem := l.Orders.PushFront(o)
	o.SetRestingElement(elem)
	l.Volume += o.RemainingQuantity
}

func (l *priceLevel) front() *domain.Order {
	e := l.Orders.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*domain.Order)
}

// popFront removes and returns the earliest-timestamped order.
func (l *priceLevel) popFront() *domain.Order {
	e := l.Orders.Front()
	if e == nil {
		return nil
	}
	o := e.Value.(*domain.Order)
	l.Orders.Remove(e)
	o.SetRestingElement(nil)
	l.Volume -= o.RemainingQuantity
	return o
}

// removeElement removes a specific order via its stored list element,
// used by cancel-by-id for O(1) removal of a resting order that is
// not necessarily at the front of its level.
func (l *priceLevel) removeElement(o *domain.Order) {
	elem, ok := o.RestingElement().(*list.Element)
	if !ok || elem == nil {
		return
	}
	l.Orders.Remove(elem)
	o.SetRestingElement(nil)
	l.Volume -= o.RemainingQuantity
}

func (l *priceLevel) isEmpty() bool { return l.Orders.Len() == 0 }
