// Package domain holds the value types shared by the order book, the
// matching engine, and the pipeline: the order record, its discipline
// and status enums, and the confirmation emitted for every processed
// order.
package domain

import "sync"

// Side is the side of the book an order belongs to.
type Side int

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide maps the boundary's wire string onto a Side. An
// unrecognized string maps to SideUnknown, which the matching engine
// rejects rather than erroring — per spec, input rejection is a
// confirmation status, not a Go error.
func ParseSide(s string) Side {
	switch s {
	case "buy":
		return SideBuy
	case "sell":
		return SideSell
	default:
		return SideUnknown
	}
}

// Discipline is the order type: one of the six the engine dispatches
// on, or DisciplineUnknown for anything else.
type Discipline int

const (
	DisciplineUnknown Discipline = iota
	DisciplineMarket
	DisciplineLimit
	DisciplineCancel
	DisciplineStopLoss
	DisciplineIOC
	DisciplineFOK
)

func (d Discipline) String() string {
	switch d {
	case DisciplineMarket:
		return "market"
	case DisciplineLimit:
		return "limit"
	case DisciplineCancel:
		return "cancel"
	case DisciplineStopLoss:
		return "stop-loss"
	case DisciplineIOC:
		return "ioc"
	case DisciplineFOK:
		return "fok"
	default:
		return "unknown"
	}
}

// ParseDiscipline maps the boundary's wire string onto a Discipline.
func ParseDiscipline(s string) Discipline {
	switch s {
	case "market":
		return DisciplineMarket
	case "limit":
		return DisciplineLimit
	case "cancel":
		return DisciplineCancel
	case "stop-loss":
		return DisciplineStopLoss
	case "ioc":
		return DisciplineIOC
	case "fok":
		return DisciplineFOK
	default:
		return DisciplineUnknown
	}
}

// Status is the terminal or resting state of an order after one
// processing pass.
type Status int

const (
	StatusNew Status = iota
	StatusOpen
	StatusExecuted
	StatusPartiallyFilled
	StatusCancelled
	StatusRejected
	StatusIOCNoFill
	StatusFOKNoFill
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusExecuted:
		return "executed"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusCancelled:
		return "cancelled"
	case StatusRejected:
		return "rejected"
	case StatusIOCNoFill:
		return "ioc_no_fill"
	case StatusFOKNoFill:
		return "fok_no_fill"
	default:
		return "new"
	}
}

// IsResting reports whether a status is one a resting order on the
// book may carry (spec invariant: resting orders are open or
// partially_filled, never any terminal status).
func (s Status) IsResting() bool {
	return s == StatusOpen || s == StatusPartiallyFilled
}

// Order is the mutable-state order record. Identity (ID, Discipline,
// Side, Price, StopPrice, Quantity, ReturnToken) is fixed at ingest,
// except that stop-loss conversion rewrites Discipline (and, when it
// converts to limit, Price); RemainingQuantity and Status mutate as
// the engine processes and, for resting limit orders, re-processes it
// against later aggressors.
//
// Hot fields used on every tick of the crossing loop (Price, Quantity,
// RemainingQuantity, Side, Discipline, Status) are grouped first,
// mirroring the cache-line layout the teacher's domain.Order used for
// the same reason.
type Order struct {
	ID                uint64
	Price             float64
	StopPrice         float64
	Quantity          uint64
	RemainingQuantity uint64
	Side              Side
	Discipline        Discipline
	Status            Status

	RecvTimestampNs int64
	ReturnToken     []byte

	// restingElement is set by orderbook.Book while the order rests on
	// a book side, and nil otherwise. It is orderbook's own
	// *list.Element, stored as interface{} so domain has no import
	// cycle back to orderbook — the same indirection the teacher's
	// Order.ListElement used for O(1) list removal.
	restingElement interface{}
}

var orderPool = sync.Pool{
	New: func() any { return &Order{} },
}

// AcquireOrder returns a pooled, zeroed Order. Core callers populate
// it and release it back with Order.Release once its confirmation has
// been built and it is no longer resting on the book.
func AcquireOrder() *Order {
	return orderPool.Get().(*Order)
}

// Release resets and returns the order to the pool. Callers must not
// use the order after calling Release.
func (o *Order) Release() {
	*o = Order{}
	orderPool.Put(o)
}

// SetRestingElement stores the order book's internal list element for
// this order while it rests on a book side.
func (o *Order) SetRestingElement(e interface{}) { o.restingElement = e }

// RestingElement returns the order book's internal list element, or
// nil if the order is not currently resting.
func (o *Order) RestingElement() interface{} { return o.restingElement }

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool { return o.RemainingQuantity == 0 }

// FilledQuantity returns original minus remaining.
func (o *Order) FilledQuantity() uint64 { return o.Quantity - o.RemainingQuantity }
