// Package matching implements the matching engine's per-discipline
// dispatch and crossing algorithm, the concurrent ingest-match-confirm
// pipeline, and the latency/throughput telemetry.
package matching

import (
	"math"

	"matchcore/domain"
	"matchcore/orderbook"
)

// Engine dispatches one order at a time against a single shared Book.
// It holds no other state: every pipeline worker may share one *Engine
// safely, since all mutation of shared state goes through Book's own
// mutex.
type Engine struct {
	book *orderbook.Book
}

// NewEngine builds an engine over book.
func NewEngine(book *orderbook.Book) *Engine {
	return &Engine{book: book}
}

// Process runs one order through the matching engine to completion —
// dispatch, crossing, optional resting — and returns its confirmation
// together with whether o is now resting on the book.
//
// The moment an order is inserted into the book (limit or converted
// stop-loss with a remainder), it becomes visible to every other
// worker sharing this engine: a concurrent Process call can pop,
// mutate, fully fill, and Release it back to the pool before this
// call even returns. So every process* path below builds its
// Confirmation, and decides the resting bool, itself while still
// holding the book lock — never after the lock that made o visible to
// other workers has been released. Process and its callers must never
// read o's fields after Process returns; the returned bool is the
// only safe signal of whether o is still theirs to touch (e.g. to
// Release it back to a pool).
func (e *Engine) Process(o *domain.Order) (domain.Confirmation, bool) {
	switch o.Discipline {
	case domain.DisciplineCancel:
		return e.processCancel(o)
	case domain.DisciplineStopLoss:
		return e.withValidSide(o, e.processStopLoss)
	case domain.DisciplineIOC:
		return e.withValidSide(o, e.processIOC)
	case domain.DisciplineFOK:
		return e.withValidSide(o, e.processFOK)
	case domain.DisciplineMarket, domain.DisciplineLimit:
		return e.withValidSide(o, e.processMarketOrLimit)
	default:
		o.Status = domain.StatusRejected
		return domain.BuildConfirmation(o, 0, 0), false
	}
}

// withValidSide rejects an order whose side failed to parse before
// running fn, so every discipline but cancel shares the same
// invalid-side rejection rule. o is still exclusively owned by the
// caller at this point (fn has not yet touched the book), so reading
// it here to reject is safe.
func (e *Engine) withValidSide(o *domain.Order, fn func(*domain.Order) (domain.Confirmation, bool)) (domain.Confirmation, bool) {
	if o.Side != domain.SideBuy && o.Side != domain.SideSell {
		o.Status = domain.StatusRejected
		return domain.BuildConfirmation(o, 0, 0), false
	}
	return fn(o)
}

// processCancel sets the order cancelled and, if the cancel-by-id
// index holds a matching resting order, removes it from the book.
// Confirmations for unknown ids are still cancelled, and the book is
// untouched for an id that was never resting. o itself (the cancel
// request) never enters the book, so it is never resting.
func (e *Engine) processCancel(o *domain.Order) (domain.Confirmation, bool) {
	if o.Side == domain.SideBuy || o.Side == domain.SideSell {
		e.book.Lock()
		e.book.CancelByIDLocked(o.Side, o.ID)
		e.book.Unlock()
	}
	o.Status = domain.StatusCancelled
	return domain.BuildConfirmation(o, 0, 0), false
}

// processStopLoss converts the order in place under the book lock,
// then falls through to the standard market/limit path within the
// same critical section, avoiding the TOCTOU window between
// inspecting the opposite side's top and executing against it.
func (e *Engine) processStopLoss(o *domain.Order) (domain.Confirmation, bool) {
	e.book.Lock()
	defer e.book.Unlock()
	e.convertStopLossLocked(o)
	return e.crossAndRestLocked(o)
}

func (e *Engine) convertStopLossLocked(o *domain.Order) {
	if o.Side == domain.SideBuy {
		bestAsk, ok := e.book.BestPriceLocked(domain.SideSell)
		if ok && bestAsk <= o.StopPrice {
			o.Discipline = domain.DisciplineMarket
			return
		}
	} else {
		bestBid, ok := e.book.BestPriceLocked(domain.SideBuy)
		if ok && bestBid >= o.StopPrice {
			o.Discipline = domain.DisciplineMarket
			return
		}
	}
	o.Discipline = domain.DisciplineLimit
	o.Price = o.StopPrice
}

// processMarketOrLimit is the standard path: cross under the book
// lock, then rest any limit remainder.
func (e *Engine) processMarketOrLimit(o *domain.Order) (domain.Confirmation, bool) {
	e.book.Lock()
	defer e.book.Unlock()
	return e.crossAndRestLocked(o)
}

// crossAndRestLocked runs the crossing algorithm, applies the
// post-crossing status mapping, and builds the confirmation — all
// while the book lock from the caller is still held, since inserting
// o into the book here is exactly the point at which it becomes
// visible to other workers. Assumes the book lock is held.
func (e *Engine) crossAndRestLocked(o *domain.Order) (domain.Confirmation, bool) {
	fills := e.cross(o)
	resting := false

	switch {
	case o.RemainingQuantity == 0:
		o.Status = domain.StatusExecuted
	case o.Discipline == domain.DisciplineLimit:
		e.book.InsertLocked(o.Side, o)
		resting = true
		if len(fills) > 0 {
			o.Status = domain.StatusPartiallyFilled
		} else {
			o.Status = domain.StatusOpen
		}
	default: // market, remainder > 0: never rests
		if len(fills) > 0 {
			o.Status = domain.StatusPartiallyFilled
		} else {
			o.Status = domain.StatusRejected
		}
	}

	confirmation := domain.BuildConfirmation(o, domain.TotalQuantity(fills), domain.WeightedAverage(fills))
	return confirmation, resting
}

// processIOC crosses under the book lock, then cancels any remainder.
// The original reference implementation zeroes remainingQuantity
// before checking whether anything filled, so that check was always
// false; this tracks the pre-crossing quantity and compares before
// zeroing, matching the fixed intended semantics. Zeroing
// RemainingQuantity here also means the confirmation must derive
// filled quantity from the fills themselves (domain.TotalQuantity),
// not from Quantity-RemainingQuantity. ioc never rests.
func (e *Engine) processIOC(o *domain.Order) (domain.Confirmation, bool) {
	e.book.Lock()
	defer e.book.Unlock()

	original := o.RemainingQuantity
	fills := e.cross(o)
	fullyFilled := o.RemainingQuantity == 0
	filledAny := o.RemainingQuantity < original
	o.RemainingQuantity = 0

	switch {
	case fullyFilled && filledAny:
		o.Status = domain.StatusExecuted
	case !filledAny:
		o.Status = domain.StatusIOCNoFill
	default:
		o.Status = domain.StatusPartiallyFilled
	}

	confirmation := domain.BuildConfirmation(o, domain.TotalQuantity(fills), domain.WeightedAverage(fills))
	return confirmation, false
}

// processFOK determines feasibility non-destructively, then either
// executes the full cross or leaves the book untouched, all within
// one lock acquisition. fok never rests: it either fully executes or
// bounces.
func (e *Engine) processFOK(o *domain.Order) (domain.Confirmation, bool) {
	e.book.Lock()
	defer e.book.Unlock()

	opposite := opposingSide(o.Side)
	available := e.book.AggregateLiquidityLocked(opposite, o.RemainingQuantity, fokAcceptable(o))

	if available < o.RemainingQuantity {
		o.RemainingQuantity = o.Quantity
		o.Status = domain.StatusFOKNoFill
		return domain.BuildConfirmation(o, 0, 0), false
	}

	fills := e.cross(o)
	o.Status = domain.StatusExecuted
	confirmation := domain.BuildConfirmation(o, domain.TotalQuantity(fills), domain.WeightedAverage(fills))
	return confirmation, false
}

func fokAcceptable(o *domain.Order) func(levelPrice float64) bool {
	if o.Side == domain.SideBuy {
		return func(levelPrice float64) bool { return levelPrice <= o.Price }
	}
	return func(levelPrice float64) bool { return levelPrice >= o.Price }
}

func opposingSide(s domain.Side) domain.Side {
	if s == domain.SideBuy {
		return domain.SideSell
	}
	return domain.SideBuy
}

// cross runs the crossing algorithm for o against the opposite side,
// assuming the book lock is held.
func (e *Engine) cross(o *domain.Order) []domain.Fill {
	if o.Side == domain.SideBuy {
		return e.crossBuy(o)
	}
	return e.crossSell(o)
}

// crossBuy walks the ask side in best-price, earliest-time order,
// trading against it until the aggressor is filled, the book runs dry,
// or the top ask is no longer acceptable at the aggressor's effective
// price.
func (e *Engine) crossBuy(o *domain.Order) []domain.Fill {
	var fills []domain.Fill
	effective := effectivePrice(o, math.Inf(1))

	for o.RemainingQuantity > 0 && !e.book.IsEmptyLocked(domain.SideSell) {
		topPrice, _ := e.book.BestPriceLocked(domain.SideSell)
		if effective < topPrice {
			break
		}

		passive := e.book.PopLocked(domain.SideSell)
		traded := minUint64(o.RemainingQuantity, passive.RemainingQuantity)
		tradePrice := passive.Price

		o.RemainingQuantity -= traded
		passive.RemainingQuantity -= traded

		if passive.RemainingQuantity == 0 {
			passive.Status = domain.StatusExecuted
			passive.Release()
		} else {
			passive.Status = domain.StatusPartiallyFilled
			e.book.ReinsertLocked(domain.SideSell, passive)
		}

		fills = append(fills, domain.NewFill(tradePrice, traded))
	}
	return fills
}

// crossSell is crossBuy's mirror image against the bid side.
func (e *Engine) crossSell(o *domain.Order) []domain.Fill {
	var fills []domain.Fill
	effective := effectivePrice(o, 0)

	for o.RemainingQuantity > 0 && !e.book.IsEmptyLocked(domain.SideBuy) {
		topPrice, _ := e.book.BestPriceLocked(domain.SideBuy)
		if topPrice < effective {
			break
		}

		passive := e.book.PopLocked(domain.SideBuy)
		traded := minUint64(o.RemainingQuantity, passive.RemainingQuantity)
		tradePrice := passive.Price

		o.RemainingQuantity -= traded
		passive.RemainingQuantity -= traded

		if passive.RemainingQuantity == 0 {
			passive.Status = domain.StatusExecuted
			passive.Release()
		} else {
			passive.Status = domain.StatusPartiallyFilled
			e.book.ReinsertLocked(domain.SideBuy, passive)
		}

		fills = append(fills, domain.NewFill(tradePrice, traded))
	}
	return fills
}

// effectivePrice returns marketEffective for a market order, or the
// order's own limit price otherwise.
func effectivePrice(o *domain.Order, marketEffective float64) float64 {
	if o.Discipline == domain.DisciplineMarket {
		return marketEffective
	}
	return o.Price
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
