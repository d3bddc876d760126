package domain

import "github.com/google/uuid"

// Fill records one crossed trade produced while processing a single
// aggressor order. It never leaves the matching engine: there is no
// persistence or market-data fan-out for individual trades, only the
// aggregate filled_quantity/average_price a Confirmation carries. The
// correlation id identifies the individual trade, the same role the
// teacher's domain.Trade.ID played, stripped of the buyer/seller/user
// bookkeeping this core has no accounts to attach to; nothing in the
// engine, its logs or its confirmations reads it.
type Fill struct {
	ID       uuid.UUID
	Price    float64
	Quantity uint64
}

// NewFill builds a fill for a single crossed trade.
func NewFill(price float64, quantity uint64) Fill {
	return Fill{ID: uuid.New(), Price: price, Quantity: quantity}
}

// WeightedAverage computes the quantity-weighted average price across
// a set of fills, 0 if there are none.
func WeightedAverage(fills []Fill) float64 {
	if len(fills) == 0 {
		return 0
	}
	var sumPriceQty float64
	var sumQty uint64
	for _, f := range fills {
		sumPriceQty += f.Price * float64(f.Quantity)
		sumQty += f.Quantity
	}
	if sumQty == 0 {
		return 0
	}
	return sumPriceQty / float64(sumQty)
}

// TotalQuantity sums the traded quantity across a set of fills, 0 if
// there are none. This is the authoritative filled quantity for a
// single processing pass — unlike Order.Quantity-Order.RemainingQuantity,
// it stays correct even when a discipline (e.g. ioc) zeroes
// RemainingQuantity after crossing to represent a cancelled remainder.
func TotalQuantity(fills []Fill) uint64 {
	var sumQty uint64
	for _, f := range fills {
		sumQty += f.Quantity
	}
	return sumQty
}
