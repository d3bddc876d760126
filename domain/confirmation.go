package domain

// Confirmation is the record the core emits for every order that
// reaches the end of a processing pass, addressed back to the
// originating return token.
type Confirmation struct {
	OrderID           uint64
	Status            Status
	FilledQuantity    uint64
	RemainingQuantity uint64
	AveragePrice      float64
	ReturnToken       []byte
}

// BuildConfirmation assembles the confirmation for an order that has
// finished one processing pass. filledQuantity is the quantity
// actually traded during that pass (e.g. TotalQuantity(fills)), kept
// as an explicit argument rather than derived from
// Quantity-RemainingQuantity so that a discipline which zeroes
// RemainingQuantity to represent a cancelled remainder (ioc) does not
// corrupt the reported fill. avgPrice is the quantity-weighted
// average across the same fills (0 if none occurred), per spec's
// richer average-price extension.
func BuildConfirmation(o *Order, filledQuantity uint64, avgPrice float64) Confirmation {
	return Confirmation{
		OrderID:           o.ID,
		Status:            o.Status,
		FilledQuantity:    filledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		AveragePrice:      avgPrice,
		ReturnToken:       o.ReturnToken,
	}
}
