package domain

// IngestRecord is what the external boundary hands the core: an
// already-parsed order, not yet stamped with a receive time. The
// core — not the boundary — owns recv-timestamping and remaining-
// quantity initialization, per spec's ingest contract.
type IngestRecord struct {
	OrderID     uint64
	Discipline  string
	Side        string
	Price       float64
	Quantity    uint64
	HasStop     bool
	StopPrice   float64
	ReturnToken []byte
}

// NewOrderFromIngest stamps recvTimestampNs and initializes
// RemainingQuantity = Quantity on a pooled Order built from rec.
// Discipline/Side strings the boundary couldn't parse come through as
// DisciplineUnknown/SideUnknown, which the matching engine rejects.
func NewOrderFromIngest(rec IngestRecord, recvTimestampNs int64) *Order {
	o := AcquireOrder()
	o.ID = rec.OrderID
	o.Discipline = ParseDiscipline(rec.Discipline)
	o.Side = ParseSide(rec.Side)
	o.Price = rec.Price
	o.Quantity = rec.Quantity
	o.RemainingQuantity = rec.Quantity
	o.Status = StatusNew
	o.RecvTimestampNs = recvTimestampNs
	o.ReturnToken = rec.ReturnToken
	if rec.HasStop {
		o.StopPrice = rec.StopPrice
	}
	return o
}
