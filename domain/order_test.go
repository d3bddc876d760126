package domain

import "testing"

func TestParseSide(t *testing.T) {
	if ParseSide("buy") != SideBuy {
		t.Errorf("expected SideBuy")
	}
	if ParseSide("sell") != SideSell {
		t.Errorf("expected SideSell")
	}
	if ParseSide("short") != SideUnknown {
		t.Errorf("expected SideUnknown for unrecognized side")
	}
}

func TestParseDiscipline(t *testing.T) {
	cases := map[string]Discipline{
		"market":    DisciplineMarket,
		"limit":     DisciplineLimit,
		"cancel":    DisciplineCancel,
		"stop-loss": DisciplineStopLoss,
		"ioc":       DisciplineIOC,
		"fok":       DisciplineFOK,
		"bogus":     DisciplineUnknown,
	}
	for in, want := range cases {
		if got := ParseDiscipline(in); got != want {
			t.Errorf("ParseDiscipline(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewOrderFromIngest(t *testing.T) {
	rec := IngestRecord{
		OrderID:    1,
		Discipline: "limit",
		Side:       "buy",
		Price:      50,
		Quantity:   100,
	}
	o := NewOrderFromIngest(rec, 12345)
	defer o.Release()

	if o.RemainingQuantity != o.Quantity {
		t.Errorf("expected remaining == quantity at ingest, got %d != %d", o.RemainingQuantity, o.Quantity)
	}
	if o.RecvTimestampNs != 12345 {
		t.Errorf("expected recv timestamp to be stamped")
	}
	if o.Status != StatusNew {
		t.Errorf("expected status new at ingest, got %v", o.Status)
	}
}

func TestOrderFilledQuantity(t *testing.T) {
	o := AcquireOrder()
	defer o.Release()
	o.Quantity = 100
	o.RemainingQuantity = 40

	if got := o.FilledQuantity(); got != 60 {
		t.Errorf("expected filled quantity 60, got %d", got)
	}
	if o.IsFilled() {
		t.Errorf("expected order not fully filled")
	}
	o.RemainingQuantity = 0
	if !o.IsFilled() {
		t.Errorf("expected order fully filled")
	}
}

func TestStatusIsResting(t *testing.T) {
	resting := []Status{StatusOpen, StatusPartiallyFilled}
	terminal := []Status{StatusExecuted, StatusCancelled, StatusRejected, StatusIOCNoFill, StatusFOKNoFill}

	for _, s := range resting {
		if !s.IsResting() {
			t.Errorf("expected %v to be a resting status", s)
		}
	}
	for _, s := range terminal {
		if s.IsResting() {
			t.Errorf("expected %v to be a terminal status", s)
		}
	}
}

func TestWeightedAverage(t *testing.T) {
	fills := []Fill{
		NewFill(50, 10),
		NewFill(51, 30),
	}
	got := WeightedAverage(fills)
	want := (50.0*10 + 51.0*30) / 40.0
	if got != want {
		t.Errorf("expected weighted average %v, got %v", want, got)
	}
	if WeightedAverage(nil) != 0 {
		t.Errorf("expected weighted average of no fills to be 0")
	}
}
