package boundary

import "testing"

func TestWireOrderRoundTrip(t *testing.T) {
	want := WireOrder{OrderID: 7, Type: "stop-loss", Action: "buy", Quantity: 10, Price: 50, StopPrice: 51}

	encoded, err := encodeWireOrder(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeWireOrder(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Errorf("expected round-trip %+v, got %+v", want, got)
	}
}

func TestWireConfirmationRoundTrip(t *testing.T) {
	want := WireConfirmation{OrderID: 7, Status: "executed", FilledQuantity: 10, RemainingQuantity: 0, AveragePrice: 50.5}

	encoded, err := encodeWireConfirmation(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeWireConfirmation(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Errorf("expected round-trip %+v, got %+v", want, got)
	}
}
