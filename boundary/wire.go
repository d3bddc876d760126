// Package boundary is the external collaborator spec.md §1 explicitly
// keeps out of the core: the datagram listener and sender and the wire
// encoding between client and server. The interactive client menu
// lives in cmd/client.
// It exists only to demonstrate the core end to end; none of its
// decisions (JSON over UDP) constrain matching or orderbook.
package boundary

import "encoding/json"

// WireOrder is the JSON record exchanged on the wire, field names
// matching the reference implementation's json_utils.hpp encoding
// (order_id, type, action, quantity, price, stop_price).
type WireOrder struct {
	OrderID   uint64  `json:"order_id"`
	Type      string  `json:"type"`
	Action    string  `json:"action"`
	Quantity  uint64  `json:"quantity"`
	Price     float64 `json:"price"`
	StopPrice float64 `json:"stop_price,omitempty"`
}

// WireConfirmation is the JSON record sent back to a client.
type WireConfirmation struct {
	OrderID           uint64  `json:"order_id"`
	Status            string  `json:"status"`
	FilledQuantity    uint64  `json:"filled_quantity"`
	RemainingQuantity uint64  `json:"remaining_quantity"`
	AveragePrice      float64 `json:"average_price"`
}

func encodeWireOrder(o WireOrder) ([]byte, error) {
	return json.Marshal(o)
}

func decodeWireOrder(b []byte) (WireOrder, error) {
	var o WireOrder
	err := json.Unmarshal(b, &o)
	return o, err
}

func encodeWireConfirmation(c WireConfirmation) ([]byte, error) {
	return json.Marshal(c)
}

func decodeWireConfirmation(b []byte) (WireConfirmation, error) {
	var c WireConfirmation
	err := json.Unmarshal(b, &c)
	return c, err
}
