package boundary

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"matchcore/matching"
	"matchcore/orderbook"
)

func TestServerRoundTripsAnOrderToAConfirmation(t *testing.T) {
	book := orderbook.NewBook()
	engine := matching.NewEngine(book)
	pipeline := matching.NewPipeline(engine, matching.NewConfig(matching.WithWorkers(1)))
	pipeline.Start()

	logger := zap.NewNop()
	server, err := Listen("127.0.0.1:0", pipeline, logger)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go server.Run()

	client, err := Dial(server.Addr().String(), logger)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	received := make(chan WireConfirmation, 1)
	go client.ReceiveConfirmations(func(c WireConfirmation) {
		received <- c
	})

	if err := client.SendOrder(WireOrder{OrderID: 1, Type: "limit", Action: "buy", Price: 50, Quantity: 100}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case c := <-received:
		if c.OrderID != 1 || c.Status != "open" {
			t.Errorf("expected order 1 open, got %+v", c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for confirmation")
	}

	client.Close()
	server.Stop()
	pipeline.Stop()
}
