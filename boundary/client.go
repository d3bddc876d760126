package boundary

import (
	"math/rand"
	"net"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// disciplines mirrors the reference client's buildRandomOrder type
// list: all six disciplines, each chosen with equal probability.
var disciplines = []string{"market", "limit", "cancel", "stop-loss", "ioc", "fok"}

// Client is the demonstration UDP client: it sends order datagrams to
// a server and reports confirmations as they arrive. Translated from
// the reference implementation's runClient/clientConfirmationReceiverThread.
type Client struct {
	conn   *net.UDPConn
	server *net.UDPAddr
	log    *zap.SugaredLogger

	done chan struct{}
}

// Dial opens a UDP socket for talking to server at addr.
func Dial(addr string, log *zap.Logger) (*Client, error) {
	server, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "boundary: resolve %q", addr)
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, errors.Wrap(err, "boundary: open client socket")
	}
	return &Client{conn: conn, server: server, log: log.Sugar(), done: make(chan struct{})}, nil
}

// SendOrder encodes and sends one order to the server.
func (c *Client) SendOrder(o WireOrder) error {
	msg, err := encodeWireOrder(o)
	if err != nil {
		return errors.Wrap(err, "boundary: encode order")
	}
	if _, err := c.conn.WriteToUDP(msg, c.server); err != nil {
		return errors.Wrap(err, "boundary: send order")
	}
	return nil
}

// RandomOrder builds a randomized order the way the reference
// client's buildRandomOrder does: a uniformly chosen discipline, a
// buy/sell side, a price in [10, 100), a quantity in [1, 500], and a
// stop price equal to the limit price when the discipline is
// stop-loss.
func RandomOrder(rng *rand.Rand, orderID uint64) WireOrder {
	o := WireOrder{
		OrderID:  orderID,
		Type:     disciplines[rng.Intn(len(disciplines))],
		Price:    10 + rng.Float64()*90,
		Quantity: uint64(1 + rng.Intn(500)),
	}
	if rng.Intn(2) == 0 {
		o.Action = "buy"
	} else {
		o.Action = "sell"
	}
	if o.Type == "stop-loss" {
		o.StopPrice = o.Price
	}
	return o
}

// ReceiveConfirmations blocks, invoking onConfirmation for each
// datagram received, until Close is called.
func (c *Client) ReceiveConfirmations(onConfirmation func(WireConfirmation)) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
				c.log.Warnw("read failed", "error", err)
				continue
			}
		}
		wire, err := decodeWireConfirmation(buf[:n])
		if err != nil {
			c.log.Warnw("malformed confirmation datagram, dropping", "error", err)
			continue
		}
		onConfirmation(wire)
	}
}

// Close closes the client socket, unblocking ReceiveConfirmations.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}
