package boundary

import (
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"matchcore/domain"
	"matchcore/matching"
)

const maxDatagramSize = 2048

// Server is the demonstration UDP boundary: a receiver goroutine that
// parses inbound datagrams into ingest records and submits them to a
// matching.Pipeline, and a sender goroutine that drains confirmations
// back to their originating address. Translated from the reference
// implementation's serverReceiverThread/confirmationSenderThread pair.
type Server struct {
	conn     *net.UDPConn
	pipeline *matching.Pipeline
	log      *zap.SugaredLogger

	done chan struct{}
	wg   sync.WaitGroup
}

// Listen binds a UDP socket at addr and returns a Server wired to
// pipeline. It does not start receiving until Run is called.
func Listen(addr string, pipeline *matching.Pipeline, log *zap.Logger) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "boundary: resolve %q", addr)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "boundary: bind %q", addr)
	}
	return &Server{
		conn:     conn,
		pipeline: pipeline,
		log:      log.Sugar(),
		done:     make(chan struct{}),
	}, nil
}

// Addr returns the socket's bound local address.
func (s *Server) Addr() net.Addr { return s.conn.LocalAddr() }

// Run starts the receiver and confirmation-sender goroutines and
// blocks until Stop is called and both have joined.
func (s *Server) Run() {
	s.wg.Add(2)
	go func() { defer s.wg.Done(); s.receiveLoop() }()
	go func() { defer s.wg.Done(); s.sendLoop() }()
	s.wg.Wait()
}

// receiveLoop parses inbound datagrams and submits them to the
// pipeline, stamping each with a receive timestamp and a return
// token that encodes the sender's address for the confirmation to be
// routed back to.
func (s *Server) receiveLoop() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, remote, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.log.Warnw("read failed", "error", err)
				continue
			}
		}

		wire, err := decodeWireOrder(buf[:n])
		if err != nil {
			s.log.Warnw("malformed order datagram, dropping", "error", err, "from", remote)
			continue
		}

		rec := domain.IngestRecord{
			OrderID:     wire.OrderID,
			Discipline:  wire.Type,
			Side:        wire.Action,
			Price:       wire.Price,
			Quantity:    wire.Quantity,
			HasStop:     wire.Type == "stop-loss",
			StopPrice:   wire.StopPrice,
			ReturnToken: []byte(remote.String()),
		}
		order := domain.NewOrderFromIngest(rec, time.Now().UnixNano())

		if err := s.pipeline.Submit(order); err != nil {
			s.log.Warnw("dropping order, pipeline is shutting down", "order_id", order.ID)
			order.Release()
		}
	}
}

// sendLoop drains confirmations and writes each back to the address
// encoded in its return token.
func (s *Server) sendLoop() {
	for c := range s.pipeline.Confirmations {
		remote, err := net.ResolveUDPAddr("udp", string(c.ReturnToken))
		if err != nil {
			s.log.Warnw("confirmation has unresolvable return token, dropping", "order_id", c.OrderID, "error", err)
			continue
		}

		wire := WireConfirmation{
			OrderID:           c.OrderID,
			Status:            c.Status.String(),
			FilledQuantity:    c.FilledQuantity,
			RemainingQuantity: c.RemainingQuantity,
			AveragePrice:      c.AveragePrice,
		}
		msg, err := encodeWireConfirmation(wire)
		if err != nil {
			s.log.Errorw("failed to encode confirmation", "order_id", c.OrderID, "error", err)
			continue
		}

		if _, err := s.conn.WriteToUDP(msg, remote); err != nil {
			s.log.Warnw("failed to send confirmation", "order_id", c.OrderID, "error", err)
		}
	}
}

// Stop closes the socket, which unblocks the receiver's blocking
// read, and signals Run to return. The caller is responsible for
// stopping the pipeline (which closes Confirmations and unblocks
// sendLoop) before or after calling Stop.
func (s *Server) Stop() {
	close(s.done)
	s.conn.Close()
}
