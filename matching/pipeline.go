package matching

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"matchcore/domain"
)

// DefaultWorkers is the pipeline's default match-worker count (spec
// §5's "N match workers (default 4)").
const DefaultWorkers = 4

// Config configures a Pipeline. The zero value is not usable; build
// one with NewConfig and the With* options.
type Config struct {
	Workers       int
	IngestBuffer  int
	ConfirmBuffer int
	Logger        *zap.Logger
	OnSample      func(Snapshot)
}

// Option mutates a Config in NewConfig. There is deliberately no
// environment-variable or file-based configuration surface: the CLI
// takes only positional <ip> <port> arguments (spec §6), so every
// pipeline knob is set in-process by whoever constructs it.
type Option func(*Config)

// WithWorkers overrides the match-worker count.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithBuffers overrides the ingest and confirmation queue capacities.
func WithBuffers(ingest, confirm int) Option {
	return func(c *Config) { c.IngestBuffer, c.ConfirmBuffer = ingest, confirm }
}

// WithLogger overrides the zap logger used for lifecycle and
// throughput logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithSampleHook registers a callback invoked with each 1s telemetry
// snapshot, e.g. to feed the observability package's Prometheus
// bridge, without coupling the pipeline itself to Prometheus.
func WithSampleHook(fn func(Snapshot)) Option {
	return func(c *Config) { c.OnSample = fn }
}

// NewConfig builds a Config with spec-mandated defaults, then applies
// opts.
func NewConfig(opts ...Option) Config {
	c := Config{
		Workers:       DefaultWorkers,
		IngestBuffer:  4096,
		ConfirmBuffer: 4096,
		Logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Pipeline wires the bounded ingest queue, N match workers, the
// bounded confirmation queue, and the telemetry logger described in
// spec §5. Ingest and Confirmations are the two boundary-facing
// channels: an external receiver pushes onto Ingest, an external
// sender drains Confirmations.
type Pipeline struct {
	cfg       Config
	engine    *Engine
	telemetry *Telemetry
	log       *zap.SugaredLogger

	Ingest        chan *domain.Order
	Confirmations chan domain.Confirmation

	running int32
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewPipeline constructs a pipeline over engine, unstarted.
func NewPipeline(engine *Engine, cfg Config) *Pipeline {
	return &Pipeline{
		cfg:           cfg,
		engine:        engine,
		telemetry:     NewTelemetry(),
		log:           cfg.Logger.Sugar(),
		Ingest:        make(chan *domain.Order, cfg.IngestBuffer),
		Confirmations: make(chan domain.Confirmation, cfg.ConfirmBuffer),
		done:          make(chan struct{}),
	}
}

// Telemetry exposes the pipeline's counters, e.g. for the
// observability bridge or tests.
func (p *Pipeline) Telemetry() *Telemetry { return p.telemetry }

// Start launches the match workers and the throughput logger. Safe to
// call once; a second call is a programming fault.
func (p *Pipeline) Start() {
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		panic("matching: pipeline already started")
	}

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		NewThroughputLogger(p.telemetry, p.log, p.cfg.OnSample).Run(p.done)
	}()
}

// workerLoop is one match worker: pop an order, process it, publish
// its confirmation, sample latency. It exits when Ingest is closed and
// drained — the "queue close() operation causes pop to return a
// terminal marker" shutdown strategy spec §5 names, expressed here as
// Go's own closed-channel receive semantics.
//
// recvAt is captured before Process, and whether o may still be
// touched comes only from Process's own return value, never from
// reading o afterward: once a resting order is inserted into the
// book, a concurrent worker sharing this engine can pop, fully fill,
// and Release it before this call even returns, so any field read on
// o past that point (including RecvTimestampNs or RestingElement) can
// observe a zeroed or already-recycled object.
func (p *Pipeline) workerLoop(id int) {
	defer p.wg.Done()

	for o := range p.Ingest {
		recvAt := o.RecvTimestampNs
		confirmation, resting := p.engine.Process(o)

		if !resting {
			o.Release()
		}

		p.telemetry.RecordLatency(uint64(time.Now().UnixNano() - recvAt))

		if err := p.publish(confirmation); err != nil {
			p.log.Errorw("dropping confirmation on shutdown", "order_id", confirmation.OrderID, "error", err)
		}
	}
}

// publish enqueues a confirmation, translating a push against a
// closed confirmation queue into a resource-failure error rather than
// a panic. Confirmations is only closed after every worker has
// exited (see Stop), so this recovers a programming fault, not a
// normal shutdown race. Per spec §7, a resource failure is propagated
// to the worker loop, not surfaced as a confirmation.
func (p *Pipeline) publish(c domain.Confirmation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("matching: publish to closed confirmation queue: %v", r)
		}
	}()
	p.Confirmations <- c
	return nil
}

// Submit enqueues an order for matching. It is the boundary's only
// entry point into the pipeline. Submit blocks if the ingest queue is
// full, providing the backpressure spec §5 allows for a bounded queue.
// Once Stop has run, Submit returns an error instead of enqueuing; a
// send that races the close of Ingest is recovered into the same error.
func (p *Pipeline) Submit(o *domain.Order) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("matching: pipeline is shutting down")
		}
	}()
	select {
	case p.Ingest <- o:
		return nil
	case <-p.done:
		return errors.New("matching: pipeline is shutting down")
	}
}

// Stop signals shutdown, closes the ingest queue so blocked workers
// unblock, and joins every worker and the telemetry logger before
// returning. Stop does not close Confirmations until every worker has
// exited, so a draining confirmation consumer sees every confirmation
// produced from an order accepted before shutdown.
func (p *Pipeline) Stop() {
	if !atomic.CompareAndSwapInt32(&p.running, 1, 2) {
		return
	}
	close(p.done)
	close(p.Ingest)
	p.wg.Wait()
	close(p.Confirmations)
}
