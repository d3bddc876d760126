package matching

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Telemetry holds the four monotonic counters spec §4.7 mandates:
// orders processed, total latency, and a CAS-updated min/max latency,
// all in nanoseconds. Every field is updated lock-free by whichever
// worker just finished an order; none of the four are guaranteed
// mutually consistent at any instant a reader samples them.
type Telemetry struct {
	ordersProcessed uint64
	totalLatencyNs  uint64
	minLatencyNs    uint64
	maxLatencyNs    uint64
}

// NewTelemetry returns a Telemetry with minLatencyNs primed to
// max-uint64 so the first sample always wins the CAS race.
func NewTelemetry() *Telemetry {
	return &Telemetry{minLatencyNs: ^uint64(0)}
}

// RecordLatency folds one order's processing latency into all four
// counters. Called once per order, after Engine.Process returns.
func (t *Telemetry) RecordLatency(latencyNs uint64) {
	atomic.AddUint64(&t.ordersProcessed, 1)
	atomic.AddUint64(&t.totalLatencyNs, latencyNs)
	casMin(&t.minLatencyNs, latencyNs)
	casMax(&t.maxLatencyNs, latencyNs)
}

func casMin(addr *uint64, v uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if v >= cur || atomic.CompareAndSwapUint64(addr, cur, v) {
			return
		}
	}
}

func casMax(addr *uint64, v uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if v <= cur || atomic.CompareAndSwapUint64(addr, cur, v) {
			return
		}
	}
}

// Snapshot is a consistent-enough-to-report point-in-time read of the
// four counters, used by the throughput logger and the Prometheus
// bridge.
type Snapshot struct {
	OrdersProcessed uint64
	TotalLatencyNs  uint64
	MinLatencyNs    uint64
	MaxLatencyNs    uint64
}

func (t *Telemetry) Snapshot() Snapshot {
	return Snapshot{
		OrdersProcessed: atomic.LoadUint64(&t.ordersProcessed),
		TotalLatencyNs:  atomic.LoadUint64(&t.totalLatencyNs),
		MinLatencyNs:    atomic.LoadUint64(&t.minLatencyNs),
		MaxLatencyNs:    atomic.LoadUint64(&t.maxLatencyNs),
	}
}

// ThroughputLogger samples Telemetry once a second and logs
// orders/sec and microsecond-converted latencies, mirroring the
// reference server's throughputLoggerThread. It runs until the done
// channel passed to Run is closed.
type ThroughputLogger struct {
	telemetry *Telemetry
	log       *zap.SugaredLogger
	onSample  func(Snapshot)
}

// NewThroughputLogger builds a logger over telemetry. onSample, if
// non-nil, is invoked with each 1s snapshot — used to feed the
// optional Prometheus bridge without coupling telemetry to it.
func NewThroughputLogger(telemetry *Telemetry, log *zap.SugaredLogger, onSample func(Snapshot)) *ThroughputLogger {
	return &ThroughputLogger{telemetry: telemetry, log: log, onSample: onSample}
}

// Run blocks, sampling once a second, until done is closed.
func (l *ThroughputLogger) Run(done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prev := l.telemetry.Snapshot()
	prevTime := time.Now()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			cur := l.telemetry.Snapshot()
			elapsed := now.Sub(prevTime).Seconds()

			var tps float64
			if elapsed > 0 {
				tps = float64(cur.OrdersProcessed-prev.OrdersProcessed) / elapsed
			}

			var avgLatUs float64
			if cur.OrdersProcessed > 0 {
				avgLatUs = float64(cur.TotalLatencyNs) / 1000.0 / float64(cur.OrdersProcessed)
			}
			minLatUs := float64(cur.MinLatencyNs) / 1000.0
			if cur.OrdersProcessed == 0 {
				minLatUs = 0
			}
			maxLatUs := float64(cur.MaxLatencyNs) / 1000.0

			l.log.Infow("throughput",
				"orders_per_sec", tps,
				"avg_latency_us", avgLatUs,
				"min_latency_us", minLatUs,
				"max_latency_us", maxLatUs,
				"orders_processed", cur.OrdersProcessed,
			)

			if l.onSample != nil {
				l.onSample(cur)
			}

			prev = cur
			prevTime = now
		}
	}
}
