package progress

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/winlinvip/go-writev/internal/logging"
)

// Rate is an average transfer rate. Defined is false when the measured
// interval was shorter than the measuring granularity, in which case the rate
// is reported as instantaneous rather than divided by zero.
type Rate struct {
	BytesPerSecond float64
	Defined        bool
}

// Mbps returns the rate in megabits per second.
func (r Rate) Mbps() float64 {
	return r.BytesPerSecond * 8 / 1000 / 1000
}

func (r Rate) String() string {
	if !r.Defined {
		return "instantaneous"
	}
	return fmt.Sprintf("%.2f MB/s", r.BytesPerSecond/1024/1024)
}

// Bandwidth divides bytes by the whole seconds in elapsed.
func Bandwidth(bytes int64, elapsed time.Duration) Rate {
	seconds := int64(elapsed / time.Second)
	if seconds <= 0 {
		return Rate{}
	}
	return Rate{BytesPerSecond: float64(bytes) / float64(seconds), Defined: true}
}

// Report summarizes one receive loop.
type Report struct {
	Bytes   int64
	Elapsed time.Duration
	Seconds int64
	Rate    Rate
}

// NewReport computes the report for bytes received between start and end.
func NewReport(bytes int64, start, end time.Time) Report {
	elapsed := end.Sub(start)
	return Report{
		Bytes:   bytes,
		Elapsed: elapsed,
		Seconds: int64(elapsed / time.Second),
		Rate:    Bandwidth(bytes, elapsed),
	}
}

// recentPauses is how many of the latest GC pauses a trace carries.
const recentPauses = 3

// GCSnapshot is the collector activity seen at one trace point.
type GCSnapshot struct {
	NumGC  int64
	Pauses []time.Duration // most recent first
}

// ReadGC reads the process GC statistics, keeping only the latest pauses.
func ReadGC() GCSnapshot {
	var stats debug.GCStats
	debug.ReadGCStats(&stats)

	pauses := stats.Pause
	if len(pauses) > recentPauses {
		pauses = pauses[:recentPauses]
	}
	return GCSnapshot{
		NumGC:  stats.NumGC,
		Pauses: append([]time.Duration(nil), pauses...),
	}
}

// sample is one periodic throughput measurement.
type sample struct {
	bytes   int64 // since the previous sample
	total   int64
	elapsed time.Duration
	mbps    float64
	gc      GCSnapshot
}

// Meter accumulates transferred bytes and emits a throughput sample each time
// the interval has passed. It is driven by the transfer loop itself, so it
// needs no goroutine or locking.
type Meter struct {
	label    string
	interval time.Duration
	now      func() time.Time
	readGC   func() GCSnapshot

	total    int64
	previous int64
	sampled  time.Time
}

// NewMeter creates a meter that samples at most once per interval.
func NewMeter(label string, interval time.Duration, now func() time.Time) *Meter {
	if now == nil {
		now = time.Now
	}
	return &Meter{
		label:    label,
		interval: interval,
		now:      now,
		readGC:   ReadGC,
		sampled:  now(),
	}
}

// Add records n transferred bytes. When the interval has elapsed it logs the
// throughput since the last sample together with the GC count and the latest
// pauses.
func (m *Meter) Add(n int) {
	m.add(n)
}

func (m *Meter) add(n int) (sample, bool) {
	m.total += int64(n)

	now := m.now()
	elapsed := now.Sub(m.sampled)
	if elapsed < m.interval {
		return sample{}, false
	}

	diff := m.total - m.previous
	s := sample{
		bytes:   diff,
		total:   m.total,
		elapsed: elapsed,
	}
	if ms := elapsed.Milliseconds(); ms > 0 {
		s.mbps = float64(diff) * 8 / float64(ms) / 1000
	}

	if diff > 0 {
		s.gc = m.readGC()
		logging.LogThroughput(m.label, s.mbps, s.total, s.gc.NumGC, s.gc.Pauses)
	}

	m.previous = m.total
	m.sampled = now
	return s, true
}

// Total returns all bytes recorded so far.
func (m *Meter) Total() int64 {
	return m.total
}
