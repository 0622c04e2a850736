package progress

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestBandwidth(t *testing.T) {
	tests := []struct {
		name    string
		bytes   int64
		elapsed time.Duration
		defined bool
		rate    float64
	}{
		{"whole seconds", 10360 * 100, 2 * time.Second, true, 10360 * 50},
		{"fraction truncated", 3000, 3*time.Second + 900*time.Millisecond, true, 1000},
		{"under a second", 10360, 999 * time.Millisecond, false, 0},
		{"zero", 0, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Bandwidth(tt.bytes, tt.elapsed)
			assert.Equal(t, tt.defined, r.Defined)
			assert.InDelta(t, tt.rate, r.BytesPerSecond, 0.0001)
		})
	}
}

func TestRateString(t *testing.T) {
	assert.Equal(t, "instantaneous", Rate{}.String())
	assert.Equal(t, "2.00 MB/s", Rate{BytesPerSecond: 2 * 1024 * 1024, Defined: true}.String())
	assert.InDelta(t, 8.0, Rate{BytesPerSecond: 1000 * 1000, Defined: true}.Mbps(), 0.0001)
}

func TestNewReport(t *testing.T) {
	start := time.Unix(1000, 0)

	r := NewReport(20720, start, start.Add(2*time.Second))
	assert.Equal(t, int64(2), r.Seconds)
	assert.Equal(t, 2*time.Second, r.Elapsed)
	require.True(t, r.Rate.Defined)
	assert.InDelta(t, 10360, r.Rate.BytesPerSecond, 0.0001)

	r = NewReport(20720, start, start.Add(10*time.Millisecond))
	assert.Equal(t, int64(0), r.Seconds)
	assert.False(t, r.Rate.Defined)
}

func TestMeter(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := NewMeter("test", 3*time.Second, clock.now)

	_, ok := m.add(1000)
	assert.False(t, ok)

	clock.advance(time.Second)
	_, ok = m.add(1000)
	assert.False(t, ok)

	clock.advance(2 * time.Second)
	s, ok := m.add(1000)
	require.True(t, ok)
	assert.Equal(t, int64(3000), s.bytes)
	assert.Equal(t, int64(3000), s.total)
	assert.Equal(t, 3*time.Second, s.elapsed)
	assert.InDelta(t, 3000.0*8/3000/1000, s.mbps, 0.000001)

	clock.advance(3 * time.Second)
	s, ok = m.add(500)
	require.True(t, ok)
	assert.Equal(t, int64(500), s.bytes)
	assert.Equal(t, int64(3500), s.total)
	assert.Equal(t, int64(3500), m.Total())
}

func TestMeterSampleCarriesGCStats(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := NewMeter("test", time.Second, clock.now)

	var reads int
	m.readGC = func() GCSnapshot {
		reads++
		return GCSnapshot{NumGC: 7, Pauses: []time.Duration{2 * time.Millisecond, time.Millisecond}}
	}

	clock.advance(time.Second)
	s, ok := m.add(10360)
	require.True(t, ok)
	assert.Equal(t, int64(7), s.gc.NumGC)
	assert.Equal(t, []time.Duration{2 * time.Millisecond, time.Millisecond}, s.gc.Pauses)

	// Nothing moved, so nothing is traced and the GC stats are not read.
	clock.advance(time.Second)
	s, ok = m.add(0)
	require.True(t, ok)
	assert.Zero(t, s.bytes)
	assert.Zero(t, s.gc.NumGC)
	assert.Equal(t, 1, reads)
}

func TestReadGC(t *testing.T) {
	runtime.GC()
	runtime.GC()
	runtime.GC()
	runtime.GC()

	snap := ReadGC()
	assert.GreaterOrEqual(t, snap.NumGC, int64(4))
	assert.Len(t, snap.Pauses, recentPauses)
}

func TestMeterDefaultsToWallClock(t *testing.T) {
	m := NewMeter("test", time.Hour, nil)
	m.Add(1)
	assert.Equal(t, int64(1), m.Total())
}
