package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterAndGauge(t *testing.T) {
	c := NewCounter("c", "help")
	c.Inc()
	c.Add(4)
	assert.Equal(t, uint64(5), c.Value())
	assert.Equal(t, KindCounter, c.kind())

	g := NewGauge("g", "help")
	g.Inc()
	g.Inc()
	g.Dec()
	g.Add(-3)
	assert.Equal(t, int64(-2), g.Value())
	g.Set(7)
	assert.Equal(t, int64(7), g.Value())
}

func TestHistogramBucketsAreInclusive(t *testing.T) {
	h := NewHistogram("h", "help", []float64{2, 1})
	h.Observe(0.5)
	h.Observe(1)
	h.Observe(3)

	assert.Equal(t, []float64{1, 2}, h.bounds)
	assert.Equal(t, []uint64{2, 2, 3}, h.cum)
	assert.Equal(t, uint64(3), h.Count())
	assert.Equal(t, 4.5, h.Sum())
	assert.Equal(t, 1.5, h.Mean())
}

func TestHistogramTimer(t *testing.T) {
	h := NewHistogram("h", "help", nil)
	d := h.Timer().Stop()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, uint64(1), h.Count())
}

func TestRegistryReturnsExisting(t *testing.T) {
	r := NewRegistry("skk", "ime")
	c := r.Counter("keys_total", "help")
	assert.Same(t, c, r.Counter("keys_total", "other"))
	assert.Equal(t, "skk_ime_keys_total", c.Name())
	assert.Equal(t, "help", c.Help())

	assert.Equal(t, "h_total", NewRegistry("", "").Counter("h_total", "").Name())
}

func sampleRegistry() *Registry {
	r := NewRegistry("skk", "")
	r.Histogram("h", "H", []float64{1, 2})
	r.Counter("b_total", "B").Add(2)
	r.Gauge("g", "G").Set(-1)
	r.Counter("a_total", "A").Inc()
	h := r.Histogram("h", "H", nil)
	h.Observe(0.5)
	h.Observe(1)
	h.Observe(3)
	return r
}

func TestWritePrometheus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleRegistry().WritePrometheus(&buf))
	assert.Equal(t, `# HELP skk_a_total A
# TYPE skk_a_total counter
skk_a_total 1
# HELP skk_b_total B
# TYPE skk_b_total counter
skk_b_total 2
# HELP skk_g G
# TYPE skk_g gauge
skk_g -1
# HELP skk_h H
# TYPE skk_h histogram
skk_h_bucket{le="1"} 2
skk_h_bucket{le="2"} 2
skk_h_bucket{le="+Inf"} 3
skk_h_sum 4.5
skk_h_count 3
`, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleRegistry().WriteJSON(&buf))

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "counter", got["skk_a_total"]["type"])
	assert.Equal(t, 2.0, got["skk_b_total"]["value"])
	assert.Equal(t, 3.0, got["skk_h"]["count"])
	assert.Equal(t, 1.5, got["skk_h"]["mean"])
}

func TestSnapshotAndReset(t *testing.T) {
	r := sampleRegistry()
	snap := r.Snapshot()
	assert.Equal(t, uint64(1), snap["skk_a_total"])
	assert.Equal(t, int64(-1), snap["skk_g"])
	assert.Equal(t, uint64(3), snap["skk_h_count"])

	r.Reset()
	snap = r.Snapshot()
	assert.Equal(t, uint64(0), snap["skk_b_total"])
	assert.Equal(t, uint64(0), snap["skk_h_count"])
}

func TestEngineMetricsShareRegistry(t *testing.T) {
	r := NewRegistry("skkime", "")
	a := NewEngineMetrics(r)
	b := NewEngineMetrics(r)
	a.KeysTotal.Inc()
	assert.Equal(t, uint64(1), b.KeysTotal.Value())
	assert.Same(t, r, a.Registry())
	assert.Equal(t, "skkime_keys_total", a.KeysTotal.Name())
}
