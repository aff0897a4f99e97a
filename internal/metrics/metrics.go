// Package metrics keeps in-process counters, gauges and histograms for the
// conversion engine and writes them in Prometheus text or JSON form.
//
// Nothing is served over the network; callers decide where a dump goes.
// All operations are safe for concurrent use.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Kind orders metric families in output: counters, then gauges, then
// histograms.
type Kind int

const (
	KindCounter Kind = iota
	KindGauge
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	}
	return "untyped"
}

type desc struct {
	name string
	help string
}

// Name returns the fully qualified metric name.
func (d *desc) Name() string { return d.name }

// Help returns the help text.
func (d *desc) Help() string { return d.help }

// collector is what the registry needs from each metric family.
type collector interface {
	Name() string
	Help() string
	kind() Kind
	writeText(w io.Writer)
	fields() map[string]any
	sample(into map[string]any)
	reset()
}

// Counter only goes up.
type Counter struct {
	desc
	v atomic.Uint64
}

// NewCounter creates an unregistered counter.
func NewCounter(name, help string) *Counter {
	return &Counter{desc: desc{name, help}}
}

func (c *Counter) Inc()          { c.v.Add(1) }
func (c *Counter) Add(n uint64)  { c.v.Add(n) }
func (c *Counter) Value() uint64 { return c.v.Load() }

func (c *Counter) kind() Kind { return KindCounter }
func (c *Counter) reset()     { c.v.Store(0) }

func (c *Counter) writeText(w io.Writer) {
	fmt.Fprintf(w, "%s %d\n", c.name, c.Value())
}

func (c *Counter) fields() map[string]any {
	return map[string]any{"value": c.Value()}
}

func (c *Counter) sample(into map[string]any) { into[c.name] = c.Value() }

// Gauge moves both ways.
type Gauge struct {
	desc
	v atomic.Int64
}

// NewGauge creates an unregistered gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{desc: desc{name, help}}
}

func (g *Gauge) Set(n int64)  { g.v.Store(n) }
func (g *Gauge) Add(n int64)  { g.v.Add(n) }
func (g *Gauge) Inc()         { g.v.Add(1) }
func (g *Gauge) Dec()         { g.v.Add(-1) }
func (g *Gauge) Value() int64 { return g.v.Load() }

func (g *Gauge) kind() Kind { return KindGauge }
func (g *Gauge) reset()     { g.v.Store(0) }

func (g *Gauge) writeText(w io.Writer) {
	fmt.Fprintf(w, "%s %d\n", g.name, g.Value())
}

func (g *Gauge) fields() map[string]any {
	return map[string]any{"value": g.Value()}
}

func (g *Gauge) sample(into map[string]any) { into[g.name] = g.Value() }

// LatencyBuckets suit per-keystroke work such as dictionary lookups, in
// seconds. Anything past 50ms is visible lag.
var LatencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// CountBuckets suit small cardinalities such as candidate list lengths.
var CountBuckets = []float64{0, 1, 2, 5, 10, 20, 50}

// Histogram counts observations into cumulative upper-bound buckets.
type Histogram struct {
	desc
	bounds []float64

	mu  sync.Mutex
	cum []uint64 // cum[i] counts values <= bounds[i]; the extra slot is +Inf
	sum float64
	n   uint64
}

// NewHistogram creates an unregistered histogram. Nil bounds means
// LatencyBuckets.
func NewHistogram(name, help string, bounds []float64) *Histogram {
	if bounds == nil {
		bounds = LatencyBuckets
	}
	b := append([]float64(nil), bounds...)
	sort.Float64s(b)
	return &Histogram{
		desc:   desc{name, help},
		bounds: b,
		cum:    make([]uint64, len(b)+1),
	}
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.n++
	for i := sort.SearchFloat64s(h.bounds, v); i < len(h.cum); i++ {
		h.cum[i]++
	}
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Timer starts timing; Stop on the result records the elapsed time.
func (h *Histogram) Timer() *Timer {
	return &Timer{h: h, start: time.Now()}
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

// Sum returns the total of all observations.
func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// Mean returns Sum/Count, or 0 with no observations.
func (h *Histogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mean()
}

func (h *Histogram) mean() float64 {
	if h.n == 0 {
		return 0
	}
	return h.sum / float64(h.n)
}

func (h *Histogram) kind() Kind { return KindHistogram }

func (h *Histogram) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum, h.n = 0, 0
	clear(h.cum)
}

func (h *Histogram) writeText(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.bounds {
		fmt.Fprintf(w, "%s_bucket{le=\"%g\"} %d\n", h.name, b, h.cum[i])
	}
	fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.cum[len(h.bounds)])
	fmt.Fprintf(w, "%s_sum %g\n", h.name, h.sum)
	fmt.Fprintf(w, "%s_count %d\n", h.name, h.n)
}

func (h *Histogram) fields() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	buckets := make(map[string]uint64, len(h.cum))
	for i, b := range h.bounds {
		buckets[fmt.Sprintf("%g", b)] = h.cum[i]
	}
	buckets["+Inf"] = h.cum[len(h.bounds)]
	return map[string]any{
		"buckets": buckets,
		"sum":     h.sum,
		"count":   h.n,
		"mean":    h.mean(),
	}
}

func (h *Histogram) sample(into map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	into[h.name+"_sum"] = h.sum
	into[h.name+"_count"] = h.n
	into[h.name+"_mean"] = h.mean()
}

// Timer measures one interval for a histogram.
type Timer struct {
	h     *Histogram
	start time.Time
}

// Stop records and returns the time since the timer started.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	t.h.ObserveDuration(d)
	return d
}

// Registry names metrics under a common prefix and renders them together.
type Registry struct {
	prefix string

	mu   sync.RWMutex
	byID map[string]collector
}

// NewRegistry creates a registry whose metric names are prefixed with
// namespace and subsystem, each joined by an underscore when non-empty.
func NewRegistry(namespace, subsystem string) *Registry {
	var parts []string
	for _, p := range []string{namespace, subsystem} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	prefix := strings.Join(parts, "_")
	if prefix != "" {
		prefix += "_"
	}
	return &Registry{prefix: prefix, byID: make(map[string]collector)}
}

// register returns the metric already registered under name when its kind
// matches, otherwise it stores the one built by mk.
func register[T collector](r *Registry, name string, mk func(full string) T) T {
	full := r.prefix + name
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[full].(T); ok {
		return c
	}
	c := mk(full)
	r.byID[full] = c
	return c
}

// Counter returns the counter called name, creating it on first use.
func (r *Registry) Counter(name, help string) *Counter {
	return register(r, name, func(full string) *Counter { return NewCounter(full, help) })
}

// Gauge returns the gauge called name, creating it on first use.
func (r *Registry) Gauge(name, help string) *Gauge {
	return register(r, name, func(full string) *Gauge { return NewGauge(full, help) })
}

// Histogram returns the histogram called name, creating it on first use.
// bounds only apply on creation.
func (r *Registry) Histogram(name, help string, bounds []float64) *Histogram {
	return register(r, name, func(full string) *Histogram { return NewHistogram(full, help, bounds) })
}

// ordered returns the collectors grouped by kind, sorted by name within a
// kind.
func (r *Registry) ordered() []collector {
	out := make([]collector, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].kind() != out[j].kind() {
			return out[i].kind() < out[j].kind()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// WritePrometheus writes every metric in the Prometheus text format.
func (r *Registry) WritePrometheus(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.ordered() {
		fmt.Fprintf(w, "# HELP %s %s\n", c.Name(), c.Help())
		fmt.Fprintf(w, "# TYPE %s %s\n", c.Name(), c.kind())
		c.writeText(w)
	}
	return nil
}

// WriteJSON writes one indented JSON object keyed by metric name.
func (r *Registry) WriteJSON(w io.Writer) error {
	r.mu.RLock()
	doc := make(map[string]any, len(r.byID))
	for name, c := range r.byID {
		f := c.fields()
		f["type"] = c.kind().String()
		f["help"] = c.Help()
		doc[name] = f
	}
	r.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Snapshot returns every current value keyed by name. Histograms
// contribute name_sum, name_count and name_mean.
func (r *Registry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.byID))
	for _, c := range r.byID {
		c.sample(out)
	}
	return out
}

// Reset zeroes every metric without unregistering it.
func (r *Registry) Reset() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byID {
		c.reset()
	}
}

var (
	defaultMu       sync.Mutex
	defaultRegistry = NewRegistry("skkime", "")
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRegistry
}

// SetDefault replaces the process-wide registry. Metric sets created
// afterwards register there.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = r
}
