package observability

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
)

// registry owns every metric family and writes them in registration order
// using the Prometheus text format.
type registry struct {
	mu       sync.Mutex
	families []family
}

type family interface {
	writeTo(w io.Writer) error
}

func (r *registry) add(f family) {
	r.mu.Lock()
	r.families = append(r.families, f)
	r.mu.Unlock()
}

func (r *registry) WritePrometheus(w io.Writer) error {
	r.mu.Lock()
	fams := slices.Clone(r.families)
	r.mu.Unlock()
	for _, f := range fams {
		if err := f.writeTo(w); err != nil {
			return err
		}
	}
	return nil
}

func (r *registry) counterVec(name, help string, labels ...string) *CounterVec {
	c := &CounterVec{newSeries[float64](name, help, "counter", labels)}
	r.add(c)
	return c
}

func (r *registry) gaugeVec(name, help string, labels ...string) *GaugeVec {
	g := &GaugeVec{newSeries[float64](name, help, "gauge", labels)}
	r.add(g)
	return g
}

func (r *registry) gauge(name, help string) *Gauge {
	return &Gauge{vec: r.gaugeVec(name, help)}
}

func (r *registry) histogramVec(name, help string, buckets []float64, labels ...string) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	h := &HistogramVec{series: newSeries[*histogram](name, help, "histogram", labels), buckets: slices.Sorted(slices.Values(buckets))}
	r.add(h)
	return h
}

// series is the label-keyed state shared by every metric kind.
type series[T any] struct {
	name   string
	help   string
	kind   string
	labels []string
	mu     sync.RWMutex
	vals   map[string]T
}

func newSeries[T any](name, help, kind string, labels []string) *series[T] {
	return &series[T]{name: name, help: help, kind: kind, labels: labels, vals: map[string]T{}}
}

func (s *series[T]) update(values []string, fn func(cur T) T) {
	key := labelString(s.labels, values)
	s.mu.Lock()
	s.vals[key] = fn(s.vals[key])
	s.mu.Unlock()
}

func (s *series[T]) get(values []string) T {
	key := labelString(s.labels, values)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vals[key]
}

// each writes the family header, then visits series in label order.
func (s *series[T]) each(w io.Writer, fn func(key string, v T) error) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", s.name, s.help, s.name, s.kind); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range slices.Sorted(maps.Keys(s.vals)) {
		if err := fn(k, s.vals[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *series[T]) writeScalar(w io.Writer, val func(T) float64) error {
	return s.each(w, func(key string, v T) error {
		_, err := fmt.Fprintf(w, "%s%s %g\n", s.name, key, val(v))
		return err
	})
}

type CounterVec struct{ *series[float64] }

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

// Add ignores negative deltas; counters only grow.
func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil || v < 0 {
		return
	}
	c.update(values, func(cur float64) float64 { return cur + v })
}

// Value reads one series; used by tests and health output.
func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	return c.get(values)
}

func (c *CounterVec) writeTo(w io.Writer) error {
	return c.writeScalar(w, func(v float64) float64 { return v })
}

type GaugeVec struct{ *series[float64] }

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.update(values, func(float64) float64 { return v })
}

func (g *GaugeVec) Add(v float64, values ...string) {
	if g == nil {
		return
	}
	g.update(values, func(cur float64) float64 { return cur + v })
}

func (g *GaugeVec) Value(values ...string) float64 {
	if g == nil {
		return 0
	}
	return g.get(values)
}

func (g *GaugeVec) writeTo(w io.Writer) error {
	return g.writeScalar(w, func(v float64) float64 { return v })
}

// Gauge is an unlabelled GaugeVec.
type Gauge struct{ vec *GaugeVec }

func (g *Gauge) Set(v float64) {
	if g != nil {
		g.vec.Set(v)
	}
}

func (g *Gauge) Add(v float64) {
	if g != nil {
		g.vec.Add(v)
	}
}

func (g *Gauge) Inc() { g.Add(1) }
func (g *Gauge) Dec() { g.Add(-1) }

func (g *Gauge) Value() float64 {
	if g == nil {
		return 0
	}
	return g.vec.Value()
}

type HistogramVec struct {
	*series[*histogram]
	buckets []float64
}

// histogram counts are per bucket; they are summed on write.
type histogram struct {
	counts []uint64
	sum    float64
	total  uint64
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	h.update(values, func(cur *histogram) *histogram {
		if cur == nil {
			cur = &histogram{counts: make([]uint64, len(h.buckets))}
		}
		if i, _ := slices.BinarySearch(h.buckets, v); i < len(h.buckets) {
			cur.counts[i]++
		}
		cur.sum += v
		cur.total++
		return cur
	})
}

func (h *HistogramVec) writeTo(w io.Writer) error {
	return h.each(w, func(key string, v *histogram) error {
		var cumulative uint64
		for i, b := range h.buckets {
			cumulative += v.counts[i]
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(key, fmt.Sprintf("%g", b)), cumulative); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %g\n%s_count%s %d\n",
			h.name, withLe(key, "+Inf"), v.total,
			h.name, key, v.sum,
			h.name, key, v.total)
		return err
	})
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	pairs := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) && strings.TrimSpace(values[i]) != "" {
			val = values[i]
		}
		pairs[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels string, le string) string {
	le = `le="` + escapeLabel(le) + `"`
	if labels == "" {
		return "{" + le + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + le + "}"
}
