package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anetsop/rosterlab/pkg/models"
	"github.com/anetsop/rosterlab/pkg/utils"
)

// Common metric names
const (
	MetricInvocationSeconds = "invocation_seconds"
	MetricExtractSeconds    = "extract_seconds"
)

// Point is one recorded sample
type Point struct {
	Timestamp time.Time
	Value     float64
	Labels    map[string]string
}

// Collector collects samples during a batch, keyed by metric name and label set
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	endTime   time.Time

	// metric name -> label key -> points
	series map[string]map[string][]Point
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		series:    make(map[string]map[string][]Point),
	}
}

// Start marks the start of metric collection
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.endTime = time.Time{}
}

// Stop marks the end of metric collection
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Elapsed returns the time between Start and Stop, or until now if the
// collector is still running.
func (c *Collector) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.endTime.IsZero() {
		return time.Since(c.startTime)
	}
	return c.endTime.Sub(c.startTime)
}

// Record records a sample at a specific timestamp
func (c *Collector) Record(name string, value float64, timestamp time.Time, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := labelKey(labels)
	if c.series[name] == nil {
		c.series[name] = make(map[string][]Point)
	}
	c.series[name][key] = append(c.series[name][key], Point{
		Timestamp: timestamp,
		Value:     value,
		Labels:    copyLabels(labels),
	})
}

// RecordDuration records d in seconds at the current time
func (c *Collector) RecordDuration(name string, d time.Duration, labels map[string]string) {
	c.Record(name, d.Seconds(), time.Now(), labels)
}

// RecordInvocation records an optimizer invocation's wall-clock time
// labelled by family and status.
func (c *Collector) RecordInvocation(family string, status models.InvocationStatus, d time.Duration) {
	c.RecordDuration(MetricInvocationSeconds, d, map[string]string{"family": family, "status": string(status)})
}

// RecordExtraction records the time spent reading one result workbook
func (c *Collector) RecordExtraction(family string, ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "malformed"
	}
	c.RecordDuration(MetricExtractSeconds, d, map[string]string{"family": family, "result": result})
}

// Summary aggregates every series. Keys look like
// invocation_seconds{family=AOA,status=succeeded}.
func (c *Collector) Summary() map[string]models.Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]models.Aggregation)
	for name, byLabels := range c.series {
		for key, points := range byLabels {
			if len(points) == 0 {
				continue
			}
			id := name
			if key != "" {
				id += "{" + key + "}"
			}
			out[id] = calculateAggregation(points)
		}
	}
	return out
}

// Clear drops every sample
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = make(map[string]map[string][]Point)
}

// labelKey creates a stable key from labels for map lookup
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + labels[k]
	}
	return strings.Join(parts, ",")
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func calculateAggregation(points []Point) models.Aggregation {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return models.Aggregation{
		Count: len(values),
		Mean:  utils.Mean(values),
		P50:   utils.Percentile(values, 50),
		P95:   utils.Percentile(values, 95),
		Max:   utils.MaxFloat64s(values),
	}
}
