package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	scoringStartedTotal   atomic.Uint64
	scoringCompletedTotal atomic.Uint64
	scoringFailedTotal    atomic.Uint64

	researchCacheHitTotal  atomic.Uint64
	researchCacheMissTotal atomic.Uint64
	researchRefreshTotal   atomic.Uint64
	researchFailedTotal    atomic.Uint64

	chatStreamTotal atomic.Uint64

	scoringDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
	oracleDuration  = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncScoringStarted increments the scoring-run started counter.
func IncScoringStarted() {
	scoringStartedTotal.Add(1)
}

// IncScoringCompleted increments the scoring-run completed counter.
func IncScoringCompleted() {
	scoringCompletedTotal.Add(1)
}

// IncScoringFailed increments the scoring-run failed counter.
func IncScoringFailed() {
	scoringFailedTotal.Add(1)
}

// IncResearchCacheHit increments the research cache hit counter.
func IncResearchCacheHit() {
	researchCacheHitTotal.Add(1)
}

// IncResearchCacheMiss increments the research cache miss counter.
func IncResearchCacheMiss() {
	researchCacheMissTotal.Add(1)
}

// IncResearchRefresh increments the forced-refresh counter.
func IncResearchRefresh() {
	researchRefreshTotal.Add(1)
}

// IncResearchFailed increments the research failure counter.
func IncResearchFailed() {
	researchFailedTotal.Add(1)
}

// IncChatStream increments the chat stream counter.
func IncChatStream() {
	chatStreamTotal.Add(1)
}

// ObserveScoringDurationMs records a scoring-run duration in milliseconds.
func ObserveScoringDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	scoringDuration.Observe(value)
}

// ObserveOracleDurationMs records an oracle call duration in milliseconds.
func ObserveOracleDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	oracleDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "scoring_started_total", "Total scoring runs started", scoringStartedTotal.Load())
	writeCounter(&buf, "scoring_completed_total", "Total scoring runs completed", scoringCompletedTotal.Load())
	writeCounter(&buf, "scoring_failed_total", "Total scoring runs failed", scoringFailedTotal.Load())
	writeCounter(&buf, "research_cache_hit_total", "Total research cache hits", researchCacheHitTotal.Load())
	writeCounter(&buf, "research_cache_miss_total", "Total research cache misses", researchCacheMissTotal.Load())
	writeCounter(&buf, "research_refresh_total", "Total forced research refreshes", researchRefreshTotal.Load())
	writeCounter(&buf, "research_failed_total", "Total research failures", researchFailedTotal.Load())
	writeCounter(&buf, "chat_stream_total", "Total chat streams served", chatStreamTotal.Load())
	writeHistogram(&buf, "scoring_duration_ms", "Scoring run duration in milliseconds", scoringDuration.Snapshot())
	writeHistogram(&buf, "oracle_duration_ms", "Oracle call duration in milliseconds", oracleDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
