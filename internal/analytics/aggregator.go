package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/metrics"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSearches     int64                 `json:"total_searches"`
	CacheHits         int64                 `json:"cache_hits"`
	CacheMisses       int64                 `json:"cache_misses"`
	ZeroResultCount   int64                 `json:"zero_result_count"`
	ErrorCount        int64                 `json:"error_count"`
	AvgLatencyMs      float64               `json:"avg_latency_ms"`
	P50LatencyMs      float64               `json:"p50_latency_ms"`
	P95LatencyMs      float64               `json:"p95_latency_ms"`
	P99LatencyMs      float64               `json:"p99_latency_ms"`
	TopQueries        []QueryCount          `json:"top_queries"`
	ZeroResultQueries []QueryCount          `json:"zero_result_queries"`
	Models            map[string]ModelStats `json:"models"`
	QueriesPerMinute  float64               `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// ModelStats breaks searches down by retrieval model.
type ModelStats struct {
	Searches     int64          `json:"searches"`
	ZeroResults  int64          `json:"zero_results"`
	Errors       int64          `json:"errors"`
	AvgLatencyMs float64        `json:"avg_latency_ms"`
	AvgHits      float64        `json:"avg_hits"`
	Modes        map[string]int `json:"modes"`
}

type modelTotals struct {
	searches    int64
	zeroResults int64
	errors      int64
	latencySum  float64
	hitsSum     int64
	modes       map[string]int
}

type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	errors            int64
	latencies         []float64
	next              int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	models            map[string]*modelTotals
	startTime         time.Time

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAggregator(m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		latencies:         make([]float64, 0, maxLatencySamples),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		models:            make(map[string]*modelTotals),
		startTime:         time.Now(),
		metrics:           m,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent adapts the aggregator to a Kafka consumer. Undecodable or
// unknown messages are logged and committed so they cannot stall the topic.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		switch EventType(msg.Type) {
		case EventSearch, EventZeroResult, EventError:
		default:
			agg.logger.Warn("skipping unknown analytics event", "type", msg.Type)
			return nil
		}
		event, err := kafka.DecodeJSON[SearchEvent](msg.Value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event",
				"type", msg.Type,
				"error", err,
			)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

func (a *Aggregator) Record(event SearchEvent) {
	if a.metrics != nil {
		a.metrics.AnalyticsEventsTotal.WithLabelValues("consumed").Inc()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}

	mt, ok := a.models[event.Model]
	if !ok {
		mt = &modelTotals{modes: make(map[string]int)}
		a.models[event.Model] = mt
	}
	mt.searches++
	mt.latencySum += event.LatencyMs
	mt.hitsSum += int64(event.TotalHits)
	if event.Mode != "" {
		mt.modes[event.Mode]++
	}

	switch event.Type {
	case EventError:
		a.errors++
		mt.errors++
	case EventZeroResult:
		a.zeroResults++
		mt.zeroResults++
		a.zeroResultQueries[event.Query]++
	}

	// ring buffer of the most recent samples
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % maxLatencySamples
	}
	a.queryCounts[event.Query]++
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
		ErrorCount:      a.errors,
		Models:          make(map[string]ModelStats, len(a.models)),
	}
	if len(a.latencies) > 0 {
		sorted := make([]float64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Float64s(sorted)

		var sum float64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	for name, mt := range a.models {
		ms := ModelStats{
			Searches:    mt.searches,
			ZeroResults: mt.zeroResults,
			Errors:      mt.errors,
			Modes:       make(map[string]int, len(mt.modes)),
		}
		if mt.searches > 0 {
			ms.AvgLatencyMs = mt.latencySum / float64(mt.searches)
			ms.AvgHits = float64(mt.hitsSum) / float64(mt.searches)
		}
		for mode, n := range mt.modes {
			ms.Modes[mode] = n
		}
		stats.Models[name] = ms
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}

	return stats
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
