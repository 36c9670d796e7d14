package executor

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/metrics"
)

func fruitIndex(t *testing.T) *index.Snapshot {
	t.Helper()
	b := index.NewBuilder()
	require.NoError(t, b.AddDocument(1, []string{"apple", "banana", "apple"}))
	require.NoError(t, b.AddDocument(2, []string{"banana", "cherry"}))
	require.NoError(t, b.AddDocument(3, []string{"cherry", "date"}))
	require.NoError(t, b.AddDocument(4, []string{"apple", "cherry"}))
	return b.Build()
}

func retrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		DefaultModel:    "vector-space",
		ReferenceLength: "average",
		DefaultLimit:    10,
		MaxResults:      100,
		Timeout:         time.Second,
	}
}

func newExecutor(t *testing.T, cfg config.RetrievalConfig) *Executor {
	t.Helper()
	e, err := New(fruitIndex(t), cfg, metrics.New(prometheus.NewRegistry()), config.TracingConfig{})
	require.NoError(t, err)
	return e
}

func mustParse(t *testing.T, raw string) query.Query {
	t.Helper()
	q, err := query.Parse(raw)
	require.NoError(t, err)
	return q
}

func TestExecuteDefaults(t *testing.T) {
	e := newExecutor(t, retrievalConfig())

	res, err := e.Execute(context.Background(), Request{Query: mustParse(t, "apple")})
	require.NoError(t, err)

	assert.Equal(t, "vector-space", res.Model)
	assert.Equal(t, "No normalization", res.Mode)
	assert.Equal(t, "average", res.ReferenceLength)
	assert.Equal(t, 2, res.TotalHits)
	require.Len(t, res.Results, 2)
	assert.Equal(t, 1, res.Results[0].DocID)
	assert.InDelta(t, 2*math.Ln2, res.Results[0].Score, 1e-9)
	assert.Equal(t, 4, res.Results[1].DocID)
	assert.InDelta(t, math.Ln2, res.Results[1].Score, 1e-9)
	assert.Contains(t, res.Parameters, "BM25 K")
}

func TestExecuteTruncatesAfterCounting(t *testing.T) {
	e := newExecutor(t, retrievalConfig())

	res, err := e.Execute(context.Background(), Request{
		Query: mustParse(t, "cherry"),
		Model: "boolean",
		Limit: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalHits)
	assert.Equal(t, []ranking.Document{{DocID: 2, Score: 1}}, res.Results)
}

func TestExecuteLimitCappedByMaxResults(t *testing.T) {
	cfg := retrievalConfig()
	cfg.MaxResults = 1
	cfg.DefaultLimit = 1
	e := newExecutor(t, cfg)

	req, err := e.Resolve(Request{Query: mustParse(t, "cherry"), Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, req.Limit)
}

func TestExecuteModeAndParameters(t *testing.T) {
	e := newExecutor(t, retrievalConfig())

	res, err := e.Execute(context.Background(), Request{
		Query:      mustParse(t, "apple"),
		Model:      "vector-space",
		Mode:       "bm25",
		Parameters: map[string]float64{"bm25 k": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Okapi BM25", res.Mode)
	assert.Equal(t, 2.0, res.Parameters["BM25 K"])
	assert.Equal(t, 0.75, res.Parameters["Pivot B"])
}

func TestExecuteRejectsBadRequests(t *testing.T) {
	e := newExecutor(t, retrievalConfig())
	q := mustParse(t, "apple")

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown model", Request{Query: q, Model: "lsi"}, apperrors.ErrUnknownModel},
		{"bad mode", Request{Query: q, Model: "boolean", Mode: "XOR"}, apperrors.ErrUnsupportedMode},
		{"unknown parameter", Request{Query: q, Parameters: map[string]float64{"Alpha": 1}}, apperrors.ErrUnknownParameter},
		{"out of range", Request{Query: q, Model: "extended-boolean", Parameters: map[string]float64{"P Norm": 11}}, apperrors.ErrParameterOutOfRange},
		{"bad reference", Request{Query: q, ReferenceLength: "mode"}, apperrors.ErrInvalidReferenceLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfiguredModelDefaults(t *testing.T) {
	cfg := retrievalConfig()
	cfg.Models = map[string]config.ModelDefaultConfig{
		"extended-boolean": {Mode: "AND", Parameters: map[string]float64{"P Norm": 3}},
	}
	e := newExecutor(t, cfg)

	req, err := e.Resolve(Request{Query: mustParse(t, "apple"), Model: "extended-boolean"})
	require.NoError(t, err)
	assert.Equal(t, "AND", req.Mode)
	assert.Equal(t, 3.0, req.Parameters["P Norm"])

	// the request still wins over configured defaults
	req, err = e.Resolve(Request{Query: mustParse(t, "apple"), Model: "extended-boolean", Mode: "OR"})
	require.NoError(t, err)
	assert.Equal(t, "OR", req.Mode)
}

func TestNewRejectsBadConfig(t *testing.T) {
	view := fruitIndex(t)

	cfg := retrievalConfig()
	cfg.DefaultModel = "lsi"
	_, err := New(view, cfg, nil, config.TracingConfig{})
	assert.ErrorIs(t, err, apperrors.ErrUnknownModel)

	cfg = retrievalConfig()
	cfg.Models = map[string]config.ModelDefaultConfig{
		"set-based": {Parameters: map[string]float64{"Maximum Level": 2.5}},
	}
	_, err = New(view, cfg, nil, config.TracingConfig{})
	assert.ErrorIs(t, err, apperrors.ErrParameterOutOfRange)
}

func TestExecuteCancelled(t *testing.T) {
	e := newExecutor(t, retrievalConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, Request{Query: mustParse(t, "apple banana cherry"), Model: "set-based"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompare(t *testing.T) {
	e := newExecutor(t, retrievalConfig())

	results, err := e.Compare(context.Background(), Request{Query: mustParse(t, "apple cherry")}, []string{"boolean", "vector-space"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "boolean", results[0].Model)
	assert.Equal(t, "AND", results[0].Mode)
	assert.Equal(t, []ranking.Document{{DocID: 4, Score: 1}}, results[0].Results)
	assert.Equal(t, "vector-space", results[1].Model)
	assert.Equal(t, 4, results[1].TotalHits)
}

func TestCompareAllModels(t *testing.T) {
	e := newExecutor(t, retrievalConfig())

	results, err := e.Compare(context.Background(), Request{Query: mustParse(t, "apple")}, nil)
	require.NoError(t, err)
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Model
	}
	assert.Equal(t, []string{"boolean", "extended-boolean", "set-based", "vector-space"}, names)
}

func TestCompareFailsOnUnknownModel(t *testing.T) {
	e := newExecutor(t, retrievalConfig())

	_, err := e.Compare(context.Background(), Request{Query: mustParse(t, "apple")}, []string{"boolean", "lsi"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownModel)
}

func TestRequestKey(t *testing.T) {
	a := Request{Query: mustParse(t, "b a"), Model: "boolean", Mode: "AND", Limit: 10}
	b := Request{Query: mustParse(t, "a b"), Model: "boolean", Mode: "AND", Limit: 10}
	c := Request{Query: mustParse(t, "a b"), Model: "boolean", Mode: "OR", Limit: 10}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
