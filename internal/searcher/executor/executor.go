package executor

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/retrieval/termset"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/tracing"
)

// Request describes one retrieval run. Empty fields fall back to the
// configured defaults; Resolve fills every field in.
type Request struct {
	Query           query.Query
	Model           string
	Mode            string
	Parameters      map[string]float64
	ReferenceLength string
	Limit           int
}

// Key identifies a resolved request for caching. Every model scores a
// query independently of term order, so terms are sorted.
func (r Request) Key() string {
	terms := r.Query.Terms()
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Term != terms[j].Term {
			return terms[i].Term < terms[j].Term
		}
		return terms[i].Weight < terms[j].Weight
	})
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%d|", r.Model, r.Mode, r.ReferenceLength, r.Limit)
	names := make([]string, 0, len(r.Parameters))
	for name := range r.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(r.Parameters[name], 'g', -1, 64))
		b.WriteByte(';')
	}
	b.WriteByte('|')
	b.WriteString(query.New(terms...).String())
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum[:16])
}

type SearchResult struct {
	Query           string             `json:"query"`
	Model           string             `json:"model"`
	Mode            string             `json:"mode"`
	Parameters      map[string]float64 `json:"parameters,omitempty"`
	ReferenceLength string             `json:"reference_length"`
	TotalHits       int                `json:"total_hits"`
	Results         []ranking.Document `json:"results"`
	TookMs          float64            `json:"took_ms"`
}

type Executor struct {
	registry *retrieval.Registry
	cfg      config.RetrievalConfig
	tracing  config.TracingConfig
	metrics  *metrics.Metrics
}

// New checks the configured model defaults against the registry so a bad
// config fails at startup rather than on the first query.
func New(view index.View, cfg config.RetrievalConfig, m *metrics.Metrics, tc config.TracingConfig) (*Executor, error) {
	var opts []retrieval.Option
	if m != nil {
		opts = append(opts, retrieval.WithMiningObserver(func(s termset.LevelStats) {
			m.ObserveLevel(s.Level, s.Candidates, s.Frequent)
		}))
	}
	e := &Executor{
		registry: retrieval.NewRegistry(view, opts...),
		cfg:      cfg,
		tracing:  tc,
		metrics:  m,
	}
	if _, err := ranking.ParseReferenceLength(cfg.ReferenceLength); err != nil {
		return nil, fmt.Errorf("retrieval.referenceLength: %w", err)
	}
	if _, _, err := e.prepare(Request{Model: cfg.DefaultModel}); err != nil {
		return nil, fmt.Errorf("retrieval.defaultModel: %w", err)
	}
	for name := range cfg.Models {
		if _, _, err := e.prepare(Request{Model: name}); err != nil {
			return nil, fmt.Errorf("retrieval.models.%s: %w", name, err)
		}
	}
	return e, nil
}

// Describe lists every registered model with its modes and parameters.
func (e *Executor) Describe() []retrieval.Description {
	return e.registry.Describe()
}

// Resolve applies defaults and validates req without running it.
func (e *Executor) Resolve(req Request) (Request, error) {
	_, resolved, err := e.prepare(req)
	return resolved, err
}

// prepare builds a fresh model: registry defaults, then configured
// defaults, then the request's own mode and parameters.
func (e *Executor) prepare(req Request) (retrieval.Model, Request, error) {
	if req.Model == "" {
		req.Model = e.cfg.DefaultModel
	}
	if req.ReferenceLength == "" {
		req.ReferenceLength = e.cfg.ReferenceLength
	}
	ref, err := ranking.ParseReferenceLength(req.ReferenceLength)
	if err != nil {
		return nil, req, err
	}
	if req.Limit <= 0 {
		req.Limit = e.cfg.DefaultLimit
	}
	if e.cfg.MaxResults > 0 && req.Limit > e.cfg.MaxResults {
		req.Limit = e.cfg.MaxResults
	}

	model, err := e.registry.New(req.Model, retrieval.WithReferenceLength(ref))
	if err != nil {
		return nil, req, err
	}
	if defaults, ok := e.cfg.Models[req.Model]; ok {
		if err := configure(model, defaults.Mode, defaults.Parameters); err != nil {
			return nil, req, err
		}
	}
	if err := configure(model, req.Mode, req.Parameters); err != nil {
		return nil, req, err
	}

	req.ReferenceLength = ref.String()
	req.Mode = model.Mode()
	req.Parameters = make(map[string]float64)
	for _, p := range model.Parameters() {
		req.Parameters[p.Name] = p.Value
	}
	return model, req, nil
}

func configure(model retrieval.Model, mode string, params map[string]float64) error {
	if mode != "" {
		if err := model.SetMode(mode); err != nil {
			return err
		}
	}
	for name, value := range params {
		if err := model.SetParameter(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Execute resolves req and runs it under the configured timeout.
func (e *Executor) Execute(ctx context.Context, req Request) (*SearchResult, error) {
	start := time.Now()

	model, req, err := e.prepare(req)
	if err != nil {
		e.count(req.Model, req.Mode, "rejected")
		return nil, err
	}
	ctx = logger.With(ctx, "model", req.Model, "mode", req.Mode)
	log := logger.FromContext(ctx).With("component", "query-executor")

	var span *tracing.Span
	if e.sampled() {
		ctx, span = tracing.StartSpan(ctx, "retrieval.search", logger.RequestID(ctx))
		span.SetAttr("model", req.Model)
		span.SetAttr("mode", req.Mode)
		defer func() {
			span.End()
			span.Log(log)
		}()
	}

	result, err := resilience.Do(ctx, e.cfg.Timeout, req.Model+" search", func(ctx context.Context) (*SearchResult, error) {
		return e.run(ctx, model, req)
	})
	if err != nil {
		if span != nil {
			span.SetError(err)
		}
		e.count(req.Model, req.Mode, "error")
		log.Error("query failed",
			"query", req.Query.Raw(),
			"error", err,
		)
		return nil, err
	}

	took := time.Since(start)
	result.TookMs = float64(took.Microseconds()) / 1000
	outcome := "ok"
	if result.TotalHits == 0 {
		outcome = "zero_result"
	}
	e.count(req.Model, req.Mode, outcome)
	if e.metrics != nil {
		e.metrics.SearchLatency.WithLabelValues(req.Model, "miss").Observe(took.Seconds())
		e.metrics.SearchResultsCount.WithLabelValues(req.Model).Observe(float64(len(result.Results)))
	}
	log.Info("query executed",
		"query", req.Query.Raw(),
		"total_hits", result.TotalHits,
		"results", len(result.Results),
		"took_ms", result.TookMs,
	)
	return result, nil
}

// run scores everything first when the model exposes raw scores, so the
// total hit count survives truncation.
func (e *Executor) run(ctx context.Context, model retrieval.Model, req Request) (*SearchResult, error) {
	_, span := tracing.StartChildSpan(ctx, "rank")
	defer span.End()

	result := &SearchResult{
		Query:           req.Query.Raw(),
		Model:           req.Model,
		Mode:            req.Mode,
		Parameters:      req.Parameters,
		ReferenceLength: req.ReferenceLength,
	}
	if r, ok := model.(retrieval.Ranker); ok {
		scores, err := r.Rank(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		result.TotalHits = len(scores)
		result.Results = ranking.Sort(scores, req.Limit)
	} else {
		docs, err := model.Search(ctx, req.Query, req.Limit)
		if err != nil {
			return nil, err
		}
		result.TotalHits = len(docs)
		result.Results = docs
	}
	span.SetAttr("total_hits", result.TotalHits)
	return result, nil
}

// Compare runs base under each named model concurrently, each with its own
// default mode and parameters. Results keep the order of models.
func (e *Executor) Compare(ctx context.Context, base Request, models []string) ([]*SearchResult, error) {
	if len(models) == 0 {
		models = e.registry.Names()
	}
	results := make([]*SearchResult, len(models))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range models {
		req := Request{
			Query:           base.Query,
			Model:           name,
			ReferenceLength: base.ReferenceLength,
			Limit:           base.Limit,
		}
		g.Go(func() error {
			res, err := e.Execute(gctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Executor) sampled() bool {
	if !e.tracing.Enabled {
		return false
	}
	return e.tracing.SampleRate >= 1 || rand.Float64() < e.tracing.SampleRate
}

func (e *Executor) count(model, mode, outcome string) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(model, mode, outcome).Inc()
}
