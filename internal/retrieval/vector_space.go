package retrieval

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

// VectorSpace sums one normalized contribution per query term and document.
type VectorSpace struct {
	*settings
	view      index.View
	reference ranking.ReferenceLength
	logger    *slog.Logger
}

var (
	_ Model  = (*VectorSpace)(nil)
	_ Ranker = (*VectorSpace)(nil)
)

func normalizationModes() []string {
	modes := make([]string, 0, 4)
	for _, n := range ranking.Normalizations() {
		modes = append(modes, n.String())
	}
	return modes
}

func canonicalNormalization(mode string) (string, bool) {
	n, err := ranking.ParseNormalization(mode)
	if err != nil {
		return "", false
	}
	return n.String(), true
}

func lengthParameters() []Parameter {
	return []Parameter{
		newParameter(ParamPivotB, 0.01, 1.0, 0.75),
		newParameter(ParamBM25K, 0.01, 10.0, 1.5),
	}
}

func NewVectorSpace(view index.View, opts ...Option) *VectorSpace {
	o := buildOptions(opts)
	logger := o.logger.With("component", "vector-space-model")
	s := newSettings("vector-space", normalizationModes(), ranking.None.String(), logger, lengthParameters()...)
	s.canonical = canonicalNormalization
	return &VectorSpace{
		settings:  s,
		view:      view,
		reference: o.reference,
		logger:    logger,
	}
}

func (m *VectorSpace) Search(ctx context.Context, q query.Query, limit int) ([]ranking.Document, error) {
	return search(ctx, m, q, limit)
}

func (m *VectorSpace) Rank(ctx context.Context, q query.Query) (map[int]float64, error) {
	mode, values := m.snapshot()
	n, err := ranking.ParseNormalization(mode)
	if err != nil {
		return nil, err
	}
	ref := referenceLength(m.view, m.reference)

	scores := make(map[int]float64)
	for _, t := range q.Terms() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idf, err := m.view.IDF(t.Term)
		if err != nil {
			if apperrors.IsMissingIndexData(err) {
				m.logger.Debug("term not indexed", "term", t.Term)
				continue
			}
			return nil, err
		}
		postings, err := m.view.Postings(t.Term)
		if err != nil {
			if apperrors.IsMissingIndexData(err) {
				m.logger.Debug("term not indexed", "term", t.Term)
				continue
			}
			return nil, err
		}
		for docID, positions := range postings {
			dl, err := m.view.DocumentVectorLength(docID)
			if err != nil {
				if apperrors.IsMissingIndexData(err) {
					m.logger.Debug("document length missing", "doc_id", docID)
					continue
				}
				return nil, err
			}
			c, err := ranking.Contribution(n, ranking.Inputs{
				Weight:          t.Weight,
				IDF:             idf,
				TermFrequency:   float64(len(positions)),
				DocumentLength:  dl,
				ReferenceLength: ref,
				B:               values[ParamPivotB],
				K:               values[ParamBM25K],
			})
			if err != nil {
				return nil, err
			}
			scores[docID] += c
		}
	}
	return scores, nil
}
