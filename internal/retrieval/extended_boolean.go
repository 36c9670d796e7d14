package retrieval

import (
	"context"
	"log/slog"
	"math"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

// ExtendedBoolean is the p-norm model. Term weights are normalized to [0, 1]
// by the document's largest term frequency and the collection's largest IDF.
type ExtendedBoolean struct {
	*settings
	view   index.View
	logger *slog.Logger
}

var (
	_ Model  = (*ExtendedBoolean)(nil)
	_ Ranker = (*ExtendedBoolean)(nil)
)

func NewExtendedBoolean(view index.View, opts ...Option) *ExtendedBoolean {
	o := buildOptions(opts)
	logger := o.logger.With("component", "extended-boolean-model")
	return &ExtendedBoolean{
		settings: newSettings("extended-boolean", []string{ModeAND, ModeOR}, ModeOR, logger,
			newParameter(ParamPNorm, 0.01, 10.0, 2.0),
		),
		view:   view,
		logger: logger,
	}
}

// NormalizedWeight is (tf/maxTf)·(idf/maxIDF), or 0 when either maximum is
// not positive.
func NormalizedWeight(tf, maxTF int, idf, maxIDF float64) float64 {
	if maxTF <= 0 || maxIDF <= 0 {
		return 0
	}
	return (float64(tf) / float64(maxTF)) * (idf / maxIDF)
}

func (m *ExtendedBoolean) Search(ctx context.Context, q query.Query, limit int) ([]ranking.Document, error) {
	return search(ctx, m, q, limit)
}

// Rank only sums over the terms a document contains. The divisor is always
// the full query length.
func (m *ExtendedBoolean) Rank(ctx context.Context, q query.Query) (map[int]float64, error) {
	mode, values := m.snapshot()
	p := values[ParamPNorm]
	n := float64(q.Len())
	maxIDF := m.view.MaxIDF()

	sums := make(map[int]float64)
	for _, t := range q.Terms() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idf, err := m.view.IDF(t.Term)
		if err != nil {
			if apperrors.IsMissingIndexData(err) {
				continue
			}
			return nil, err
		}
		postings, err := m.view.Postings(t.Term)
		if err != nil {
			if apperrors.IsMissingIndexData(err) {
				continue
			}
			return nil, err
		}
		for docID, positions := range postings {
			maxTF, err := m.view.MaxTermFrequency(docID)
			if err != nil {
				if apperrors.IsMissingIndexData(err) {
					m.logger.Debug("max term frequency missing", "doc_id", docID)
					continue
				}
				return nil, err
			}
			w := NormalizedWeight(len(positions), maxTF, idf, maxIDF)
			if mode == ModeAND {
				sums[docID] += math.Pow(1-w, p)
			} else {
				sums[docID] += math.Pow(w, p)
			}
		}
	}

	scores := make(map[int]float64, len(sums))
	for docID, sum := range sums {
		norm := math.Pow(sum/n, 1/p)
		if mode == ModeAND {
			scores[docID] = 1 - norm
		} else {
			scores[docID] = norm
		}
	}
	return scores, nil
}
