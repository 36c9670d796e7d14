package retrieval

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/retrieval/termset"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

// SetBased scores frequent termsets instead of single terms. Each termset
// found by the miner contributes like a vector space term, using its mean
// weight, its own IDF and its proximity window count as term frequency.
type SetBased struct {
	*settings
	view      index.View
	reference ranking.ReferenceLength
	onLevel   func(termset.LevelStats)
	logger    *slog.Logger
}

var (
	_ Model  = (*SetBased)(nil)
	_ Ranker = (*SetBased)(nil)
)

func NewSetBased(view index.View, opts ...Option) *SetBased {
	o := buildOptions(opts)
	logger := o.logger.With("component", "set-based-model")
	defaults := termset.DefaultConfig()
	params := append(lengthParameters(),
		newIntParameter(ParamProximityDistance, 1, 1000, defaults.ProximityDistance),
		newParameter(ParamMinimumSupport, 0, 1, defaults.MinSupport),
		newIntParameter(ParamMaximumLevel, 1, 10, defaults.MaxLevel),
	)
	s := newSettings("set-based", normalizationModes(), ranking.None.String(), logger, params...)
	s.canonical = canonicalNormalization
	return &SetBased{
		settings:  s,
		view:      view,
		reference: o.reference,
		onLevel:   o.onLevel,
		logger:    logger,
	}
}

func (m *SetBased) Search(ctx context.Context, q query.Query, limit int) ([]ranking.Document, error) {
	return search(ctx, m, q, limit)
}

func (m *SetBased) Rank(ctx context.Context, q query.Query) (map[int]float64, error) {
	mode, values := m.snapshot()
	n, err := ranking.ParseNormalization(mode)
	if err != nil {
		return nil, err
	}

	miner := termset.NewMiner(m.view, termset.Config{
		ProximityDistance: int(values[ParamProximityDistance]),
		MinSupport:        values[ParamMinimumSupport],
		MaxLevel:          int(values[ParamMaximumLevel]),
	}, m.logger)
	if m.onLevel != nil {
		miner.OnLevel(m.onLevel)
	}
	levels, err := miner.Mine(ctx, q)
	if err != nil {
		return nil, err
	}

	ref := referenceLength(m.view, m.reference)
	scores := make(map[int]float64)
	for _, level := range levels {
		for _, ts := range level.TermSets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			partial, err := m.score(ts, n, ref, values)
			if err != nil {
				m.logger.Warn("skipping termset",
					"level", level.Number,
					"termset", ts.String(),
					"error", err,
				)
				continue
			}
			for docID, s := range partial {
				scores[docID] += s
			}
		}
	}
	return scores, nil
}

// score keeps a termset's contributions apart until all of them succeed.
func (m *SetBased) score(ts *termset.TermSet, n ranking.Normalization, ref float64, values map[string]float64) (map[int]float64, error) {
	partial := make(map[int]float64)
	for docID, count := range ts.Frequencies() {
		dl, err := m.view.DocumentVectorLength(docID)
		if err != nil {
			if apperrors.IsMissingIndexData(err) {
				continue
			}
			return nil, err
		}
		c, err := ranking.Contribution(n, ranking.Inputs{
			Weight:          ts.Weight(),
			IDF:             ts.IDF(),
			TermFrequency:   float64(count),
			DocumentLength:  dl,
			ReferenceLength: ref,
			B:               values[ParamPivotB],
			K:               values[ParamBM25K],
		})
		if err != nil {
			return nil, err
		}
		partial[docID] = c
	}
	return partial, nil
}
