package retrieval

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/retrieval/termset"
)

type options struct {
	logger    *slog.Logger
	reference ranking.ReferenceLength
	onLevel   func(termset.LevelStats)
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithReferenceLength picks the collection statistic PIVOT and BM25 divide
// document length by. The default is the average vector length.
func WithReferenceLength(r ranking.ReferenceLength) Option {
	return func(o *options) { o.reference = r }
}

// WithMiningObserver receives per-level termset counts from the set-based
// model.
func WithMiningObserver(fn func(termset.LevelStats)) Option {
	return func(o *options) { o.onLevel = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		logger:    slog.Default(),
		reference: ranking.AverageLength,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func referenceLength(view index.View, r ranking.ReferenceLength) float64 {
	if r == ranking.MedianLength {
		return view.MedianDocumentVectorLength()
	}
	return view.AverageDocumentVectorLength()
}
