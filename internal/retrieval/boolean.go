package retrieval

import (
	"context"
	"log/slog"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

const (
	ModeAND = "AND"
	ModeOR  = "OR"
)

// Boolean matches documents by set algebra over the query terms and gives
// every match a score of 1. Positive weights mark required terms, zero
// weights optional terms and negative weights excluded terms.
//
//	AND: (∩ required) ∪ (∪ optional) \ (∪ excluded)
//	OR:  (∪ required) ∪ (∪ optional) \ (∪ excluded)
type Boolean struct {
	*settings
	view   index.View
	logger *slog.Logger
}

var (
	_ Model  = (*Boolean)(nil)
	_ Ranker = (*Boolean)(nil)
)

func NewBoolean(view index.View, opts ...Option) *Boolean {
	o := buildOptions(opts)
	logger := o.logger.With("component", "boolean-model")
	return &Boolean{
		settings: newSettings("boolean", []string{ModeAND, ModeOR}, ModeAND, logger),
		view:     view,
		logger:   logger,
	}
}

func (m *Boolean) Search(ctx context.Context, q query.Query, limit int) ([]ranking.Document, error) {
	return search(ctx, m, q, limit)
}

func (m *Boolean) Rank(ctx context.Context, q query.Query) (map[int]float64, error) {
	mode, _ := m.snapshot()

	var required *roaring.Bitmap
	optional := roaring.New()
	excluded := roaring.New()
	for _, t := range q.Terms() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docs, err := m.documents(t.Term)
		if err != nil {
			return nil, err
		}
		switch {
		case t.Excluded():
			excluded.Or(docs)
		case t.Optional():
			optional.Or(docs)
		case mode == ModeOR:
			if required == nil {
				required = roaring.New()
			}
			required.Or(docs)
		default:
			if required == nil {
				required = docs.Clone()
			} else {
				required.And(docs)
			}
		}
	}

	matched := optional
	if required != nil {
		matched = roaring.Or(required, optional)
	}
	matched.AndNot(excluded)

	scores := make(map[int]float64, matched.GetCardinality())
	it := matched.Iterator()
	for it.HasNext() {
		scores[int(it.Next())] = 1
	}
	return scores, nil
}

// documents returns the IDs of the documents containing term. Unknown terms
// match nothing.
func (m *Boolean) documents(term string) (*roaring.Bitmap, error) {
	bm := roaring.New()
	postings, err := m.view.Postings(term)
	if err != nil {
		if apperrors.IsMissingIndexData(err) {
			m.logger.Debug("term not indexed", "term", term)
			return bm, nil
		}
		return nil, err
	}
	for docID := range postings {
		if docID < 0 || docID > math.MaxUint32 {
			m.logger.Warn("document id outside bitmap range", "doc_id", docID)
			continue
		}
		bm.Add(uint32(docID))
	}
	return bm, nil
}
