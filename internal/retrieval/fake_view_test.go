package retrieval

import (
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

var errUnavailable = errors.New("storage unavailable")

// fakeView serves hand-picked statistics so scores can be checked exactly.
type fakeView struct {
	idf      map[string]float64
	postings map[string]index.Postings
	maxTF    map[int]int
	lengths  map[int]float64
	maxIDF   float64
	average  float64
	median   float64
	docs     int
	failDoc  int
}

func (v *fakeView) IDF(term string) (float64, error) {
	idf, ok := v.idf[term]
	if !ok {
		return 0, fmt.Errorf("idf %q: %w", term, apperrors.ErrTermNotFound)
	}
	return idf, nil
}

func (v *fakeView) MaxIDF() float64 { return v.maxIDF }

func (v *fakeView) Postings(term string) (index.Postings, error) {
	p, ok := v.postings[term]
	if !ok {
		return nil, fmt.Errorf("postings %q: %w", term, apperrors.ErrTermNotFound)
	}
	return p, nil
}

func (v *fakeView) MaxTermFrequency(docID int) (int, error) {
	tf, ok := v.maxTF[docID]
	if !ok {
		return 0, apperrors.ErrDocumentNotFound
	}
	return tf, nil
}

func (v *fakeView) DocumentVectorLength(docID int) (float64, error) {
	if v.failDoc != 0 && docID == v.failDoc {
		return 0, errUnavailable
	}
	l, ok := v.lengths[docID]
	if !ok {
		return 0, apperrors.ErrDocumentNotFound
	}
	return l, nil
}

func (v *fakeView) AverageDocumentVectorLength() float64 { return v.average }
func (v *fakeView) MedianDocumentVectorLength() float64  { return v.median }
func (v *fakeView) DocumentCount() int                   { return v.docs }

// positions returns tf consecutive positions.
func positions(tf int) []int {
	out := make([]int, tf)
	for i := range out {
		out[i] = i
	}
	return out
}

// failingLengths wraps a real snapshot and fails length lookups for one
// document.
type failingLengths struct {
	*index.Snapshot
	docID int
}

func (v failingLengths) DocumentVectorLength(docID int) (float64, error) {
	if docID == v.docID {
		return 0, errUnavailable
	}
	return v.Snapshot.DocumentVectorLength(docID)
}
