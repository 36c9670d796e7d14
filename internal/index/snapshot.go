package index

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

type docStats struct {
	maxTF        int
	length       int
	vectorLength float64
}

// Snapshot is a frozen index. It is never mutated after Build, so any number
// of goroutines may read it without locking.
type Snapshot struct {
	postings     map[string]Postings
	idf          map[string]float64
	docs         map[int]docStats
	maxIDF       float64
	avgVectorLen float64
	medVectorLen float64
}

var _ View = (*Snapshot)(nil)

func (s *Snapshot) IDF(term string) (float64, error) {
	idf, ok := s.idf[term]
	if !ok {
		return 0, fmt.Errorf("idf %q: %w", term, apperrors.ErrTermNotFound)
	}
	return idf, nil
}

func (s *Snapshot) MaxIDF() float64 {
	return s.maxIDF
}

// Postings returns the index's own map. Callers must not modify it.
func (s *Snapshot) Postings(term string) (Postings, error) {
	p, ok := s.postings[term]
	if !ok {
		return nil, fmt.Errorf("postings %q: %w", term, apperrors.ErrTermNotFound)
	}
	return p, nil
}

func (s *Snapshot) MaxTermFrequency(docID int) (int, error) {
	d, ok := s.docs[docID]
	if !ok {
		return 0, fmt.Errorf("max tf for %d: %w", docID, apperrors.ErrDocumentNotFound)
	}
	return d.maxTF, nil
}

func (s *Snapshot) DocumentVectorLength(docID int) (float64, error) {
	d, ok := s.docs[docID]
	if !ok {
		return 0, fmt.Errorf("vector length for %d: %w", docID, apperrors.ErrDocumentNotFound)
	}
	return d.vectorLength, nil
}

func (s *Snapshot) AverageDocumentVectorLength() float64 {
	return s.avgVectorLen
}

func (s *Snapshot) MedianDocumentVectorLength() float64 {
	return s.medVectorLen
}

func (s *Snapshot) DocumentCount() int {
	return len(s.docs)
}

func (s *Snapshot) TermCount() int {
	return len(s.postings)
}

// DocumentLength is the token count of a document.
func (s *Snapshot) DocumentLength(docID int) (int, error) {
	d, ok := s.docs[docID]
	if !ok {
		return 0, fmt.Errorf("length for %d: %w", docID, apperrors.ErrDocumentNotFound)
	}
	return d.length, nil
}

func newSnapshot(postings map[string]Postings, lengths map[int]int) *Snapshot {
	s := &Snapshot{
		postings: postings,
		idf:      make(map[string]float64, len(postings)),
		docs:     make(map[int]docStats, len(lengths)),
	}
	n := float64(len(lengths))
	for term, p := range postings {
		idf := math.Log(n / float64(len(p)))
		s.idf[term] = idf
		if idf > s.maxIDF {
			s.maxIDF = idf
		}
	}

	squares := make(map[int]float64, len(lengths))
	for term, p := range postings {
		idf := s.idf[term]
		for docID, positions := range p {
			tf := len(positions)
			d := s.docs[docID]
			if tf > d.maxTF {
				d.maxTF = tf
			}
			s.docs[docID] = d
			w := float64(tf) * idf
			squares[docID] += w * w
		}
	}

	vectorLengths := make([]float64, 0, len(lengths))
	var total float64
	for docID, length := range lengths {
		d := s.docs[docID]
		d.length = length
		d.vectorLength = math.Sqrt(squares[docID])
		s.docs[docID] = d
		vectorLengths = append(vectorLengths, d.vectorLength)
		total += d.vectorLength
	}
	if len(vectorLengths) > 0 {
		s.avgVectorLen = total / float64(len(vectorLengths))
		s.medVectorLen = median(vectorLengths)
	}
	return s
}

func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
