// Package index provides the read-only inverted index the retrieval models
// score against, and a builder that freezes tokenized documents into it.
package index

// Postings maps a document ID to the ascending token positions of one term.
type Postings map[int][]int

// View is the lookup surface the retrieval models depend on. Unknown terms
// report ErrTermNotFound and unknown documents ErrDocumentNotFound; callers
// treat both as a zero contribution.
type View interface {
	IDF(term string) (float64, error)
	MaxIDF() float64
	Postings(term string) (Postings, error)
	MaxTermFrequency(docID int) (int, error)
	DocumentVectorLength(docID int) (float64, error)
	AverageDocumentVectorLength() float64
	MedianDocumentVectorLength() float64
	DocumentCount() int
}
