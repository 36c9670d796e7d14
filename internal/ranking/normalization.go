// Package ranking holds the term-weight normalization formulas shared by the
// vector-style retrieval models and the final ordering of scored documents.
package ranking

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

// Normalization selects how a single term contributes to a document score.
type Normalization int

const (
	None Normalization = iota
	Cosine
	Pivot
	BM25
)

var normalizationNames = map[Normalization]string{
	None:   "No normalization",
	Cosine: "Cosine similarity",
	Pivot:  "Pivoted Length Normalization",
	BM25:   "Okapi BM25",
}

// Normalizations lists every mode in declaration order.
func Normalizations() []Normalization {
	return []Normalization{None, Cosine, Pivot, BM25}
}

func (n Normalization) String() string {
	if name, ok := normalizationNames[n]; ok {
		return name
	}
	return fmt.Sprintf("Normalization(%d)", int(n))
}

var normalizationAliases = map[string]Normalization{
	"none":   None,
	"cosine": Cosine,
	"pivot":  Pivot,
	"bm25":   BM25,
}

// ParseNormalization resolves a display name, or its short alias, back to
// its Normalization.
func ParseNormalization(name string) (Normalization, error) {
	for n, s := range normalizationNames {
		if s == name {
			return n, nil
		}
	}
	if n, ok := normalizationAliases[strings.ToLower(name)]; ok {
		return n, nil
	}
	return None, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedMode, name)
}

// Inputs are the per term, per document quantities a contribution needs.
type Inputs struct {
	Weight          float64
	IDF             float64
	TermFrequency   float64
	DocumentLength  float64
	ReferenceLength float64
	B               float64
	K               float64
}

// Contribution returns the score a term adds to a document under mode n.
// A term that does not occur (tf <= 0) contributes nothing.
func Contribution(n Normalization, in Inputs) (float64, error) {
	if in.TermFrequency <= 0 {
		return 0, nil
	}
	switch n {
	case None:
		return NoNormalization(in.Weight, in.IDF, in.TermFrequency), nil
	case Cosine:
		return CosineSimilarity(in.Weight, in.IDF, in.TermFrequency, in.DocumentLength), nil
	case Pivot:
		if in.ReferenceLength <= 0 {
			return 0, fmt.Errorf("pivot: %w: %v", apperrors.ErrInvalidReferenceLength, in.ReferenceLength)
		}
		return PivotedLength(in.Weight, in.IDF, in.TermFrequency, in.DocumentLength, in.ReferenceLength, in.B), nil
	case BM25:
		if in.ReferenceLength <= 0 {
			return 0, fmt.Errorf("bm25: %w: %v", apperrors.ErrInvalidReferenceLength, in.ReferenceLength)
		}
		return OkapiBM25(in.Weight, in.IDF, in.TermFrequency, in.DocumentLength, in.ReferenceLength, in.B, in.K), nil
	default:
		return 0, fmt.Errorf("%w: %v", apperrors.ErrUnsupportedMode, n)
	}
}

func NoNormalization(w, idf, tf float64) float64 {
	return w * tf * idf
}

func CosineSimilarity(w, idf, tf, dl float64) float64 {
	if dl <= 0 {
		return 0
	}
	return w * tf * idf / dl
}

func PivotedLength(w, idf, tf, dl, ref, b float64) float64 {
	dampened := math.Log(1 + math.Log(1+tf))
	return w * idf * dampened / (1 - b + b*(dl/ref))
}

func OkapiBM25(w, idf, tf, dl, ref, b, k float64) float64 {
	return w * idf * (k + 1) * tf / (tf + k*(1-b+b*(dl/ref)))
}

// ReferenceLength names the collection statistic used as the pivot length.
type ReferenceLength int

const (
	AverageLength ReferenceLength = iota
	MedianLength
)

func (r ReferenceLength) String() string {
	switch r {
	case AverageLength:
		return "average"
	case MedianLength:
		return "median"
	default:
		return fmt.Sprintf("ReferenceLength(%d)", int(r))
	}
}

// ParseReferenceLength accepts "average", "median" or the empty string,
// which means average.
func ParseReferenceLength(s string) (ReferenceLength, error) {
	switch s {
	case "", "average", "avg", "mean":
		return AverageLength, nil
	case "median":
		return MedianLength, nil
	default:
		return AverageLength, fmt.Errorf("%w: %q", apperrors.ErrInvalidReferenceLength, s)
	}
}
