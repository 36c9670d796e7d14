// Package termset mines frequent query termsets for the set-based vector
// space model. A Pending set is built up term by term and turned into an
// immutable TermSet by Finalize, which computes everything scoring needs.
package termset

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

const keySeparator = "\x1f"

// Pending is a termset under construction. Adding a term that is already
// present sums the weights.
type Pending struct {
	weights map[string]float64
}

func NewPending(terms ...query.ExpandedTerm) *Pending {
	p := &Pending{weights: make(map[string]float64, len(terms))}
	for _, t := range terms {
		p.Add(t)
	}
	return p
}

func (p *Pending) Add(t query.ExpandedTerm) {
	p.weights[t.Term] += t.Weight
}

func (p *Pending) Size() int {
	return len(p.weights)
}

func (p *Pending) Key() string {
	return strings.Join(p.sortedTerms(), keySeparator)
}

// SubsetKeys returns the keys of every subset one term smaller.
func (p *Pending) SubsetKeys() []string {
	return subsetKeys(p.sortedTerms())
}

func (p *Pending) sortedTerms() []string {
	terms := make([]string, 0, len(p.weights))
	for t := range p.weights {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// TermSet is a finalized termset. All fields are computed once and never
// change.
type TermSet struct {
	terms       []query.ExpandedTerm
	key         string
	weight      float64
	df          int
	idf         float64
	frequencies map[int]int
}

// Finalize resolves the occurrences of p in view. An occurrence in a
// document is a window anchored on a position of the first term (in sorted
// order) that reaches every other term within proximity tokens.
func Finalize(ctx context.Context, p *Pending, view index.View, proximity int) (*TermSet, error) {
	if p.Size() == 0 {
		return nil, fmt.Errorf("%w: empty termset", apperrors.ErrInvalidInput)
	}
	if proximity < 0 {
		return nil, fmt.Errorf("%w: proximity %d", apperrors.ErrParameterOutOfRange, proximity)
	}
	names := p.sortedTerms()
	ts := &TermSet{
		terms: make([]query.ExpandedTerm, len(names)),
		key:   strings.Join(names, keySeparator),
	}
	var sum float64
	for i, name := range names {
		w := p.weights[name]
		ts.terms[i] = query.ExpandedTerm{Term: name, Weight: w}
		sum += w
	}
	ts.weight = sum / float64(len(names))

	postings := make([]index.Postings, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pl, err := view.Postings(name)
		if err != nil {
			if apperrors.IsMissingIndexData(err) {
				ts.frequencies = map[int]int{}
				ts.idf = idf(view.DocumentCount(), 0)
				return ts, nil
			}
			return nil, fmt.Errorf("termset %s: %w", ts, err)
		}
		postings[i] = pl
	}

	ts.frequencies = countOccurrences(postings, proximity)
	ts.df = len(ts.frequencies)
	ts.idf = idf(view.DocumentCount(), ts.df)
	return ts, nil
}

func idf(n, df int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Log(float64(n) / float64(df+1))
}

// Terms are sorted by text.
func (t *TermSet) Terms() []query.ExpandedTerm {
	cp := make([]query.ExpandedTerm, len(t.terms))
	copy(cp, t.terms)
	return cp
}

func (t *TermSet) Key() string { return t.key }

func (t *TermSet) Size() int { return len(t.terms) }

// Weight is the mean of the member term weights.
func (t *TermSet) Weight() float64 { return t.weight }

func (t *TermSet) DocumentFrequency() int { return t.df }

// IDF is ln(N/(df+1)).
func (t *TermSet) IDF() float64 { return t.idf }

// Frequency is the number of proximity windows found in docID.
func (t *TermSet) Frequency(docID int) int { return t.frequencies[docID] }

// Frequencies returns a copy of the per-document window counts.
func (t *TermSet) Frequencies() map[int]int {
	cp := make(map[int]int, len(t.frequencies))
	for k, v := range t.frequencies {
		cp[k] = v
	}
	return cp
}

// Support is the fraction of the n documents containing the termset.
func (t *TermSet) Support(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(t.df) / float64(n)
}

// Union starts a new pending set with the terms of both.
func (t *TermSet) Union(other *TermSet) *Pending {
	p := NewPending(t.terms...)
	for _, term := range other.terms {
		if _, ok := p.weights[term.Term]; !ok {
			p.Add(term)
		}
	}
	return p
}

// SubsetKeys returns the keys of every subset one term smaller.
func (t *TermSet) SubsetKeys() []string {
	names := make([]string, len(t.terms))
	for i, term := range t.terms {
		names[i] = term.Term
	}
	return subsetKeys(names)
}

func subsetKeys(names []string) []string {
	if len(names) < 2 {
		return nil
	}
	keys := make([]string, 0, len(names))
	parts := make([]string, 0, len(names)-1)
	for skip := range names {
		parts = parts[:0]
		for i, name := range names {
			if i != skip {
				parts = append(parts, name)
			}
		}
		keys = append(keys, strings.Join(parts, keySeparator))
	}
	return keys
}

func (t *TermSet) String() string {
	names := make([]string, len(t.terms))
	for i, term := range t.terms {
		names[i] = term.Term
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Level holds the termsets of one size.
type Level struct {
	Number   int
	TermSets []*TermSet
}
