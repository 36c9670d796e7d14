// Package query holds the weighted term list a retrieval model consumes and
// decodes it from its compact text form. Query expansion happens upstream.
package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

// ExpandedTerm is a query term with its weight. Positive weights mark
// required or boosted terms, negative weights excluded terms and zero
// optional terms.
type ExpandedTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

func (t ExpandedTerm) Required() bool { return t.Weight > 0 }
func (t ExpandedTerm) Excluded() bool { return t.Weight < 0 }
func (t ExpandedTerm) Optional() bool { return t.Weight == 0 }

// Query is immutable once built.
type Query struct {
	terms []ExpandedTerm
	raw   string
}

func New(terms ...ExpandedTerm) Query {
	cp := make([]ExpandedTerm, len(terms))
	copy(cp, terms)
	return Query{terms: cp}
}

// Terms returns a copy of the expanded terms in query order.
func (q Query) Terms() []ExpandedTerm {
	cp := make([]ExpandedTerm, len(q.terms))
	copy(cp, q.terms)
	return cp
}

func (q Query) Len() int { return len(q.terms) }

func (q Query) Raw() string { return q.raw }

// String renders the query in the form Parse accepts.
func (q Query) String() string {
	parts := make([]string, len(q.terms))
	for i, t := range q.terms {
		parts[i] = t.Term + "^" + strconv.FormatFloat(t.Weight, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Parse decodes whitespace separated tokens:
//
//	term     weight 1
//	+term    weight 1
//	-term    weight -1
//	~term    weight 0
//	term^w   explicit weight w
//
// Terms are lower-cased. A query with no terms is invalid.
func Parse(raw string) (Query, error) {
	q := Query{raw: raw}
	for _, word := range strings.Fields(raw) {
		term, err := parseTerm(word)
		if err != nil {
			return Query{}, err
		}
		if term.Term == "" {
			continue
		}
		q.terms = append(q.terms, term)
	}
	if len(q.terms) == 0 {
		return Query{}, fmt.Errorf("%w: empty query", apperrors.ErrInvalidInput)
	}
	return q, nil
}

func parseTerm(word string) (ExpandedTerm, error) {
	if text, weight, ok := strings.Cut(word, "^"); ok {
		w, err := strconv.ParseFloat(weight, 64)
		if err != nil {
			return ExpandedTerm{}, fmt.Errorf("%w: weight of %q: %v", apperrors.ErrInvalidInput, word, err)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return ExpandedTerm{}, fmt.Errorf("%w: weight of %q is not finite", apperrors.ErrInvalidInput, word)
		}
		return ExpandedTerm{Term: strings.ToLower(text), Weight: w}, nil
	}
	switch word[0] {
	case '+':
		return ExpandedTerm{Term: strings.ToLower(word[1:]), Weight: 1}, nil
	case '-':
		return ExpandedTerm{Term: strings.ToLower(word[1:]), Weight: -1}, nil
	case '~':
		return ExpandedTerm{Term: strings.ToLower(word[1:]), Weight: 0}, nil
	}
	return ExpandedTerm{Term: strings.ToLower(word), Weight: 1}, nil
}
