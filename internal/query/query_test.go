package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

func TestParse(t *testing.T) {
	q, err := Parse("Retrieval +model -boolean ~okapi bm25^0.5")
	require.NoError(t, err)
	assert.Equal(t, []ExpandedTerm{
		{Term: "retrieval", Weight: 1},
		{Term: "model", Weight: 1},
		{Term: "boolean", Weight: -1},
		{Term: "okapi", Weight: 0},
		{Term: "bm25", Weight: 0.5},
	}, q.Terms())
	assert.Equal(t, 5, q.Len())
	assert.Equal(t, "Retrieval +model -boolean ~okapi bm25^0.5", q.Raw())
}

func TestParseRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "+ -", "term^heavy", "apple^NaN", "apple^Inf", "apple^-inf", "apple^1e400"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, raw)
	}
}

func TestQueryIsImmutable(t *testing.T) {
	src := []ExpandedTerm{{Term: "a", Weight: 1}}
	q := New(src...)
	src[0].Weight = 9
	terms := q.Terms()
	terms[0].Term = "z"
	assert.Equal(t, []ExpandedTerm{{Term: "a", Weight: 1}}, q.Terms())
}

func TestStringRoundTrips(t *testing.T) {
	q := New(ExpandedTerm{Term: "x", Weight: -1}, ExpandedTerm{Term: "y", Weight: 0.25})
	back, err := Parse(q.String())
	require.NoError(t, err)
	assert.Equal(t, q.Terms(), back.Terms())
}

func TestTermClassification(t *testing.T) {
	assert.True(t, ExpandedTerm{Weight: 2}.Required())
	assert.True(t, ExpandedTerm{Weight: -0.1}.Excluded())
	assert.True(t, ExpandedTerm{}.Optional())
}
