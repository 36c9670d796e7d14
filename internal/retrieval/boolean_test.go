package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

func booleanView() *fakeView {
	return &fakeView{
		postings: map[string]index.Postings{
			"a": {1: {0}, 2: {0}},
			"b": {2: {1}, 3: {0}},
			"c": {2: {3}},
			"d": {7: {0}},
		},
	}
}

func docIDs(docs []ranking.Document) []int {
	ids := make([]int, len(docs))
	for i, d := range docs {
		ids[i] = d.DocID
	}
	return ids
}

func runBoolean(t *testing.T, mode, raw string) []ranking.Document {
	t.Helper()
	m := NewBoolean(booleanView())
	require.NoError(t, m.SetMode(mode))
	q, err := query.Parse(raw)
	require.NoError(t, err)
	docs, err := m.Search(context.Background(), q, 0)
	require.NoError(t, err)
	return docs
}

func TestBooleanTwoRequiredTerms(t *testing.T) {
	or := runBoolean(t, ModeOR, "+a +b")
	assert.Equal(t, []int{1, 2, 3}, docIDs(or))

	and := runBoolean(t, ModeAND, "+a +b")
	assert.Equal(t, []int{2}, docIDs(and))
	// Swapping the set operations would hand AND the union.
	assert.NotEqual(t, []int{1, 2, 3}, docIDs(and))
}

func TestBooleanScoresAreOne(t *testing.T) {
	for _, d := range runBoolean(t, ModeOR, "a b") {
		assert.Equal(t, 1.0, d.Score)
	}
}

func TestBooleanExclusion(t *testing.T) {
	assert.Equal(t, []int{1}, docIDs(runBoolean(t, ModeAND, "a -c")))
	assert.Equal(t, []int{1, 3}, docIDs(runBoolean(t, ModeOR, "a b -c")))
}

func TestBooleanOptionalTerms(t *testing.T) {
	assert.Equal(t, []int{2, 7}, docIDs(runBoolean(t, ModeAND, "a b ~d")))
	assert.Equal(t, []int{7}, docIDs(runBoolean(t, ModeAND, "~d")))
}

func TestBooleanUnknownRequiredTerm(t *testing.T) {
	assert.Empty(t, runBoolean(t, ModeAND, "a zzz"))
	assert.Equal(t, []int{1, 2}, docIDs(runBoolean(t, ModeOR, "a zzz")))
}

func TestBooleanANDSubsetOfOR(t *testing.T) {
	for _, raw := range []string{"a b", "a b c", "a ~d", "b -a", "a b c ~d -c", "zzz"} {
		and := docIDs(runBoolean(t, ModeAND, raw))
		or := docIDs(runBoolean(t, ModeOR, raw))
		assert.Subset(t, or, and, raw)
	}
}

func TestBooleanLimit(t *testing.T) {
	m := NewBoolean(booleanView())
	require.NoError(t, m.SetMode("or"))
	docs, err := m.Search(context.Background(), query.New(
		query.ExpandedTerm{Term: "a", Weight: 1},
		query.ExpandedTerm{Term: "b", Weight: 1},
	), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, docIDs(docs))
}

func TestBooleanModes(t *testing.T) {
	m := NewBoolean(booleanView())
	assert.Equal(t, []string{ModeAND, ModeOR}, m.Modes())
	assert.Equal(t, ModeAND, m.DefaultMode())
	assert.Equal(t, ModeAND, m.Mode())

	require.NoError(t, m.SetMode("or"))
	assert.Equal(t, ModeOR, m.Mode())

	err := m.SetMode("XOR")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedMode)
	assert.Equal(t, ModeOR, m.Mode())
	assert.Empty(t, m.Parameters())
}
