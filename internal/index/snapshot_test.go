package index

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

func buildSample(t *testing.T) *Snapshot {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.AddDocument(1, []string{"apple", "banana", "apple"}))
	require.NoError(t, b.AddDocument(2, []string{"banana", "cherry"}))
	require.NoError(t, b.AddDocument(3, []string{"cherry", "cherry", "cherry", "date"}))
	return b.Build()
}

func TestSnapshotPostingsAndPositions(t *testing.T) {
	s := buildSample(t)
	p, err := s.Postings("apple")
	require.NoError(t, err)
	assert.Equal(t, Postings{1: {0, 2}}, p)

	p, err = s.Postings("cherry")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, p[2])
	assert.Equal(t, []int{0, 1, 2}, p[3])
}

func TestSnapshotIDF(t *testing.T) {
	s := buildSample(t)
	idf, err := s.IDF("banana")
	require.NoError(t, err)
	assert.InDelta(t, math.Log(3.0/2.0), idf, 1e-12)

	assert.InDelta(t, math.Log(3.0), s.MaxIDF(), 1e-12)
	assert.Equal(t, 3, s.DocumentCount())
}

func TestSnapshotDocumentStats(t *testing.T) {
	s := buildSample(t)
	maxTF, err := s.MaxTermFrequency(3)
	require.NoError(t, err)
	assert.Equal(t, 3, maxTF)

	ln3 := math.Log(3.0)
	ln15 := math.Log(1.5)
	want := math.Sqrt((3*ln15)*(3*ln15) + ln3*ln3)
	got, err := s.DocumentVectorLength(3)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	length, err := s.DocumentLength(3)
	require.NoError(t, err)
	assert.Equal(t, 4, length)
}

func TestSnapshotMissingData(t *testing.T) {
	s := buildSample(t)
	_, err := s.IDF("zebra")
	assert.ErrorIs(t, err, apperrors.ErrTermNotFound)
	_, err = s.Postings("zebra")
	assert.ErrorIs(t, err, apperrors.ErrTermNotFound)
	_, err = s.MaxTermFrequency(42)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	_, err = s.DocumentVectorLength(42)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestSnapshotAverageAndMedian(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddDocument(1, []string{"a"}))
	require.NoError(t, b.AddDocument(2, []string{"b"}))
	require.NoError(t, b.AddDocument(3, []string{"b", "c", "c"}))
	s := b.Build()

	var lengths []float64
	for _, id := range []int{1, 2, 3} {
		l, err := s.DocumentVectorLength(id)
		require.NoError(t, err)
		lengths = append(lengths, l)
	}
	assert.InDelta(t, (lengths[0]+lengths[1]+lengths[2])/3, s.AverageDocumentVectorLength(), 1e-12)
	// ln 1.5 < ln 3 < sqrt(ln²1.5 + (2 ln 3)²), so doc 1 is the median.
	assert.InDelta(t, math.Log(3), lengths[0], 1e-12)
	assert.InDelta(t, lengths[0], s.MedianDocumentVectorLength(), 1e-12)
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddDocument(1, []string{"x"}))
	err := b.AddDocument(1, []string{"y"})
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)
	assert.Equal(t, 1, b.DocumentCount())
}

func TestBuilderUnusableAfterBuild(t *testing.T) {
	b := NewBuilder()
	_ = b.Build()
	assert.ErrorIs(t, b.AddDocument(1, []string{"x"}), apperrors.ErrInternal)
}

func TestReadCorpus(t *testing.T) {
	corpus := `{"id": 10, "tokens": ["retrieval", "model"]}

{"id": 11, "tokens": ["model", "model", "ranking"]}
`
	s, err := ReadCorpus(context.Background(), strings.NewReader(corpus))
	require.NoError(t, err)
	assert.Equal(t, 2, s.DocumentCount())
	p, err := s.Postings("model")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, p[11])
}

func TestReadCorpusMalformedLine(t *testing.T) {
	_, err := ReadCorpus(context.Background(), strings.NewReader("{\"id\": 1, \"tokens\": [\"a\"]}\nnot json\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 2")
}
