package index

import (
	"fmt"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

// Builder accumulates already-tokenized documents until Build freezes them.
type Builder struct {
	mu       sync.Mutex
	postings map[string]Postings
	lengths  map[int]int
}

func NewBuilder() *Builder {
	return &Builder{
		postings: make(map[string]Postings),
		lengths:  make(map[int]int),
	}
}

// AddDocument records tokens at positions 0..len(tokens)-1. Empty tokens are
// skipped but still consume a position.
func (b *Builder) AddDocument(docID int, tokens []string) error {
	termData := make(map[string][]int)
	for pos, token := range tokens {
		if token == "" {
			continue
		}
		termData[token] = append(termData[token], pos)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lengths == nil {
		return fmt.Errorf("adding document %d: %w: builder already built", docID, apperrors.ErrInternal)
	}
	if _, exists := b.lengths[docID]; exists {
		return fmt.Errorf("adding document %d: %w", docID, apperrors.ErrDocumentExists)
	}
	for term, positions := range termData {
		if _, exists := b.postings[term]; !exists {
			b.postings[term] = make(Postings)
		}
		b.postings[term][docID] = positions
	}
	b.lengths[docID] = len(tokens)
	return nil
}

func (b *Builder) DocumentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lengths)
}

// Build freezes the accumulated documents. The builder must not be used
// afterwards.
func (b *Builder) Build() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := newSnapshot(b.postings, b.lengths)
	b.postings = nil
	b.lengths = nil
	return s
}
