package index

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

// CorpusRecord is one line of a JSON-lines corpus file. Tokens arrive already
// normalized; this package never tokenizes text itself.
type CorpusRecord struct {
	ID     int      `json:"id"`
	Tokens []string `json:"tokens"`
}

const maxLineSize = 16 << 20

// LoadCorpus reads a JSON-lines corpus file and freezes it into a Snapshot.
func LoadCorpus(ctx context.Context, path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()
	return ReadCorpus(ctx, f)
}

func ReadCorpus(ctx context.Context, r io.Reader) (*Snapshot, error) {
	logger := slog.Default().With("component", "index-loader")
	b := NewBuilder()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec CorpusRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w: %v", line, apperrors.ErrInvalidInput, err)
		}
		if err := b.AddDocument(rec.ID, rec.Tokens); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	snap := b.Build()
	logger.Info("corpus loaded",
		"documents", snap.DocumentCount(),
		"terms", snap.TermCount(),
		"avg_vector_length", snap.AverageDocumentVectorLength(),
	)
	return snap, nil
}
