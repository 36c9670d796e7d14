// Package retrieval implements the interchangeable retrieval models. Every
// model satisfies Model; the ranking ones also satisfy Ranker and share the
// final ordering in package ranking.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

type Model interface {
	Name() string
	Search(ctx context.Context, q query.Query, limit int) ([]ranking.Document, error)
	Modes() []string
	DefaultMode() string
	Mode() string
	SetMode(mode string) error
	Parameters() []Parameter
	SetParameter(name string, value float64) error
}

// Ranker produces raw document scores before ordering and truncation.
type Ranker interface {
	Rank(ctx context.Context, q query.Query) (map[int]float64, error)
}

// Parameter is a bounded numeric setting owned by one model instance.
type Parameter struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Value   float64 `json:"value"`
	Integer bool    `json:"integer,omitempty"`
}

func newParameter(name string, min, max, def float64) Parameter {
	return Parameter{Name: name, Min: min, Max: max, Default: def, Value: def}
}

func newIntParameter(name string, min, max, def int) Parameter {
	p := newParameter(name, float64(min), float64(max), float64(def))
	p.Integer = true
	return p
}

func (p Parameter) validate(value float64) error {
	if math.IsNaN(value) || value < p.Min || value > p.Max {
		return fmt.Errorf("%w: %s must be within [%g, %g], got %g",
			apperrors.ErrParameterOutOfRange, p.Name, p.Min, p.Max, value)
	}
	if p.Integer && value != math.Trunc(value) {
		return fmt.Errorf("%w: %s must be an integer, got %g",
			apperrors.ErrParameterOutOfRange, p.Name, value)
	}
	return nil
}

const (
	ParamPivotB            = "Pivot B"
	ParamBM25K             = "BM25 K"
	ParamPNorm             = "P Norm"
	ParamProximityDistance = "Proximity Distance"
	ParamMinimumSupport    = "Minimum Support"
	ParamMaximumLevel      = "Maximum Level"
)

// settings holds the mode and parameters of one model instance.
type settings struct {
	mu          sync.RWMutex
	name        string
	modes       []string
	defaultMode string
	mode        string
	params      []Parameter
	canonical   func(string) (string, bool)
	logger      *slog.Logger
}

func newSettings(name string, modes []string, defaultMode string, logger *slog.Logger, params ...Parameter) *settings {
	s := &settings{
		name:        name,
		modes:       modes,
		defaultMode: defaultMode,
		mode:        defaultMode,
		params:      params,
		logger:      logger,
	}
	s.canonical = s.matchMode
	return s
}

func (s *settings) matchMode(mode string) (string, bool) {
	for _, m := range s.modes {
		if strings.EqualFold(m, mode) {
			return m, true
		}
	}
	return "", false
}

func (s *settings) Name() string { return s.name }

func (s *settings) Modes() []string {
	cp := make([]string, len(s.modes))
	copy(cp, s.modes)
	return cp
}

func (s *settings) DefaultMode() string { return s.defaultMode }

func (s *settings) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode leaves the current mode untouched when mode is not supported.
func (s *settings) SetMode(mode string) error {
	resolved, ok := s.canonical(mode)
	if !ok {
		s.logger.Warn("unsupported mode", "model", s.name, "mode", mode, "supported", s.modes)
		return fmt.Errorf("%s: %w: %q", s.name, apperrors.ErrUnsupportedMode, mode)
	}
	s.mu.Lock()
	s.mode = resolved
	s.mu.Unlock()
	return nil
}

func (s *settings) Parameters() []Parameter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]Parameter, len(s.params))
	copy(cp, s.params)
	return cp
}

// SetParameter leaves the current value untouched when value is rejected.
func (s *settings) SetParameter(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.params {
		if !strings.EqualFold(s.params[i].Name, name) {
			continue
		}
		if err := s.params[i].validate(value); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		s.params[i].Value = value
		return nil
	}
	return fmt.Errorf("%s: %w: %q", s.name, apperrors.ErrUnknownParameter, name)
}

// snapshot copies the mode and parameter values so a search sees one
// consistent configuration.
func (s *settings) snapshot() (string, map[string]float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make(map[string]float64, len(s.params))
	for _, p := range s.params {
		values[p.Name] = p.Value
	}
	return s.mode, values
}

func search(ctx context.Context, r Ranker, q query.Query, limit int) ([]ranking.Document, error) {
	scores, err := r.Rank(ctx, q)
	if err != nil {
		return nil, err
	}
	return ranking.Sort(scores, limit), nil
}
