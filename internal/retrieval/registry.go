package retrieval

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

const (
	NameBoolean         = "boolean"
	NameVectorSpace     = "vector-space"
	NameExtendedBoolean = "extended-boolean"
	NameSetBased        = "set-based"
)

type constructor func(index.View, ...Option) Model

// Registry builds fresh model instances over one shared index. Instances are
// independent, so callers can tune one without affecting another.
type Registry struct {
	view         index.View
	opts         []Option
	constructors map[string]constructor
}

// Description is the introspection view of a model.
type Description struct {
	Name        string      `json:"name"`
	Modes       []string    `json:"modes"`
	DefaultMode string      `json:"default_mode"`
	Parameters  []Parameter `json:"parameters"`
}

func NewRegistry(view index.View, opts ...Option) *Registry {
	return &Registry{
		view: view,
		opts: opts,
		constructors: map[string]constructor{
			NameBoolean:         func(v index.View, o ...Option) Model { return NewBoolean(v, o...) },
			NameVectorSpace:     func(v index.View, o ...Option) Model { return NewVectorSpace(v, o...) },
			NameExtendedBoolean: func(v index.View, o ...Option) Model { return NewExtendedBoolean(v, o...) },
			NameSetBased:        func(v index.View, o ...Option) Model { return NewSetBased(v, o...) },
		},
	}
}

// New returns a model with its default mode and parameters. Options given
// here are applied after the registry's own.
func (r *Registry) New(name string, opts ...Option) (Model, error) {
	build, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownModel, name)
	}
	all := make([]Option, 0, len(r.opts)+len(opts))
	all = append(all, r.opts...)
	all = append(all, opts...)
	return build(r.view, all...), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Describe() []Description {
	names := r.Names()
	out := make([]Description, 0, len(names))
	for _, name := range names {
		m, _ := r.New(name)
		out = append(out, Description{
			Name:        m.Name(),
			Modes:       m.Modes(),
			DefaultMode: m.DefaultMode(),
			Parameters:  m.Parameters(),
		})
	}
	return out
}
