package termset

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
)

type Config struct {
	ProximityDistance int
	MinSupport        float64
	MaxLevel          int
}

func DefaultConfig() Config {
	return Config{
		ProximityDistance: 10,
		MinSupport:        0.01,
		MaxLevel:          3,
	}
}

// LevelStats is reported once per mined level.
type LevelStats struct {
	Level      int
	Candidates int
	Frequent   int
}

type Miner struct {
	view    index.View
	cfg     Config
	logger  *slog.Logger
	observe func(LevelStats)
}

func NewMiner(view index.View, cfg Config, logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{
		view:   view,
		cfg:    cfg,
		logger: logger.With("component", "termset-miner"),
	}
}

// OnLevel registers fn to receive per-level candidate counts.
func (m *Miner) OnLevel(fn func(LevelStats)) {
	m.observe = fn
}

// Mine builds level 1 from the distinct query terms, then joins level n-1
// into level n until a level comes out empty or MaxLevel is reached.
// Termsets that fail to finalize are logged and left out.
func (m *Miner) Mine(ctx context.Context, q query.Query) ([]Level, error) {
	first, err := m.singletons(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(first.TermSets) == 0 {
		return nil, nil
	}
	levels := []Level{first}
	for n := 2; n <= m.cfg.MaxLevel; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := m.join(ctx, levels[len(levels)-1], n)
		if err != nil {
			return nil, err
		}
		if len(next.TermSets) == 0 {
			break
		}
		levels = append(levels, next)
	}
	return levels, nil
}

func (m *Miner) singletons(ctx context.Context, q query.Query) (Level, error) {
	merged := make(map[string]*Pending)
	var order []string
	for _, t := range q.Terms() {
		p, ok := merged[t.Term]
		if !ok {
			p = NewPending()
			merged[t.Term] = p
			order = append(order, t.Term)
		}
		p.Add(t)
	}
	level := Level{Number: 1}
	for _, term := range order {
		if err := ctx.Err(); err != nil {
			return Level{}, err
		}
		ts, err := Finalize(ctx, merged[term], m.view, m.cfg.ProximityDistance)
		if err != nil {
			if ctx.Err() != nil {
				return Level{}, ctx.Err()
			}
			m.logger.Warn("skipping termset", "level", 1, "termset", term, "error", err)
			continue
		}
		level.TermSets = append(level.TermSets, ts)
	}
	m.report(LevelStats{Level: 1, Candidates: len(order), Frequent: len(level.TermSets)})
	return level, nil
}

func (m *Miner) join(ctx context.Context, prev Level, n int) (Level, error) {
	known := make(map[string]struct{}, len(prev.TermSets))
	for _, ts := range prev.TermSets {
		known[ts.Key()] = struct{}{}
	}
	total := m.view.DocumentCount()
	level := Level{Number: n}
	seen := make(map[string]struct{})
	candidates := 0
	for i := 0; i < len(prev.TermSets); i++ {
		for j := i + 1; j < len(prev.TermSets); j++ {
			if err := ctx.Err(); err != nil {
				return Level{}, err
			}
			p := prev.TermSets[i].Union(prev.TermSets[j])
			if p.Size() != n {
				continue
			}
			key := p.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			candidates++
			if !subsetsFrequent(p.SubsetKeys(), known) {
				continue
			}

			ts, err := Finalize(ctx, p, m.view, m.cfg.ProximityDistance)
			if err != nil {
				if ctx.Err() != nil {
					return Level{}, ctx.Err()
				}
				m.logger.Warn("skipping termset", "level", n, "termset", key, "error", err)
				continue
			}
			if ts.Support(total) < m.cfg.MinSupport {
				continue
			}
			level.TermSets = append(level.TermSets, ts)
		}
	}
	m.logger.Debug("termset level mined",
		"level", n,
		"candidates", candidates,
		"frequent", len(level.TermSets),
	)
	m.report(LevelStats{Level: n, Candidates: candidates, Frequent: len(level.TermSets)})
	return level, nil
}

func subsetsFrequent(keys []string, known map[string]struct{}) bool {
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			return false
		}
	}
	return true
}

func (m *Miner) report(s LevelStats) {
	if m.observe != nil {
		m.observe(s)
	}
}
