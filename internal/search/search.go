// Package search finds the cheapest way to build every reachable shape from
// a set of primitive inputs.
//
// The search expands shapes in order of cost. Each expanded shape is turned,
// cut and stacked against every shape expanded before it, and every result
// that is new or cheaper than its current record is queued at its own cost.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/2767mr/tmam/internal/catalog"
	"github.com/2767mr/tmam/internal/shape"
)

var (
	// ErrUnknownOp means an op name has no operation.
	ErrUnknownOp = errors.New("search: unknown op")
	// ErrInvalidConfig means a search setting is out of range.
	ErrInvalidConfig = errors.New("search: invalid config")
	// ErrUnknownCode means the code has no record.
	ErrUnknownCode = errors.New("search: unknown code")
)

// Record is the cheapest known build of Code. Unary ops read Code1. For
// OpStack, Code2 was dropped onto Code1, so Stack(Code2, Code1) == Code.
// Alt counts the distinct builds found at that cost.
type Record struct {
	Code  shape.Code
	Op    Op
	Cost  int
	Code1 shape.Code
	Code2 shape.Code
	Alt   int
}

func (r Record) Known() bool {
	return r.Op != OpNone
}

type Config struct {
	Seeds []shape.Code
	// OpCost is the cost of each one-input op. Missing ops cost 1.
	OpCost    map[Op]int
	StackCost int
	// MaxCost prunes every candidate dearer than it.
	MaxCost int
	// IterationCap bounds the number of expanded shapes. 0 means no bound.
	IterationCap int
}

// DefaultSeeds are the four single corners.
var DefaultSeeds = []shape.Code{0x1, 0x2, 0x4, 0x8}

func DefaultConfig() Config {
	return Config{
		Seeds:     DefaultSeeds,
		StackCost: 1,
		MaxCost:   8,
	}
}

func (c Config) Validate() error {
	if len(c.Seeds) == 0 {
		return fmt.Errorf("%w: no seeds", ErrInvalidConfig)
	}
	for _, s := range c.Seeds {
		if s == 0 || s > shape.Mask {
			return fmt.Errorf("%w: seed %s out of range", ErrInvalidConfig, s.Hex())
		}
	}
	for op, cost := range c.OpCost {
		if !op.Unary() {
			return fmt.Errorf("%w: %s has no single-input cost", ErrInvalidConfig, op)
		}
		if cost < 1 {
			return fmt.Errorf("%w: %s costs %d", ErrInvalidConfig, op, cost)
		}
	}
	if c.StackCost < 1 {
		return fmt.Errorf("%w: stack costs %d", ErrInvalidConfig, c.StackCost)
	}
	if c.MaxCost < 1 {
		return fmt.Errorf("%w: max cost %d", ErrInvalidConfig, c.MaxCost)
	}
	if c.IterationCap < 0 {
		return fmt.Errorf("%w: negative iteration cap", ErrInvalidConfig)
	}
	return nil
}

func (c Config) opCost(op Op) int {
	if cost, ok := c.OpCost[op]; ok {
		return cost
	}
	return 1
}

type Stats struct {
	Known        int
	Iterations   int
	Improvements int
	// Regressions counts shapes that got cheaper after they were expanded.
	Regressions int
	// MaxCost is the highest cost expanded.
	MaxCost int
	Capped  bool
}

// Search holds the state of one closure. It is not safe for concurrent use.
type Search struct {
	cfg     Config
	log     logrus.FieldLogger
	catalog *catalog.Catalog

	all      []Record
	expanded []bool
	// buckets[cost] queues codes to expand. An entry whose record has since
	// become cheaper is stale and skipped.
	buckets [][]shape.Code
	// done[cost] lists the shapes expanded at that cost, for stacking.
	done [][]shape.Code

	stats Stats
}

// New prepares a search. cat may be nil; an empty catalog allows every
// code.
func New(cfg Config, cat *catalog.Catalog, log logrus.FieldLogger) (*Search, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	s := &Search{
		cfg:      cfg,
		log:      log,
		catalog:  cat,
		all:      make([]Record, shape.Mask+1),
		expanded: make([]bool, shape.Mask+1),
		buckets:  make([][]shape.Code, cfg.MaxCost+1),
		done:     make([][]shape.Code, cfg.MaxCost+1),
	}
	for _, seed := range cfg.Seeds {
		if s.all[seed].Known() {
			continue
		}
		s.all[seed] = Record{Code: seed, Op: OpPrim, Alt: 1}
		s.buckets[0] = append(s.buckets[0], seed)
		s.stats.Known++
	}
	return s, nil
}

// Run expands shapes until every bucket is drained, the iteration cap is
// hit or ctx is done.
func (s *Search) Run(ctx context.Context) (Stats, error) {
	for cost := 0; cost <= s.cfg.MaxCost; cost++ {
		if err := ctx.Err(); err != nil {
			return s.stats, fmt.Errorf("search: run stopped at cost %d: %w", cost, err)
		}

		before := s.stats.Iterations
		for i := 0; i < len(s.buckets[cost]); i++ {
			code := s.buckets[cost][i]
			if s.expanded[code] || s.all[code].Cost != cost {
				continue
			}
			if limit := s.cfg.IterationCap; limit > 0 && s.stats.Iterations >= limit {
				s.stats.Capped = true
				s.log.WithFields(logrus.Fields{
					"cost":       cost,
					"iterations": s.stats.Iterations,
				}).Warn("iteration cap reached")
				return s.stats, nil
			}
			s.expand(code, cost)
		}
		s.buckets[cost] = nil

		if s.stats.Iterations > before {
			s.stats.MaxCost = cost
			s.log.WithFields(logrus.Fields{
				"cost":     cost,
				"expanded": s.stats.Iterations - before,
				"known":    s.stats.Known,
			}).Debug("cost drained")
		}
	}

	s.log.WithFields(logrus.Fields{
		"known":        s.stats.Known,
		"iterations":   s.stats.Iterations,
		"improvements": s.stats.Improvements,
		"regressions":  s.stats.Regressions,
	}).Info("search finished")
	return s.stats, nil
}

func (s *Search) expand(code shape.Code, cost int) {
	s.stats.Iterations++
	s.expanded[code] = true
	s.done[cost] = append(s.done[cost], code)

	for _, u := range unaryOps {
		next := u.apply(code)
		if next == code {
			continue
		}
		s.update(Record{Code: next, Op: u.op, Cost: cost + s.cfg.opCost(u.op), Code1: code})
	}

	// Both orders against everything expanded so far, itself included.
	for otherCost := 0; otherCost <= s.cfg.MaxCost-cost-s.cfg.StackCost; otherCost++ {
		newCost := cost + otherCost + s.cfg.StackCost
		for _, other := range s.done[otherCost] {
			if next := shape.Stack(code, other); next != code && next != other {
				s.update(Record{Code: next, Op: OpStack, Cost: newCost, Code1: other, Code2: code})
			}
			if next := shape.Stack(other, code); next != code && next != other {
				s.update(Record{Code: next, Op: OpStack, Cost: newCost, Code1: code, Code2: other})
			}
		}
	}
}

func (s *Search) update(rec Record) {
	if rec.Code == 0 || rec.Cost > s.cfg.MaxCost || !s.catalog.Allows(rec.Code) {
		return
	}

	old := s.all[rec.Code]
	switch {
	case !old.Known():
		s.stats.Known++
	case rec.Cost < old.Cost:
		s.stats.Improvements++
		fields := logrus.Fields{
			"code":     rec.Code.Hex(),
			"old_cost": old.Cost,
			"new_cost": rec.Cost,
		}
		if s.expanded[rec.Code] {
			// its bucket is drained: the record is replaced but the shape
			// keeps the expansion it had
			s.stats.Regressions++
			s.log.WithFields(fields).Warn("cost regression")
			rec.Alt = 1
			s.all[rec.Code] = rec
			return
		}
		s.log.WithFields(fields).Debug("cheaper build")
	case rec.Cost == old.Cost:
		s.all[rec.Code].Alt++
		return
	default:
		return
	}

	rec.Alt = 1
	s.all[rec.Code] = rec
	s.buckets[rec.Cost] = append(s.buckets[rec.Cost], rec.Code)
}

// Get returns the record for code.
func (s *Search) Get(code shape.Code) (Record, bool) {
	if code > shape.Mask || !s.all[code].Known() {
		return Record{}, false
	}
	return s.all[code], true
}

func (s *Search) Stats() Stats {
	return s.stats
}

// Records returns every known record ordered by code.
func (s *Search) Records() []Record {
	out := make([]Record, 0, s.stats.Known)
	for _, rec := range s.all {
		if rec.Known() {
			out = append(out, rec)
		}
	}
	return out
}

// BestForKeys returns, for each canonical key with a known member, the
// cheapest record in its orbit. Ties go to the lower code.
func (s *Search) BestForKeys() []Record {
	best := make(map[shape.Code]Record)
	for _, rec := range s.all {
		if !rec.Known() {
			continue
		}
		key := rec.Code.KeyCode()
		if cur, ok := best[key]; !ok || rec.Cost < cur.Cost {
			best[key] = rec
		}
	}

	out := make([]Record, 0, len(best))
	for _, rec := range best {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Record) int {
		return int(a.Code.KeyCode()) - int(b.Code.KeyCode())
	})
	return out
}

// Replay rebuilds code from its build tree.
func (s *Search) Replay(code shape.Code) (shape.Code, error) {
	rec, ok := s.Get(code)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCode, code.Hex())
	}

	switch rec.Op {
	case OpPrim:
		return rec.Code, nil
	case OpStack:
		bottom, err := s.Replay(rec.Code1)
		if err != nil {
			return 0, err
		}
		top, err := s.Replay(rec.Code2)
		if err != nil {
			return 0, err
		}
		return shape.Stack(top, bottom), nil
	}

	in, err := s.Replay(rec.Code1)
	if err != nil {
		return 0, err
	}
	out, _ := rec.Op.Apply(in)
	return out, nil
}
