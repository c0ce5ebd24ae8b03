// Package tmam splits shapes that cannot be stacked layer by layer into a
// short list of parts and a stacking order that rebuilds them.
//
// A part is kept in target coordinates: its bits are exactly the corners it
// supplies in the finished shape. When an order is replayed every part is
// dropped from above, so the order is only accepted if physics puts every
// part back where it came from.
//
// Three strategies are available. fastmam walks the shape quad by quad under
// a fixed list of rule sets and is the cheapest. greedy peels flats and half
// logos off the bottom. combo tries subsets of every half logo found in the
// target and is the most thorough.
package tmam

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/2767mr/tmam/internal/shape"
)

// Strategy names a deconstruction strategy.
type Strategy string

const (
	StrategyFlat    Strategy = "flat"
	StrategyFastmam Strategy = "fastmam"
	StrategyGreedy  Strategy = "greedy"
	StrategyCombo   Strategy = "combo"
)

var strategyTable = map[Strategy]func(*run) (Result, bool){
	StrategyFastmam: (*run).fastmam,
	StrategyGreedy:  (*run).greedy,
	StrategyCombo:   (*run).combo,
}

// Config controls which strategies run and how hard they try.
type Config struct {
	// Strategies run in order after the layer-by-layer check.
	Strategies []Strategy
	// MaxLogoSize is the tallest half logo greedy looks for (2..4).
	MaxLogoSize int
	// IterationCap bounds stacking attempts per target. 0 means no bound.
	IterationCap int
}

func DefaultConfig() Config {
	return Config{
		Strategies:  []Strategy{StrategyFastmam, StrategyGreedy, StrategyCombo},
		MaxLogoSize: 4,
	}
}

func (c Config) Validate() error {
	if len(c.Strategies) == 0 {
		return fmt.Errorf("%w: no strategies", ErrInvalidConfig)
	}
	for _, s := range c.Strategies {
		if _, ok := strategyTable[s]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
		}
	}
	if c.MaxLogoSize < 2 || c.MaxLogoSize > shape.Layers {
		return fmt.Errorf("%w: max logo size %d not in 2..%d", ErrInvalidConfig, c.MaxLogoSize, shape.Layers)
	}
	if c.IterationCap < 0 {
		return fmt.Errorf("%w: negative iteration cap", ErrInvalidConfig)
	}
	return nil
}

// Stats describes the work done on one target.
type Stats struct {
	Candidates         int
	Iterations         int
	LogosFound         int
	MaxQueueIterations int
}

// Result is a deconstruction of Target. Replaying Order over Parts gives
// Target back. Extra is set when a full fifth layer was added as scaffold.
type Result struct {
	Target   shape.Code
	Parts    []shape.Code
	Order    string
	Extra    bool
	Strategy Strategy
	Stats    Stats
}

func (r Result) Replay() (shape.Code, error) {
	return Replay(r.Parts, r.Order)
}

// Solver deconstructs targets. It keeps no state between calls.
type Solver struct {
	cfg Config
	log logrus.FieldLogger
}

func New(cfg Config, log logrus.FieldLogger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Solver{cfg: cfg, log: log}, nil
}

// Solve looks for a deconstruction of target. ok is false when none of the
// strategies found one; the returned Result still carries the stats.
func (s *Solver) Solve(target shape.Code) (Result, bool) {
	r := &run{solver: s, target: target}
	if target == 0 || target > shape.Mask {
		return Result{Target: target}, false
	}

	if target.CanStackAll() {
		var buf [shape.Layers]shape.Code
		parts := buf[:0]
		for layer := 0; layer < target.LayerCount(); layer++ {
			parts = append(parts, target&(shape.LayerMask<<(4*layer)))
		}
		if order, ok := r.tryBuild(parts); ok {
			return r.result(parts, order, StrategyFlat), true
		}
	}

	for _, name := range s.cfg.Strategies {
		if res, ok := strategyTable[name](r); ok {
			return res, true
		}
		if r.exhausted {
			s.log.WithFields(logrus.Fields{
				"target":     target.Hex(),
				"strategy":   name,
				"iterations": r.stats.Iterations,
			}).Debug("iteration cap reached")
			break
		}
	}

	return Result{Target: target, Stats: r.stats}, false
}

// Batch is the outcome of SolveAll.
type Batch struct {
	Results []Result
	Failed  []shape.Code
	Wins    map[Strategy]int

	Iterations         int
	MaxQueueIterations int
}

// SolveAll solves targets one after another. It stops early only when ctx
// is done.
func (s *Solver) SolveAll(ctx context.Context, targets []shape.Code) (Batch, error) {
	batch := Batch{Wins: make(map[Strategy]int)}

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return batch, fmt.Errorf("tmam: solve stopped after %d of %d: %w", i, len(targets), err)
		}

		res, ok := s.Solve(target)
		batch.Iterations += res.Stats.Iterations
		batch.MaxQueueIterations = max(batch.MaxQueueIterations, res.Stats.MaxQueueIterations)
		if !ok {
			batch.Failed = append(batch.Failed, target)
			s.log.WithField("target", target.Hex()).Debug("no deconstruction")
			continue
		}
		batch.Results = append(batch.Results, res)
		batch.Wins[res.Strategy]++
	}

	s.log.WithFields(logrus.Fields{
		"targets":    len(targets),
		"solved":     len(batch.Results),
		"failed":     len(batch.Failed),
		"iterations": batch.Iterations,
	}).Info("batch solved")
	return batch, nil
}

// run is the per-target scratch shared by the strategies.
type run struct {
	solver    *Solver
	target    shape.Code
	stats     Stats
	exhausted bool
}

// tryBuild tries every order for parts and returns the first one that
// rebuilds the target.
func (r *run) tryBuild(parts []shape.Code) (string, bool) {
	if r.exhausted {
		return "", false
	}
	if limit := r.solver.cfg.IterationCap; limit > 0 && r.stats.Iterations >= limit {
		r.exhausted = true
		return "", false
	}
	r.stats.Iterations++

	for _, order := range Orders(len(parts)) {
		got, err := Replay(parts, order)
		if err != nil {
			r.solver.log.WithError(err).WithField("target", r.target.Hex()).Warn("bad stacking order")
			continue
		}
		if got == r.target {
			return order, true
		}
	}
	return "", false
}

func (r *run) result(parts []shape.Code, order string, strategy Strategy) Result {
	var all shape.Code
	for _, p := range parts {
		all |= p
	}
	return Result{
		Target:   r.target,
		Parts:    slices.Clone(parts),
		Order:    order,
		Extra:    all&shape.Scaffold != 0,
		Strategy: strategy,
		Stats:    r.stats,
	}
}
