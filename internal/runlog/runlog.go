// Package runlog keeps a TOML summary of the latest solve or search run and
// a short history of the runs before it.
package runlog

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/2767mr/tmam/internal/search"
	"github.com/2767mr/tmam/internal/tmam"
)

// maxHistory is the number of earlier runs kept.
const maxHistory = 10

const (
	KindSolve  = "solve"
	KindSearch = "search"
)

// Run is the summary of one run. Solve runs fill the target counters and
// search runs the record counters.
type Run struct {
	Kind        string    `toml:"kind"`
	StartedAt   time.Time `toml:"started_at"`
	CompletedAt time.Time `toml:"completed_at"`
	DurationNs  int64     `toml:"duration_ns"`
	Iterations  int       `toml:"iterations"`

	Targets            int            `toml:"targets,omitempty"`
	Solved             int            `toml:"solved,omitempty"`
	Extra              int            `toml:"extra,omitempty"`
	MaxQueueIterations int            `toml:"max_queue_iterations,omitempty"`
	Wins               map[string]int `toml:"wins,omitempty"`
	Failed             []string       `toml:"failed,omitempty"`

	Known        int  `toml:"known,omitempty"`
	Improvements int  `toml:"improvements,omitempty"`
	Regressions  int  `toml:"regressions,omitempty"`
	MaxCost      int  `toml:"max_cost,omitempty"`
	Capped       bool `toml:"capped,omitempty"`
}

// Summary is the condensed form kept in the history.
type Summary struct {
	Kind        string    `toml:"kind"`
	StartedAt   time.Time `toml:"started_at"`
	DurationNs  int64     `toml:"duration_ns"`
	Iterations  int       `toml:"iterations"`
	Targets     int       `toml:"targets,omitempty"`
	Solved      int       `toml:"solved,omitempty"`
	Known       int       `toml:"known,omitempty"`
	Regressions int       `toml:"regressions,omitempty"`
}

func (r Run) Duration() time.Duration {
	return time.Duration(r.DurationNs)
}

func (r Run) summary() Summary {
	return Summary{
		Kind:        r.Kind,
		StartedAt:   r.StartedAt,
		DurationNs:  r.DurationNs,
		Iterations:  r.Iterations,
		Targets:     r.Targets,
		Solved:      r.Solved,
		Known:       r.Known,
		Regressions: r.Regressions,
	}
}

type file struct {
	Current Run       `toml:"current"`
	History []Summary `toml:"history"`
}

// FromBatch summarises a solve batch over targets.
func FromBatch(started, completed time.Time, targets int, b tmam.Batch) Run {
	r := Run{
		Kind:               KindSolve,
		StartedAt:          started,
		CompletedAt:        completed,
		DurationNs:         int64(completed.Sub(started)),
		Iterations:         b.Iterations,
		Targets:            targets,
		Solved:             len(b.Results),
		MaxQueueIterations: b.MaxQueueIterations,
		Wins:               make(map[string]int, len(b.Wins)),
	}
	for name, n := range b.Wins {
		r.Wins[string(name)] = n
	}
	for _, res := range b.Results {
		if res.Extra {
			r.Extra++
		}
	}
	for _, c := range b.Failed {
		r.Failed = append(r.Failed, c.Hex())
	}
	return r
}

// FromSearch summarises a construction search.
func FromSearch(started, completed time.Time, st search.Stats) Run {
	return Run{
		Kind:         KindSearch,
		StartedAt:    started,
		CompletedAt:  completed,
		DurationNs:   int64(completed.Sub(started)),
		Iterations:   st.Iterations,
		Known:        st.Known,
		Improvements: st.Improvements,
		Regressions:  st.Regressions,
		MaxCost:      st.MaxCost,
		Capped:       st.Capped,
	}
}

// Save writes r as the current run at path. The run it replaces moves to
// the history.
func Save(path string, r Run) error {
	existing, err := load(path)
	if err != nil {
		return err
	}

	var history []Summary
	if existing != nil {
		history = append(existing.History, existing.Current.summary())
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	data, err := toml.Marshal(file{Current: r, History: history})
	if err != nil {
		return fmt.Errorf("runlog: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("runlog: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("runlog: rename %s: %w", tmp, err)
	}
	return nil
}

// Load returns the current run and the history at path. Both are nil when
// the file does not exist yet.
func Load(path string) (*Run, []Summary, error) {
	f, err := load(path)
	if err != nil || f == nil {
		return nil, nil, err
	}
	return &f.Current, f.History, nil
}

func load(path string) (*file, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("runlog: read %s: %w", path, err)
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("runlog: parse %s: %w", path, err)
	}
	return &f, nil
}
