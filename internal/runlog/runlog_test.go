package runlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2767mr/tmam/internal/search"
	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/tmam"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLoadMissing(t *testing.T) {
	run, history, err := Load(filepath.Join(t.TempDir(), "run.toml"))
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.Nil(t, history)
}

func TestSaveBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	batch := tmam.Batch{
		Results: []tmam.Result{
			{Target: 0x4b, Strategy: tmam.StrategyFastmam},
			{Target: 0xf00f, Strategy: tmam.StrategyCombo, Extra: true},
		},
		Failed:             []shape.Code{0x1248},
		Wins:               map[tmam.Strategy]int{tmam.StrategyFastmam: 1, tmam.StrategyCombo: 1},
		Iterations:         42,
		MaxQueueIterations: 7,
	}

	r := FromBatch(start, start.Add(3*time.Second), 3, batch)
	require.NoError(t, Save(path, r))

	got, history, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, history)

	assert.Equal(t, KindSolve, got.Kind)
	assert.True(t, got.StartedAt.Equal(start))
	assert.Equal(t, 3*time.Second, got.Duration())
	assert.Equal(t, 3, got.Targets)
	assert.Equal(t, 2, got.Solved)
	assert.Equal(t, 1, got.Extra)
	assert.Equal(t, 42, got.Iterations)
	assert.Equal(t, 7, got.MaxQueueIterations)
	assert.Equal(t, map[string]int{"fastmam": 1, "combo": 1}, got.Wins)
	assert.Equal(t, []string{"1248"}, got.Failed)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestHistoryRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")

	for i := 0; i < maxHistory+3; i++ {
		st := search.Stats{Known: i + 1, Iterations: i}
		began := start.Add(time.Duration(i) * time.Minute)
		require.NoError(t, Save(path, FromSearch(began, began.Add(time.Second), st)))
	}

	got, history, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, KindSearch, got.Kind)
	assert.Equal(t, maxHistory+3, got.Known)

	require.Len(t, history, maxHistory)
	// oldest first, the three earliest runs dropped
	assert.Equal(t, 3, history[0].Known)
	assert.Equal(t, maxHistory+2, history[maxHistory-1].Known)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte("current = [[["), 0o644))

	_, _, err := Load(path)
	assert.Error(t, err)
	assert.Error(t, Save(path, Run{Kind: KindSolve}))
}
