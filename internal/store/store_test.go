package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2767mr/tmam/internal/search"
	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/tmam"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tmam.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := testStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	tables := map[string]bool{}
	rows, err := s.db.Query("SELECT name FROM sqlite_master WHERE type='table'")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables[name] = true
	}
	require.NoError(t, rows.Err())
	assert.True(t, tables["solutions"])
	assert.True(t, tables["builds"])
}

func TestSolutions(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	results := []tmam.Result{
		{Target: 0x4b, Parts: []shape.Code{0x9, 0x42}, Order: "01+", Strategy: tmam.StrategyFastmam, Stats: tmam.Stats{Iterations: 3}},
		{Target: 0xf00f, Parts: []shape.Code{0xf, 0xf000, shape.Scaffold}, Order: "012++", Extra: true, Strategy: tmam.StrategyCombo},
	}
	require.NoError(t, s.SaveSolutions(ctx, results))
	require.NoError(t, s.SaveSolutions(ctx, nil))

	got, ok, err := s.Solution(ctx, 0x4b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, results[0], got)

	got, ok, err = s.Solution(ctx, 0xf00f)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Extra)
	assert.Equal(t, results[1].Parts, got.Parts)

	_, ok, err = s.Solution(ctx, 0x1)
	require.NoError(t, err)
	assert.False(t, ok)

	// a later solve replaces the row
	results[0].Strategy = tmam.StrategyGreedy
	results[0].Parts = []shape.Code{0x42, 0x9}
	require.NoError(t, s.SaveSolutions(ctx, results[:1]))
	got, _, err = s.Solution(ctx, 0x4b)
	require.NoError(t, err)
	assert.Equal(t, tmam.StrategyGreedy, got.Strategy)

	counts, err := s.StrategyCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[tmam.Strategy]int{tmam.StrategyGreedy: 1, tmam.StrategyCombo: 1}, counts)
}

func TestBuilds(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	cfg := search.DefaultConfig()
	cfg.MaxCost = 3
	srch, err := search.New(cfg, nil, nil)
	require.NoError(t, err)
	_, err = srch.Run(ctx)
	require.NoError(t, err)
	records := srch.Records()

	require.NoError(t, s.SaveBuilds(ctx, records))
	// saving again replaces rather than duplicates
	require.NoError(t, s.SaveBuilds(ctx, records))

	want, ok := srch.Get(0x3)
	require.True(t, ok)
	got, ok, err := s.Build(ctx, 0x3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = s.Build(ctx, 0xffff)
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := s.BuildsUpTo(ctx, cfg.MaxCost)
	require.NoError(t, err)
	assert.Len(t, all, len(records))

	cheap, err := s.BuildsUpTo(ctx, 0)
	require.NoError(t, err)
	require.Len(t, cheap, len(search.DefaultSeeds))
	for _, rec := range cheap {
		assert.Equal(t, search.OpPrim, rec.Op)
	}
}
