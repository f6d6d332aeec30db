package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepResolvesStalePendingMatches(t *testing.T) {
	f := newFixture(false)

	stale, err := f.submit(context.Background())
	require.NoError(t, err)
	f.matches.records[stale.ID].CreatedAt = time.Now().Add(-2 * time.Hour)

	fresh, err := f.submit(context.Background())
	require.NoError(t, err)

	sweeper := NewSweeper(f.matches, f.svc, time.Minute, 30*time.Minute, zap.NewNop())
	sweeper.Run(context.Background())

	staleStored, err := f.matches.Get(context.Background(), stale.ID)
	require.NoError(t, err)
	require.NotNil(t, staleStored.MatchResultID, "a stale pending match must be resolved")

	result, err := f.results.Get(context.Background(), *staleStored.MatchResultID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.AtsScorePercent)
	assert.Contains(t, result.Summary, "did not complete in time")

	freshStored, err := f.matches.Get(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Nil(t, freshStored.MatchResultID, "a fresh pending match is left alone")
}

func TestSweepLeavesTerminalMatchesAlone(t *testing.T) {
	f := newFixture(true)

	match, err := f.submit(context.Background())
	require.NoError(t, err)
	f.matches.records[match.ID].CreatedAt = time.Now().Add(-2 * time.Hour)

	before := *f.matches.records[match.ID].MatchResultID

	sweeper := NewSweeper(f.matches, f.svc, time.Minute, 30*time.Minute, zap.NewNop())
	sweeper.Run(context.Background())

	after, err := f.matches.Get(context.Background(), match.ID)
	require.NoError(t, err)
	require.NotNil(t, after.MatchResultID)
	assert.Equal(t, before, *after.MatchResultID)
	assert.Len(t, f.results.records, 1)
}
