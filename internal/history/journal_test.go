package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgectl/internal/resource"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, "run-1", started, resource.Result{
		Type:    "ovs_bridge",
		Name:    "br-mgmt",
		Outcome: resource.OutcomeSuccess,
		State:   resource.StatePresent,
		Actions: []resource.Action{
			{Kind: resource.ActionCreate},
			{Kind: resource.ActionSetTag, Key: "purpose", Value: "mgmt"},
		},
		Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, j.Record(ctx, "run-2", started.Add(time.Minute), resource.Result{
		Type:        "ovs_bridge",
		Name:        "br-data",
		Outcome:     resource.OutcomePartial,
		State:       resource.StatePresent,
		Actions:     []resource.Action{{Kind: resource.ActionCreate}},
		DriftedTags: []string{"owner"},
		Err:         errors.New("ovs-vsctl exited with code 1"),
		Duration:    time.Second,
	}))

	entries, err := j.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest := entries[0]
	assert.Equal(t, "run-2", newest.RunID)
	assert.Equal(t, "partial", newest.Outcome)
	assert.Equal(t, []string{"create"}, newest.Actions)
	assert.Equal(t, []string{"owner"}, newest.DriftedTags)
	assert.Equal(t, "ovs-vsctl exited with code 1", newest.Error)

	oldest := entries[1]
	assert.Equal(t, "br-mgmt", oldest.Name)
	assert.Equal(t, []string{"create", "set-tag purpose=mgmt"}, oldest.Actions)
	assert.Nil(t, oldest.DriftedTags)
	assert.Empty(t, oldest.Error)
	assert.True(t, oldest.StartedAt.Equal(started), "started_at round-trips, got %s", oldest.StartedAt)
	assert.Equal(t, 1500*time.Millisecond, oldest.Duration())
}

func TestJournal_RecentFilters(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	now := time.Now()
	for i, name := range []string{"br0", "br1", "br0", "br0"} {
		outcome := resource.OutcomeSuccess
		if i == 3 {
			outcome = resource.OutcomeFailure
		}
		require.NoError(t, j.Record(ctx, NewRunID(), now, resource.Result{Type: "ovs_bridge", Name: name, Outcome: outcome}))
	}

	byName, err := j.Recent(ctx, Query{Name: "br0"})
	require.NoError(t, err)
	assert.Len(t, byName, 3)

	limited, err := j.Recent(ctx, Query{Name: "br0", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	failed, err := j.Recent(ctx, Query{Outcome: "failure"})
	require.NoError(t, err)
	require.Len(t, failed, 1)

	byRun, err := j.Recent(ctx, Query{RunID: failed[0].RunID})
	require.NoError(t, err)
	require.Len(t, byRun, 1)
	assert.Equal(t, "br0", byRun[0].Name)

	none, err := j.Recent(ctx, Query{Type: "ovs_port"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJournal_Prune(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, j.Record(ctx, "old", old, resource.Result{Type: "ovs_bridge", Name: "br0", Outcome: resource.OutcomeSuccess, Duration: time.Second}))
	require.NoError(t, j.Record(ctx, "new", time.Now(), resource.Result{Type: "ovs_bridge", Name: "br0", Outcome: resource.OutcomeSuccess}))

	n, err := j.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := j.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].RunID)
}

func TestOpen_ReappliesNothing(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	j, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, "run-1", time.Now(), resource.Result{Type: "ovs_bridge", Name: "br0", Outcome: resource.OutcomeSuccess}))
	require.NoError(t, j.Close())

	j, err = Open(ctx, path)
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, path, j.Path())
	entries, err := j.Recent(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
