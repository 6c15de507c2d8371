package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordbound/wordbound-server/internal"
	"github.com/wordbound/wordbound-server/internal/state"
)

func TestRecordsUpdate(t *testing.T) {
	t.Parallel()

	t.Run("first submission sets the record", func(t *testing.T) {
		t.Parallel()
		r := state.NewRecords(nil, nil)

		rec := r.Update("", "u-1", "alice", 100, 8, 2)
		assert.Equal(t, internal.DefaultServerID, rec.ServerID)
		assert.Equal(t, "alice", rec.Username)
		assert.Equal(t, 100, rec.Score)

		got, ok := r.Get("")
		require.True(t, ok)
		assert.Equal(t, rec, got)
	})

	t.Run("equal score keeps the incumbent", func(t *testing.T) {
		t.Parallel()
		r := state.NewRecords(nil, nil)
		r.Update("", "u-1", "alice", 100, 8, 2)

		rec := r.Update("", "u-2", "bob", 100, 9, 3)
		assert.Equal(t, "alice", rec.Username, "ties go to the holder")

		rec = r.Update("", "u-2", "bob", 99, 9, 3)
		assert.Equal(t, "alice", rec.Username)
	})

	t.Run("strictly higher score replaces", func(t *testing.T) {
		t.Parallel()
		r := state.NewRecords(nil, nil)
		r.Update("", "u-1", "alice", 100, 8, 2)

		rec := r.Update("", "u-2", "bob", 101, 5, 1)
		assert.Equal(t, "bob", rec.Username)
		assert.Equal(t, 101, rec.Score)
	})

	t.Run("records are per server", func(t *testing.T) {
		t.Parallel()
		r := state.NewRecords(nil, nil)
		r.Update("srv-a", "u-1", "alice", 100, 8, 2)
		r.Update("srv-b", "u-2", "bob", 50, 3, 0)

		a, ok := r.Get("srv-a")
		require.True(t, ok)
		assert.Equal(t, "alice", a.Username)

		b, ok := r.Get("srv-b")
		require.True(t, ok)
		assert.Equal(t, "bob", b.Username)
	})
}

func TestRecordsGetMissing(t *testing.T) {
	t.Parallel()
	r := state.NewRecords(nil, nil)
	_, ok := r.Get("empty-server")
	assert.False(t, ok)
}
