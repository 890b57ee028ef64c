package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(id string) *Snapshot {
	return &Snapshot{ID: id}
}

func TestSnapshotCache_PutGet(t *testing.T) {
	c := newSnapshotCache(2)

	c.put("a", snap("1"))
	got, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "1", got.ID)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestSnapshotCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newSnapshotCache(2)

	c.put("a", snap("1"))
	c.put("b", snap("2"))
	c.put("c", snap("3"))

	_, ok := c.get("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestSnapshotCache_GetRefreshesRecency(t *testing.T) {
	c := newSnapshotCache(2)

	c.put("a", snap("1"))
	c.put("b", snap("2"))

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", snap("3"))

	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("b")
	assert.False(t, ok)
}

func TestSnapshotCache_PutExistingUpdatesValue(t *testing.T) {
	c := newSnapshotCache(2)

	c.put("a", snap("1"))
	c.put("a", snap("updated"))

	got, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", got.ID)
	assert.Equal(t, 1, c.len())
}
