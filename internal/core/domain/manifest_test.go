package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClassify_FirstRun tests that an empty manifest makes every document new
func TestClassify_FirstRun(t *testing.T) {
	plan := Classify(Manifest{"B": "h2", "A": "h1"}, Manifest{})

	assert.Equal(t, []string{"A", "B"}, plan.New)
	assert.Empty(t, plan.Modified)
	assert.Empty(t, plan.Unchanged)
	assert.Empty(t, plan.Deleted)
	assert.True(t, plan.HasChanges())
}

// TestClassify_Modified tests a single changed fingerprint
func TestClassify_Modified(t *testing.T) {
	plan := Classify(
		Manifest{"A": "h1-new", "B": "h2"},
		Manifest{"A": "h1", "B": "h2"},
	)

	assert.Equal(t, []string{"A"}, plan.Modified)
	assert.Equal(t, []string{"B"}, plan.Unchanged)
	assert.Empty(t, plan.New)
	assert.Empty(t, plan.Deleted)
}

// TestClassify_Deleted tests ids present only in the previous manifest
func TestClassify_Deleted(t *testing.T) {
	plan := Classify(Manifest{"A": "h1"}, Manifest{"A": "h1", "C": "h3"})

	assert.Equal(t, []string{"C"}, plan.Deleted)
	assert.Equal(t, []string{"A"}, plan.Unchanged)
}

// TestClassify_NoChanges tests the no-op detection
func TestClassify_NoChanges(t *testing.T) {
	m := Manifest{"A": "h1", "B": "h2"}
	plan := Classify(m, m.Clone())

	assert.False(t, plan.HasChanges())
	assert.Equal(t, 2, plan.Total())
}

// TestIndexPlan_UnreadableCounted tests that unreadable ids are part of
// the plan but not a change
func TestIndexPlan_UnreadableCounted(t *testing.T) {
	plan := Classify(Manifest{"A": "h1"}, Manifest{"A": "h1"})
	plan.Unreadable = []string{"B"}

	assert.Equal(t, 2, plan.Total())
	assert.False(t, plan.HasChanges())
	kind, ok := plan.KindOf("B")
	assert.True(t, ok)
	assert.Equal(t, ChangeUnreadable, kind)
}

// TestClassify_Partition tests that every id lands in exactly one class
func TestClassify_Partition(t *testing.T) {
	current := Manifest{"new": "1", "mod": "2b", "same": "3"}
	previous := Manifest{"mod": "2a", "same": "3", "gone": "4"}

	plan := Classify(current, previous)

	union := map[string]bool{}
	for id := range current {
		union[id] = true
	}
	for id := range previous {
		union[id] = true
	}
	assert.Equal(t, len(union), plan.Total())

	expected := map[string]ChangeKind{
		"new":  ChangeNew,
		"mod":  ChangeModified,
		"same": ChangeUnchanged,
		"gone": ChangeDeleted,
	}
	for id, kind := range expected {
		got, ok := plan.KindOf(id)
		assert.True(t, ok, id)
		assert.Equal(t, kind, got, id)
	}

	_, ok := plan.KindOf("missing")
	assert.False(t, ok)
}

// TestManifest_Clone tests that clones are independent
func TestManifest_Clone(t *testing.T) {
	m := Manifest{"A": "h1"}
	c := m.Clone()
	c["A"] = "changed"

	assert.Equal(t, "h1", m["A"])
	assert.Equal(t, []string{"A"}, m.IDs())
}
