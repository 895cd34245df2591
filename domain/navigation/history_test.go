package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_PushEvictsOldest(t *testing.T) {
	history := NewHistory(2)

	history.Push("a")
	history.Push("b")
	history.Push("c")

	assert.Equal(t, []string{"b", "c"}, history.Items())
	assert.False(t, history.Contains("a"))
	assert.True(t, history.Contains("c"))
	assert.Equal(t, 2, history.Len())
}

func TestHistory_ZeroMaxDisablesTracking(t *testing.T) {
	history := NewHistory(0)

	history.Push("a")

	assert.Zero(t, history.Len())
	assert.False(t, history.Contains("a"))
}

func TestHistory_CloneIsIndependent(t *testing.T) {
	history := NewHistory(5)
	history.Push("a")

	clone := history.Clone()
	clone.Push("b")

	assert.Equal(t, []string{"a"}, history.Items())
	assert.Equal(t, []string{"a", "b"}, clone.Items())
}
