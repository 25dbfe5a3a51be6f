package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gmshtranslate/utils"
)

func TestGroupIndex(t *testing.T) {
	gi := NewGroupIndex(64)
	assert.Len(t, newBitmap(64), 2) // bit 64 lives in the second word
	assert.Len(t, newBitmap(63), 1)

	assert.True(t, gi.Mark(9, 64))
	assert.True(t, gi.Mark(9, 1))
	assert.True(t, gi.Mark(9, 1))
	assert.True(t, gi.Mark(-2, 63))
	assert.False(t, gi.Mark(5, 0))
	assert.False(t, gi.Mark(5, 65))

	// group 5 was discovered even though its nodes were rejected
	assert.Equal(t, []int{9, -2, 5}, gi.Groups())
	assert.Equal(t, 2, gi.Count(9))
	assert.Equal(t, 1, gi.Count(-2))
	assert.Equal(t, 0, gi.Count(5))
	assert.Equal(t, 0, gi.Count(1234))
	assert.Equal(t, []int{9}, gi.GroupsContaining(64))
	assert.Equal(t, []int{-2}, gi.GroupsContaining(63))
	assert.Nil(t, gi.GroupsContaining(2))
	assert.False(t, gi.Contains(1234, 1))
	assert.Equal(t, 64, gi.NumNodes())

	groups := gi.Groups()
	groups[0] = 77
	assert.Equal(t, 9, gi.Groups()[0])

	other := NewGroupIndex(64)
	other.Mark(9, 1)
	other.Mark(9, 64)
	other.Mark(-2, 63)
	assert.False(t, gi.Equal(other))
	other.Mark(5, 0)
	assert.True(t, gi.Equal(other))
	assert.False(t, gi.Equal(NewGroupIndex(63)))
}

func TestPredicates(t *testing.T) {
	assert.True(t, NodeInGroup(1, 2)(1, 0, 0, 0, []int{3, 2}))
	assert.False(t, NodeInGroup(1, 2)(1, 0, 0, 0, []int{3}))
	assert.False(t, NodeInGroup()(1, 0, 0, 0, []int{3}))
	assert.True(t, ElementInGroup(4, 5)(1, utils.Tet, 5, nil))
	assert.False(t, ElementInGroup(4, 5)(1, utils.Tet, 6, nil))
	assert.True(t, ElementOfType(utils.Hex, utils.Tet)(1, utils.Tet, 6, nil))
	assert.False(t, ElementOfType(utils.Hex)(1, utils.Tet, 6, nil))

	var r Rules
	r.AddNodeRule(AnyNode, nil)
	r.AddNodeRule(AnyNode, nil)
	r.AddElementRule(AnyElement, nil)
	assert.Equal(t, 2, r.NumNodeRules())
	assert.Equal(t, 1, r.NumElementRules())
	r.ClearRules()
	assert.Equal(t, 0, r.NumNodeRules())
	assert.Equal(t, 0, r.NumElementRules())
}
