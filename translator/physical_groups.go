package translator

import "math/bits"

// bitmap holds one bit per node tag, index 0 unused
type bitmap []uint64

func newBitmap(numNodes int) bitmap {
	return make(bitmap, (numNodes+1+63)/64)
}

func (b bitmap) set(i int) { b[i>>6] |= 1 << uint(i&63) }

func (b bitmap) has(i int) bool { return b[i>>6]&(1<<uint(i&63)) != 0 }

func (b bitmap) count() (n int) {
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return
}

// GroupIndex maps physical group ids to the set of node tags used by elements
// of that group. Groups are kept in the order they were first seen.
type GroupIndex struct {
	numNodes int
	order    []int
	members  map[int]bitmap
}

// NewGroupIndex creates an empty index for node tags 1..numNodes
func NewGroupIndex(numNodes int) *GroupIndex {
	return &GroupIndex{
		numNodes: numNodes,
		members:  make(map[int]bitmap),
	}
}

// Mark records that node belongs to group, allocating the group's bitmap on
// first sight. It returns false when node is outside 1..NumNodes.
func (gi *GroupIndex) Mark(group, node int) bool {
	bm, ok := gi.members[group]
	if !ok {
		bm = newBitmap(gi.numNodes)
		gi.members[group] = bm
		gi.order = append(gi.order, group)
	}
	if node < 1 || node > gi.numNodes {
		return false
	}
	bm.set(node)
	return true
}

func (gi *GroupIndex) NumNodes() int { return gi.numNodes }

// Groups returns the group ids in discovery order
func (gi *GroupIndex) Groups() []int {
	return append([]int(nil), gi.order...)
}

// Contains reports whether node belongs to group
func (gi *GroupIndex) Contains(group, node int) bool {
	bm, ok := gi.members[group]
	if !ok || node < 1 || node > gi.numNodes {
		return false
	}
	return bm.has(node)
}

// GroupsContaining returns, in discovery order, every group holding node.
// A nil slice means none.
func (gi *GroupIndex) GroupsContaining(node int) (groups []int) {
	if node < 1 || node > gi.numNodes {
		return nil
	}
	for _, g := range gi.order {
		if gi.members[g].has(node) {
			groups = append(groups, g)
		}
	}
	return
}

// Count is the number of distinct nodes in group
func (gi *GroupIndex) Count(group int) int {
	bm, ok := gi.members[group]
	if !ok {
		return 0
	}
	return bm.count()
}

// Equal compares two indexes, including discovery order
func (gi *GroupIndex) Equal(other *GroupIndex) bool {
	if gi.numNodes != other.numNodes || len(gi.order) != len(other.order) {
		return false
	}
	for i, g := range gi.order {
		if other.order[i] != g {
			return false
		}
		a, b := gi.members[g], other.members[g]
		for w := range a {
			if a[w] != b[w] {
				return false
			}
		}
	}
	return true
}
