package translator

import "github.com/notargets/gmshtranslate/utils"

// NodePredicate selects nodes. groups lists, in discovery order, the physical
// groups the node belongs to.
type NodePredicate func(tag int, x, y, z float64, groups []int) bool

// NodeAction runs for every node whose predicate held. A non nil error aborts
// the parse.
type NodeAction func(tag int, x, y, z float64) error

// ElementPredicate selects elements. nodes is the connectivity list, freshly
// allocated per element and shared by every rule evaluated on it.
type ElementPredicate func(tag int, etype utils.ElementType, group int, nodes []int) bool

// ElementAction runs for every element whose predicate held. A non nil error
// aborts the parse.
type ElementAction func(tag int, etype utils.ElementType, group int, nodes []int) error

type nodeRule struct {
	pred NodePredicate
	act  NodeAction
}

type elementRule struct {
	pred ElementPredicate
	act  ElementAction
}

// Rules is the ordered registry. It is not safe to modify while a Parse is
// running.
type Rules struct {
	nodes    []nodeRule
	elements []elementRule
}

func (r *Rules) AddNodeRule(pred NodePredicate, act NodeAction) {
	r.nodes = append(r.nodes, nodeRule{pred: pred, act: act})
}

func (r *Rules) AddElementRule(pred ElementPredicate, act ElementAction) {
	r.elements = append(r.elements, elementRule{pred: pred, act: act})
}

// ClearRules empties both lists
func (r *Rules) ClearRules() {
	r.nodes = nil
	r.elements = nil
}

func (r *Rules) NumNodeRules() int { return len(r.nodes) }

func (r *Rules) NumElementRules() int { return len(r.elements) }

// AnyNode is a predicate matching every node
func AnyNode(int, float64, float64, float64, []int) bool { return true }

// AnyElement is a predicate matching every element
func AnyElement(int, utils.ElementType, int, []int) bool { return true }

// NodeInGroup matches nodes that belong to at least one of groups
func NodeInGroup(groups ...int) NodePredicate {
	return func(_ int, _, _, _ float64, member []int) bool {
		for _, m := range member {
			for _, g := range groups {
				if m == g {
					return true
				}
			}
		}
		return false
	}
}

// ElementInGroup matches elements tagged with one of groups
func ElementInGroup(groups ...int) ElementPredicate {
	return func(_ int, _ utils.ElementType, group int, _ []int) bool {
		for _, g := range groups {
			if g == group {
				return true
			}
		}
		return false
	}
}

// ElementOfType matches elements of one of types
func ElementOfType(types ...utils.ElementType) ElementPredicate {
	return func(_ int, etype utils.ElementType, _ int, _ []int) bool {
		for _, t := range types {
			if t == etype {
				return true
			}
		}
		return false
	}
}
