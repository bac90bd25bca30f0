package evo

import (
	"errors"
	"math/rand"

	"symreg/internal/expr"
	"symreg/internal/model"
)

// Crossover grafts a random subtree of the donor into a copy of the
// recipient at a random attachment point and returns the offspring.
// Both parents are left untouched. If the graft would exceed the depth
// bound or strip every variable reference from the offspring, the
// offspring falls back to a plain copy of the recipient.
func Crossover(rng *rand.Rand, recipient, donor *model.Node, maxDepth int) (*model.Node, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if recipient == nil || donor == nil {
		return nil, expr.ErrNilNode
	}
	if maxDepth <= 0 {
		return nil, errors.New("max depth must be > 0")
	}

	child := expr.Clone(recipient)
	slots := subtreeSlots(child)
	if len(slots) == 0 {
		return child, nil
	}

	graft := expr.Clone(randomSubtree(rng, donor))
	slot := slots[rng.Intn(len(slots))]
	previous := *slot
	*slot = graft

	if expr.Depth(child) > maxDepth || !expr.HasVariable(child) {
		*slot = previous
	}
	return child, nil
}

// subtreeSlots collects the addresses of every child link in pre-order.
// The root itself is never an attachment point: replacing it wholesale
// is subtree mutation's job, and keeping the root intact preserves its
// guaranteed variable reference more often.
func subtreeSlots(root *model.Node) []**model.Node {
	var slots []**model.Node
	var walk func(node *model.Node)
	walk = func(node *model.Node) {
		if node == nil {
			return
		}
		if node.Left != nil {
			slots = append(slots, &node.Left)
			walk(node.Left)
		}
		if node.Right != nil {
			slots = append(slots, &node.Right)
			walk(node.Right)
		}
	}
	walk(root)
	return slots
}

// randomSubtree picks a uniformly random node of the tree in pre-order,
// the root included.
func randomSubtree(rng *rand.Rand, root *model.Node) *model.Node {
	nodes := make([]*model.Node, 0, expr.Size(root))
	var walk func(node *model.Node)
	walk = func(node *model.Node) {
		if node == nil {
			return
		}
		nodes = append(nodes, node)
		walk(node.Left)
		walk(node.Right)
	}
	walk(root)
	return nodes[rng.Intn(len(nodes))]
}
