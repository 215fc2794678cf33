package tree

import (
	"github.com/benz9527/rbstore/lib/infra"
)

var _ RBNode[int] = rbNodeRef[int]{}

// rbNodeRef addresses a node by its arena slot. Two handles are equal
// if and only if they refer to the same slot of the same tree.
type rbNodeRef[K infra.OrderedKey] struct {
	tree *rbTree[K]
	idx  uint32
}

func (ref rbNodeRef[K]) node() *rbNode[K] {
	return &ref.tree.nodes[ref.idx]
}

func (ref rbNodeRef[K]) Key() K {
	return ref.node().key
}

func (ref rbNodeRef[K]) Color() RBColor {
	return ref.node().color
}

func (ref rbNodeRef[K]) IsNilLeaf() bool {
	return ref.idx == nilLeaf
}

func (ref rbNodeRef[K]) Left() RBNode[K] {
	return ref.tree.ref(ref.node().left)
}

func (ref rbNodeRef[K]) Right() RBNode[K] {
	return ref.tree.ref(ref.node().right)
}

// Parent of the root is the nil leaf.
func (ref rbNodeRef[K]) Parent() RBNode[K] {
	if ref.idx == nilLeaf {
		return ref
	}
	return ref.tree.ref(ref.node().parent)
}

func (ref rbNodeRef[K]) Min() RBNode[K] {
	if ref.idx == nilLeaf {
		return ref
	}
	return ref.tree.ref(ref.tree.minimum(ref.idx))
}

func (ref rbNodeRef[K]) Max() RBNode[K] {
	if ref.idx == nilLeaf {
		return ref
	}
	return ref.tree.ref(ref.tree.maximum(ref.idx))
}

func (ref rbNodeRef[K]) Height() int {
	return ref.tree.height(ref.idx)
}

func (ref rbNodeRef[K]) BlackHeight() int {
	return ref.tree.blackHeight(ref.idx)
}
