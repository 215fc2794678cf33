package tree

import (
	"iter"

	"github.com/benz9527/rbstore/lib/infra"
)

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

func (c RBColor) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return "Unknown"
}

type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (d RBDirection) String() string {
	switch d {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Unknown"
}

// RBNode is a read-only handle of a tree node.
// A handle is valid until the next mutation of its tree.
// The nil leaf (sentinel) is a valid handle, reported by IsNilLeaf, and
// it is the value of every missing child and of the root's parent.
type RBNode[K infra.OrderedKey] interface {
	Key() K
	Color() RBColor
	IsNilLeaf() bool
	Left() RBNode[K]
	Right() RBNode[K]
	Parent() RBNode[K]
	// Min and Max descend within the subtree rooted at this node.
	Min() RBNode[K]
	Max() RBNode[K]
	// Height is the longest path length, in nodes, down to a nil leaf.
	Height() int
	// BlackHeight counts black nodes along the all-left path.
	BlackHeight() int
}

type RBTree[K infra.OrderedKey] interface {
	Len() int64
	Root() RBNode[K]
	Insert(key K)
	Delete(key K) error
	Search(key K) (RBNode[K], error)
	Contains(key K) bool
	FindMin() (RBNode[K], error)
	FindMax() (RBNode[K], error)
	Height() int
	BlackHeight() int
	InOrder() iter.Seq2[K, RBColor]
	PreOrder() iter.Seq2[K, RBColor]
	PostOrder() iter.Seq2[K, RBColor]
	Nodes() iter.Seq[RBNode[K]]
	Release()
}
