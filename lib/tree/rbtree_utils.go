package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/rbstore/lib/infra"
)

func isBlack[K infra.OrderedKey](node RBNode[K]) bool {
	return node.IsNilLeaf() || node.Color() == Black
}

func isRed[K infra.OrderedKey](node RBNode[K]) bool {
	return !node.IsNilLeaf() && node.Color() == Red
}

func blackDepthTo[K infra.OrderedKey](target, to RBNode[K]) int {
	depth := 0
	for aux := target; aux != to; aux = aux.Parent() {
		if isBlack[K](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

// Inorder traversal to visit every node handle.
func inorderNodes[K infra.OrderedKey](tree RBTree[K], action func(node RBNode[K]) error) error {
	aux := tree.Root()
	stack := make([]RBNode[K], 0, tree.Len()>>1+1)
	defer func() {
		clear(stack)
	}()

	for ; !aux.IsNilLeaf(); aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if err := action(aux); err != nil {
			return err
		}
		stack = stack[:size-1]
		for aux = aux.Right(); !aux.IsNilLeaf(); aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

func RedViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	return inorderNodes[K](tree, func(node RBNode[K]) error {
		if isRed[K](node) && (isRed[K](node.Left()) || isRed[K](node.Right())) {
			return fmt.Errorf("%w: red node %v has a red child", ErrRBTreeRedViolation, node.Key())
		}
		return nil
	})
}

// BFS traversal to load all nodes with at least one nil leaf child.
func bfsLeaves[K infra.OrderedKey](tree RBTree[K]) []RBNode[K] {
	aux := tree.Root()
	if aux.IsNilLeaf() {
		return nil
	}

	leaves := make([]RBNode[K], 0, tree.Len()>>1+1)
	queue := make([]RBNode[K], 0, tree.Len()>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l.IsNilLeaf() || r.IsNilLeaf() {
			leaves = append(leaves, aux)
		}
		if !l.IsNilLeaf() {
			queue = append(queue, l)
		}
		if !r.IsNilLeaf() {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or nil leaf).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

Each leaf node to root node black depth are equal.
Equal depths from the root imply equal black heights below every node,
because the paths below a node share the same prefix from the root.
*/
func BlackViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	leaves := bfsLeaves[K](tree)
	if leaves == nil {
		return nil
	}

	root := tree.Root()
	blackDepth := blackDepthTo[K](leaves[0], root)
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo[K](leaves[i], root); depth != blackDepth {
			return fmt.Errorf("%w: node %v black depth %d, node %v black depth %d",
				ErrRBTreeBlackViolation, leaves[0].Key(), blackDepth, leaves[i].Key(), depth)
		}
	}
	return nil
}

// OrderViolationValidate checks the inorder keys are non-decreasing.
// Rotations may move an equal key into a left subtree, so equal keys
// are accepted on both sides.
func OrderViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	var (
		prev    K
		hasPrev bool
	)
	return inorderNodes[K](tree, func(node RBNode[K]) error {
		key := node.Key()
		if hasPrev && key < prev {
			return fmt.Errorf("%w: key %v after key %v", ErrRBTreeOrderViolation, key, prev)
		}
		prev, hasPrev = key, true
		return nil
	})
}

// RootColorValidate checks the root and the nil leaf are black.
func RootColorValidate[K infra.OrderedKey](tree RBTree[K]) error {
	root := tree.Root()
	if root.Color() != Black {
		return fmt.Errorf("%w: root %v is %s", ErrRBTreeRootViolation, root.Key(), root.Color())
	}
	if parent := root.Parent(); !parent.IsNilLeaf() || parent.Color() != Black {
		return fmt.Errorf("%w: root parent is not the black nil leaf", ErrRBTreeRootViolation)
	}
	return nil
}

// LinkViolationValidate checks every child points back to its parent and
// the node count matches the tree length.
func LinkViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	count := int64(0)
	err := inorderNodes[K](tree, func(node RBNode[K]) error {
		count++
		if l := node.Left(); !l.IsNilLeaf() && l.Parent() != node {
			return fmt.Errorf("%w: left child %v of %v", ErrRBTreeLinkViolation, l.Key(), node.Key())
		}
		if r := node.Right(); !r.IsNilLeaf() && r.Parent() != node {
			return fmt.Errorf("%w: right child %v of %v", ErrRBTreeLinkViolation, r.Key(), node.Key())
		}
		return nil
	})
	if err != nil {
		return err
	}
	if count != tree.Len() {
		return fmt.Errorf("%w: %d reachable nodes, length %d", ErrRBTreeLinkViolation, count, tree.Len())
	}
	return nil
}

// Validate runs every rbtree rule validation and combines the violations.
func Validate[K infra.OrderedKey](tree RBTree[K]) error {
	return multierr.Combine(
		RootColorValidate[K](tree),
		LinkViolationValidate[K](tree),
		OrderViolationValidate[K](tree),
		RedViolationValidate[K](tree),
		BlackViolationValidate[K](tree),
	)
}
