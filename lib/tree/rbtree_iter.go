package tree

import (
	"iter"
	"math/bits"
)

// stackHint is the red-black height bound 2*log2(n+1).
func (tree *rbTree[K]) stackHint() int {
	return 2*bits.Len64(uint64(tree.count)+1) + 1
}

// InOrder is the DFS in sorted order. Every range over the returned
// sequence restarts from the current root.
func (tree *rbTree[K]) InOrder() iter.Seq2[K, RBColor] {
	return func(yield func(K, RBColor) bool) {
		stack := make([]uint32, 0, tree.stackHint())
		defer func() {
			clear(stack)
		}()

		aux := tree.root
		for aux != nilLeaf || len(stack) > 0 {
			for ; aux != nilLeaf; aux = tree.nodes[aux].left {
				stack = append(stack, aux)
			}
			aux = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node := &tree.nodes[aux]
			if !yield(node.key, node.color) {
				return
			}
			aux = node.right
		}
	}
}

func (tree *rbTree[K]) PreOrder() iter.Seq2[K, RBColor] {
	return func(yield func(K, RBColor) bool) {
		for x := range tree.preorder() {
			node := &tree.nodes[x]
			if !yield(node.key, node.color) {
				return
			}
		}
	}
}

// PostOrder visits the children before the node itself.
// The last emitted node tells whether the right subtree of the stack
// top is done.
func (tree *rbTree[K]) PostOrder() iter.Seq2[K, RBColor] {
	return func(yield func(K, RBColor) bool) {
		stack := make([]uint32, 0, tree.stackHint())
		defer func() {
			clear(stack)
		}()

		aux, last := tree.root, nilLeaf
		for aux != nilLeaf || len(stack) > 0 {
			if aux != nilLeaf {
				stack = append(stack, aux)
				aux = tree.nodes[aux].left
				continue
			}
			top := stack[len(stack)-1]
			if r := tree.nodes[top].right; r != nilLeaf && r != last {
				aux = r
				continue
			}
			node := &tree.nodes[top]
			if !yield(node.key, node.color) {
				return
			}
			last = top
			stack = stack[:len(stack)-1]
		}
	}
}

// Nodes emits node handles in pre-order (node, left subtree, right subtree).
func (tree *rbTree[K]) Nodes() iter.Seq[RBNode[K]] {
	return func(yield func(RBNode[K]) bool) {
		for x := range tree.preorder() {
			if !yield(tree.ref(x)) {
				return
			}
		}
	}
}

func (tree *rbTree[K]) preorder() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if tree.root == nilLeaf {
			return
		}
		stack := make([]uint32, 0, tree.stackHint())
		defer func() {
			clear(stack)
		}()
		stack = append(stack, tree.root)

		for size := len(stack); size > 0; size = len(stack) {
			aux := stack[size-1]
			stack = stack[:size-1]
			if !yield(aux) {
				return
			}
			if r := tree.nodes[aux].right; r != nilLeaf {
				stack = append(stack, r)
			}
			if l := tree.nodes[aux].left; l != nilLeaf {
				stack = append(stack, l)
			}
		}
	}
}
