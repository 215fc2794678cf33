package tree

import (
	"math"

	"github.com/benz9527/rbstore/lib/infra"
)

// nilLeaf is the arena slot of the sentinel. It is black, it is every
// missing child and the parent of the root, so the fixups are able to
// read color and parent through it without nil checks.
const nilLeaf uint32 = 0

type rbNode[K infra.OrderedKey] struct {
	parent uint32
	left   uint32
	right  uint32
	key    K
	color  RBColor
}

// References:
// https://github.com/src-d/hercules/blob/master/internal/rbtree/rbtree.go
// Nodes are stored in an arena and linked by index, so rotations and
// transplants only rewrite integers and a removed node can never be
// reached through a dangling pointer.
type rbTree[K infra.OrderedKey] struct {
	nodes []rbNode[K] // nodes[nilLeaf] is the sentinel
	gaps  []uint32    // freed slots, reused before the arena grows
	root  uint32
	count int64
}

func (tree *rbTree[K]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K]) Root() RBNode[K] {
	return tree.ref(tree.root)
}

func (tree *rbTree[K]) ref(x uint32) RBNode[K] {
	return rbNodeRef[K]{tree: tree, idx: x}
}

func (tree *rbTree[K]) malloc(key K) uint32 {
	if n := len(tree.gaps); n > 0 {
		x := tree.gaps[n-1]
		tree.gaps = tree.gaps[:n-1]
		tree.nodes[x] = rbNode[K]{key: key, color: Red}
		return x
	}
	n := len(tree.nodes)
	if uint64(n) >= math.MaxUint32 {
		panic(debugAssertion("[rbtree] node arena exhausted"))
	}
	tree.nodes = append(tree.nodes, rbNode[K]{key: key, color: Red})
	return uint32(n)
}

func (tree *rbTree[K]) free(x uint32) {
	if x == nilLeaf {
		panic(debugAssertion("[rbtree] the nil leaf cannot be freed"))
	}
	tree.nodes[x] = rbNode[K]{}
	tree.gaps = append(tree.gaps, x)
}

func (tree *rbTree[K]) direction(x uint32) RBDirection {
	if x == nilLeaf {
		panic(debugAssertion("[rbtree] nil leaf node without direction"))
	}
	p := tree.nodes[x].parent
	if p == nilLeaf {
		return Root
	}
	if tree.nodes[p].left == x {
		return Left
	}
	return Right
}

func (tree *rbTree[K]) minimum(x uint32) uint32 {
	for tree.nodes[x].left != nilLeaf {
		x = tree.nodes[x].left
	}
	return x
}

func (tree *rbTree[K]) maximum(x uint32) uint32 {
	for tree.nodes[x].right != nilLeaf {
		x = tree.nodes[x].right
	}
	return x
}

func (tree *rbTree[K]) search(key K) uint32 {
	x := tree.root
	for x != nilLeaf {
		k := tree.nodes[x].key
		if key == k {
			return x
		} else if key < k {
			x = tree.nodes[x].left
		} else {
			x = tree.nodes[x].right
		}
	}
	return nilLeaf
}

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. The nil leaf is black and its key and color never change.
// p3. The root is black.
// p4. A red node does not have a red child. (red-violation)
// p5. Every path from a given node to any of its descendant
//   nil leaves goes through the same number of black nodes. (black-violation)
// Keys in the left subtree are less than the node key, equal keys go to
// the right subtree on insertion.

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K]) leftRotate(x uint32) {
	nodes := tree.nodes
	y := nodes[x].right
	if x == nilLeaf || y == nilLeaf {
		panic(debugAssertion("[rbtree] left rotate node x is nil leaf or x.right is nil leaf"))
	}

	p, dir := nodes[x].parent, tree.direction(x)
	nodes[x].right = nodes[y].left
	if nodes[y].left != nilLeaf {
		nodes[nodes[y].left].parent = x
	}

	switch dir {
	case Root:
		tree.root = y
	case Left:
		nodes[p].left = y
	case Right:
		nodes[p].right = y
	default:
		panic(debugAssertion("[rbtree] unknown node direction to left-rotate"))
	}
	nodes[y].parent = p
	nodes[y].left = x
	nodes[x].parent = y
}

/*
		 |                         |
		 X                         L
		/ \     rightRotate(X)    / \
	   L   S    ============>   Ld   X
	  / \                           / \
	Ld   Lc                       Lc   S
*/
func (tree *rbTree[K]) rightRotate(x uint32) {
	nodes := tree.nodes
	y := nodes[x].left
	if x == nilLeaf || y == nilLeaf {
		panic(debugAssertion("[rbtree] right rotate node x is nil leaf or x.left is nil leaf"))
	}

	p, dir := nodes[x].parent, tree.direction(x)
	nodes[x].left = nodes[y].right
	if nodes[y].right != nilLeaf {
		nodes[nodes[y].right].parent = x
	}

	switch dir {
	case Root:
		tree.root = y
	case Left:
		nodes[p].left = y
	case Right:
		nodes[p].right = y
	default:
		panic(debugAssertion("[rbtree] unknown node direction to right-rotate"))
	}
	nodes[y].parent = p
	nodes[y].right = x
	nodes[x].parent = y
}

// i1: Empty rbtree, the new node becomes the root and is painted black.
// i2: The parent is the root (black), nothing to fix.
func (tree *rbTree[K]) Insert(key K) {
	y := nilLeaf
	for x := tree.root; x != nilLeaf; {
		y = x
		if /* less */ key < tree.nodes[x].key {
			x = tree.nodes[x].left
		} else /* greater or equal, ties go right */ {
			x = tree.nodes[x].right
		}
	}

	z := tree.malloc(key)
	tree.nodes[z].parent = y
	tree.count++
	if /* i1 */ y == nilLeaf {
		tree.root = z
		tree.nodes[z].color = Black
		return
	}

	if key < tree.nodes[y].key {
		tree.nodes[y].left = z
	} else {
		tree.nodes[y].right = z
	}

	if /* i2 */ tree.nodes[y].parent == nilLeaf {
		return
	}
	tree.insertRebalance(z)
}

/*
New node Z is red by default.

<X> is a RED node.
[X] is a BLACK node (or nil leaf).

im1: Both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
Repaint P and U into black, G into red.
G may be red-violation now, continue to fix G.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<Z>             <Z>

im2: The parent P is red but the uncle U is black, Z is the inner child.
Rotate P to the opposite direction of Z, then P plays Z in im3.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <Z> [U]
	  \                 /
	  <Z>             <P>

im3: The parent P is red but the uncle U is black, Z is the outer child.
Repaint P into black and G into red, rotate G. No more violation above.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <Z> [G]  ======>  <Z> <G>
	  /                         \                 \
	<Z>                         [U]               [U]

The root may be painted red by im1, it is painted black at the end.
*/
func (tree *rbTree[K]) insertRebalance(z uint32) {
	nodes := tree.nodes
	for z != tree.root && nodes[nodes[z].parent].color == Red {
		p := nodes[z].parent
		g := nodes[p].parent
		if p == nodes[g].left {
			u := nodes[g].right
			if /* im1 */ nodes[u].color == Red {
				nodes[p].color = Black
				nodes[u].color = Black
				nodes[g].color = Red
				z = g
				continue
			}
			if /* im2 */ z == nodes[p].right {
				z = p
				tree.leftRotate(z)
				p = nodes[z].parent
			}
			/* im3 */
			nodes[p].color = Black
			nodes[g].color = Red
			tree.rightRotate(g)
		} else {
			u := nodes[g].left
			if /* im1 */ nodes[u].color == Red {
				nodes[p].color = Black
				nodes[u].color = Black
				nodes[g].color = Red
				z = g
				continue
			}
			if /* im2 */ z == nodes[p].left {
				z = p
				tree.rightRotate(z)
				p = nodes[z].parent
			}
			/* im3 */
			nodes[p].color = Black
			nodes[g].color = Red
			tree.leftRotate(g)
		}
	}
	nodes[tree.root].color = Black
}

// transplant replaces the subtree rooted at u by the subtree rooted at v
// in u's parent. v may be the nil leaf, its parent link is still written
// so that removeRebalance can climb up from an empty slot.
func (tree *rbTree[K]) transplant(u, v uint32) {
	nodes := tree.nodes
	p := nodes[u].parent
	switch tree.direction(u) {
	case Root:
		tree.root = v
	case Left:
		nodes[p].left = v
	case Right:
		nodes[p].right = v
	default:
		panic(debugAssertion("[rbtree] unknown node direction to transplant"))
	}
	nodes[v].parent = p
}

func (tree *rbTree[K]) Delete(key K) error {
	z := tree.search(key)
	if z == nilLeaf {
		return ErrRBTreeKeyNotFound
	}
	tree.removeNode(z)
	return nil
}

/*
r1: Node Z has at most one child C (C may be the nil leaf).
Transplant C into Z's slot. X is C and Z's color is removed.

	  |                 |
	  Z                 C
	   \    =======>
	    C

r2: Node Z has two children. Y is the succ of Z (minimum of Z's right
subtree) and Y has no left child. Y leaves its own slot to its right
child X, then Y takes Z's slot, Z's left subtree and Z's color.
Y's color is removed.

	    |                     |
	    Z                     Y
	   / \                   / \
	  L   R     =======>    L   R
	     / \                   / \
	    Y  ..                 X  ..
	     \
	      X

If the removed color is black, the path through X lost one black node.
X carries the double-black deficiency into removeRebalance.
*/
func (tree *rbTree[K]) removeNode(z uint32) {
	nodes := tree.nodes
	y, removedColor := z, nodes[z].color
	var x uint32

	if /* r1 */ nodes[z].left == nilLeaf {
		x = nodes[z].right
		tree.transplant(z, x)
	} else if /* r1 */ nodes[z].right == nilLeaf {
		x = nodes[z].left
		tree.transplant(z, x)
	} else /* r2 */ {
		y = tree.minimum(nodes[z].right)
		removedColor = nodes[y].color
		x = nodes[y].right
		if nodes[y].parent == z {
			nodes[x].parent = y
		} else {
			tree.transplant(y, x)
			nodes[y].right = nodes[z].right
			nodes[nodes[y].right].parent = y
		}
		tree.transplant(z, y)
		nodes[y].left = nodes[z].left
		nodes[nodes[y].left].parent = y
		nodes[y].color = nodes[z].color
	}

	tree.free(z)
	tree.count--
	if removedColor == Black {
		tree.removeRebalance(x)
	}
	nodes[nilLeaf].parent = nilLeaf
}

/*
<X> is a RED node.
[X] is a BLACK node (or nil leaf).
{X} is either a RED node or a BLACK node.

X is double-black (or the nil leaf standing in an empty slot).
S is X's sibling, Sc is S's child at X's side (near), Sd is the other
one (far).

rm1: Sibling S is red, so P, Sc and Sd must be black.
Repaint S into black and P into red, rotate P to X's side.
X gets a black sibling (the old Sc), enter rm2-rm4.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: Sibling S, Sc and Sd are black.
Repaint S into red, both of P's subtrees lost one black node, the
deficiency moves up to P. A red P is painted black after the loop.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: Sibling S is black, Sc is red and Sd is black.
Repaint Sc into black and S into red, rotate S away from X's side.
Sc becomes X's sibling with a red far child, enter rm4.

	  {P}                   {P}
	  / \    r-rotate(S)    / \
	[X] [S]  ==========>  [X] [Sc]
	    / \                     \
	  <Sc> [Sd]                 <S>
	                              \
	                              [Sd]

rm4: Sibling S is black and Sd is red.
S takes P's color, P and Sd are painted black, rotate P to X's side.
X's side gains one black node, the deficiency is resolved.

	  {P}                   {S}
	  / \    l-rotate(P)    / \
	[X] [S]  ==========>  [P] [Sd]
	    / \               / \
	 {Sc} <Sd>          [X] {Sc}
*/
func (tree *rbTree[K]) removeRebalance(x uint32) {
	nodes := tree.nodes
	for x != tree.root && nodes[x].color == Black {
		p := nodes[x].parent
		if x == nodes[p].left {
			s := nodes[p].right
			if /* rm1 */ nodes[s].color == Red {
				nodes[s].color = Black
				nodes[p].color = Red
				tree.leftRotate(p)
				s = nodes[p].right
			}
			if s == nilLeaf {
				panic(debugAssertion("[rbtree] double black node without sibling, violate (rm2)"))
			}
			if /* rm2 */ nodes[nodes[s].left].color == Black && nodes[nodes[s].right].color == Black {
				nodes[s].color = Red
				x = p
				continue
			}
			if /* rm3 */ nodes[nodes[s].right].color == Black {
				nodes[nodes[s].left].color = Black
				nodes[s].color = Red
				tree.rightRotate(s)
				s = nodes[p].right
			}
			/* rm4 */
			nodes[s].color = nodes[p].color
			nodes[p].color = Black
			nodes[nodes[s].right].color = Black
			tree.leftRotate(p)
			x = tree.root
		} else {
			s := nodes[p].left
			if /* rm1 */ nodes[s].color == Red {
				nodes[s].color = Black
				nodes[p].color = Red
				tree.rightRotate(p)
				s = nodes[p].left
			}
			if s == nilLeaf {
				panic(debugAssertion("[rbtree] double black node without sibling, violate (rm2)"))
			}
			if /* rm2 */ nodes[nodes[s].right].color == Black && nodes[nodes[s].left].color == Black {
				nodes[s].color = Red
				x = p
				continue
			}
			if /* rm3 */ nodes[nodes[s].left].color == Black {
				nodes[nodes[s].right].color = Black
				nodes[s].color = Red
				tree.leftRotate(s)
				s = nodes[p].left
			}
			/* rm4 */
			nodes[s].color = nodes[p].color
			nodes[p].color = Black
			nodes[nodes[s].left].color = Black
			tree.rightRotate(p)
			x = tree.root
		}
	}
	if x != nilLeaf {
		nodes[x].color = Black
	}
}

func (tree *rbTree[K]) Search(key K) (RBNode[K], error) {
	x := tree.search(key)
	if x == nilLeaf {
		return tree.ref(nilLeaf), ErrRBTreeKeyNotFound
	}
	return tree.ref(x), nil
}

func (tree *rbTree[K]) Contains(key K) bool {
	return tree.search(key) != nilLeaf
}

func (tree *rbTree[K]) FindMin() (RBNode[K], error) {
	if tree.root == nilLeaf {
		return tree.ref(nilLeaf), ErrRBTreeEmpty
	}
	return tree.ref(tree.minimum(tree.root)), nil
}

func (tree *rbTree[K]) FindMax() (RBNode[K], error) {
	if tree.root == nilLeaf {
		return tree.ref(nilLeaf), ErrRBTreeEmpty
	}
	return tree.ref(tree.maximum(tree.root)), nil
}

func (tree *rbTree[K]) Height() int {
	return tree.height(tree.root)
}

func (tree *rbTree[K]) BlackHeight() int {
	return tree.blackHeight(tree.root)
}

// height is the longest x to nil leaf path in nodes. It is not
// maintained incrementally, every call visits the whole subtree.
func (tree *rbTree[K]) height(x uint32) int {
	if x == nilLeaf {
		return 0
	}
	type frame struct {
		idx   uint32
		depth int
	}
	stack := make([]frame, 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, frame{idx: x, depth: 1})

	h := 0
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		if aux.depth > h {
			h = aux.depth
		}
		if l := tree.nodes[aux.idx].left; l != nilLeaf {
			stack = append(stack, frame{idx: l, depth: aux.depth + 1})
		}
		if r := tree.nodes[aux.idx].right; r != nilLeaf {
			stack = append(stack, frame{idx: r, depth: aux.depth + 1})
		}
	}
	return h
}

// blackHeight follows the left links only, p5 makes every other path
// report the same count.
func (tree *rbTree[K]) blackHeight(x uint32) int {
	count := 0
	for ; x != nilLeaf; x = tree.nodes[x].left {
		if tree.nodes[x].color == Black {
			count++
		}
	}
	return count
}

// Release frees every reachable node exactly once and resets the tree
// to empty. The tree is reusable afterwards.
func (tree *rbTree[K]) Release() {
	aux := tree.root
	tree.root = nilLeaf
	if aux == nilLeaf {
		tree.reset()
		return
	}

	stack := make([]uint32, 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)

	released := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if l := tree.nodes[aux].left; l != nilLeaf {
			stack = append(stack, l)
		}
		if r := tree.nodes[aux].right; r != nilLeaf {
			stack = append(stack, r)
		}
		tree.nodes[aux] = rbNode[K]{}
		released++
	}
	if released != tree.count {
		panic(debugAssertion("[rbtree] released nodes mismatch the tree length"))
	}
	tree.reset()
}

func (tree *rbTree[K]) reset() {
	clear(tree.nodes[1:])
	tree.nodes = tree.nodes[:1]
	tree.nodes[nilLeaf] = rbNode[K]{color: Black}
	tree.gaps = tree.gaps[:0]
	tree.count = 0
}

type RBTreeOpt[K infra.OrderedKey] func(*rbTree[K])

// WithRBTreeCapacity preallocates the node arena for n keys.
func WithRBTreeCapacity[K infra.OrderedKey](n int) RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		if n <= 0 {
			return
		}
		nodes := make([]rbNode[K], len(tree.nodes), n+1)
		copy(nodes, tree.nodes)
		tree.nodes = nodes
	}
}

func NewRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) RBTree[K] {
	tree := &rbTree[K]{
		nodes: []rbNode[K]{
			nilLeaf: {color: Black},
		},
		root:  nilLeaf,
		count: 0,
	}

	for _, o := range opts {
		o(tree)
	}
	return tree
}
