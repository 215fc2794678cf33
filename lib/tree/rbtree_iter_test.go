package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scenarioTree(t *testing.T) RBTree[uint64] {
	t.Helper()
	tree := NewRBTree[uint64]()
	for _, key := range []uint64{12, 30, 45, 6, 17, 8, 19, 230, 24} {
		tree.Insert(key)
	}
	require.NoError(t, Validate[uint64](tree))
	return tree
}

func collect(seq func(yield func(uint64, RBColor) bool)) []checkData {
	res := make([]checkData, 0, 16)
	for key, color := range seq {
		res = append(res, checkData{color: color, key: key})
	}
	return res
}

func TestRbtreePreOrder(t *testing.T) {
	tree := scenarioTree(t)
	require.Equal(t, []checkData{
		{Black, 30},
		{Red, 12},
		{Black, 6},
		{Red, 8},
		{Black, 19},
		{Red, 17},
		{Red, 24},
		{Black, 45},
		{Red, 230},
	}, collect(tree.PreOrder()))

	require.NoError(t, tree.Delete(17))
	require.Equal(t, []checkData{
		{Black, 30},
		{Red, 12},
		{Black, 6},
		{Red, 8},
		{Black, 19},
		{Red, 24},
		{Black, 45},
		{Red, 230},
	}, collect(tree.PreOrder()))
}

func TestRbtreePostOrder(t *testing.T) {
	tree := scenarioTree(t)
	require.Equal(t, []checkData{
		{Red, 8},
		{Black, 6},
		{Red, 17},
		{Red, 24},
		{Black, 19},
		{Red, 12},
		{Red, 230},
		{Black, 45},
		{Black, 30},
	}, collect(tree.PostOrder()))
}

func TestRbtreeSequentialPreOrder(t *testing.T) {
	tree := NewRBTree[uint64]()
	for i := uint64(1); i <= 10; i++ {
		tree.Insert(i)
	}
	require.Equal(t, []checkData{
		{Black, 4},
		{Black, 2},
		{Black, 1},
		{Black, 3},
		{Black, 6},
		{Black, 5},
		{Red, 8},
		{Black, 7},
		{Black, 9},
		{Red, 10},
	}, collect(tree.PreOrder()))
	require.Equal(t, []checkData{
		{Black, 1},
		{Black, 2},
		{Black, 3},
		{Black, 4},
		{Black, 5},
		{Black, 6},
		{Black, 7},
		{Red, 8},
		{Black, 9},
		{Red, 10},
	}, collect(tree.InOrder()))
}

func TestRbtreeIteratorEarlyBreak(t *testing.T) {
	tree := scenarioTree(t)

	testcases := []struct {
		name     string
		seq      func(yield func(uint64, RBColor) bool)
		expected []uint64
	}{
		{"inorder", tree.InOrder(), []uint64{6, 8, 12}},
		{"preorder", tree.PreOrder(), []uint64{30, 12, 6}},
		{"postorder", tree.PostOrder(), []uint64{8, 6, 17}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			keys := make([]uint64, 0, 3)
			for key := range tc.seq {
				keys = append(keys, key)
				if len(keys) == 3 {
					break
				}
			}
			require.Equal(tt, tc.expected, keys)

			// Restartable, a new range starts from the root again.
			keys = keys[:0]
			for key := range tc.seq {
				keys = append(keys, key)
				if len(keys) == 3 {
					break
				}
			}
			require.Equal(tt, tc.expected, keys)
		})
	}
}

func TestRbtreeNodes(t *testing.T) {
	tree := scenarioTree(t)

	keys := make([]uint64, 0, tree.Len())
	for node := range tree.Nodes() {
		require.False(t, node.IsNilLeaf())
		keys = append(keys, node.Key())
		if l := node.Left(); !l.IsNilLeaf() {
			require.Equal(t, node, l.Parent())
			require.Less(t, l.Key(), node.Key())
		}
		if r := node.Right(); !r.IsNilLeaf() {
			require.Equal(t, node, r.Parent())
			require.GreaterOrEqual(t, r.Key(), node.Key())
		}
	}
	require.Equal(t, []uint64{30, 12, 6, 8, 19, 17, 24, 45, 230}, keys)

	count := 0
	for range tree.Nodes() {
		count++
		break
	}
	require.Equal(t, 1, count)
}

func TestRbtreeIteratorsAfterRelease(t *testing.T) {
	tree := scenarioTree(t)
	tree.Release()
	require.Empty(t, collect(tree.InOrder()))
	require.Empty(t, collect(tree.PreOrder()))
	require.Empty(t, collect(tree.PostOrder()))
}
