package tree

import (
	"errors"

	"github.com/benz9527/rbstore/lib/infra"
)

var (
	ErrRBTreeKeyNotFound       = errors.New("[rbtree] key not found")
	ErrRBTreeEmpty             = errors.New("[rbtree] empty tree")
	ErrRBTreeContractViolation = errors.New("[rbtree] contract violation")

	ErrRBTreeRedViolation   = errors.New("[rbtree] red violation")
	ErrRBTreeBlackViolation = errors.New("[rbtree] black violation")
	ErrRBTreeOrderViolation = errors.New("[rbtree] order violation")
	ErrRBTreeRootViolation  = errors.New("[rbtree] root violation")
	ErrRBTreeLinkViolation  = errors.New("[rbtree] link violation")
)

// debugAssertion is the panic value of a broken internal contract.
// Impossible to reach unless the tree itself is buggy.
func debugAssertion(msg string) error {
	return infra.WrapErrorStackWithMessage(ErrRBTreeContractViolation, msg)
}
