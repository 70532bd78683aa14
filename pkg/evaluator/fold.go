package evaluator

import (
	"log/slog"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Fold returns a tree equivalent to node in which every subtree that does not
// depend on z has been replaced by a constant. Subtrees whose evaluation
// fails are left as they are, so the error is still reported at sample time.
//
// Divisions are never folded away, only their operands: whether a divisor
// counts as zero depends on the zero tolerance of the evaluator that samples
// the expression, which is not known at compile time.
//
// node itself is not modified; unchanged subtrees are moved into the result,
// so node must not be used afterwards.
func Fold(node *types.ASTNode, fns types.FunctionTable) *types.ASTNode {
	e := &Evaluator{logger: slog.Default(), functions: fns}
	return e.fold(node, fns)
}

func (e *Evaluator) fold(node *types.ASTNode, fns types.FunctionTable) *types.ASTNode {
	if node.Type == types.NodeConstant || node.Type == types.NodeVariable {
		return node
	}

	folded := *node
	switch node.Type {
	case types.NodeUnary:
		folded.LHS = e.fold(node.LHS, fns)
	case types.NodeBinary:
		folded.LHS = e.fold(node.LHS, fns)
		folded.RHS = e.fold(node.RHS, fns)
	case types.NodeCall:
		folded.Arguments = make([]*types.ASTNode, len(node.Arguments))
		for i, arg := range node.Arguments {
			folded.Arguments[i] = e.fold(arg, fns)
		}
	}

	if folded.IsConstant() && !hasDivision(&folded) {
		if w, err := e.evalNode(&folded, 0, fns); err == nil {
			c := types.NewASTNode(types.NodeConstant, node.Position)
			c.Value = w
			return c
		}
	}
	return &folded
}

func hasDivision(node *types.ASTNode) bool {
	switch node.Type {
	case types.NodeUnary:
		return hasDivision(node.LHS)
	case types.NodeBinary:
		return node.Op == types.OpDiv || hasDivision(node.LHS) || hasDivision(node.RHS)
	case types.NodeCall:
		for _, arg := range node.Arguments {
			if hasDivision(arg) {
				return true
			}
		}
	}
	return false
}
