package evaluator

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/imagicomplex/imagicomplex/pkg/functions"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// evalNode evaluates node at z. Every computed value is checked for
// finiteness so overflow is reported at the node where it first happens.
func (e *Evaluator) evalNode(node *types.ASTNode, z complex128, fns types.FunctionTable) (complex128, error) {
	var (
		w   complex128
		err error
	)

	switch node.Type {
	case types.NodeConstant:
		return node.Value, nil
	case types.NodeVariable:
		w = z
	case types.NodeUnary:
		w, err = e.evalUnary(node, z, fns)
	case types.NodeBinary:
		w, err = e.evalBinary(node, z, fns)
	case types.NodeCall:
		w, err = e.evalCall(node, z, fns)
	default:
		return 0, domainError(types.ErrInvalidNode, fmt.Sprintf("unsupported node type: %s", node.Type), node)
	}
	if err != nil {
		return 0, err
	}

	if e.opts.Debug {
		e.logger.Debug("evaluated node",
			"type", node.Type,
			"node", node.String(),
			"z", z,
			"value", w)
	}

	if cmplx.IsInf(w) || cmplx.IsNaN(w) {
		return 0, domainError(types.ErrNonFinite, "result is not finite", node)
	}
	return w, nil
}

// evalUnary evaluates negation.
func (e *Evaluator) evalUnary(node *types.ASTNode, z complex128, fns types.FunctionTable) (complex128, error) {
	operand, err := e.evalNode(node.LHS, z, fns)
	if err != nil {
		return 0, err
	}

	switch node.Op {
	case types.OpNegate:
		return -operand, nil
	default:
		return 0, domainError(types.ErrInvalidNode, fmt.Sprintf("unsupported unary operator: %s", node.Op), node)
	}
}

// evalBinary evaluates arithmetic operators.
func (e *Evaluator) evalBinary(node *types.ASTNode, z complex128, fns types.FunctionTable) (complex128, error) {
	left, err := e.evalNode(node.LHS, z, fns)
	if err != nil {
		return 0, err
	}
	right, err := e.evalNode(node.RHS, z, fns)
	if err != nil {
		return 0, err
	}

	switch node.Op {
	case types.OpAdd:
		return left + right, nil
	case types.OpSub:
		return left - right, nil
	case types.OpMul:
		return left * right, nil
	case types.OpDiv:
		if cmplx.Abs(right) <= e.opts.ZeroTolerance {
			return 0, domainError(types.ErrDivisionByZero, "division by zero", node)
		}
		return left / right, nil
	case types.OpPow:
		w, err := functions.Pow(left, right)
		if err != nil {
			return 0, wrapDomainError(err, node)
		}
		return w, nil
	default:
		return 0, domainError(types.ErrInvalidNode, fmt.Sprintf("unsupported binary operator: %s", node.Op), node)
	}
}

// evalCall evaluates the arguments in order and applies the function.
func (e *Evaluator) evalCall(node *types.ASTNode, z complex128, fns types.FunctionTable) (complex128, error) {
	fn, ok := fns.Lookup(node.Name)
	if !ok {
		return 0, domainError(types.ErrUndefinedFunc, fmt.Sprintf("function '%s' is not defined", node.Name), node)
	}
	if len(node.Arguments) != fn.Arity {
		return 0, domainError(types.ErrInvalidNode,
			fmt.Sprintf("function '%s' expects %d arguments, got %d", fn.Name, fn.Arity, len(node.Arguments)), node)
	}

	var buf [2]complex128
	args := buf[:0]
	for _, argNode := range node.Arguments {
		arg, err := e.evalNode(argNode, z, fns)
		if err != nil {
			return 0, err
		}
		args = append(args, arg)
	}

	w, err := fn.Impl(args)
	if err != nil {
		return 0, wrapDomainError(err, node)
	}
	return w, nil
}

// domainError builds an evaluation error located at node.
func domainError(code types.ErrorCode, message string, node *types.ASTNode) *types.Error {
	return types.NewError(code, fmt.Sprintf("%s in %s", message, node), node.Position).WithNode(node)
}

// wrapDomainError locates an error returned by a function implementation.
func wrapDomainError(err error, node *types.ASTNode) error {
	var te *types.Error
	if errors.As(err, &te) {
		return domainError(te.Code, te.Message, node)
	}
	return domainError(types.ErrInvalidNode, err.Error(), node).WithCause(err)
}
