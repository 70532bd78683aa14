package parser

import (
	"fmt"
	"strconv"

	"github.com/imagicomplex/imagicomplex/pkg/evaluator"
	"github.com/imagicomplex/imagicomplex/pkg/functions"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Parser implements a recursive descent parser for complex formulas.
type Parser struct {
	lexer     *Lexer
	current   Token
	prev      Token
	opts      CompileOptions
	functions types.FunctionTable
	arena     *types.NodeArena
	depth     int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer:     NewLexer(input),
		opts:      options,
		functions: functions.Builtins(),
		arena:     types.NewNodeArena(),
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrEmptyExpression, "empty expression")
	}

	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	switch p.current.Type {
	case TokenEOF:
	case TokenError:
		return nil, p.lexer.Error()
	case TokenParenClose:
		return nil, p.error(types.ErrUnbalancedParenthesis, "unmatched ')'")
	default:
		return nil, p.error(types.ErrTrailingInput,
			fmt.Sprintf("unexpected %s after complete expression%s", p.current.describe(), p.implicitHint()))
	}

	if p.opts.Folding {
		node = evaluator.Fold(node, p.functions)
	}

	return types.NewExpression(node, p.lexer.input, p.functions).WithArena(p.arena), nil
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// error creates a parse error located at the current token.
func (p *Parser) error(code types.ErrorCode, message string) *types.Error {
	return p.errorAt(code, message, p.current)
}

func (p *Parser) errorAt(code types.ErrorCode, message string, tok Token) *types.Error {
	return types.NewError(code, message, tok.Position).WithToken(tok.Value)
}

// unexpected reports that the current token cannot appear here.
// Lexical errors surfacing at this point take precedence.
func (p *Parser) unexpected(expected string) error {
	if p.current.Type == TokenError {
		return p.lexer.Error()
	}
	msg := fmt.Sprintf("expected %s but got %s", expected, p.current.describe())
	return p.error(types.ErrUnexpectedToken, msg+p.implicitHint()).WithExpected(expected)
}

// implicitHint returns a suffix for messages where the current token directly
// follows a complete operand, which is how implicit multiplication shows up.
func (p *Parser) implicitHint() string {
	switch p.current.Type {
	case TokenNumber, TokenImaginary, TokenName, TokenParenOpen:
		if p.prev.Type == TokenParenClose || p.prev.Type == TokenNumber ||
			p.prev.Type == TokenImaginary || p.prev.Type == TokenName {
			return " (implicit multiplication is not supported, use '*')"
		}
	}
	return ""
}

// enter tracks recursion depth.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		return p.error(types.ErrMaxDepthExceeded,
			fmt.Sprintf("expression nesting exceeds maximum depth of %d", p.opts.MaxDepth))
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseExpression parses: term (('+' | '-') term)*
func (p *Parser) parseExpression() (*types.ASTNode, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenPlus || p.current.Type == TokenMinus {
		op := types.OpAdd
		if p.current.Type == TokenMinus {
			op = types.OpSub
		}
		left, err = p.parseBinaryOp(left, op, p.parseTerm)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parseTerm parses: unary (('*' | '/') unary)*
func (p *Parser) parseTerm() (*types.ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenMult || p.current.Type == TokenDiv {
		op := types.OpMul
		if p.current.Type == TokenDiv {
			op = types.OpDiv
		}
		left, err = p.parseBinaryOp(left, op, p.parseUnary)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parseBinaryOp consumes the operator token and parses the right operand.
func (p *Parser) parseBinaryOp(left *types.ASTNode, op types.Operator, right func() (*types.ASTNode, error)) (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeBinary, p.current.Position)
	node.Op = op
	p.advance()

	rhs, err := right()
	if err != nil {
		return nil, err
	}

	node.LHS = left
	node.RHS = rhs
	return node, nil
}

// parseUnary parses: ('-' | '+') unary | power
func (p *Parser) parseUnary() (*types.ASTNode, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.current.Type {
	case TokenMinus:
		node := p.arena.Alloc(types.NodeUnary, p.current.Position)
		node.Op = types.OpNegate
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		node.LHS = operand
		return node, nil

	case TokenPlus:
		p.advance()
		return p.parseUnary()
	}

	return p.parsePower()
}

// parsePower parses: atom ('^' unary)?
// The right operand is a unary, which recurses back into parsePower, so
// chains associate to the right.
func (p *Parser) parsePower() (*types.ASTNode, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenPow {
		return base, nil
	}
	return p.parseBinaryOp(base, types.OpPow, p.parseUnary)
}

// parseAtom parses literals, z, i, calls and parenthesised expressions.
func (p *Parser) parseAtom() (*types.ASTNode, error) {
	switch p.current.Type {
	case TokenNumber:
		return p.parseNumber(false)
	case TokenImaginary:
		return p.parseNumber(true)
	case TokenName:
		return p.parseName()
	case TokenParenOpen:
		return p.parseGrouping()
	default:
		return nil, p.unexpected("operand")
	}
}

// parseNumber parses a real or imaginary literal.
func (p *Parser) parseNumber(imaginary bool) (*types.ASTNode, error) {
	text := p.current.Value
	if imaginary {
		text = text[:len(text)-1]
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.error(types.ErrMalformedNumber, fmt.Sprintf("invalid number: %s", p.current.Value)).WithCause(err)
	}

	node := p.arena.Alloc(types.NodeConstant, p.current.Position)
	if imaginary {
		node.Value = complex(0, f)
	} else {
		node.Value = complex(f, 0)
	}
	p.advance()
	return node, nil
}

// parseName resolves z, the imaginary unit i, and function calls.
func (p *Parser) parseName() (*types.ASTNode, error) {
	nameTok := p.current
	p.advance()

	if p.current.Type == TokenParenOpen {
		fn, ok := p.functions.Lookup(nameTok.Value)
		if !ok {
			return nil, p.errorAt(types.ErrUnknownFunction,
				fmt.Sprintf("unknown function '%s'", nameTok.Value), nameTok)
		}
		return p.parseFunctionCall(nameTok, fn)
	}

	switch nameTok.Value {
	case "z":
		return p.arena.Alloc(types.NodeVariable, nameTok.Position), nil
	case "i":
		node := p.arena.Alloc(types.NodeConstant, nameTok.Position)
		node.Value = 1i
		return node, nil
	}

	if _, ok := p.functions.Lookup(nameTok.Value); ok {
		return nil, p.unexpected("'('")
	}
	return nil, p.errorAt(types.ErrUnknownIdentifier,
		fmt.Sprintf("unknown identifier '%s' (only z and i may be used as values)", nameTok.Value), nameTok)
}

// parseFunctionCall parses the argument list of a registered function.
// The current token is the opening parenthesis.
func (p *Parser) parseFunctionCall(nameTok Token, fn *types.Function) (*types.ASTNode, error) {
	open := p.current
	p.advance()

	node := p.arena.Alloc(types.NodeCall, nameTok.Position)
	node.Name = fn.Name

	if p.current.Type != TokenParenClose {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			node.Arguments = append(node.Arguments, arg)

			if p.current.Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if err := p.expectClose(open, "',' or ')'"); err != nil {
		return nil, err
	}

	if len(node.Arguments) != fn.Arity {
		return nil, p.errorAt(types.ErrArityMismatch,
			fmt.Sprintf("function '%s' expects %d %s, got %d", fn.Name, fn.Arity, plural(fn.Arity, "argument"), len(node.Arguments)),
			nameTok)
	}

	return node, nil
}

// parseGrouping parses: '(' expr ')'
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	open := p.current
	p.advance()

	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if err := p.expectClose(open, "')'"); err != nil {
		return nil, err
	}
	return node, nil
}

// expectClose consumes the ')' matching open. Running out of input is an
// unbalanced parenthesis; any other token is unexpected.
func (p *Parser) expectClose(open Token, expected string) error {
	switch p.current.Type {
	case TokenParenClose:
		p.advance()
		return nil
	case TokenEOF:
		return p.error(types.ErrUnbalancedParenthesis,
			fmt.Sprintf("missing ')' to close '(' at position %d", open.Position)).WithExpected("')'")
	default:
		return p.unexpected(expected)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
