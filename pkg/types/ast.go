package types

import (
	"strconv"
	"strings"
)

// NodeType identifies the type of an AST node.
type NodeType uint8

// AST node types. The set is closed: the evaluator switches over every value.
const (
	NodeConstant NodeType = iota // complex literal, imaginary unit or folded subtree
	NodeVariable                 // z
	NodeUnary                    // -x
	NodeBinary                   // x + y, x - y, x * y, x / y, x ^ y
	NodeCall                     // name(arg, ...)
)

// String returns a string representation of the node type.
func (t NodeType) String() string {
	switch t {
	case NodeConstant:
		return "constant"
	case NodeVariable:
		return "variable"
	case NodeUnary:
		return "unary"
	case NodeBinary:
		return "binary"
	case NodeCall:
		return "call"
	default:
		return "(unknown)"
	}
}

// Operator is the operation carried by unary and binary nodes.
type Operator uint8

const (
	OpNone Operator = iota
	OpNegate
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
)

// String returns the source symbol of the operator.
func (op Operator) String() string {
	switch op {
	case OpNegate, OpSub:
		return "-"
	case OpAdd:
		return "+"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpPow:
		return "^"
	default:
		return "?"
	}
}

// ASTNode represents a node in the Abstract Syntax Tree.
//
// Only the fields relevant to Type are set:
//   - NodeConstant: Value
//   - NodeVariable: nothing beyond Position
//   - NodeUnary: Op (OpNegate), LHS
//   - NodeBinary: Op, LHS, RHS
//   - NodeCall: Name, Arguments
//
// Each node exclusively owns its children. Trees are never mutated after parsing.
type ASTNode struct {
	Type     NodeType
	Value    complex128
	Op       Operator
	Name     string
	Position int

	LHS       *ASTNode
	RHS       *ASTNode
	Arguments []*ASTNode
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
// Most formulas typed into a plot window fit in a single chunk.
const arenaChunkSize = 64

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// Instead of allocating each node individually on the heap, the arena
// pre-allocates fixed-size chunks of ASTNode structs and returns pointers into
// them.
//
// # Lifetime
//
// The arena MUST stay alive as long as any pointer returned by Alloc is
// reachable. Attaching the arena to the [Expression] achieves this.
//
// # Thread safety
//
// NodeArena is NOT thread-safe. Each parser owns its own arena.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int // next free index in the last chunk
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena,
// with Type and Position set.
func (a *NodeArena) Alloc(nodeType NodeType, position int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Position = position
	return n
}

// Len returns the number of nodes handed out so far.
func (a *NodeArena) Len() int {
	return (len(a.chunks)-1)*arenaChunkSize + a.pos
}

// IsConstant reports whether the subtree does not depend on z.
func (n *ASTNode) IsConstant() bool {
	switch n.Type {
	case NodeConstant:
		return true
	case NodeVariable:
		return false
	case NodeUnary:
		return n.LHS.IsConstant()
	case NodeBinary:
		return n.LHS.IsConstant() && n.RHS.IsConstant()
	case NodeCall:
		for _, arg := range n.Arguments {
			if !arg.IsConstant() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Depth returns the height of the subtree (a leaf has depth 1).
func (n *ASTNode) Depth() int {
	d := 0
	switch n.Type {
	case NodeUnary:
		d = n.LHS.Depth()
	case NodeBinary:
		d = max(n.LHS.Depth(), n.RHS.Depth())
	case NodeCall:
		for _, arg := range n.Arguments {
			d = max(d, arg.Depth())
		}
	}
	return d + 1
}

// Equal reports structural equality, ignoring source positions.
func (n *ASTNode) Equal(other *ASTNode) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Type != other.Type {
		return false
	}
	switch n.Type {
	case NodeConstant:
		return n.Value == other.Value
	case NodeVariable:
		return true
	case NodeUnary:
		return n.Op == other.Op && n.LHS.Equal(other.LHS)
	case NodeBinary:
		return n.Op == other.Op && n.LHS.Equal(other.LHS) && n.RHS.Equal(other.RHS)
	case NodeCall:
		if n.Name != other.Name || len(n.Arguments) != len(other.Arguments) {
			return false
		}
		for i := range n.Arguments {
			if !n.Arguments[i].Equal(other.Arguments[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the subtree in a fully parenthesised canonical form,
// e.g. "(-(z ^ 2) + sin(z))". Used for diagnostics.
func (n *ASTNode) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *ASTNode) write(sb *strings.Builder) {
	switch n.Type {
	case NodeConstant:
		sb.WriteString(FormatComplex(n.Value))
	case NodeVariable:
		sb.WriteByte('z')
	case NodeUnary:
		sb.WriteString(n.Op.String())
		n.LHS.write(sb)
	case NodeBinary:
		sb.WriteByte('(')
		n.LHS.write(sb)
		sb.WriteByte(' ')
		sb.WriteString(n.Op.String())
		sb.WriteByte(' ')
		n.RHS.write(sb)
		sb.WriteByte(')')
	case NodeCall:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		for i, arg := range n.Arguments {
			if i > 0 {
				sb.WriteString(", ")
			}
			arg.write(sb)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString("(unknown)")
	}
}

// FormatComplex formats c the way constants are written in expressions:
// "2", "3i", "(2+3i)".
func FormatComplex(c complex128) string {
	re, im := real(c), imag(c)
	switch {
	case im == 0:
		return formatFloat(re)
	case re == 0:
		return formatFloat(im) + "i"
	}
	sign := "+"
	if im < 0 {
		sign = "-"
		im = -im
	}
	return "(" + formatFloat(re) + sign + formatFloat(im) + "i)"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
