package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNumber    // 123, 3.14, .5, 1e-10
	TokenImaginary // 3i, 0.5i, 2e3i
	TokenName      // z, i, sin

	// Grouping symbols
	TokenParenOpen  // (
	TokenParenClose // )
	TokenComma      // ,

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /
	TokenPow   // ^
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(end)"
	case TokenError:
		return "(error)"
	case TokenNumber:
		return "(number)"
	case TokenImaginary:
		return "(imaginary)"
	case TokenName:
		return "(name)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenComma:
		return ","
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenPow:
		return "^"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in an expression.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting byte offset in the input string
}

// describe renders the token for error messages.
func (t Token) describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenNumber, TokenImaginary, TokenName:
		return "'" + t.Value + "'"
	default:
		return "'" + t.Type.String() + "'"
	}
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'(': TokenParenOpen,
	')': TokenParenClose,
	',': TokenComma,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'^': TokenPow,
}

const symbol1Count = rune(len(symbols1))

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}
