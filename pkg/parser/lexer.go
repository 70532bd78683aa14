package parser

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

const eof = -1

// Lexer converts an expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Tokenize returns every token of text, terminated by a TokenEOF token,
// or the first lexical error.
func Tokenize(text string) ([]Token, error) {
	l := NewLexer(text)
	var tokens []Token
	for {
		t := l.Next()
		if t.Type == TokenError {
			return nil, l.err
		}
		tokens = append(tokens, t)
		if t.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
// After a TokenError, Error reports the cause and Next keeps returning TokenEOF.
func (l *Lexer) Next() Token {
	l.acceptAll(isWhitespace)
	l.ignore()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	if isDigit(ch) || ch == '.' {
		l.backup()
		return l.scanNumber()
	}

	if isLetter(ch) {
		l.acceptAll(isLetter)
		return l.newToken(TokenName)
	}

	return l.error(types.ErrUnrecognizedCharacter, fmt.Sprintf("unrecognized character %q", ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanNumber reads a real or imaginary literal from the current position.
// Format: ([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?i?
//
// The trailing i only makes the literal imaginary when no other letter
// follows it, so "2in" is the number 2 followed by the name "in".
func (l *Lexer) scanNumber() Token {
	intDigits := l.acceptAll(isDigit)

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) && !intDigits {
			return l.error(types.ErrMalformedNumber, "expected digits after '.'")
		}
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrMalformedNumber, "expected digits in exponent")
		}
	}

	if _, err := strconv.ParseFloat(l.input[l.start:l.current], 64); err != nil {
		return l.error(types.ErrMalformedNumber, "number out of range")
	}

	tt := TokenNumber
	if l.peek() == 'i' && !isLetter(l.peekAt(1)) {
		l.nextRune()
		tt = TokenImaginary
	}
	return l.newToken(tt)
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

// peek returns the next rune without consuming it.
func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n bytes past the current position without
// consuming anything. Only used for ASCII lookahead.
func (l *Lexer) peekAt(n int) rune {
	if l.current+n >= l.length {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current+n:])
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
