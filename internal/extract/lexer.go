package extract

import (
	"strings"
	"unicode"
)

// lexer tokenizes SQL input just far enough to locate table references.
// It understands comments, string literals, and the quoted-identifier
// styles of the common dialects (ANSI double quotes, MySQL backticks,
// BigQuery/SQLite bracket quoting).
type lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// next returns the next token.
func (l *lexer) next() token {
	l.skipWhitespaceAndComments()

	var tok token
	switch l.ch {
	case 0:
		return token{typ: tokEOF}
	case '.':
		tok = token{typ: tokDot, literal: "."}
	case ',':
		tok = token{typ: tokComma, literal: ","}
	case '(':
		tok = token{typ: tokLParen, literal: "("}
	case ')':
		tok = token{typ: tokRParen, literal: ")"}
	case '\'':
		return token{typ: tokString, literal: l.readString('\'')}
	case '"':
		return token{typ: tokIdent, literal: l.readQuoted('"'), quoted: true}
	case '`':
		return token{typ: tokIdent, literal: l.readQuoted('`'), quoted: true}
	case '[':
		return token{typ: tokIdent, literal: l.readBracketed(), quoted: true}
	default:
		if isLetter(l.ch) || l.ch == '_' {
			lit := l.readIdentifier()
			return token{typ: lookupIdent(strings.ToLower(lit)), literal: lit}
		}
		if isDigit(l.ch) {
			return token{typ: tokNumber, literal: l.readNumber()}
		}
		tok = token{typ: tokOther, literal: string(l.ch)}
	}

	l.readChar()
	return tok
}

func (l *lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for {
				if l.ch == 0 {
					return // unterminated block comment
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}
			continue
		}
		break
	}
}

// readString reads a quoted literal, treating a doubled quote as an escape.
func (l *lexer) readString(quote byte) string {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.ch == 0 {
			break // unterminated
		}
		if l.ch == quote {
			if l.peekChar() == quote {
				result.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			break
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return result.String()
}

// readQuoted reads a quoted identifier, preserving its exact case.
func (l *lexer) readQuoted(quote byte) string {
	return l.readString(quote)
}

// readBracketed reads a [bracketed] identifier (no escape convention).
func (l *lexer) readBracketed() string {
	l.readChar() // skip '['

	start := l.pos
	for l.ch != ']' && l.ch != 0 {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	if l.ch == ']' {
		l.readChar()
	}
	return lit
}

func (l *lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// tokenize returns all tokens from the input.
func tokenize(input string) []token {
	l := newLexer(input)
	var tokens []token
	for {
		tok := l.next()
		tokens = append(tokens, tok)
		if tok.typ == tokEOF {
			break
		}
	}
	return tokens
}
