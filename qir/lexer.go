package qir

import (
	"fmt"
	"strings"
)

// TokenType classifies a lexeme of a QIR line.
type TokenType int

const (
	TokWord   TokenType = iota // keywords, types, numbers, labels: call, i64, 1.5, entry
	TokLocal                   // %name, %0
	TokGlobal                  // @name
	TokAttr                    // #0
	TokMeta                    // !0, !llvm.module.flags
	TokString                  // "entry_point" (quotes stripped)
	TokPunct                   // ( ) { } [ ] < > , = * : /
)

func (t TokenType) String() string {
	switch t {
	case TokWord:
		return "word"
	case TokLocal:
		return "local"
	case TokGlobal:
		return "global"
	case TokAttr:
		return "attribute"
	case TokMeta:
		return "metadata"
	case TokString:
		return "string"
	case TokPunct:
		return "punctuation"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is one lexeme. Col is the 1-based byte column of its first character.
type Token struct {
	Type TokenType
	Text string
	Col  int
}

func (t Token) is(typ TokenType, text string) bool {
	return t.Type == typ && t.Text == text
}

// lexError is a position-bearing lexical failure; the parser attaches the line.
type lexError struct {
	col int
	msg string
}

func (e *lexError) Error() string { return fmt.Sprintf("column %d: %s", e.col, e.msg) }

var sigils = map[byte]TokenType{'%': TokLocal, '@': TokGlobal, '#': TokAttr, '!': TokMeta}

// Lex splits one source line into tokens. Everything after an unquoted ';'
// is a comment and is dropped.
func Lex(line string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == ';':
			return toks, nil
		case c == '"':
			j := strings.IndexByte(line[i+1:], '"')
			if j < 0 {
				return nil, &lexError{col: i + 1, msg: "unterminated string"}
			}
			toks = append(toks, Token{Type: TokString, Text: line[i+1 : i+1+j], Col: i + 1})
			i += j + 2
		case c == '%' || c == '@' || c == '#' || c == '!':
			typ := sigils[c]
			start := i
			i++
			if i < len(line) && line[i] == '"' {
				// %"quoted name"
				j := strings.IndexByte(line[i+1:], '"')
				if j < 0 {
					return nil, &lexError{col: start + 1, msg: "unterminated quoted name"}
				}
				toks = append(toks, Token{Type: typ, Text: string(c) + line[i+1:i+1+j], Col: start + 1})
				i += j + 2
				continue
			}
			for i < len(line) && isNameChar(line[i]) {
				i++
			}
			if i == start+1 && c != '!' {
				return nil, &lexError{col: start + 1, msg: fmt.Sprintf("empty name after %q", c)}
			}
			toks = append(toks, Token{Type: typ, Text: line[start:i], Col: start + 1})
		case strings.IndexByte("(){}[]<>,=*:/", c) >= 0:
			toks = append(toks, Token{Type: TokPunct, Text: string(c), Col: i + 1})
			i++
		case isWordStart(c):
			start := i
			i++
			for i < len(line) {
				d := line[i]
				if isNameChar(d) {
					i++
					continue
				}
				// exponent sign inside a decimal literal: 1.0e-05
				if (d == '-' || d == '+') && (line[i-1] == 'e' || line[i-1] == 'E') && isNumeric(line[start:i-1]) {
					i++
					continue
				}
				break
			}
			toks = append(toks, Token{Type: TokWord, Text: line[start:i], Col: start + 1})
		default:
			return nil, &lexError{col: i + 1, msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return toks, nil
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '.' || c == '$' || c == '-'
}

func isWordStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '.' || c == '-' || c == '+'
}

// isNumeric reports whether s looks like the mantissa of a decimal literal.
func isNumeric(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !(s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			return false
		}
	}
	return true
}
