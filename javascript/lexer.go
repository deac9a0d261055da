package javascript

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStartNotFound is returned when the start marker is absent.
	ErrStartNotFound = errors.New("start marker not found")
	// ErrUnbalanced is returned when the block never closes.
	ErrUnbalanced = errors.New("unbalanced braces")
)

// keywords after which a slash starts a regular expression literal
var regexPrecedingWords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "instanceof": true, "yield": true, "await": true,
}

// MatchToClosingBrace finds start in code and returns the text following it
// up to and including the brace that closes the first block opened after it.
// Braces inside string, template, regular expression literals and comments
// are not counted.
func MatchToClosingBrace(code, start string) (string, error) {
	idx := strings.Index(code, start)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrStartNotFound, start)
	}
	from := idx + len(start)
	lx := &lexer{src: code, pos: from, regexOK: true}
	end, err := lx.block(false)
	if err != nil {
		return "", err
	}
	return code[from : end+1], nil
}

type lexer struct {
	src     string
	pos     int
	regexOK bool
}

// block scans code until the brace at which depth returns to zero. With
// opened set the scanner is already inside one block (a template
// substitution). It returns the index of the closing brace.
func (lx *lexer) block(opened bool) (int, error) {
	depth := 0
	if opened {
		depth = 1
	}
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '{':
			depth++
			lx.pos++
			lx.regexOK = true
		case c == '}':
			depth--
			if depth == 0 {
				end := lx.pos
				lx.pos++
				lx.regexOK = false
				return end, nil
			}
			if depth < 0 {
				return 0, fmt.Errorf("%w: stray closing brace at %d", ErrUnbalanced, lx.pos)
			}
			lx.pos++
			lx.regexOK = false
		case c == '"' || c == '\'':
			if err := lx.quoted(c); err != nil {
				return 0, err
			}
		case c == '`':
			if err := lx.template(); err != nil {
				return 0, err
			}
		case c == '/':
			if err := lx.slash(); err != nil {
				return 0, err
			}
		case isIdentByte(c):
			w := lx.word()
			lx.regexOK = regexPrecedingWords[w]
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			lx.pos++
		case c == ')' || c == ']':
			lx.pos++
			lx.regexOK = false
		default:
			lx.pos++
			lx.regexOK = true
		}
	}
	return 0, fmt.Errorf("%w: reached end of input", ErrUnbalanced)
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}

func (lx *lexer) word() string {
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentByte(lx.src[lx.pos]) {
		lx.pos++
	}
	return lx.src[start:lx.pos]
}

func (lx *lexer) quoted(q byte) error {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case '\\':
			lx.pos += 2
		case q:
			lx.pos++
			lx.regexOK = false
			return nil
		case '\n':
			return fmt.Errorf("unterminated string literal at %d", start)
		default:
			lx.pos++
		}
	}
	return fmt.Errorf("unterminated string literal at %d", start)
}

func (lx *lexer) template() error {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.src) {
		switch c := lx.src[lx.pos]; {
		case c == '\\':
			lx.pos += 2
		case c == '`':
			lx.pos++
			lx.regexOK = false
			return nil
		case c == '$' && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '{':
			lx.pos += 2
			lx.regexOK = true
			if _, err := lx.block(true); err != nil {
				return err
			}
		default:
			lx.pos++
		}
	}
	return fmt.Errorf("unterminated template literal at %d", start)
}

// slash handles comments, regular expression literals and division.
func (lx *lexer) slash() error {
	next := byte(0)
	if lx.pos+1 < len(lx.src) {
		next = lx.src[lx.pos+1]
	}
	switch {
	case next == '/':
		if nl := strings.IndexByte(lx.src[lx.pos:], '\n'); nl >= 0 {
			lx.pos += nl + 1
		} else {
			lx.pos = len(lx.src)
		}
		return nil
	case next == '*':
		end := strings.Index(lx.src[lx.pos+2:], "*/")
		if end < 0 {
			return fmt.Errorf("unterminated block comment at %d", lx.pos)
		}
		lx.pos += 2 + end + 2
		return nil
	case lx.regexOK:
		return lx.regex()
	default:
		lx.pos++
		lx.regexOK = true
		return nil
	}
}

func (lx *lexer) regex() error {
	start := lx.pos
	lx.pos++
	inClass := false
	for lx.pos < len(lx.src) {
		switch c := lx.src[lx.pos]; {
		case c == '\\':
			lx.pos += 2
		case c == '\n':
			return fmt.Errorf("unterminated regular expression at %d", start)
		case c == '[':
			inClass = true
			lx.pos++
		case c == ']':
			inClass = false
			lx.pos++
		case c == '/' && !inClass:
			lx.pos++
			for lx.pos < len(lx.src) && isIdentByte(lx.src[lx.pos]) {
				lx.pos++
			}
			lx.regexOK = false
			return nil
		default:
			lx.pos++
		}
	}
	return fmt.Errorf("unterminated regular expression at %d", start)
}
