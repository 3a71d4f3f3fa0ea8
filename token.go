package jsonstream

import (
	"strings"

	"github.com/rs/zerolog"
)

// JSON whitespace, exactly per RFC 8259.
func isWhitespace(r rune) bool {
	return r == 0x20 || r == 0x09 || r == 0x0A || r == 0x0D
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Tokenizer drives lexical analysis and node-level parsing primitives over
// an Input: string/number/escape/whitespace rules and skip-value. It
// enforces a nesting-depth bound on the arrays and objects it reads or
// skips.
type Tokenizer struct {
	in          Input
	maxDepth    int
	depth       int
	decimalMode bool
	log         zerolog.Logger
}

// NewTokenizer wraps in with default bounds (max nesting depth 1024).
func NewTokenizer(in Input) *Tokenizer {
	return &Tokenizer{in: in, maxDepth: 1024, log: zerolog.Nop()}
}

func (t *Tokenizer) pushDepth() error {
	t.depth++
	if t.depth > t.maxDepth {
		return formatError(tokenPositioner{}, "maximum nesting depth %d exceeded", t.maxDepth)
	}
	return nil
}

func (t *Tokenizer) popDepth() { t.depth-- }

// tokenPositioner is used for errors raised before any frame exists (e.g.
// at the very first character of the document). The Engine supplies a
// richer positioner once a frame stack exists.
type tokenPositioner struct{}

func (tokenPositioner) position() string { return "<start of document>" }

// readCharSkipWhitespace consumes whitespace and returns the next
// codepoint, optionally asserting it equals expected (0 to skip the
// assertion).
func (t *Tokenizer) readCharSkipWhitespace(expected rune) (rune, error) {
	for {
		r, err := t.in.Peek()
		if err != nil {
			return 0, err
		}
		if !isWhitespace(r) {
			if r != EOF {
				if _, err := t.in.ReadCodepoint(); err != nil {
					return 0, err
				}
			}
			if expected != 0 && r != expected {
				return 0, formatError(tokenPositioner{}, "expected %q, found %q", expected, r)
			}
			return r, nil
		}
		if _, err := t.in.ReadCodepoint(); err != nil {
			return 0, err
		}
	}
}

// peekSignificant returns the next non-whitespace codepoint without
// consuming it.
func (t *Tokenizer) peekSignificant() (rune, error) {
	for {
		r, err := t.in.Peek()
		if err != nil {
			return 0, err
		}
		if !isWhitespace(r) {
			return r, nil
		}
		if _, err := t.in.ReadCodepoint(); err != nil {
			return 0, err
		}
	}
}

// readString reads a JSON string body. Precondition: the opening quote has
// already been consumed.
func (t *Tokenizer) readString() (string, error) {
	var sb strings.Builder
	for {
		r, err := t.in.ReadCodepoint()
		if err != nil {
			return "", err
		}
		switch {
		case r == EOF:
			return "", formatError(tokenPositioner{}, "unterminated string")
		case r == '"':
			return sb.String(), nil
		case r == '\\':
			esc, err := t.in.ReadCodepoint()
			if err != nil {
				return "", err
			}
			switch esc {
			case '"', '\\', '/':
				sb.WriteRune(esc)
			case 'b':
				sb.WriteRune('\b')
			case 'f':
				sb.WriteRune('\f')
			case 'n':
				sb.WriteRune('\n')
			case 'r':
				sb.WriteRune('\r')
			case 't':
				sb.WriteRune('\t')
			case 'u':
				cp, err := t.readHex4()
				if err != nil {
					return "", err
				}
				if isHighSurrogate(cp) {
					// Attempt to combine with a following \uDCxx low surrogate.
					mark, err := t.peekEscapedU()
					if err != nil {
						return "", err
					}
					if mark {
						low, err := t.readHex4()
						if err != nil {
							return "", err
						}
						if isLowSurrogate(low) {
							cp = combineSurrogates(cp, low)
						} else {
							sb.WriteRune(cp)
							cp = low
						}
					}
				}
				sb.WriteRune(cp)
			default:
				return "", formatError(tokenPositioner{}, "invalid escape sequence \\%c", esc)
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// peekEscapedU reports whether the next two codepoints are "\u", consuming
// them if so (so the caller can proceed straight to readHex4).
func (t *Tokenizer) peekEscapedU() (bool, error) {
	r1, err := t.in.Peek()
	if err != nil {
		return false, err
	}
	if r1 != '\\' {
		return false, nil
	}
	if _, err := t.in.ReadCodepoint(); err != nil {
		return false, err
	}
	r2, err := t.in.ReadCodepoint()
	if err != nil {
		return false, err
	}
	if r2 != 'u' {
		return false, formatError(tokenPositioner{}, "invalid escape sequence \\%c", r2)
	}
	return true, nil
}

func isHighSurrogate(r rune) bool { return r >= 0xD800 && r <= 0xDBFF }
func isLowSurrogate(r rune) bool  { return r >= 0xDC00 && r <= 0xDFFF }

func combineSurrogates(hi, lo rune) rune {
	return 0x10000 + (hi-0xD800)<<10 + (lo - 0xDC00)
}

// readHex4 reads four ASCII hex digits and decodes them to a code point.
func (t *Tokenizer) readHex4() (rune, error) {
	var cp rune
	for i := 0; i < 4; i++ {
		b, err := t.in.ReadASCII()
		if err != nil {
			return 0, err
		}
		v, ok := hexDigit(b)
		if !ok {
			return 0, formatError(tokenPositioner{}, "invalid \\u hex digit %q", b)
		}
		cp = cp<<4 | rune(v)
	}
	return cp, nil
}

func hexDigit(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	}
	return 0, false
}

// readNodeDetect skips whitespace, then dispatches on the first character
// to parse a full generic value, recursively. If allowCloseBracket is true
// and the first significant character is ']', it returns (nil, ']', nil)
// without invoking a setter — used for empty arrays. It returns the value
// and the next non-whitespace codepoint after it.
func (t *Tokenizer) readNodeDetect(allowCloseBracket bool) (*Value, rune, error) {
	r, err := t.readCharSkipWhitespace(0)
	if err != nil {
		return nil, 0, err
	}
	switch {
	case r == '{':
		v, err := t.readObject()
		if err != nil {
			return nil, 0, err
		}
		next, err := t.peekSignificant()
		return v, next, err
	case r == '[':
		v, err := t.readArray()
		if err != nil {
			return nil, 0, err
		}
		next, err := t.peekSignificant()
		return v, next, err
	case r == '"':
		s, err := t.readString()
		if err != nil {
			return nil, 0, err
		}
		next, err := t.peekSignificant()
		return String(s), next, err
	case r == 't':
		if err := t.expectLiteral("rue"); err != nil {
			return nil, 0, err
		}
		next, err := t.peekSignificant()
		return Bool(true), next, err
	case r == 'f':
		if err := t.expectLiteral("alse"); err != nil {
			return nil, 0, err
		}
		next, err := t.peekSignificant()
		return Bool(false), next, err
	case r == 'n':
		if err := t.expectLiteral("ull"); err != nil {
			return nil, 0, err
		}
		next, err := t.peekSignificant()
		return Null(), next, err
	case r == '-' || isDigit(r):
		v, err := t.readNumber(r)
		if err != nil {
			return nil, 0, err
		}
		next, err := t.peekSignificant()
		return v, next, err
	case r == ']' && allowCloseBracket:
		return nil, ']', nil
	default:
		return nil, 0, formatError(tokenPositioner{}, "unexpected character %q", r)
	}
}

// expectLiteral consumes the ASCII bytes of rest (the remainder of a
// true/false/null literal after its first character has been consumed).
func (t *Tokenizer) expectLiteral(rest string) error {
	for _, want := range rest {
		b, err := t.in.ReadASCII()
		if err != nil {
			return err
		}
		if rune(b) != want {
			return formatError(tokenPositioner{}, "invalid literal, expected %q", want)
		}
	}
	return nil
}

// readObject parses "{" ... "}" into an ordered mapping. Precondition: "{"
// already consumed by the caller (readNodeDetect).
func (t *Tokenizer) readObject() (*Value, error) {
	if err := t.pushDepth(); err != nil {
		return nil, err
	}
	defer t.popDepth()

	var keys []string
	var vals []*Value
	r, err := t.readCharSkipWhitespace(0)
	if err != nil {
		return nil, err
	}
	if r == '}' {
		return Object(keys, vals), nil
	}
	for {
		if r != '"' {
			return nil, formatError(tokenPositioner{}, "expected string key, found %q", r)
		}
		key, err := t.readString()
		if err != nil {
			return nil, err
		}
		if _, err := t.readCharSkipWhitespace(':'); err != nil {
			return nil, err
		}
		val, next, err := t.readNodeDetect(false)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		vals = append(vals, val)
		switch next {
		case ',':
			if _, err := t.in.ReadCodepoint(); err != nil {
				return nil, err
			}
			r, err = t.readCharSkipWhitespace(0)
			if err != nil {
				return nil, err
			}
		case '}':
			if _, err := t.in.ReadCodepoint(); err != nil {
				return nil, err
			}
			return Object(keys, vals), nil
		default:
			return nil, formatError(tokenPositioner{}, "expected ',' or '}', found %q", next)
		}
	}
}

// readArray parses "[" ... "]" into an ordered sequence. Precondition: "["
// already consumed by the caller (readNodeDetect).
func (t *Tokenizer) readArray() (*Value, error) {
	if err := t.pushDepth(); err != nil {
		return nil, err
	}
	defer t.popDepth()

	var vals []*Value
	r, err := t.peekSignificant()
	if err != nil {
		return nil, err
	}
	if r == ']' {
		if _, err := t.in.ReadCodepoint(); err != nil {
			return nil, err
		}
		return List(vals), nil
	}
	for {
		val, next, err := t.readNodeDetect(false)
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
		switch next {
		case ',':
			if _, err := t.in.ReadCodepoint(); err != nil {
				return nil, err
			}
		case ']':
			if _, err := t.in.ReadCodepoint(); err != nil {
				return nil, err
			}
			return List(vals), nil
		default:
			return nil, formatError(tokenPositioner{}, "expected ',' or ']', found %q", next)
		}
	}
}

// skipNodeDetect discards the next value (by the same dispatch rules as
// readNodeDetect) and returns the next structural codepoint.
func (t *Tokenizer) skipNodeDetect() (rune, error) {
	_, next, err := t.readNodeDetect(false)
	return next, err
}

// parseJSONLiteral parses a standalone JSON literal, used for a member's
// pre-parsed default_value annotation.
func parseJSONLiteral(s string) (*Value, rune, error) {
	tok := NewTokenizer(NewStringInput(s))
	return tok.readNodeDetect(false)
}
