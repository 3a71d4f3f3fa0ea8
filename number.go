package jsonstream

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// readNumber parses a JSON number. Precondition: the first digit or '-' has
// already been consumed and is passed in as first.
//
// The literal is parsed into an integer variant if it is mathematically an
// integer literal (no fraction, no exponent) that fits Go's int64, else a
// floating value (float64); an integer literal outside the int64 range
// widens to float64. When the Tokenizer is in decimal mode
// (WithDecimalMode), every number is instead parsed with
// shopspring/decimal for lossless round-tripping regardless of magnitude.
func (t *Tokenizer) readNumber(first rune) (*Value, error) {
	var sb strings.Builder
	sb.WriteRune(first)

	isFloat := false
	if first == '-' {
		b, err := t.in.Peek()
		if err != nil {
			return nil, err
		}
		if !isDigit(b) {
			return nil, formatError(tokenPositioner{}, "expected digit after '-'")
		}
		// Integer part, starting at its first digit.
		if err := t.consumeDigits(&sb); err != nil {
			return nil, err
		}
	} else if first != '0' {
		// Integer part: first is already its leading digit; a leading '0'
		// is the whole integer part.
		if _, err := t.mustConsumeDigits(&sb); err != nil {
			return nil, err
		}
	}

	// Fraction.
	r, err := t.in.Peek()
	if err != nil {
		return nil, err
	}
	if r == '.' {
		isFloat = true
		if _, err := t.in.ReadCodepoint(); err != nil {
			return nil, err
		}
		sb.WriteRune('.')
		n, err := t.mustConsumeDigits(&sb)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, formatError(tokenPositioner{}, "expected digit after '.'")
		}
	}

	// Exponent.
	r, err = t.in.Peek()
	if err != nil {
		return nil, err
	}
	if r == 'e' || r == 'E' {
		isFloat = true
		if _, err := t.in.ReadCodepoint(); err != nil {
			return nil, err
		}
		sb.WriteRune('e')
		sign, err := t.in.Peek()
		if err != nil {
			return nil, err
		}
		if sign == '+' || sign == '-' {
			if _, err := t.in.ReadCodepoint(); err != nil {
				return nil, err
			}
			sb.WriteRune(sign)
		}
		n, err := t.mustConsumeDigits(&sb)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, formatError(tokenPositioner{}, "expected digit in exponent")
		}
	}

	literal := sb.String()

	if t.decimalMode {
		d, err := decimal.NewFromString(literal)
		if err != nil {
			return nil, formatError(tokenPositioner{}, "invalid number literal %q", literal)
		}
		return DecimalValue(d), nil
	}

	if !isFloat {
		if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return Int(i), nil
		}
		// Wider than int64: widen to float64.
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil, formatError(tokenPositioner{}, "invalid number literal %q", literal)
	}
	return Float(f), nil
}

// consumeDigits reads the (possibly single-zero) integer part of a number
// literal into sb, enforcing the no-leading-zero rule.
func (t *Tokenizer) consumeDigits(sb *strings.Builder) error {
	b, err := t.in.ReadASCII()
	if err != nil {
		return err
	}
	if !isDigit(rune(b)) {
		return formatError(tokenPositioner{}, "expected digit, found %q", b)
	}
	sb.WriteByte(b)
	if b == '0' {
		// Leading zero: no further integer-part digits permitted.
		return nil
	}
	for {
		r, err := t.in.Peek()
		if err != nil {
			return err
		}
		if !isDigit(r) {
			return nil
		}
		if _, err := t.in.ReadCodepoint(); err != nil {
			return err
		}
		sb.WriteRune(r)
	}
}

// mustConsumeDigits reads zero or more ASCII digits into sb and reports how
// many were consumed.
func (t *Tokenizer) mustConsumeDigits(sb *strings.Builder) (int, error) {
	n := 0
	for {
		r, err := t.in.Peek()
		if err != nil {
			return n, err
		}
		if !isDigit(r) {
			return n, nil
		}
		if _, err := t.in.ReadCodepoint(); err != nil {
			return n, err
		}
		sb.WriteRune(r)
		n++
	}
}
