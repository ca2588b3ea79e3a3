package value

import (
	"errors"
	"math/big"
	"strconv"
	"strings"
)

// Parse splits text on whitespace and converts every token, trying Integer
// first, then Float, and keeping the token as Text otherwise. Blank input
// yields an empty, non-nil slice.
func Parse(text string) []Value {
	fields := strings.Fields(text)
	values := make([]Value, 0, len(fields))
	for _, token := range fields {
		values = append(values, ParseToken(token))
	}

	return values
}

// ParseToken converts a single token. Integers of any magnitude stay exact.
// Underscores are accepted between digits ("1_000"); hexadecimal literals
// stay Text.
func ParseToken(token string) Value {
	if strings.ContainsAny(token, "xX") {
		return Str(token)
	}

	digits, ok := stripDigitSeparators(token)
	if !ok {
		return Str(token)
	}

	i, err := strconv.ParseInt(digits, 10, 64)
	if err == nil {
		return Int(i)
	}
	if errors.Is(err, strconv.ErrRange) {
		if b, ok := new(big.Int).SetString(digits, 10); ok {
			return BigInt(b)
		}
	}

	f, err := strconv.ParseFloat(digits, 64)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		return Flt(f)
	}

	return Str(token)
}

// stripDigitSeparators removes underscores that sit between two digits. It
// reports false when any underscore is misplaced.
func stripDigitSeparators(token string) (string, bool) {
	if !strings.Contains(token, "_") {
		return token, true
	}

	var sb strings.Builder
	sb.Grow(len(token))
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c != '_' {
			sb.WriteByte(c)
			continue
		}
		if i == 0 || i == len(token)-1 || !isDigit(token[i-1]) || !isDigit(token[i+1]) {
			return "", false
		}
	}

	return sb.String(), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
