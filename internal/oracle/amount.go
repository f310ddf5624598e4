package oracle

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount parses a human-formatted monetary string into a float64.
// It tolerates currency symbols, thousands separators and accounting-style
// parentheses for negatives ("(50.00)" == -50.00).
func ParseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	cleaned = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, cleaned)

	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("no digits in amount %q", s)
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if negative {
		f = -f
	}
	return f, nil
}
