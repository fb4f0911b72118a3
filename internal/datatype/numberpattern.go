package datatype

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NumberPattern is a compiled CLDR decimal pattern, e.g. "#,##0.00" or
// "0.###E0". It recognises the symbols 0, #, the decimal and group
// separators, E, +, % and the per-mille sign. An optional ";"-separated
// negative sub-pattern may follow the positive one; the default negative
// pattern is "-" prepended to the positive pattern.
type NumberPattern struct {
	Source   string
	positive string
	negative string

	// Digit counts derived once at compile time.
	PrimaryGroupSize         int
	SecondaryGroupSize       int
	MinIntegerDigits         int
	DecimalDigits            int
	SignificantDecimalDigits int
	ExponentDigits           int
}

// CompileNumberPattern parses pattern and derives its digit counts.
func CompileNumberPattern(pattern string) (*NumberPattern, error) {
	if strings.Count(pattern, ";") > 1 {
		return nil, fmt.Errorf("%w: number pattern %q has more than one negative sub-pattern", ErrInvalidDescription, pattern)
	}
	pos, neg, _ := strings.Cut(pattern, ";")
	if neg == "" {
		neg = "-" + strings.ReplaceAll(pos, "+", "")
	}
	p := &NumberPattern{Source: pattern, positive: pos, negative: neg}

	integral, _, _ := strings.Cut(pos, ".")
	groups := strings.Split(integral, ",")
	if len(groups) > 1 {
		p.PrimaryGroupSize = placeholders(groups[len(groups)-1])
	}
	if len(groups) > 2 {
		p.SecondaryGroupSize = placeholders(groups[1])
	} else {
		p.SecondaryGroupSize = p.PrimaryGroupSize
	}

	// Minimum integer digits: the trailing run of zeros before the decimal
	// point.
	for i := len(integral) - 1; i >= 0 && integral[i] == '0'; i-- {
		p.MinIntegerDigits++
	}

	_, decimalPart, _ := strings.Cut(pos, ".")
	for _, c := range decimalPart {
		if c == '#' || c == '0' {
			p.DecimalDigits++
		}
		if c == 'E' {
			break
		}
	}
	for _, c := range decimalPart {
		if c == '0' {
			p.SignificantDecimalDigits++
		}
		if c == 'E' || c == '#' {
			break
		}
	}

	_, exponent, _ := strings.Cut(strings.ToLower(pos), "e")
exp:
	for _, c := range exponent {
		switch c {
		case '0', '#':
			p.ExponentDigits++
		case ',':
		default:
			break exp
		}
	}
	return p, nil
}

func placeholders(s string) int {
	return strings.Count(s, "#") + strings.Count(s, "0")
}

func countDigits(s string) int {
	n := 0
	for _, c := range s {
		if !strings.ContainsRune(".,E+-%‰", c) {
			n++
		}
	}
	return n
}

// IsValid re-derives the digit counts of a formatted candidate (with "," as
// group and "." as decimal separator) and checks conformance to the pattern.
func (p *NumberPattern) IsValid(s string) bool {
	integral, rest, _ := strings.Cut(s, ".")
	decimalPart, exponent, _ := strings.Cut(strings.ToLower(rest), "e")
	groups := strings.Split(integral, ",")

	var significant []rune
	leadingZero, skip := false, true
	for _, c := range strings.Join(groups, "") {
		if c == '+' || c == '-' || c == '%' {
			continue
		}
		if c == '0' && skip {
			leadingZero = true
			continue
		}
		if c != '0' {
			skip = false
		}
		significant = append(significant, c)
	}
	if len(significant) == 0 && leadingZero {
		significant = []rune{'0'}
	}
	if p.MinIntegerDigits > 0 && len(significant) < p.MinIntegerDigits {
		return false
	}
	if p.PrimaryGroupSize > 0 && len(groups) > 0 {
		last := countDigits(groups[len(groups)-1])
		if last > p.PrimaryGroupSize {
			return false
		}
		if len(groups) > 1 && last < p.PrimaryGroupSize {
			return false
		}
	}
	if p.SecondaryGroupSize > 0 && len(groups) > 1 {
		for i, group := range groups[:len(groups)-1] {
			n := countDigits(group)
			if i == 0 {
				if n > p.SecondaryGroupSize {
					return false
				}
			} else if n != p.SecondaryGroupSize {
				return false
			}
		}
	}
	if decimalPart != "" && countDigits(decimalPart) > p.DecimalDigits {
		return false
	}
	if p.SignificantDecimalDigits > 0 {
		if decimalPart == "" || countDigits(decimalPart) < p.SignificantDecimalDigits {
			return false
		}
	}
	if p.ExponentDigits > 0 && exponent != "" && countDigits(exponent) > p.ExponentDigits {
		return false
	}
	return true
}

// FormatDecimal renders d according to the pattern's grouping, minimum
// integer digits and fractional digit counts, using "," and "." as
// separators. Exponent patterns fall back to the plain decimal rendering.
func (p *NumberPattern) FormatDecimal(d decimal.Decimal) string {
	if p.ExponentDigits > 0 {
		return d.String()
	}
	s := d.Abs().StringFixed(int32(p.DecimalDigits))
	integral, frac, _ := strings.Cut(s, ".")

	// Trim insignificant trailing zeros, keeping the required minimum.
	for len(frac) > p.SignificantDecimalDigits && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}
	for len(integral) < p.MinIntegerDigits {
		integral = "0" + integral
	}
	if p.PrimaryGroupSize > 0 {
		integral = groupDigits(integral, p.PrimaryGroupSize, p.SecondaryGroupSize)
	}
	out := integral
	if frac != "" {
		out += "." + frac
	}
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

func groupDigits(s string, primary, secondary int) string {
	if len(s) <= primary {
		return s
	}
	var parts []string
	parts = append(parts, s[len(s)-primary:])
	s = s[:len(s)-primary]
	size := secondary
	if size <= 0 {
		size = primary
	}
	for len(s) > size {
		parts = append(parts, s[len(s)-size:])
		s = s[:len(s)-size]
	}
	parts = append(parts, s)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ",")
}
