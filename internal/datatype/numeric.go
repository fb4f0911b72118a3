package datatype

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numProps is the derived state of the numeric family.
type numProps struct {
	pattern     *NumberPattern
	groupChar   string
	decimalChar string
}

// The xsd special values INF, -INF and NaN have no decimal.Decimal
// representation; they map to float64 non-finite values instead.
var numericSpecials = map[string]float64{
	"INF":  math.Inf(1),
	"-INF": math.Inf(-1),
	"NaN":  math.NaN(),
}

func specialName(f float64) (string, bool) {
	switch {
	case math.IsInf(f, 1):
		return "INF", true
	case math.IsInf(f, -1):
		return "-INF", true
	case math.IsNaN(f):
		return "NaN", true
	}
	return "", false
}

func numDerived(dt *Datatype) (any, error) {
	switch f := dt.Format.(type) {
	case nil:
		return nil, nil
	case string:
		p, err := CompileNumberPattern(f)
		if err != nil {
			return nil, err
		}
		return numProps{pattern: p}, nil
	case map[string]any:
		props := numProps{}
		if s, ok := f["groupChar"].(string); ok {
			props.groupChar = s
		}
		if s, ok := f["decimalChar"].(string); ok {
			props.decimalChar = s
		}
		if s, ok := f["pattern"].(string); ok {
			p, err := CompileNumberPattern(s)
			if err != nil {
				return nil, err
			}
			props.pattern = p
		}
		return props, nil
	}
	return nil, fmt.Errorf("%w: invalid format for numeric datatype", ErrInvalidDescription)
}

// decimalType maps to decimal.Decimal. Arbitrary-precision decimal
// arithmetic guarantees that values round-trip, which binary floats cannot.
type decimalType struct{ base }

func (decimalType) DerivedDescription(dt *Datatype) (any, error) { return numDerived(dt) }

func (t decimalType) Parse(v string, props any) (any, error) {
	p, _ := props.(numProps)
	// Scientific notation is forbidden for xs:decimal.
	if strings.ContainsAny(v, "eE") {
		return nil, lexical(t.name, v)
	}
	group := p.groupChar
	dec := p.decimalChar
	if p.pattern != nil {
		if group == "" && strings.Contains(p.pattern.Source, ",") {
			group = ","
		}
		if dec == "" && strings.Contains(p.pattern.Source, ".") {
			dec = "."
		}
	}
	doubled := group
	if doubled == "" {
		doubled = ","
	}
	if strings.Contains(v, doubled+doubled) {
		return nil, lexical(t.name, v)
	}
	if f, ok := numericSpecials[v]; ok {
		return f, nil
	}
	if p.pattern != nil {
		norm := v
		if group != "" && group != "," {
			norm = strings.ReplaceAll(norm, group, ",")
		}
		if dec != "" && dec != "." {
			norm = strings.ReplaceAll(norm, dec, ".")
		}
		if !p.pattern.IsValid(norm) {
			return nil, lexical(t.name, v)
		}
	}
	s := v
	if group != "" {
		s = strings.ReplaceAll(s, group, "")
	}
	if dec != "" && dec != "." {
		s = strings.ReplaceAll(s, dec, ".")
	}
	factor := decimal.NewFromInt(1)
	switch {
	case strings.Contains(s, "%"):
		s = strings.Replace(s, "%", "", 1)
		factor = decimal.RequireFromString("0.01")
	case strings.Contains(s, "‰"):
		s = strings.Replace(s, "‰", "", 1)
		factor = decimal.RequireFromString("0.001")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, lexical(t.name, v)
	}
	return d.Mul(factor), nil
}

func (t decimalType) Format(v any, props any) string {
	p, _ := props.(numProps)
	if f, ok := v.(float64); ok {
		if name, ok := specialName(f); ok {
			return name
		}
		v = decimal.NewFromFloat(f)
	}
	d, _ := v.(decimal.Decimal)
	var s string
	switch {
	case p.pattern != nil:
		s = p.pattern.FormatDecimal(d)
	case p.groupChar != "":
		s = groupDigitsPlain(d)
	default:
		s = d.String()
	}
	return swapSeparators(s, p.groupChar, p.decimalChar)
}

// groupDigitsPlain renders d with "," thousands grouping, the default when a
// groupChar is declared without a pattern.
func groupDigitsPlain(d decimal.Decimal) string {
	s := d.Abs().String()
	integral, frac, hasFrac := strings.Cut(s, ".")
	integral = groupDigits(integral, 3, 3)
	out := integral
	if hasFrac {
		out += "." + frac
	}
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

// swapSeparators rewrites the canonical "," group and "." decimal separators
// into the declared ones in a single pass, so "." -> "," swaps cannot collide.
func swapSeparators(s, groupChar, decimalChar string) string {
	if groupChar == "" && decimalChar == "" {
		return s
	}
	var b strings.Builder
	for _, c := range s {
		switch c {
		case ',':
			if groupChar != "" {
				b.WriteString(groupChar)
				continue
			}
		case '.':
			if decimalChar != "" {
				b.WriteString(decimalChar)
				continue
			}
		}
		b.WriteRune(c)
	}
	return b.String()
}

// integerType maps to decimal.Decimal restricted to integral values; bounded
// subtypes add inclusive ranges.
type integerType struct {
	decimalType
	min *decimal.Decimal
	max *decimal.Decimal
}

func (t integerType) Parse(v string, props any) (any, error) {
	res, err := t.decimalType.Parse(v, props)
	if err != nil {
		return nil, err
	}
	d, ok := res.(decimal.Decimal)
	if !ok || !d.IsInteger() {
		return nil, lexical(t.name, v)
	}
	if t.min != nil && d.Cmp(*t.min) < 0 {
		return nil, lexical(t.name, v)
	}
	if t.max != nil && d.Cmp(*t.max) > 0 {
		return nil, lexical(t.name, v)
	}
	return d, nil
}

// floatType maps to float64. Round-tripping is subject to the usual binary
// floating point caveats.
type floatType struct{ base }

func (floatType) DerivedDescription(dt *Datatype) (any, error) { return numDerived(dt) }

func (t floatType) Parse(v string, props any) (any, error) {
	p, _ := props.(numProps)
	if p.pattern != nil && !p.pattern.IsValid(v) {
		return nil, lexical(t.name, v)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || strings.TrimSpace(v) == "" {
		return nil, lexical(t.name, v)
	}
	return f, nil
}

func (t floatType) Format(v any, _ any) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprint(v)
	}
	if name, ok := specialName(f); ok {
		return name
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

var intRangeRe = regexp.MustCompile(`^-?[0-9]+$`)

func dec(s string) *decimal.Decimal {
	if !intRangeRe.MatchString(s) {
		panic("invalid integer range literal: " + s)
	}
	d := decimal.RequireFromString(s)
	return &d
}

func init() {
	register(decimalType{base{name: "decimal", example: "5", ordered: true}})
	for _, it := range []struct {
		name     string
		example  string
		min, max *decimal.Decimal
	}{
		{"integer", "5", nil, nil},
		{"int", "5", nil, nil},
		{"long", "5", dec("-9223372036854775808"), dec("9223372036854775807")},
		{"short", "5", dec("-32768"), dec("32767")},
		{"byte", "5", dec("-128"), dec("127")},
		{"unsignedLong", "5", dec("0"), dec("18446744073709551615")},
		{"unsignedInt", "5", dec("0"), dec("4294967295")},
		{"unsignedShort", "5", dec("0"), dec("65535")},
		{"unsignedByte", "5", dec("0"), dec("255")},
		{"nonNegativeInteger", "5", dec("0"), nil},
		{"positiveInteger", "5", dec("1"), nil},
		{"nonPositiveInteger", "-5", nil, dec("0")},
		{"negativeInteger", "-5", nil, dec("-1")},
	} {
		register(integerType{
			decimalType: decimalType{base{name: it.name, example: it.example, ordered: true}},
			min:         it.min,
			max:         it.max,
		})
	}
	register(floatType{base{name: "float", example: "5.3", ordered: true}})
	register(floatType{base{name: "double", example: "5.3", ordered: true}})
	register(floatType{base{name: "number", example: "5.3", ordered: true}})
}
