package datatype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/senseyeio/duration"
	"github.com/shopspring/decimal"
)

// ErrInvalidDescription marks a malformed datatype description: unknown
// base, inconsistent constraints or an uncompilable format. It is always
// fatal at construction time.
var ErrInvalidDescription = errors.New("invalid datatype description")

// Datatype binds a basetype to the constraints of a derived datatype
// declared on a column: format, the length family and the bound family.
//
// See http://w3c.github.io/csvw/metadata/#datatypes
type Datatype struct {
	Base   string
	Format any // string, or a map for numeric {groupChar, decimalChar, pattern}

	Length    *int
	MinLength *int
	MaxLength *int

	// Bound literals as given in the description; parsed through the
	// basetype at construction.
	Minimum      any
	Maximum      any
	MinInclusive any
	MaxInclusive any
	MinExclusive any
	MaxExclusive any

	CommonProps map[string]any
	AtProps     map[string]any

	basetype Basetype
	props    any
	lower    *bound
	upper    *bound
}

type bound struct {
	value     any
	inclusive bool
}

// New returns the derived datatype with the given base and no constraints.
func New(base string) (*Datatype, error) {
	return FromValue(base)
}

// MustNew is New for statically known bases.
func MustNew(base string) *Datatype {
	dt, err := New(base)
	if err != nil {
		panic(err)
	}
	return dt
}

// FromValue builds a Datatype from description data: either a bare basetype
// name or a datatype description mapping.
func FromValue(v any) (*Datatype, error) {
	switch d := v.(type) {
	case string:
		dt := &Datatype{Base: d}
		return dt, dt.compile()
	case map[string]any:
		dt := &Datatype{}
		if err := dt.assign(d); err != nil {
			return nil, err
		}
		return dt, dt.compile()
	case *Datatype:
		return d, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, v)
}

// assign partitions the description mapping into known fields, prefix:name
// common properties and @-properties.
func (dt *Datatype) assign(d map[string]any) error {
	for k, v := range d {
		switch {
		case strings.HasPrefix(k, "@"):
			if dt.AtProps == nil {
				dt.AtProps = map[string]any{}
			}
			dt.AtProps[k[1:]] = v
		case strings.Contains(k, ":"):
			if dt.CommonProps == nil {
				dt.CommonProps = map[string]any{}
			}
			dt.CommonProps[k] = v
		case k == "base":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: base must be a string", ErrInvalidDescription)
			}
			dt.Base = s
		case k == "format":
			dt.Format = v
		case k == "length" || k == "minLength" || k == "maxLength":
			n, err := describedInt(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidDescription, k, err)
			}
			switch k {
			case "length":
				dt.Length = n
			case "minLength":
				dt.MinLength = n
			case "maxLength":
				dt.MaxLength = n
			}
		case k == "minimum":
			dt.Minimum = v
		case k == "maximum":
			dt.Maximum = v
		case k == "minInclusive":
			dt.MinInclusive = v
		case k == "maxInclusive":
			dt.MaxInclusive = v
		case k == "minExclusive":
			dt.MinExclusive = v
		case k == "maxExclusive":
			dt.MaxExclusive = v
		default:
			// Unknown plain fields are ignored, as in the metadata model.
		}
	}
	return nil
}

func describedInt(v any) (*int, error) {
	switch n := v.(type) {
	case float64:
		i := int(n)
		if float64(i) != n {
			return nil, fmt.Errorf("not an integer: %v", v)
		}
		return &i, nil
	case int:
		i := n
		return &i, nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return nil, err
		}
		return &i, nil
	}
	return nil, fmt.Errorf("not an integer: %v", v)
}

// compile resolves the basetype, validates constraint consistency, derives
// the format-dependent codec state and parses the bound literals. All
// failures are fatal; nothing is re-checked per cell.
func (dt *Datatype) compile() error {
	if dt.Base == "" {
		dt.Base = "string"
	}
	bt, ok := Lookup(dt.Base)
	if !ok {
		return fmt.Errorf("%w: unknown base %q", ErrInvalidDescription, dt.Base)
	}
	dt.basetype = bt

	if dt.Length != nil || dt.MinLength != nil || dt.MaxLength != nil {
		if !bt.Measured() {
			return fmt.Errorf("%w: length constraints not allowed for base %q", ErrInvalidDescription, dt.Base)
		}
		if dt.Length != nil && dt.MinLength != nil && *dt.Length < *dt.MinLength {
			return fmt.Errorf("%w: length < minLength", ErrInvalidDescription)
		}
		if dt.Length != nil && dt.MaxLength != nil && *dt.Length > *dt.MaxLength {
			return fmt.Errorf("%w: length > maxLength", ErrInvalidDescription)
		}
		if dt.MinLength != nil && dt.MaxLength != nil && *dt.MinLength > *dt.MaxLength {
			return fmt.Errorf("%w: minLength > maxLength", ErrInvalidDescription)
		}
	}

	props, err := bt.DerivedDescription(dt)
	if err != nil {
		return err
	}
	dt.props = props

	lo, err := dt.side("minimum", dt.Minimum, dt.MinInclusive, dt.MinExclusive)
	if err != nil {
		return err
	}
	hi, err := dt.side("maximum", dt.Maximum, dt.MaxInclusive, dt.MaxExclusive)
	if err != nil {
		return err
	}
	dt.lower, dt.upper = lo, hi
	if lo != nil && hi != nil {
		c, err := compareValues(lo.value, hi.value)
		if err != nil {
			return fmt.Errorf("%w: incomparable bounds", ErrInvalidDescription)
		}
		if c > 0 {
			return fmt.Errorf("%w: minimum > maximum", ErrInvalidDescription)
		}
	}
	return nil
}

// side resolves one side of the bound family: the plain and Inclusive
// aliases may not be combined with an Exclusive bound.
func (dt *Datatype) side(name string, plain, inclusive, exclusive any) (*bound, error) {
	if plain != nil && inclusive != nil {
		return nil, fmt.Errorf("%w: %s given twice", ErrInvalidDescription, name)
	}
	if plain == nil {
		plain = inclusive
	}
	if plain != nil && exclusive != nil {
		return nil, fmt.Errorf("%w: both inclusive and exclusive %s", ErrInvalidDescription, name)
	}
	raw, incl := plain, true
	if raw == nil {
		raw, incl = exclusive, false
	}
	if raw == nil {
		return nil, nil
	}
	if !dt.basetype.Ordered() {
		return nil, fmt.Errorf("%w: bounds not allowed for base %q", ErrInvalidDescription, dt.Base)
	}
	v, err := dt.basetype.Parse(literal(raw), dt.props)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s: %v", ErrInvalidDescription, name, err)
	}
	return &bound{value: v, inclusive: incl}, nil
}

// literal renders a description value (string or JSON number) as the
// lexical form expected by the basetype.
func literal(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	}
	return fmt.Sprint(v)
}

// Basetype returns the bound basetype.
func (dt *Datatype) Basetype() Basetype { return dt.basetype }

// Parse converts a lexical value to its typed representation without
// checking the length and bound constraints.
func (dt *Datatype) Parse(v string) (any, error) {
	return dt.basetype.Parse(v, dt.props)
}

// Validate checks the parsed value against the length and bound family.
func (dt *Datatype) Validate(v any) error {
	if v == nil {
		return nil
	}
	if n, ok := valueLength(v); ok {
		if dt.Length != nil && n != *dt.Length {
			return fmt.Errorf("value length %d != %d", n, *dt.Length)
		}
		if dt.MinLength != nil && n < *dt.MinLength {
			return fmt.Errorf("value length %d < minLength %d", n, *dt.MinLength)
		}
		if dt.MaxLength != nil && n > *dt.MaxLength {
			return fmt.Errorf("value length %d > maxLength %d", n, *dt.MaxLength)
		}
	}
	if dt.basetype.Ordered() {
		if dt.lower != nil {
			c, err := compareValues(v, dt.lower.value)
			if err == nil && (c < 0 || (c == 0 && !dt.lower.inclusive)) {
				return fmt.Errorf("value %v below minimum", dt.Formatted(v))
			}
		}
		if dt.upper != nil {
			c, err := compareValues(v, dt.upper.value)
			if err == nil && (c > 0 || (c == 0 && !dt.upper.inclusive)) {
				return fmt.Errorf("value %v above maximum", dt.Formatted(v))
			}
		}
	}
	return nil
}

// Read parses and validates a lexical value.
func (dt *Datatype) Read(v string) (any, error) {
	res, err := dt.Parse(v)
	if err != nil {
		return nil, err
	}
	if err := dt.Validate(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Formatted serializes a typed value back to its lexical form.
func (dt *Datatype) Formatted(v any) string {
	return dt.basetype.Format(v, dt.props)
}

func valueLength(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t), true
	case []byte:
		return len(t), true
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	}
	return 0, false
}

var durationEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// compareValues orders two parsed values of the same basetype family.
func compareValues(a, b any) (int, error) {
	switch av := a.(type) {
	case decimal.Decimal:
		switch bv := b.(type) {
		case decimal.Decimal:
			return av.Cmp(bv), nil
		case float64:
			return cmpFloat(av.InexactFloat64(), bv), nil
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return cmpFloat(av, bv), nil
		case decimal.Decimal:
			return cmpFloat(av, bv.InexactFloat64()), nil
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), nil
		}
	case duration.Duration:
		if bv, ok := b.(duration.Duration); ok {
			// ISO durations have no direct ordering; anchor both at a fixed
			// epoch and compare the shifted instants.
			return av.Shift(durationEpoch).Compare(bv.Shift(durationEpoch)), nil
		}
	}
	return 0, fmt.Errorf("incomparable values %T and %T", a, b)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
