package metadata

import (
	"fmt"
	"regexp"
	"strings"

	"csvw/internal/datatype"
)

// Level 1 variable names according to https://tools.ietf.org/html/rfc6570#section-2.3
var varnameRe = regexp.MustCompile(
	`^([a-zA-Z0-9_]|%[a-fA-F0-9]{2})(\.?([a-zA-Z0-9_]|%[a-fA-F0-9]{2}))*$`)

// Column is one schema column: a datatype plus the cell-level null, default,
// separator and required semantics, resolved through the inheritance chain.
type Column struct {
	Description

	Name           string
	Titles         *NaturalLanguage
	SuppressOutput bool
	Virtual        bool

	number int // 1-based ordinal assigned by the owning schema
}

// ColumnFromValue builds a column from a description mapping.
func ColumnFromValue(v any) (*Column, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: invalid column description %v", datatype.ErrInvalidDescription, v)
	}
	p := partition(m)
	c := &Column{}
	if err := c.applyInherited(p); err != nil {
		return nil, err
	}
	if name, ok := p.known["name"]; ok && name != nil {
		s, ok := name.(string)
		if !ok || !varnameRe.MatchString(s) {
			return nil, fmt.Errorf("%w: invalid column name %v", datatype.ErrInvalidDescription, name)
		}
		c.Name = s
	}
	if titles, ok := p.known["titles"]; ok && titles != nil {
		nl, err := NaturalLanguageFromValue(titles)
		if err != nil {
			return nil, err
		}
		c.Titles = nl
	}
	if b, ok := p.known["virtual"].(bool); ok {
		c.Virtual = b
	}
	if b, ok := p.known["suppressOutput"].(bool); ok {
		c.SuppressOutput = b
	}
	return c, nil
}

// Number returns the column's 1-based ordinal within its schema.
func (c *Column) Number() int { return c.number }

// Header returns the key under which the column's values appear in decoded
// rows: the name, the first title, or a positional placeholder.
func (c *Column) Header() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Titles != nil {
		if t := c.Titles.First(); t != "" {
			return t
		}
	}
	return fmt.Sprintf("_col.%d", c.number)
}

// Read converts a raw cell to its typed value: default substitution, the
// required/null interaction, separator splitting and the datatype codec.
// Separator columns yield []any with nil for null tokens; a whole-cell null
// token yields nil.
//
// See http://w3c.github.io/csvw/syntax/#parsing-cells
func (c *Column) Read(v string) (any, error) {
	required := c.InheritedRequired()
	null := c.InheritedNull()
	def := c.InheritedDefault()
	sep := c.InheritedSeparator()
	dt := c.InheritedDatatype()

	if v == "" {
		v = def
	}
	if required && containsToken(null, v) {
		return nil, ErrRequiredValueMissing
	}

	if sep != "" {
		if v == "" {
			return []any{}, nil
		}
		if containsToken(null, v) {
			return nil, nil
		}
		parts := strings.Split(v, sep)
		out := make([]any, 0, len(parts))
		for _, part := range parts {
			if part == "" {
				part = def
			}
			if containsToken(null, part) {
				out = append(out, nil)
				continue
			}
			if dt == nil {
				out = append(out, part)
				continue
			}
			tv, err := dt.Read(part)
			if err != nil {
				return nil, err
			}
			out = append(out, tv)
		}
		return out, nil
	}

	if containsToken(null, v) {
		return nil, nil
	}
	if dt == nil {
		return v, nil
	}
	return dt.Read(v)
}

// Write is the inverse of Read: nil renders as the first null token, lists
// join on the separator, typed values go through the datatype formatter.
func (c *Column) Write(v any) string {
	sep := c.InheritedSeparator()
	null := c.InheritedNull()
	dt := c.InheritedDatatype()

	one := func(v any) string {
		if v == nil {
			if len(null) > 0 {
				return null[0]
			}
			return ""
		}
		if dt != nil {
			return dt.Formatted(v)
		}
		return fmt.Sprint(v)
	}

	if sep != "" {
		list, _ := v.([]any)
		parts := make([]string, len(list))
		for i, vv := range list {
			parts[i] = one(vv)
		}
		return strings.Join(parts, sep)
	}
	return one(v)
}

func containsToken(tokens []string, v string) bool {
	for _, t := range tokens {
		if t == v {
			return true
		}
	}
	return false
}
