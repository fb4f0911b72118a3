package metadata

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yosida95/uritemplate/v3"

	"csvw/internal/datatype"
)

// properties is a description mapping partitioned into known fields,
// prefix:name common properties and @-properties.
type properties struct {
	known  map[string]any
	common map[string]any
	at     map[string]any
}

// partition classifies the keys of a description mapping.
//
// See http://w3c.github.io/csvw/metadata/#common-properties
func partition(d map[string]any) properties {
	p := properties{
		known:  map[string]any{},
		common: map[string]any{},
		at:     map[string]any{},
	}
	for k, v := range d {
		switch {
		case len(k) > 0 && k[0] == '@':
			p.at[k[1:]] = v
		case containsColon(k):
			p.common[k] = v
		default:
			p.known[k] = v
		}
	}
	return p
}

func containsColon(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return true
		}
	}
	return false
}

// URITemplate is an RFC 6570 template used for aboutUrl, propertyUrl and
// valueUrl properties.
type URITemplate struct {
	raw  string
	tmpl *uritemplate.Template
}

func ParseURITemplate(s string) (*URITemplate, error) {
	tmpl, err := uritemplate.New(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URI template %q: %v", datatype.ErrInvalidDescription, s, err)
	}
	return &URITemplate{raw: s, tmpl: tmpl}, nil
}

func (t *URITemplate) String() string { return t.raw }

// Expand substitutes row values into the template. Nil values are treated
// as undefined variables.
func (t *URITemplate) Expand(vars map[string]any) string {
	values := uritemplate.Values{}
	for k, v := range vars {
		if v == nil {
			continue
		}
		values.Set(k, uritemplate.String(fmt.Sprint(v)))
	}
	s, err := t.tmpl.Expand(values)
	if err != nil {
		return t.raw
	}
	return s
}

// NaturalLanguage holds language-tagged strings; the untagged entry is
// keyed by "".
//
// See http://w3c.github.io/csvw/metadata/#natural-language-properties
type NaturalLanguage struct {
	langs []string
	items map[string][]string
}

func NaturalLanguageFromValue(v any) (*NaturalLanguage, error) {
	n := &NaturalLanguage{items: map[string][]string{}}
	switch val := v.(type) {
	case string:
		n.add("", val)
	case []any:
		for _, vv := range val {
			s, ok := vv.(string)
			if !ok {
				return nil, fmt.Errorf("%w: invalid natural language value %v", datatype.ErrInvalidDescription, v)
			}
			n.add("", s)
		}
	case map[string]any:
		langs := make([]string, 0, len(val))
		for lang := range val {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			switch lv := val[lang].(type) {
			case string:
				n.add(lang, lv)
			case []any:
				for _, vv := range lv {
					s, ok := vv.(string)
					if !ok {
						return nil, fmt.Errorf("%w: invalid natural language value %v", datatype.ErrInvalidDescription, v)
					}
					n.add(lang, s)
				}
			default:
				return nil, fmt.Errorf("%w: invalid natural language value %v", datatype.ErrInvalidDescription, v)
			}
		}
	default:
		return nil, fmt.Errorf("%w: invalid natural language value %v", datatype.ErrInvalidDescription, v)
	}
	return n, nil
}

func (n *NaturalLanguage) add(lang, s string) {
	if _, ok := n.items[lang]; !ok {
		n.langs = append(n.langs, lang)
	}
	n.items[lang] = append(n.items[lang], s)
}

// First returns the first untagged string, falling back to the first string
// of the first language.
func (n *NaturalLanguage) First() string {
	if vs := n.items[""]; len(vs) > 0 {
		return vs[0]
	}
	for _, lang := range n.langs {
		if vs := n.items[lang]; len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// Strings returns all strings tagged with lang ("" for untagged).
func (n *NaturalLanguage) Strings(lang string) []string { return n.items[lang] }

func (n *NaturalLanguage) MarshalJSON() ([]byte, error) {
	if len(n.langs) == 1 && n.langs[0] == "" {
		if vs := n.items[""]; len(vs) == 1 {
			return json.Marshal(vs[0])
		}
		return json.Marshal(n.items[""])
	}
	out := map[string]any{}
	for lang, vs := range n.items {
		key := lang
		if key == "" {
			key = "und"
		}
		if len(vs) == 1 {
			out[key] = vs[0]
		} else {
			out[key] = vs
		}
	}
	return json.Marshal(out)
}

// Description carries the properties shared by every metadata entity:
// common and @-properties plus the inherited properties, with a non-owning
// back-reference to the containing entity for chain resolution.
//
// See http://w3c.github.io/csvw/metadata/#inherited-properties
type Description struct {
	CommonProps map[string]any
	AtProps     map[string]any

	AboutURL      *URITemplate
	Datatype      *datatype.Datatype
	Default       *string
	Lang          *string
	Null          *[]string
	Ordered       *bool
	PropertyURL   *URITemplate
	Required      *bool
	Separator     *string
	TextDirection *string
	ValueURL      *URITemplate

	parent *Description
}

// inheritedKeys are consumed by applyInherited; entity parsers must not
// treat them as unknown.
var inheritedKeys = map[string]bool{
	"aboutUrl": true, "datatype": true, "default": true, "lang": true,
	"null": true, "ordered": true, "propertyUrl": true, "required": true,
	"separator": true, "textDirection": true, "valueUrl": true,
}

// applyInherited fills the description from the partitioned properties,
// consuming the inherited keys from p.known.
func (d *Description) applyInherited(p properties) error {
	if len(p.common) > 0 {
		d.CommonProps = p.common
	}
	if len(p.at) > 0 {
		d.AtProps = p.at
	}
	var err error
	for k := range inheritedKeys {
		v, ok := p.known[k]
		if !ok {
			continue
		}
		delete(p.known, k)
		switch k {
		case "aboutUrl":
			d.AboutURL, err = templateValue(v)
		case "propertyUrl":
			d.PropertyURL, err = templateValue(v)
		case "valueUrl":
			d.ValueURL, err = templateValue(v)
		case "datatype":
			if v != nil {
				d.Datatype, err = datatype.FromValue(v)
			}
		case "default":
			d.Default, err = stringValue(k, v)
		case "lang":
			d.Lang, err = stringValue(k, v)
		case "separator":
			d.Separator, err = stringValue(k, v)
		case "textDirection":
			d.TextDirection, err = stringValue(k, v)
		case "ordered":
			d.Ordered, err = boolValue(k, v)
		case "required":
			d.Required, err = boolValue(k, v)
		case "null":
			var tokens []string
			tokens, err = stringListValue(k, v)
			d.Null = &tokens
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func templateValue(v any) (*URITemplate, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: URI template must be a string", datatype.ErrInvalidDescription)
	}
	return ParseURITemplate(s)
}

func stringValue(key string, v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", datatype.ErrInvalidDescription, key)
	}
	return &s, nil
}

func boolValue(key string, v any) (*bool, error) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a boolean", datatype.ErrInvalidDescription, key)
	}
	return &b, nil
}

// stringListValue accepts a single string, a list of strings, or an
// explicit null (meaning an empty list).
func stringListValue(key string, v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		return []string{x}, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, vv := range x {
			s, ok := vv.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must contain strings", datatype.ErrInvalidDescription, key)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: invalid %s value %v", datatype.ErrInvalidDescription, key, v)
}

// The Inherited* accessors resolve a property by walking the parent chain
// to the first entity that sets it, falling back to the CSVW default.

func (d *Description) InheritedDatatype() *datatype.Datatype {
	for s := d; s != nil; s = s.parent {
		if s.Datatype != nil {
			return s.Datatype
		}
	}
	return nil
}

func (d *Description) InheritedDefault() string {
	for s := d; s != nil; s = s.parent {
		if s.Default != nil {
			return *s.Default
		}
	}
	return ""
}

func (d *Description) InheritedLang() string {
	for s := d; s != nil; s = s.parent {
		if s.Lang != nil {
			return *s.Lang
		}
	}
	return "und"
}

func (d *Description) InheritedNull() []string {
	for s := d; s != nil; s = s.parent {
		if s.Null != nil {
			return *s.Null
		}
	}
	return []string{""}
}

func (d *Description) InheritedOrdered() bool {
	for s := d; s != nil; s = s.parent {
		if s.Ordered != nil {
			return *s.Ordered
		}
	}
	return false
}

func (d *Description) InheritedRequired() bool {
	for s := d; s != nil; s = s.parent {
		if s.Required != nil {
			return *s.Required
		}
	}
	return false
}

func (d *Description) InheritedSeparator() string {
	for s := d; s != nil; s = s.parent {
		if s.Separator != nil {
			return *s.Separator
		}
	}
	return ""
}

func (d *Description) InheritedAboutURL() *URITemplate {
	for s := d; s != nil; s = s.parent {
		if s.AboutURL != nil {
			return s.AboutURL
		}
	}
	return nil
}

func (d *Description) InheritedPropertyURL() *URITemplate {
	for s := d; s != nil; s = s.parent {
		if s.PropertyURL != nil {
			return s.PropertyURL
		}
	}
	return nil
}

func (d *Description) InheritedValueURL() *URITemplate {
	for s := d; s != nil; s = s.parent {
		if s.ValueURL != nil {
			return s.ValueURL
		}
	}
	return nil
}
