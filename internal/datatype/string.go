package datatype

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// stringProps is the derived state of the string family: an optional anchored
// regex compiled from the datatype's format property.
type stringProps struct {
	regex *regexp.Regexp
}

type stringType struct{ base }

func (stringType) DerivedDescription(dt *Datatype) (any, error) {
	f, ok := dt.Format.(string)
	if !ok || f == "" {
		return nil, nil
	}
	// The format regex must match the whole value when validating.
	re, err := regexp.Compile(`^(?:` + f + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex as datatype format: %v", ErrInvalidDescription, err)
	}
	return stringProps{regex: re}, nil
}

func (t stringType) Parse(v string, props any) (any, error) {
	if p, ok := props.(stringProps); ok && p.regex != nil && !p.regex.MatchString(v) {
		return nil, lexical(t.name, v)
	}
	return v, nil
}

// anyURIType maps to *url.URL. Serialization normalizes the URI, so
// round-tripping is not guaranteed (matching RFC 3986 normalization).
type anyURIType struct{ stringType }

func (t anyURIType) Parse(v string, props any) (any, error) {
	if _, err := t.stringType.Parse(v, props); err != nil {
		return nil, err
	}
	u, err := url.Parse(v)
	if err != nil {
		return nil, lexical(t.name, v)
	}
	return u, nil
}

func (t anyURIType) Format(v any, _ any) string {
	switch u := v.(type) {
	case *url.URL:
		return u.String()
	case string:
		return u
	}
	return fmt.Sprint(v)
}

var nmtokenRe = regexp.MustCompile(`^[\w.:-]*$`)

// nmtokenType accepts XML 1.0 name tokens: characters, digits, ".", ":", "-".
type nmtokenType struct{ stringType }

func (t nmtokenType) Parse(v string, props any) (any, error) {
	if _, err := t.stringType.Parse(v, props); err != nil {
		return nil, err
	}
	if !nmtokenRe.MatchString(v) {
		return nil, lexical(t.name, v)
	}
	return v, nil
}

var normalizedReplacer = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")

// normalizedStringType folds tab, linefeed and carriage return into spaces
// and trims the result, as required by CSVW tests 036/037.
type normalizedStringType struct{ stringType }

func (t normalizedStringType) Parse(v string, props any) (any, error) {
	if v != "" {
		v = strings.TrimSpace(normalizedReplacer.Replace(v))
	}
	return v, nil
}

func init() {
	register(base{name: "any", example: "x"})
	register(stringType{base{name: "string", example: "x", measured: true}})
	register(anyURIType{stringType{base{name: "anyURI", example: "http://example.org", measured: true}}})
	register(nmtokenType{stringType{base{name: "NMTOKEN", example: "Snoopy", measured: true}}})
	register(normalizedStringType{stringType{base{name: "normalizedString", example: "x", measured: true}}})

	// Plain string aliases: lexical space unconstrained beyond an optional
	// format regex.
	for _, alias := range []struct{ name, example string }{
		{"QName", "ns:a"},
		{"gDay", "---22"},
		{"gMonth", "--03"},
		{"gMonthDay", "--03-22"},
		{"gYear", "2015"},
		{"gYearMonth", "2015-03"},
		{"xml", "<a>x</a>"},
		{"html", "<p>x</p>"},
	} {
		register(stringType{base{name: alias.name, example: alias.example, measured: true}})
	}
}
