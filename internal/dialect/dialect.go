// Package dialect implements CSVW dialect descriptions and a dialect-aware
// reader/writer for delimiter-separated files.
//
// See https://www.w3.org/TR/tabular-metadata/#dialect-descriptions
package dialect

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Trim selects the cell whitespace trimming mode. JSON descriptions may give
// it as a bool or as one of "true", "false", "start", "end".
type Trim string

const (
	TrimTrue  Trim = "true"
	TrimFalse Trim = "false"
	TrimStart Trim = "start"
	TrimEnd   Trim = "end"
)

func (t *Trim) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*t = TrimFalse
		if x {
			*t = TrimTrue
		}
	case string:
		*t = Trim(x)
	default:
		return fmt.Errorf("invalid trim value %v", v)
	}
	return nil
}

func (t *Trim) UnmarshalYAML(unmarshal func(any) error) error {
	var b bool
	if err := unmarshal(&b); err == nil {
		*t = TrimFalse
		if b {
			*t = TrimTrue
		}
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*t = Trim(s)
	return nil
}

// Cut applies the trimming mode to a cell.
func (t Trim) Cut(s string) string {
	switch t {
	case TrimTrue:
		return strings.TrimSpace(s)
	case TrimStart:
		return strings.TrimLeft(s, " \t")
	case TrimEnd:
		return strings.TrimRight(s, " \t")
	}
	return s
}

// Dialect holds the CSVW tokenization parameters.
type Dialect struct {
	Encoding         string   `json:"encoding" yaml:"encoding"`
	LineTerminators  []string `json:"lineTerminators" yaml:"lineTerminators"`
	QuoteChar        string   `json:"quoteChar" yaml:"quoteChar"`
	DoubleQuote      bool     `json:"doubleQuote" yaml:"doubleQuote"`
	SkipRows         int      `json:"skipRows" yaml:"skipRows"`
	CommentPrefix    string   `json:"commentPrefix" yaml:"commentPrefix"`
	Header           bool     `json:"header" yaml:"header"`
	HeaderRowCount   int      `json:"headerRowCount" yaml:"headerRowCount"`
	Delimiter        string   `json:"delimiter" yaml:"delimiter"`
	SkipColumns      int      `json:"skipColumns" yaml:"skipColumns"`
	SkipBlankRows    bool     `json:"skipBlankRows" yaml:"skipBlankRows"`
	SkipInitialSpace bool     `json:"skipInitialSpace" yaml:"skipInitialSpace"`
	Trim             Trim     `json:"trim" yaml:"trim"`
}

// Default returns a dialect with the CSVW defaults: comma-delimited,
// double-quoted, "#" comments, one header row, no trimming.
func Default() *Dialect {
	return &Dialect{
		Encoding:        "utf-8",
		LineTerminators: []string{"\r\n", "\n"},
		QuoteChar:       `"`,
		DoubleQuote:     true,
		CommentPrefix:   "#",
		Header:          true,
		HeaderRowCount:  1,
		Delimiter:       ",",
		Trim:            TrimFalse,
	}
}

// FromValue builds a dialect from a description mapping, overlaying the
// given keys on the defaults.
func FromValue(v any) (*Dialect, error) {
	d := Default()
	if v == nil {
		return d, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid dialect description: %v", v)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("invalid dialect description: %v", err)
	}
	return d, d.validate()
}

func (d *Dialect) validate() error {
	switch d.Trim {
	case TrimTrue, TrimFalse, TrimStart, TrimEnd:
	default:
		return fmt.Errorf("invalid trim value %q", d.Trim)
	}
	if d.SkipRows < 0 || d.SkipColumns < 0 || d.HeaderRowCount < 0 {
		return fmt.Errorf("negative skip count in dialect")
	}
	if d.Delimiter == "" {
		return fmt.Errorf("empty delimiter")
	}
	if len(d.QuoteChar) > 1 {
		return fmt.Errorf("quoteChar must be a single character")
	}
	return nil
}

// EscapeChar returns the character that escapes a quote inside a quoted
// cell: the quote itself with doubleQuote, else a backslash.
func (d *Dialect) EscapeChar() string {
	if d.QuoteChar == "" {
		return ""
	}
	if d.DoubleQuote {
		return d.QuoteChar
	}
	return `\`
}
