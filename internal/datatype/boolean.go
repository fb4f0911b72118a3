package datatype

import (
	"fmt"
	"strings"
)

// boolProps holds the lexical tokens for true and false. The first token of
// each list is the canonical serialization.
type boolProps struct {
	trues  []string
	falses []string
}

var defaultBoolProps = boolProps{trues: []string{"true", "1"}, falses: []string{"false", "0"}}

type booleanType struct{ base }

func (booleanType) DerivedDescription(dt *Datatype) (any, error) {
	if dt.Format == nil {
		return defaultBoolProps, nil
	}
	f, ok := dt.Format.(string)
	if !ok || strings.Count(f, "|") != 1 {
		return nil, fmt.Errorf("%w: boolean format must be \"true-token|false-token\"", ErrInvalidDescription)
	}
	t, fa, _ := strings.Cut(f, "|")
	return boolProps{trues: []string{t}, falses: []string{fa}}, nil
}

func (t booleanType) Parse(v string, props any) (any, error) {
	p, ok := props.(boolProps)
	if !ok {
		p = defaultBoolProps
	}
	for _, s := range p.trues {
		if v == s {
			return true, nil
		}
	}
	for _, s := range p.falses {
		if v == s {
			return false, nil
		}
	}
	return nil, lexical(t.name, v)
}

func (t booleanType) Format(v any, props any) string {
	p, ok := props.(boolProps)
	if !ok {
		p = defaultBoolProps
	}
	if b, _ := v.(bool); b {
		return p.trues[0]
	}
	return p.falses[0]
}

func init() {
	register(booleanType{base{name: "boolean", example: "false"}})
}
