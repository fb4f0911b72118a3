package datatype

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// jsonProps is the derived state of the json basetype: an optional compiled
// JSON Schema from the format property. A format that is not a valid schema
// document is ignored, leaving a plain parse/dump codec.
type jsonProps struct {
	schema *jsonschema.Schema
}

type jsonType struct{ base }

func (jsonType) DerivedDescription(dt *Datatype) (any, error) {
	f, ok := dt.Format.(string)
	if !ok || f == "" {
		return jsonProps{}, nil
	}
	schema, err := jsonschema.CompileString("format.json", f)
	if err != nil {
		return jsonProps{}, nil
	}
	return jsonProps{schema: schema}, nil
}

func (t jsonType) Parse(v string, props any) (any, error) {
	var res any
	if err := json.Unmarshal([]byte(v), &res); err != nil {
		return nil, lexical(t.name, v)
	}
	if p, ok := props.(jsonProps); ok && p.schema != nil {
		if err := p.schema.Validate(res); err != nil {
			return nil, lexical(t.name, v)
		}
	}
	return res, nil
}

func (jsonType) Format(v any, _ any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func init() {
	register(jsonType{base{name: "json", example: `{"a":[1,2]}`, measured: true}})
}
