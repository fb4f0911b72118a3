package metadata

import (
	"fmt"

	"csvw/internal/datatype"
)

// Reference is the target of a foreign key: either a table (resource) or a
// schema (schemaReference), never both, plus the referenced columns.
type Reference struct {
	Resource        string
	SchemaReference string
	ColumnReference []string
}

// ForeignKey links columns of the owning schema to a Reference.
type ForeignKey struct {
	ColumnReference []string
	Reference       Reference
}

// columnReference accepts a single column name or a list of names.
func columnReference(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	return stringListValue("columnReference", v)
}

func foreignKeyFromValue(v any) (*ForeignKey, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: invalid foreign key description %v", ErrSchemaShape, v)
	}
	fk := &ForeignKey{}
	var err error
	if fk.ColumnReference, err = columnReference(m["columnReference"]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaShape, err)
	}
	ref, ok := m["reference"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: foreign key without reference", ErrSchemaShape)
	}
	if s, ok := ref["resource"].(string); ok {
		fk.Reference.Resource = s
	}
	if s, ok := ref["schemaReference"].(string); ok {
		fk.Reference.SchemaReference = s
	}
	if fk.Reference.Resource != "" && fk.Reference.SchemaReference != "" {
		return nil, fmt.Errorf("%w: reference has both resource and schemaReference", ErrSchemaShape)
	}
	if fk.Reference.ColumnReference, err = columnReference(ref["columnReference"]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaShape, err)
	}
	if len(fk.ColumnReference) == 0 || len(fk.Reference.ColumnReference) == 0 {
		return nil, fmt.Errorf("%w: foreign key without column references", ErrSchemaShape)
	}
	return fk, nil
}

// Schema is an ordered column list plus the key declarations. Construction
// assigns ordinals and parent pointers and enforces that virtual columns,
// once begun, continue to the end.
type Schema struct {
	Description

	Columns     []*Column
	ForeignKeys []*ForeignKey
	PrimaryKey  []string
	RowTitles   []string
}

// SchemaFromValue builds a schema from a description mapping. A nil value
// yields an empty schema.
func SchemaFromValue(v any) (*Schema, error) {
	s := &Schema{}
	if v == nil {
		return s, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: invalid schema description %v", datatype.ErrInvalidDescription, v)
	}
	p := partition(m)
	if err := s.applyInherited(p); err != nil {
		return nil, err
	}

	if cols, ok := p.known["columns"].([]any); ok {
		for _, cv := range cols {
			col, err := ColumnFromValue(cv)
			if err != nil {
				return nil, err
			}
			s.Columns = append(s.Columns, col)
		}
	}
	if fks, ok := p.known["foreignKeys"].([]any); ok {
		for _, fv := range fks {
			fk, err := foreignKeyFromValue(fv)
			if err != nil {
				return nil, err
			}
			s.ForeignKeys = append(s.ForeignKeys, fk)
		}
	}
	var err error
	if s.PrimaryKey, err = columnReference(p.known["primaryKey"]); err != nil {
		return nil, err
	}
	if rt, ok := p.known["rowTitles"]; ok {
		if s.RowTitles, err = stringListValue("rowTitles", rt); err != nil {
			return nil, err
		}
	}

	virtual := false
	for i, col := range s.Columns {
		if col.Virtual {
			virtual = true
		} else if virtual {
			return nil, fmt.Errorf("%w: no non-virtual column allowed after virtual columns", datatype.ErrInvalidDescription)
		}
		col.parent = &s.Description
		col.number = i + 1
	}
	return s, nil
}

// GetColumn looks a column up by header, then by first title, then by
// propertyUrl.
func (s *Schema) GetColumn(name string) *Column {
	for _, c := range s.Columns {
		if c.Header() == name {
			return c
		}
	}
	for _, c := range s.Columns {
		if c.Titles != nil && c.Titles.First() == name {
			return c
		}
		if c.PropertyURL != nil && c.PropertyURL.String() == name {
			return c
		}
	}
	return nil
}
