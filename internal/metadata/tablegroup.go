package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"csvw/internal/datatype"
	"csvw/internal/dialect"
)

// TableGroup owns a set of tables and validates the foreign key graph
// between them.
type TableGroup struct {
	Description

	URL     string
	Tables  []*Table
	Dialect *dialect.Dialect
	Notes   []any

	fname string // metadata file path, if loaded from one
	base  string // directory table URLs resolve against
}

// FromFile loads a table group from a JSON metadata file; table URLs
// resolve relative to the file's directory.
func FromFile(fname string) (*TableGroup, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	g, err := FromJSON(data, filepath.Dir(fname))
	if err != nil {
		return nil, err
	}
	g.fname = fname
	return g, nil
}

// FromJSON loads a table group from raw JSON metadata with an explicit base
// directory.
func FromJSON(data []byte, base string) (*TableGroup, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", datatype.ErrInvalidDescription, err)
	}
	g, err := FromValue(v)
	if err != nil {
		return nil, err
	}
	g.base = base
	return g, nil
}

// FromValue builds a table group from parsed description data. A single
// table description (with url and tableSchema, no tables key) is wrapped
// into a one-table group.
func FromValue(v any) (*TableGroup, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: invalid table group description %v", datatype.ErrInvalidDescription, v)
	}
	if _, ok := m["tables"]; !ok {
		if _, ok := m["url"]; ok {
			m = map[string]any{"tables": []any{v}}
		}
	}
	p := partition(m)
	g := &TableGroup{}
	if err := g.applyInherited(p); err != nil {
		return nil, err
	}
	if s, ok := p.known["url"].(string); ok {
		g.URL = s
	}
	if n, ok := p.known["notes"].([]any); ok {
		g.Notes = n
	}
	if dv, ok := p.known["dialect"]; ok {
		d, err := dialect.FromValue(dv)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", datatype.ErrInvalidDescription, err)
		}
		g.Dialect = d
	}
	tables, ok := p.known["tables"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: table group without tables", datatype.ErrInvalidDescription)
	}
	for _, tv := range tables {
		t, err := TableFromValue(tv)
		if err != nil {
			return nil, err
		}
		t.group = g
		t.Description.parent = &g.Description
		g.Tables = append(g.Tables, t)
	}
	return g, nil
}

// Base returns the directory table URLs resolve against.
func (g *TableGroup) Base() string { return g.base }

// SetBase overrides the resolution directory, for groups built from values
// rather than files.
func (g *TableGroup) SetBase(dir string) { g.base = dir }

// TableByName returns the table with the given local name, or nil.
func (g *TableGroup) TableByName(name string) *Table {
	for _, t := range g.Tables {
		if t.LocalName() == name {
			return t
		}
	}
	return nil
}

// Read materializes all valid rows of every table, keyed by local name.
func (g *TableGroup) Read(log Logger) (map[string][]Row, error) {
	out := map[string][]Row{}
	for _, t := range g.Tables {
		rows, err := t.ReadAll(log)
		if err != nil {
			return nil, err
		}
		out[t.LocalName()] = rows
	}
	return out, nil
}

// fkEdge is one resolved foreign key: referenced table and columns, child
// table and columns.
type fkEdge struct {
	refTable  *Table
	refCols   []string
	child     *Table
	childCols []string
}

// edges resolves all table-to-table foreign keys, validating their shape.
// Schema-reference keys are skipped: only references between tables of the
// group are supported.
func (g *TableGroup) edges() ([]fkEdge, error) {
	var out []fkEdge
	for _, t := range g.Tables {
		for _, fk := range t.Schema.ForeignKeys {
			if fk.Reference.SchemaReference != "" {
				continue
			}
			ref := g.TableByName(fk.Reference.Resource)
			if ref == nil {
				return nil, fmt.Errorf("%w: foreign key of %s references unknown table %q",
					ErrSchemaShape, t.LocalName(), fk.Reference.Resource)
			}
			if len(fk.ColumnReference) != len(fk.Reference.ColumnReference) {
				return nil, fmt.Errorf("%w: foreign key of %s has mismatched arity (%d vs %d)",
					ErrSchemaShape, t.LocalName(), len(fk.ColumnReference), len(fk.Reference.ColumnReference))
			}
			for i, name := range fk.ColumnReference {
				child := t.Schema.GetColumn(name)
				if child == nil {
					return nil, fmt.Errorf("%w: foreign key of %s names unknown column %q",
						ErrSchemaShape, t.LocalName(), name)
				}
				refName := fk.Reference.ColumnReference[i]
				refCol := ref.Schema.GetColumn(refName)
				if refCol == nil {
					return nil, fmt.Errorf("%w: foreign key of %s references unknown column %q of %s",
						ErrSchemaShape, t.LocalName(), refName, ref.LocalName())
				}
				cdt, rdt := child.InheritedDatatype(), refCol.InheritedDatatype()
				if cdt != nil && rdt != nil && cdt.Base != rdt.Base {
					return nil, fmt.Errorf("%w: foreign key of %s joins %s (%s) to %s.%s (%s)",
						ErrSchemaShape, t.LocalName(), name, cdt.Base, ref.LocalName(), refName, rdt.Base)
				}
			}
			out = append(out, fkEdge{
				refTable:  ref,
				refCols:   fk.Reference.ColumnReference,
				child:     t,
				childCols: fk.ColumnReference,
			})
		}
	}
	return out, nil
}

// CheckSchema validates the shape of every foreign key: referenced tables
// and columns must exist, arities must match and joined columns must share
// a base datatype. Always fatal; no rows are scanned.
func (g *TableGroup) CheckSchema() error {
	_, err := g.edges()
	return err
}

// CheckReferentialIntegrity verifies that every foreign key tuple in every
// child row has a matching row in the referenced table. Shape problems
// always return an error; row-level violations follow the log-or-raise
// policy. Tuples with a nil component never participate; a list-valued
// single-column key is checked per element.
func (g *TableGroup) CheckReferentialIntegrity(log Logger) (bool, error) {
	all, err := g.edges()
	if err != nil {
		return false, err
	}

	// Group edges by referenced table, then by referenced column tuple, so
	// each referenced table is scanned exactly once for all its key shapes.
	byTable := map[string][]fkEdge{}
	var tableOrder []string
	for _, e := range all {
		name := e.refTable.LocalName()
		if _, ok := byTable[name]; !ok {
			tableOrder = append(tableOrder, name)
		}
		byTable[name] = append(byTable[name], e)
	}
	sort.Strings(tableOrder)

	ok := true
	for _, name := range tableOrder {
		edges := byTable[name]
		refTable := edges[0].refTable

		byCols := map[string][]fkEdge{}
		var colOrder []string
		for _, e := range edges {
			key := strings.Join(e.refCols, "\x1f")
			if _, ok := byCols[key]; !ok {
				colOrder = append(colOrder, key)
			}
			byCols[key] = append(byCols[key], e)
		}
		sort.Strings(colOrder)

		// One pass over the referenced table materializes the key set for
		// every column tuple at once.
		seen := make(map[string]map[string]bool, len(colOrder))
		for _, key := range colOrder {
			seen[key] = map[string]bool{}
		}
		rs, err := refTable.OpenRows(log)
		if err != nil {
			return false, err
		}
		for rs.Next() {
			row := rs.Row()
			for _, key := range colOrder {
				seen[key][tupleKey(row.Data, byCols[key][0].refCols)] = true
			}
		}
		closeErr := rs.Close()
		if rs.Err() != nil {
			return false, rs.Err()
		}
		if closeErr != nil {
			return false, closeErr
		}

		for _, key := range colOrder {
			for _, e := range byCols[key] {
				valid, err := g.checkEdge(e, seen[key], log)
				if err != nil {
					return false, err
				}
				ok = ok && valid
			}
		}
	}
	return ok, nil
}

// checkEdge scans one child table against a materialized key set.
func (g *TableGroup) checkEdge(e fkEdge, seen map[string]bool, log Logger) (bool, error) {
	rs, err := e.child.OpenRows(log)
	if err != nil {
		return false, err
	}
	defer rs.Close()

	single := len(e.childCols) == 1
	ok := true
	for rs.Next() {
		row := rs.Row()

		var keys []string
		var shown []any
		if single {
			v := row.Data[e.childCols[0]]
			if v == nil {
				continue
			}
			if list, isList := v.([]any); isList {
				// A list-valued foreign key checks each element for a
				// matching row independently.
				for _, vv := range list {
					keys = append(keys, keyPart(vv))
					shown = append(shown, vv)
				}
			} else {
				keys = append(keys, keyPart(v))
				shown = append(shown, v)
			}
		} else {
			partial := false
			for _, c := range e.childCols {
				if row.Data[c] == nil {
					partial = true
					break
				}
			}
			if partial {
				continue
			}
			keys = append(keys, tupleKey(row.Data, e.childCols))
			shown = append(shown, tupleValue(row.Data, e.childCols))
		}

		for i, key := range keys {
			if seen[key] {
				continue
			}
			err := fmt.Errorf("%s:%d Key %v not found in table %s",
				row.Source, row.Line, shown[i], e.refTable.URL)
			if e2 := logOrRaise(log, err); e2 != nil {
				return false, e2
			}
			ok = false
		}
	}
	return ok, rs.Err()
}

func tupleValue(data map[string]any, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(data[c])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
