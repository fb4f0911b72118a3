package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"csvw/internal/datatype"
	"csvw/internal/dialect"
)

// Table binds a schema to a data source URL and drives the typed lazy row
// pipeline over the dialect reader.
type Table struct {
	Description

	URL             string
	SuppressOutput  bool
	TableDirection  string
	Notes           []any
	Transformations []any
	Dialect         *dialect.Dialect
	Schema          *Schema

	group *TableGroup
}

// TableFromValue builds a table from a description mapping.
func TableFromValue(v any) (*Table, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: invalid table description %v", datatype.ErrInvalidDescription, v)
	}
	p := partition(m)
	t := &Table{TableDirection: "auto"}
	if err := t.applyInherited(p); err != nil {
		return nil, err
	}
	if s, ok := p.known["url"].(string); ok {
		t.URL = s
	}
	if b, ok := p.known["suppressOutput"].(bool); ok {
		t.SuppressOutput = b
	}
	if s, ok := p.known["tableDirection"].(string); ok {
		switch s {
		case "rtl", "ltr", "auto":
			t.TableDirection = s
		default:
			return nil, fmt.Errorf("%w: invalid tableDirection %q", datatype.ErrInvalidDescription, s)
		}
	}
	if n, ok := p.known["notes"].([]any); ok {
		t.Notes = n
	}
	if tr, ok := p.known["transformations"].([]any); ok {
		t.Transformations = tr
	}
	if dv, ok := p.known["dialect"]; ok {
		d, err := dialect.FromValue(dv)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", datatype.ErrInvalidDescription, err)
		}
		t.Dialect = d
	}
	schema, err := SchemaFromValue(p.known["tableSchema"])
	if err != nil {
		return nil, err
	}
	t.Schema = schema
	t.Schema.parent = &t.Description
	return t, nil
}

// LocalName identifies the table within its group.
func (t *Table) LocalName() string { return t.URL }

// EffectiveDialect is the table's own dialect, the group's, or the default.
func (t *Table) EffectiveDialect() *dialect.Dialect {
	if t.Dialect != nil {
		return t.Dialect
	}
	if t.group != nil && t.group.Dialect != nil {
		return t.group.Dialect
	}
	return dialect.Default()
}

// Source resolves the table URL against the group base directory.
func (t *Table) Source() string {
	if t.group != nil && t.group.base != "" && !filepath.IsAbs(t.URL) {
		return filepath.Join(t.group.base, t.URL)
	}
	return t.URL
}

// Row is one decoded row: source name, 1-based line number and header-keyed
// typed values.
type Row struct {
	Source string
	Line   int
	Data   map[string]any
}

// headerCol pairs one data column index with its matched schema column
// (nil when the header has no schema counterpart).
type headerCol struct {
	index  int
	header string
	col    *Column
}

// Rows iterates the decoded rows of a table, sql.Rows-style. In lenient
// mode (non-nil log) rows with violations are reported and dropped; in
// strict mode the first violation stops iteration with Err set.
type Rows struct {
	t       *Table
	rc      io.ReadCloser
	r       *dialect.Reader
	log     Logger
	cols    []headerCol
	virtual []*Column
	source  string

	cur  Row
	err  error
	done bool
}

// OpenRows starts an iteration over the table's data. Each call re-opens
// the source, so independent iterations do not interfere. A required column
// absent from the header fails here, before any row is decoded.
func (t *Table) OpenRows(log Logger) (*Rows, error) {
	source := t.Source()
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	rows, err := t.openRows(f, source, log)
	if err != nil {
		f.Close()
		return nil, err
	}
	return rows, nil
}

// OpenRowsFrom is OpenRows over an explicit reader, for in-memory sources.
func (t *Table) OpenRowsFrom(r io.Reader, source string, log Logger) (*Rows, error) {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	return t.openRows(rc, source, log)
}

func (t *Table) openRows(rc io.ReadCloser, source string, log Logger) (*Rows, error) {
	d := t.EffectiveDialect()
	r := dialect.NewReader(rc, d)

	var colnames []string
	var virtual []*Column
	required := map[string]bool{}
	for _, col := range t.Schema.Columns {
		if col.Virtual {
			if col.ValueURL != nil {
				virtual = append(virtual, col)
			}
		} else {
			colnames = append(colnames, col.Header())
		}
		if !col.Virtual && col.Required != nil && *col.Required {
			required[col.Header()] = true
		}
	}

	// A header row in the data overrides the headers from the metadata.
	header := colnames
	if d.Header {
		for i := 0; i < d.HeaderRowCount; i++ {
			row, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if i == 0 {
				header = row.Cells
			}
		}
	}

	// When the data columns are ordered as declared, match positionally;
	// otherwise look each header up by name.
	var cols []headerCol
	if equalStrings(header, colnames) {
		for i, h := range header {
			cols = append(cols, headerCol{index: i, header: h, col: t.Schema.Columns[i]})
		}
	} else {
		for i, h := range header {
			cols = append(cols, headerCol{index: i, header: h, col: t.Schema.GetColumn(h)})
		}
	}

	matched := map[string]bool{}
	for _, hc := range cols {
		if hc.col != nil {
			matched[hc.col.Header()] = true
		}
	}
	var missing []string
	for h := range required {
		if !matched[h] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing required columns %v", ErrRequiredColumnMissing, source, missing)
	}

	return &Rows{t: t, rc: rc, r: r, log: log, cols: cols, virtual: virtual, source: source}, nil
}

// Next advances to the next valid row.
func (rs *Rows) Next() bool {
	if rs.done || rs.err != nil {
		return false
	}
	for {
		raw, err := rs.r.Read()
		if err == io.EOF {
			rs.done = true
			return false
		}
		if err != nil {
			rs.err = err
			return false
		}

		pending := map[string]int{}
		for _, hc := range rs.cols {
			if hc.col != nil && hc.col.Required != nil && *hc.col.Required {
				pending[hc.col.Header()] = hc.index
			}
		}

		data := map[string]any{}
		bad := false
		for _, hc := range rs.cols {
			if hc.index >= len(raw.Cells) {
				break
			}
			cell := raw.Cells[hc.index]
			if hc.col == nil {
				data[hc.header] = cell
				continue
			}
			delete(pending, hc.col.Header())
			v, err := hc.col.Read(cell)
			if err != nil {
				e := fmt.Errorf("%s:%d:%d %s: %w", rs.source, raw.Line, hc.index+1, hc.header, err)
				if e2 := logOrRaise(rs.log, e); e2 != nil {
					rs.err = e2
					return false
				}
				bad = true
				continue
			}
			data[hc.col.Header()] = v
		}

		// Required columns whose cell was beyond the row's end.
		for h, j := range pending {
			if _, ok := data[h]; ok {
				continue
			}
			e := fmt.Errorf("%s:%d:%d %s: %w", rs.source, raw.Line, j+1, h, ErrRequiredValueMissing)
			if e2 := logOrRaise(rs.log, e); e2 != nil {
				rs.err = e2
				return false
			}
			bad = true
		}

		for _, col := range rs.virtual {
			data[col.Header()] = col.ValueURL.Expand(data)
		}

		if !bad {
			rs.cur = Row{Source: rs.source, Line: raw.Line, Data: data}
			return true
		}
	}
}

// Row returns the current row after a successful Next.
func (rs *Rows) Row() Row { return rs.cur }

// Err returns the violation that stopped a strict-mode iteration.
func (rs *Rows) Err() error { return rs.err }

// Comments returns the comment lines captured so far.
func (rs *Rows) Comments() []dialect.Comment { return rs.r.Comments() }

func (rs *Rows) Close() error { return rs.rc.Close() }

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ReadAll materializes all valid rows.
func (t *Table) ReadAll(log Logger) ([]Row, error) {
	rs, err := t.OpenRows(log)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	var out []Row
	for rs.Next() {
		out = append(out, rs.Row())
	}
	return out, rs.Err()
}

// CheckPrimaryKey verifies primary key uniqueness across all rows under the
// log-or-raise policy. Rows with cell-level violations are ignored.
func (t *Table) CheckPrimaryKey(log Logger) (bool, error) {
	pk := t.Schema.PrimaryKey
	if len(pk) == 0 {
		return true, nil
	}
	rs, err := t.OpenRows(discardLog{})
	if err != nil {
		return false, err
	}
	defer rs.Close()

	ok := true
	seen := map[string]bool{}
	for rs.Next() {
		row := rs.Row()
		key := tupleKey(row.Data, pk)
		if seen[key] {
			e := fmt.Errorf("%s:%d duplicate primary key: %s",
				row.Source, row.Line, tupleDisplay(row.Data, pk))
			if e2 := logOrRaise(log, e); e2 != nil {
				return false, e2
			}
			ok = false
			continue
		}
		seen[key] = true
	}
	return ok, rs.Err()
}

// Write renders rows back to delimiter-separated text, one cell per
// non-virtual column, returning the number of data rows written.
func (t *Table) Write(w io.Writer, rows []map[string]any) (int, error) {
	d := t.EffectiveDialect()
	dw := dialect.NewWriter(w, d)

	var cols []*Column
	for _, c := range t.Schema.Columns {
		if !c.Virtual {
			cols = append(cols, c)
		}
	}
	if d.Header {
		headers := make([]string, len(cols))
		for i, c := range cols {
			headers[i] = c.Header()
		}
		if err := dw.Write(headers); err != nil {
			return 0, err
		}
	}
	count := 0
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = c.Write(row[c.Header()])
		}
		if err := dw.Write(cells); err != nil {
			return count, err
		}
		count++
	}
	return count, dw.Flush()
}

// keyPart canonicalizes one typed value for key-set membership. Two values
// that format differently but compare equal (e.g. decimal "1.50" and "1.5")
// must canonicalize identically.
func keyPart(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(v)
	}
}

func tupleKey(data map[string]any, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = keyPart(data[c])
	}
	return strings.Join(parts, "\x1f")
}

func tupleDisplay(data map[string]any, cols []string) string {
	if len(cols) == 1 {
		return fmt.Sprint(data[cols[0]])
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(data[c])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
