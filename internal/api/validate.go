package api

import (
	"errors"

	"csvw/internal/metadata"
)

// ValidateGroup runs the full validation pipeline over a table group in
// lenient mode and collects everything into one report: schema shape, cell
// decoding, primary key uniqueness, referential integrity.
func ValidateGroup(g *metadata.TableGroup) *Report {
	rep := &Report{ID: newID(), Valid: true}

	// Shape problems invalidate everything downstream, so stop here.
	if err := g.CheckSchema(); err != nil {
		rep.Issues = append(rep.Issues, Issue{Code: ErrSchemaShape, Message: err.Error()})
		rep.Valid = false
		return rep
	}

	for _, t := range g.Tables {
		name := t.LocalName()
		rep.Checked = append(rep.Checked, name)

		cells := &collector{table: name, code: ErrInvalidValue, report: rep}
		rs, err := t.OpenRows(cells)
		if err != nil {
			code := ErrReadFailed
			if errors.Is(err, metadata.ErrRequiredColumnMissing) {
				code = ErrMissingColumn
			}
			rep.Issues = append(rep.Issues, Issue{Code: code, Table: name, Message: err.Error()})
			continue
		}
		for rs.Next() {
		}
		rs.Close()
		if err := rs.Err(); err != nil {
			rep.Issues = append(rep.Issues, Issue{Code: ErrReadFailed, Table: name, Message: err.Error()})
			continue
		}

		pk := &collector{table: name, code: ErrDuplicatePK, report: rep}
		if _, err := t.CheckPrimaryKey(pk); err != nil {
			rep.Issues = append(rep.Issues, Issue{Code: ErrReadFailed, Table: name, Message: err.Error()})
		}
	}

	refs := &collector{code: ErrRefNotFound, report: rep}
	if _, err := g.CheckReferentialIntegrity(refs); err != nil {
		rep.Issues = append(rep.Issues, Issue{Code: ErrReadFailed, Message: err.Error()})
	}

	rep.Valid = len(rep.Issues) == 0
	return rep
}
