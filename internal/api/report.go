package api

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"csvw/internal/datatype"
	"csvw/internal/metadata"
)

// Issue is one reported violation.
type Issue struct {
	Code    string `json:"code"`
	Table   string `json:"table,omitempty"`
	Message string `json:"message"`
}

// Issue codes.
const (
	ErrInvalidValue    = "invalid_value"
	ErrRequiredMissing = "required_missing"
	ErrMissingColumn   = "missing_column"
	ErrDuplicatePK     = "duplicate_primary_key"
	ErrRefNotFound     = "ref_not_found"
	ErrSchemaShape     = "schema_shape"
	ErrReadFailed      = "read_failed"
)

// Report is the result of validating a table group.
type Report struct {
	ID      string   `json:"id"`
	Valid   bool     `json:"valid"`
	Checked []string `json:"checked"`
	Issues  []Issue  `json:"issues"`
}

func newID() string {
	return ulid.Make().String()
}

// collector adapts a report to the core's log sink: every logged violation
// becomes an issue. The phase's default code is refined for cell-level
// conditions by inspecting the logged error.
type collector struct {
	table  string
	code   string
	report *Report
}

func (c *collector) Warnf(format string, args ...any) {
	code := c.code
	for _, a := range args {
		err, ok := a.(error)
		if !ok {
			continue
		}
		var le *datatype.LexicalError
		switch {
		case errors.Is(err, metadata.ErrRequiredValueMissing):
			code = ErrRequiredMissing
		case errors.As(err, &le):
			code = ErrInvalidValue
		}
	}
	c.report.Issues = append(c.report.Issues, Issue{
		Code:    code,
		Table:   c.table,
		Message: fmt.Sprintf(format, args...),
	})
}
