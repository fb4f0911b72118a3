// Package metadata implements the CSVW tabular-metadata model: columns with
// inherited properties, schemas, tables with a typed lazy row pipeline and
// table groups with referential-integrity checking.
//
// See https://www.w3.org/TR/tabular-metadata/
package metadata

import "errors"

// Logger is the sink for row- and cell-level violations in lenient mode.
// A nil Logger means strict mode: the first violation is returned as an
// error and processing stops.
type Logger interface {
	Warnf(format string, args ...any)
}

var (
	// ErrRequiredValueMissing reports a required cell whose value is in the
	// column's null set.
	ErrRequiredValueMissing = errors.New("required column value is missing")

	// ErrRequiredColumnMissing reports a required column absent from the
	// data header. Structural, always fatal.
	ErrRequiredColumnMissing = errors.New("required column missing")

	// ErrSchemaShape reports a malformed or inconsistent foreign key
	// description. Always fatal, checked before any row scan.
	ErrSchemaShape = errors.New("invalid schema shape")
)

// logOrRaise is the single propagation primitive for row/cell-level
// conditions: with a sink the violation is reported and nil returned, so the
// caller skips the row and continues; without one the error is returned.
func logOrRaise(log Logger, err error) error {
	if log != nil {
		log.Warnf("%v", err)
		return nil
	}
	return err
}

// discardLog swallows violations; used where rows are re-read for a check
// that has its own reporting.
type discardLog struct{}

func (discardLog) Warnf(string, ...any) {}
