package dialect

import (
	"bufio"
	"io"
	"strings"
)

// Writer renders rows back to delimiter-separated text, quoting cells that
// contain the delimiter, the quote character or a line break.
type Writer struct {
	d  *Dialect
	bw *bufio.Writer
}

// NewWriter returns a writer to w. A nil dialect means the defaults.
func NewWriter(w io.Writer, d *Dialect) *Writer {
	if d == nil {
		d = Default()
	}
	return &Writer{d: d, bw: bufio.NewWriter(w)}
}

// Write renders one record.
func (w *Writer) Write(cells []string) error {
	term := "\n"
	if len(w.d.LineTerminators) > 0 {
		term = w.d.LineTerminators[0]
	}
	for i, c := range cells {
		if i > 0 {
			if _, err := w.bw.WriteString(w.d.Delimiter); err != nil {
				return err
			}
		}
		if _, err := w.bw.WriteString(w.quoted(c)); err != nil {
			return err
		}
	}
	_, err := w.bw.WriteString(term)
	return err
}

// Flush writes buffered output to the underlying writer.
func (w *Writer) Flush() error { return w.bw.Flush() }

func (w *Writer) quoted(cell string) string {
	quote := w.d.QuoteChar
	if quote == "" {
		return cell
	}
	needs := strings.Contains(cell, w.d.Delimiter) ||
		strings.Contains(cell, quote) ||
		strings.ContainsAny(cell, "\r\n")
	if !needs {
		return cell
	}
	escaped := strings.ReplaceAll(cell, quote, w.d.EscapeChar()+quote)
	return quote + escaped + quote
}
