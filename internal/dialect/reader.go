package dialect

import (
	"bufio"
	"io"
	"strings"
)

// Row is one logical record: the 1-based physical line its first cell
// starts on, and the raw cells after trimming and column skipping.
type Row struct {
	Line  int
	Cells []string
}

// Comment is a captured comment line, without the comment prefix.
type Comment struct {
	Line int
	Text string
}

// Reader tokenizes delimiter-separated data according to a dialect:
// comment capture, skipRows/skipColumns/skipBlankRows, trimming and quoted
// cells that may span lines. A Reader is not restartable; reopen the
// source to iterate again.
type Reader struct {
	d        *Dialect
	br       *bufio.Reader
	line     int // physical lines consumed
	record   int // records consumed, counted against skipRows
	comments []Comment
	eof      bool
}

// NewReader returns a reader over r. A nil dialect means the defaults.
func NewReader(r io.Reader, d *Dialect) *Reader {
	if d == nil {
		d = Default()
	}
	return &Reader{d: d, br: bufio.NewReader(r)}
}

// Comments returns the comment lines captured so far.
func (r *Reader) Comments() []Comment { return r.comments }

// Read returns the next record, applying the dialect's skip rules.
// It returns io.EOF after the last record.
func (r *Reader) Read() (Row, error) {
	for {
		cells, line, err := r.readRecord()
		if err != nil {
			return Row{}, err
		}
		r.record++

		if r.d.CommentPrefix != "" && len(cells) > 0 &&
			strings.HasPrefix(cells[0], r.d.CommentPrefix) {
			text := strings.Join(cells, r.d.Delimiter)
			text = strings.TrimSpace(strings.TrimPrefix(text, r.d.CommentPrefix))
			r.comments = append(r.comments, Comment{Line: line, Text: text})
			continue
		}
		if r.d.SkipBlankRows && blank(cells) {
			continue
		}
		if r.record <= r.d.SkipRows {
			continue
		}

		for i, c := range cells {
			cells[i] = r.d.Trim.Cut(c)
		}
		if n := r.d.SkipColumns; n > 0 {
			if n > len(cells) {
				n = len(cells)
			}
			cells = cells[n:]
		}
		return Row{Line: line, Cells: cells}, nil
	}
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// readLine returns the next physical line without its terminator.
func (r *Reader) readLine() (string, error) {
	if r.eof {
		return "", io.EOF
	}
	line, err := r.br.ReadString('\n')
	if err == io.EOF {
		r.eof = true
		if line == "" {
			return "", io.EOF
		}
	} else if err != nil {
		return "", err
	}
	r.line++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// readRecord parses one record, pulling in further physical lines while a
// quoted cell is open.
func (r *Reader) readRecord() ([]string, int, error) {
	line, err := r.readLine()
	if err != nil {
		return nil, 0, err
	}
	startLine := r.line

	var (
		cells    []string
		cell     strings.Builder
		inQuotes bool
		quote    = r.d.QuoteChar
		escape   = r.d.EscapeChar()
		delim    = r.d.Delimiter
	)

	flush := func() {
		s := cell.String()
		if r.d.SkipInitialSpace {
			s = strings.TrimLeft(s, " ")
		}
		cells = append(cells, s)
		cell.Reset()
	}

	for {
		i := 0
		for i < len(line) {
			switch {
			case inQuotes && escape == quote && strings.HasPrefix(line[i:], quote+quote):
				cell.WriteString(quote)
				i += 2 * len(quote)
			case inQuotes && escape != "" && escape != quote && strings.HasPrefix(line[i:], escape) && i+len(escape) < len(line):
				// Backslash escaping: the next character is literal.
				cell.WriteByte(line[i+len(escape)])
				i += len(escape) + 1
			case quote != "" && strings.HasPrefix(line[i:], quote):
				inQuotes = !inQuotes
				i += len(quote)
			case !inQuotes && strings.HasPrefix(line[i:], delim):
				flush()
				i += len(delim)
			default:
				cell.WriteByte(line[i])
				i++
			}
		}
		if !inQuotes {
			break
		}
		// Quoted cell continues on the next physical line.
		cont, err := r.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		cell.WriteString("\n")
		line = cont
	}
	flush()
	return cells, startLine, nil
}
