package dialect

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestReaderBasic(t *testing.T) {
	require := require.New(t)

	r := NewReader(strings.NewReader("a,b\n1,2\r\n3,4"), nil)
	rows := readAll(t, r)
	require.Len(rows, 3)
	require.Equal([]string{"a", "b"}, rows[0].Cells)
	require.Equal([]string{"1", "2"}, rows[1].Cells)
	require.Equal([]string{"3", "4"}, rows[2].Cells)
	require.Equal(1, rows[0].Line)
	require.Equal(3, rows[2].Line)
}

func TestReaderQuoting(t *testing.T) {
	require := require.New(t)

	r := NewReader(strings.NewReader("\"a,b\",\"he said \"\"hi\"\"\",c\n"), nil)
	rows := readAll(t, r)
	require.Len(rows, 1)
	require.Equal([]string{"a,b", `he said "hi"`, "c"}, rows[0].Cells)
}

func TestReaderBackslashEscape(t *testing.T) {
	require := require.New(t)

	d := Default()
	d.DoubleQuote = false
	r := NewReader(strings.NewReader("\"a \\\" b\",c\n"), d)
	rows := readAll(t, r)
	require.Len(rows, 1)
	require.Equal([]string{`a " b`, "c"}, rows[0].Cells)
}

func TestReaderMultilineCell(t *testing.T) {
	require := require.New(t)

	r := NewReader(strings.NewReader("\"line one\nline two\",x\nnext,y\n"), nil)
	rows := readAll(t, r)
	require.Len(rows, 2)
	require.Equal([]string{"line one\nline two", "x"}, rows[0].Cells)
	require.Equal(1, rows[0].Line)
	// The record after a spanning cell starts on the correct physical line.
	require.Equal(3, rows[1].Line)
}

func TestReaderComments(t *testing.T) {
	require := require.New(t)

	r := NewReader(strings.NewReader("# a comment\na,b\n#another\n1,2\n"), nil)
	rows := readAll(t, r)
	require.Len(rows, 2)

	comments := r.Comments()
	require.Len(comments, 2)
	require.Equal("a comment", comments[0].Text)
	require.Equal(1, comments[0].Line)
	require.Equal("another", comments[1].Text)
}

func TestReaderSkipRows(t *testing.T) {
	require := require.New(t)

	d := Default()
	d.SkipRows = 2

	// Comment records count against skipRows.
	r := NewReader(strings.NewReader("# preamble\njunk\na,b\n1,2\n"), d)
	rows := readAll(t, r)
	require.Len(rows, 2)
	require.Equal([]string{"a", "b"}, rows[0].Cells)
	require.Len(r.Comments(), 1)
}

func TestReaderSkipBlankRows(t *testing.T) {
	require := require.New(t)

	d := Default()
	d.SkipBlankRows = true
	r := NewReader(strings.NewReader("a,b\n\n,\n1,2\n"), d)
	rows := readAll(t, r)
	require.Len(rows, 2)
	require.Equal([]string{"1", "2"}, rows[1].Cells)
	require.Equal(4, rows[1].Line)
}

func TestReaderSkipColumns(t *testing.T) {
	require := require.New(t)

	d := Default()
	d.SkipColumns = 1
	r := NewReader(strings.NewReader("x,a,b\nx,1,2\n"), d)
	rows := readAll(t, r)
	require.Equal([]string{"a", "b"}, rows[0].Cells)
	require.Equal([]string{"1", "2"}, rows[1].Cells)
}

func TestReaderTrim(t *testing.T) {
	require := require.New(t)

	d := Default()
	d.Trim = TrimTrue
	r := NewReader(strings.NewReader(" a , b \n"), d)
	rows := readAll(t, r)
	require.Equal([]string{"a", "b"}, rows[0].Cells)
}

func TestReaderTabDelimiter(t *testing.T) {
	require := require.New(t)

	d := Default()
	d.Delimiter = "\t"
	r := NewReader(strings.NewReader("a\tb\n1,5\t2\n"), d)
	rows := readAll(t, r)
	require.Equal([]string{"a", "b"}, rows[0].Cells)
	require.Equal([]string{"1,5", "2"}, rows[1].Cells)
}
