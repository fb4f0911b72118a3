package dialect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterQuoting(t *testing.T) {
	require := require.New(t)

	var sb strings.Builder
	w := NewWriter(&sb, nil)
	require.NoError(w.Write([]string{"a", "b,c", `say "hi"`, "two\nlines"}))
	require.NoError(w.Flush())
	require.Equal("a,\"b,c\",\"say \"\"hi\"\"\",\"two\nlines\"\r\n", sb.String())
}

func TestWriterCustomDialect(t *testing.T) {
	require := require.New(t)

	d := Default()
	d.Delimiter = ";"
	d.LineTerminators = []string{"\n"}

	var sb strings.Builder
	w := NewWriter(&sb, d)
	require.NoError(w.Write([]string{"a", "b"}))
	require.NoError(w.Write([]string{"1;5", "2"}))
	require.NoError(w.Flush())
	require.Equal("a;b\n\"1;5\";2\n", sb.String())
}

func TestWriterReaderRoundtrip(t *testing.T) {
	require := require.New(t)

	cells := []string{"plain", "with,comma", `with "quote"`, "with\nnewline", ""}

	var sb strings.Builder
	w := NewWriter(&sb, nil)
	require.NoError(w.Write(cells))
	require.NoError(w.Flush())

	r := NewReader(strings.NewReader(sb.String()), nil)
	row, err := r.Read()
	require.NoError(err)
	require.Equal(cells, row.Cells)
}
