package dialect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	require := require.New(t)

	d := Default()
	require.Equal(",", d.Delimiter)
	require.Equal(`"`, d.QuoteChar)
	require.True(d.DoubleQuote)
	require.True(d.Header)
	require.Equal(1, d.HeaderRowCount)
	require.Equal("#", d.CommentPrefix)
	require.Equal(TrimFalse, d.Trim)
}

func TestFromValueOverlay(t *testing.T) {
	require := require.New(t)

	d, err := FromValue(map[string]any{
		"delimiter": "\t",
		"header":    false,
		"trim":      true,
	})
	require.NoError(err)
	require.Equal("\t", d.Delimiter)
	require.False(d.Header)
	require.Equal(TrimTrue, d.Trim)
	// Untouched keys keep their defaults.
	require.Equal(`"`, d.QuoteChar)
	require.Equal("#", d.CommentPrefix)

	d, err = FromValue(nil)
	require.NoError(err)
	require.Equal(",", d.Delimiter)
}

func TestFromValueInvalid(t *testing.T) {
	require := require.New(t)

	_, err := FromValue("not a map")
	require.Error(err)
	_, err = FromValue(map[string]any{"delimiter": ""})
	require.Error(err)
	_, err = FromValue(map[string]any{"skipRows": -1})
	require.Error(err)
	_, err = FromValue(map[string]any{"trim": "sideways"})
	require.Error(err)
	_, err = FromValue(map[string]any{"quoteChar": "<<"})
	require.Error(err)
}

func TestTrimCut(t *testing.T) {
	require := require.New(t)

	require.Equal(" x ", TrimFalse.Cut(" x "))
	require.Equal("x", TrimTrue.Cut(" x "))
	require.Equal("x ", TrimStart.Cut(" x "))
	require.Equal(" x", TrimEnd.Cut(" x "))
}

func TestEscapeChar(t *testing.T) {
	require := require.New(t)

	d := Default()
	require.Equal(`"`, d.EscapeChar())
	d.DoubleQuote = false
	require.Equal(`\`, d.EscapeChar())
	d.QuoteChar = ""
	require.Equal("", d.EscapeChar())
}
