package datatype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Every basetype's example literal must survive a parse/format round trip.
// anyURI (normalization) and hexBinary (uppercasing) are documented
// non-roundtrips, but their registered examples are already canonical.
func TestBasetypeExamplesRoundtrip(t *testing.T) {
	require := require.New(t)

	for _, name := range Names() {
		bt, ok := Lookup(name)
		require.True(ok, name)

		props, err := bt.DerivedDescription(&Datatype{Base: name})
		require.NoError(err, name)

		v, err := bt.Parse(bt.Example(), props)
		require.NoError(err, name)
		require.Equal(bt.Example(), bt.Format(v, props), name)
	}
}

func TestBooleanFormats(t *testing.T) {
	require := require.New(t)

	dt, err := FromValue("boolean")
	require.NoError(err)

	v, err := dt.Read("1")
	require.NoError(err)
	require.Equal(true, v)
	require.Equal("true", dt.Formatted(true))

	dt, err = FromValue(map[string]any{"base": "boolean", "format": "ja|nein"})
	require.NoError(err)
	v, err = dt.Read("nein")
	require.NoError(err)
	require.Equal(false, v)
	require.Equal("ja", dt.Formatted(true))

	_, err = dt.Read("yes")
	require.Error(err)

	_, err = FromValue(map[string]any{"base": "boolean", "format": "no separator"})
	require.ErrorIs(err, ErrInvalidDescription)
}

func TestBinaryCodecs(t *testing.T) {
	require := require.New(t)

	hex, err := FromValue("hexBinary")
	require.NoError(err)
	v, err := hex.Read("ab12")
	require.NoError(err)
	require.Equal([]byte{0xAB, 0x12}, v)
	require.Equal("AB12", hex.Formatted(v))

	b64, err := FromValue("base64Binary")
	require.NoError(err)
	v, err = b64.Read("YWJj")
	require.NoError(err)
	require.Equal([]byte("abc"), v)

	_, err = b64.Read("not base64!")
	require.Error(err)
	var le *LexicalError
	require.ErrorAs(err, &le)
}

func TestStringFormatRegex(t *testing.T) {
	require := require.New(t)

	dt, err := FromValue(map[string]any{"base": "string", "format": "[0-9]{4}"})
	require.NoError(err)

	v, err := dt.Read("1234")
	require.NoError(err)
	require.Equal("1234", v)

	_, err = dt.Read("12x4")
	require.Error(err)

	_, err = FromValue(map[string]any{"base": "string", "format": "[unclosed"})
	require.ErrorIs(err, ErrInvalidDescription)
}
