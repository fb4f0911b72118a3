package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"csvw/internal/datatype"
)

func TestURITemplateExpand(t *testing.T) {
	require := require.New(t)

	tmpl, err := ParseURITemplate("http://ex.org/{table}/{id}")
	require.NoError(err)
	require.Equal("http://ex.org/{table}/{id}", tmpl.String())

	out := tmpl.Expand(map[string]any{"table": "people", "id": 7})
	require.Equal("http://ex.org/people/7", out)

	// Nil values expand as undefined variables.
	out = tmpl.Expand(map[string]any{"table": "people", "id": nil})
	require.Equal("http://ex.org/people/", out)

	_, err = ParseURITemplate("http://ex.org/{unclosed")
	require.ErrorIs(err, datatype.ErrInvalidDescription)
}

func TestNaturalLanguage(t *testing.T) {
	require := require.New(t)

	n, err := NaturalLanguageFromValue("hello")
	require.NoError(err)
	require.Equal("hello", n.First())
	require.Equal([]string{"hello"}, n.Strings(""))

	n, err = NaturalLanguageFromValue([]any{"a", "b"})
	require.NoError(err)
	require.Equal("a", n.First())
	require.Equal([]string{"a", "b"}, n.Strings(""))

	n, err = NaturalLanguageFromValue(map[string]any{
		"en": "hello",
		"de": []any{"hallo", "servus"},
	})
	require.NoError(err)
	require.Equal([]string{"hello"}, n.Strings("en"))
	require.Equal([]string{"hallo", "servus"}, n.Strings("de"))
	// No untagged entry: the first language's first string wins.
	require.Equal("hallo", n.First())

	_, err = NaturalLanguageFromValue(42)
	require.ErrorIs(err, datatype.ErrInvalidDescription)
}

func TestNaturalLanguageMarshal(t *testing.T) {
	require := require.New(t)

	n, err := NaturalLanguageFromValue("hello")
	require.NoError(err)
	b, err := json.Marshal(n)
	require.NoError(err)
	require.JSONEq(`"hello"`, string(b))

	n, err = NaturalLanguageFromValue(map[string]any{"en": "hello"})
	require.NoError(err)
	b, err = json.Marshal(n)
	require.NoError(err)
	require.JSONEq(`{"en": "hello"}`, string(b))
}

func TestPartition(t *testing.T) {
	require := require.New(t)

	p := partition(map[string]any{
		"name":      "x",
		"@id":       "#c",
		"dc:source": "somewhere",
	})
	require.Equal("x", p.known["name"])
	require.Equal("#c", p.at["id"])
	require.Equal("somewhere", p.common["dc:source"])
}

func TestInheritedDefaults(t *testing.T) {
	require := require.New(t)

	var d Description
	require.Nil(d.InheritedDatatype())
	require.Equal("", d.InheritedDefault())
	require.Equal("und", d.InheritedLang())
	require.Equal([]string{""}, d.InheritedNull())
	require.False(d.InheritedOrdered())
	require.False(d.InheritedRequired())
	require.Equal("", d.InheritedSeparator())
}

func TestInheritedChainDepth(t *testing.T) {
	require := require.New(t)

	lang := "de"
	sep := ";"
	top := Description{Lang: &lang}
	mid := Description{Separator: &sep, parent: &top}
	leaf := Description{parent: &mid}

	require.Equal("de", leaf.InheritedLang())
	require.Equal(";", leaf.InheritedSeparator())

	// The nearest setting wins over an ancestor's.
	own := "en"
	leaf.Lang = &own
	require.Equal("en", leaf.InheritedLang())
}

func TestApplyInheritedTypeErrors(t *testing.T) {
	require := require.New(t)

	for _, m := range []map[string]any{
		{"required": "yes"},
		{"separator": 5},
		{"null": 5},
		{"valueUrl": 5},
	} {
		var d Description
		err := d.applyInherited(partition(m))
		require.ErrorIs(err, datatype.ErrInvalidDescription, "%v", m)
	}
}
