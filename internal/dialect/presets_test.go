package dialect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "tsv.yaml"), []byte(
		"name: tsv\ndescription: tab separated\ndelimiter: \"\\t\"\nheader: false\n"), 0o644))
	require.NoError(os.WriteFile(filepath.Join(dir, "semicolons.yml"), []byte(
		"delimiter: \";\"\ntrim: true\n"), 0o644))
	require.NoError(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	presets, err := LoadCatalog(dir)
	require.NoError(err)
	require.Len(presets, 2)

	tsv := presets["tsv"]
	require.NotNil(tsv)
	require.Equal("tab separated", tsv.Description)
	require.Equal("\t", tsv.Delimiter)
	require.False(tsv.Header)
	// Untouched keys keep the defaults.
	require.Equal(`"`, tsv.QuoteChar)

	// A preset without a name falls back to the file name.
	semi := presets["semicolons"]
	require.NotNil(semi)
	require.Equal(";", semi.Delimiter)
	require.Equal(TrimTrue, semi.Trim)
}

func TestLoadCatalogInvalidPreset(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("delimiter: \"\"\n"), 0o644))

	_, err := LoadCatalog(dir)
	require.Error(err)
}
