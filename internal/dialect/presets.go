package dialect

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named dialect read from a YAML catalog file.
type Preset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Dialect     `yaml:",inline"`
}

// LoadCatalog reads all YAML dialect presets from a directory, keyed by the
// preset's name field or, failing that, the file name.
func LoadCatalog(dir string) (map[string]*Preset, error) {
	result := make(map[string]*Preset)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		preset := &Preset{Dialect: *Default()}
		if err := yaml.Unmarshal(data, preset); err != nil {
			return nil, err
		}
		if err := preset.Dialect.validate(); err != nil {
			return nil, err
		}
		key := preset.Name
		if key == "" {
			key = strings.TrimSuffix(name, filepath.Ext(name))
		}
		result[key] = preset
	}
	return result, nil
}
