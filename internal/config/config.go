package config

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port         string `json:"port"`
	MetadataPath string `json:"metadataPath"` // table group description (JSON)
	DialectDir   string `json:"dialectDir"`   // YAML dialect preset catalog
	Strict       bool   `json:"strict"`       // report violations with status 422
}

func def() Config {
	return Config{
		Port:         "8080",
		MetadataPath: "metadata.json",
		DialectDir:   "reference/dialects",
		Strict:       false,
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}

// LoadWithPath reads the JSON config at the given path, then applies env
// variables and flags, in that order of precedence.
func LoadWithPath(jsonPath string) Config {
	return loadWithArgs(jsonPath, os.Args[1:])
}

func loadWithArgs(jsonPath string, args []string) Config {
	cfg := def()

	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(jsonPath); err == nil {
			cfg = c2
		}
	}

	cfg.Port = getenv("CSVW_PORT", cfg.Port)
	cfg.MetadataPath = getenv("CSVW_METADATA", cfg.MetadataPath)
	cfg.DialectDir = getenv("CSVW_DIALECT_DIR", cfg.DialectDir)
	cfg.Strict = getenvBool("CSVW_STRICT", cfg.Strict)

	fs := flag.NewFlagSet("csvw", flag.ContinueOnError)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	meta := fs.String("metadata", cfg.MetadataPath, "Path to table group metadata (JSON)")
	dialects := fs.String("dialects", cfg.DialectDir, "Path to dialect preset directory")
	strict := fs.String("strict", strconv.FormatBool(cfg.Strict), "Respond 422 on violations (true/false)")

	if err := fs.Parse(args); err != nil {
		return cfg
	}

	// A different config given via flag: re-read with it.
	if *configPath != jsonPath {
		return loadWithArgs(*configPath, args)
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.MetadataPath = strings.TrimSpace(*meta)
	cfg.DialectDir = strings.TrimSpace(*dialects)
	cfg.Strict = strings.EqualFold(strings.TrimSpace(*strict), "true") ||
		strings.EqualFold(strings.TrimSpace(*strict), "1") ||
		strings.EqualFold(strings.TrimSpace(*strict), "yes")

	return cfg
}
