package main

import (
	"log"

	"csvw/internal/api"
	"csvw/internal/config"
	"csvw/internal/dialect"
	"csvw/internal/metadata"
)

func main() {
	cfg := config.LoadWithPath("config.json")

	// 1. Load the table group description.
	group, err := metadata.FromFile(cfg.MetadataPath)
	if err != nil {
		log.Fatalf("loading metadata: %v", err)
	}
	log.Printf("loaded %d tables from %s", len(group.Tables), cfg.MetadataPath)

	// 2. Foreign key shape problems are fatal before serving anything.
	if err := group.CheckSchema(); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// 3. Load the dialect preset catalog, if present.
	presets := map[string]*dialect.Preset{}
	if cfg.DialectDir != "" {
		if p, err := dialect.LoadCatalog(cfg.DialectDir); err == nil {
			presets = p
			log.Printf("loaded %d dialect presets", len(presets))
		} else {
			log.Printf("dialect presets unavailable: %v", err)
		}
	}

	// 4. Serve the REST API.
	log.Printf("starting server on :%s", cfg.Port)
	api.RunServer(":"+cfg.Port, group, presets, cfg.Strict)
}
