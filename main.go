package main

import (
	"log"
	"net/http"

	"github.com/caarlos0/env/v11"

	"rigrename/api"
	"rigrename/journal"
	"rigrename/preset"
	"rigrename/scene"
)

// config is read from the environment at startup. An empty
// RIGRENAME_JOURNAL_FILE disables operation history.
type config struct {
	Addr        string `env:"RIGRENAME_ADDR"         envDefault:":8080"`
	PresetFile  string `env:"RIGRENAME_PRESET_FILE"  envDefault:"data/presets.json"`
	JournalFile string `env:"RIGRENAME_JOURNAL_FILE" envDefault:"data/journal.db"`
	SceneFile   string `env:"RIGRENAME_SCENE_FILE"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}

	pm, err := preset.NewManager(cfg.PresetFile)
	if err != nil {
		log.Fatalf("failed to load presets: %v", err)
	}

	sm := scene.NewManager()
	if cfg.SceneFile != "" {
		if err := sm.LoadFile(cfg.SceneFile); err != nil {
			log.Fatalf("failed to load scene: %v", err)
		}
	}

	var jl *journal.Journal
	if cfg.JournalFile != "" {
		jl, err = journal.Open(cfg.JournalFile)
		if err != nil {
			log.Fatalf("failed to open journal: %v", err)
		}
		defer jl.Close()
	}

	router := api.RegisterRoutes(pm, sm, jl)

	log.Printf("rigrename listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
