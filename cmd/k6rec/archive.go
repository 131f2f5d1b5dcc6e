package main

import (
	"database/sql"
	"fmt"

	"github.com/rsclarke/k6rec/internal/config"
	"github.com/rsclarke/k6rec/internal/db"
	"github.com/spf13/cobra"
)

type archiveConfig struct {
	dbPath string
}

func addArchiveFlags(cmd *cobra.Command, cfg *archiveConfig) {
	cmd.Flags().StringVar(&cfg.dbPath, "db", getEnv(config.EnvArchive, ""), "session archive database path")
}

func (cfg *archiveConfig) open() (*sql.DB, error) {
	if cfg.dbPath == "" {
		return nil, fmt.Errorf("archive path required (use --db flag or %s env var)", config.EnvArchive)
	}
	return db.Open(cfg.dbPath)
}
