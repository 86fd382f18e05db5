package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mixfield/songdraft/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

func setupDatabase(dbCfg dbconfig.Config) (*sql.DB, error) {
	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("user", dbCfg.User).
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")
	return database, nil
}
