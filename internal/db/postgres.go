// Package db opens the Postgres connection and bootstraps the schema.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/finbook/papertrade/internal/common"
)

// Open connects to Postgres using the service configuration and verifies
// the connection with a ping.
func Open(cfg common.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	database, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = database.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// Connection pool settings
	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(5 * time.Minute)

	return database, nil
}

// EnsureSchema creates the tables if they do not exist. The CHECK
// constraints enforce the two storage invariants: cash and share counts
// never go negative.
func EnsureSchema(database *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            username TEXT UNIQUE NOT NULL,
            hash TEXT NOT NULL,
            cash NUMERIC(18,2) NOT NULL DEFAULT 10000.00 CHECK (cash >= 0)
        )`,
		`CREATE TABLE IF NOT EXISTS positions (
            user_id INT NOT NULL REFERENCES users(id),
            ticker TEXT NOT NULL,
            shares INT NOT NULL CHECK (shares >= 0),
            PRIMARY KEY (user_id, ticker)
        )`,
		`CREATE TABLE IF NOT EXISTS companies (
            ticker TEXT PRIMARY KEY,
            name TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS history (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL REFERENCES users(id),
            stock TEXT NOT NULL,
            shares INT NOT NULL,
            price TEXT NOT NULL,
            type TEXT NOT NULL CHECK (type IN ('buy', 'sell')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	}

	for _, stmt := range schema {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
