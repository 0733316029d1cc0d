package db

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/finbook/papertrade/internal/money"
)

// SetupTestDB connects to the database named by PAPERTRADE_TEST_DSN and
// ensures the schema exists. Tests that need a real database are skipped
// when the variable is unset, e.g.
//
//	PAPERTRADE_TEST_DSN="host=localhost port=5432 user=trader password=trading123 dbname=papertrade_test sslmode=disable"
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("PAPERTRADE_TEST_DSN")
	if dsn == "" {
		t.Skip("PAPERTRADE_TEST_DSN not set; skipping database test")
	}

	database, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err = database.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	if err = EnsureSchema(database); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	return database
}

// CleanupTestDB removes all rows written by a test.
func CleanupTestDB(t *testing.T, database *sql.DB) {
	t.Helper()

	tables := []string{"history", "positions", "companies", "users"}
	for _, table := range tables {
		if _, err := database.Exec("DELETE FROM " + table); err != nil {
			t.Logf("Warning: failed to clean table %s: %v", table, err)
		}
	}
}

// CreateTestUser inserts a user with the given balance and returns its id.
func CreateTestUser(t *testing.T, database *sql.DB, username string, balance float64) int {
	t.Helper()

	// Make username unique by adding timestamp
	uniqueUsername := fmt.Sprintf("%s_%d", username, time.Now().UnixNano())

	var userID int
	err := database.QueryRow(
		"INSERT INTO users (username, hash, cash) VALUES ($1, $2, $3) RETURNING id",
		uniqueUsername, "x", money.FromFloat(balance),
	).Scan(&userID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}
