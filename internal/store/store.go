// Package store is the data access layer: accounts, positions, the
// company directory and the trade ledger, behind parameterized queries.
package store

import (
	"context"
	"errors"

	"github.com/finbook/papertrade/internal/models"
	"github.com/finbook/papertrade/internal/money"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrUsernameTaken is returned by CreateUser on a duplicate username.
	ErrUsernameTaken = errors.New("store: username already exists")
)

// Tx exposes the row operations available inside a trade transaction.
// Reads lock the rows they touch for the duration of the transaction,
// so a buy or sell is serialized per account.
type Tx interface {
	// Balance returns the account's cash balance, locking the row.
	Balance(ctx context.Context, userID int) (money.Amount, error)

	// SetBalance replaces the account's cash balance.
	SetBalance(ctx context.Context, userID int, amount money.Amount) error

	// Shares returns the held share count for a ticker, locking the row.
	// A ticker with no row reports 0 shares.
	Shares(ctx context.Context, userID int, ticker string) (int, error)

	// SetShares upserts the position row. Shares must never be negative;
	// a zero count keeps the row rather than deleting it.
	SetShares(ctx context.Context, userID int, ticker string, shares int) error

	// AppendLedger records one immutable buy/sell event.
	AppendLedger(ctx context.Context, entry models.LedgerEntry) error
}

// Store is the persistence contract consumed by the trade engine and
// the HTTP handlers.
type Store interface {
	// InTx runs fn inside a transaction. Any error from fn rolls every
	// write back, so rejected trades leave no partial state.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// CreateUser inserts an account with a hashed password and the
	// starting cash balance.
	CreateUser(ctx context.Context, username, hash string, cash money.Amount) (*models.User, error)

	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id int) (*models.User, error)

	// Positions returns the full ticker -> share count map for a user,
	// including retained zero-share rows. A user with no rows gets an
	// empty map, not an error.
	Positions(ctx context.Context, userID int) (map[string]int, error)

	// EnsureCompany registers a ticker/name pair once. Re-registering is
	// a no-op; the first writer wins.
	EnsureCompany(ctx context.Context, ticker, name string) error

	// ResolveCompanies maps tickers to display names. Unregistered
	// tickers are simply absent from the result.
	ResolveCompanies(ctx context.Context, tickers []string) (map[string]string, error)

	// LedgerEntries returns a user's transaction history, newest first.
	LedgerEntries(ctx context.Context, userID int) ([]models.LedgerEntry, error)
}
