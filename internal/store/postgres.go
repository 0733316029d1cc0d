package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/finbook/papertrade/internal/models"
	"github.com/finbook/papertrade/internal/money"
)

// Postgres implements Store on a *sql.DB.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// InTx implements Store.
func (p *Postgres) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if we don't commit

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateUser implements Store.
func (p *Postgres) CreateUser(ctx context.Context, username, hash string, cash money.Amount) (*models.User, error) {
	user := models.User{Username: username, Hash: hash, Cash: cash}
	err := p.db.QueryRowContext(ctx,
		"INSERT INTO users (username, hash, cash) VALUES ($1, $2, $3) RETURNING id",
		username, hash, cash,
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// UserByUsername implements Store.
func (p *Postgres) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx,
		"SELECT id, username, hash, cash FROM users WHERE username = $1", username))
}

// UserByID implements Store.
func (p *Postgres) UserByID(ctx context.Context, id int) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx,
		"SELECT id, username, hash, cash FROM users WHERE id = $1", id))
}

func (p *Postgres) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Hash, &u.Cash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Positions implements Store.
func (p *Postgres) Positions(ctx context.Context, userID int) (map[string]int, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT ticker, shares FROM positions WHERE user_id = $1 ORDER BY ticker", userID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	positions := make(map[string]int)
	for rows.Next() {
		var ticker string
		var shares int
		if err := rows.Scan(&ticker, &shares); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions[ticker] = shares
	}
	return positions, rows.Err()
}

// EnsureCompany implements Store. ON CONFLICT DO NOTHING makes concurrent
// registration of the same ticker safe: the first insert wins.
func (p *Postgres) EnsureCompany(ctx context.Context, ticker, name string) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO companies (ticker, name) VALUES ($1, $2) ON CONFLICT (ticker) DO NOTHING",
		ticker, name)
	if err != nil {
		return fmt.Errorf("register company: %w", err)
	}
	return nil
}

// ResolveCompanies implements Store.
func (p *Postgres) ResolveCompanies(ctx context.Context, tickers []string) (map[string]string, error) {
	names := make(map[string]string)
	if len(tickers) == 0 {
		return names, nil
	}

	rows, err := p.db.QueryContext(ctx,
		"SELECT ticker, name FROM companies WHERE ticker = ANY($1)", pq.Array(tickers))
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticker, name string
		if err := rows.Scan(&ticker, &name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		names[ticker] = name
	}
	return names, rows.Err()
}

// LedgerEntries implements Store.
func (p *Postgres) LedgerEntries(ctx context.Context, userID int) ([]models.LedgerEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, user_id, stock, shares, price, type, created_at
        FROM history
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Ticker, &e.Shares, &e.Price, &e.Type, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// pgTx implements Tx on a *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

// Balance locks the account row with FOR UPDATE so concurrent trades for
// the same account serialize at the database.
func (t *pgTx) Balance(ctx context.Context, userID int) (money.Amount, error) {
	var cash money.Amount
	err := t.tx.QueryRowContext(ctx,
		"SELECT cash FROM users WHERE id = $1 FOR UPDATE", userID,
	).Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return money.Zero(), ErrUserNotFound
	}
	if err != nil {
		return money.Zero(), fmt.Errorf("query balance: %w", err)
	}
	return cash, nil
}

func (t *pgTx) SetBalance(ctx context.Context, userID int, amount money.Amount) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE users SET cash = $1 WHERE id = $2", amount, userID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

func (t *pgTx) Shares(ctx context.Context, userID int, ticker string) (int, error) {
	var shares int
	err := t.tx.QueryRowContext(ctx,
		"SELECT shares FROM positions WHERE user_id = $1 AND ticker = $2 FOR UPDATE",
		userID, ticker,
	).Scan(&shares)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query position: %w", err)
	}
	return shares, nil
}

func (t *pgTx) SetShares(ctx context.Context, userID int, ticker string, shares int) error {
	_, err := t.tx.ExecContext(ctx, `
        INSERT INTO positions (user_id, ticker, shares)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, ticker)
        DO UPDATE SET shares = $3
    `, userID, ticker, shares)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	return nil
}

func (t *pgTx) AppendLedger(ctx context.Context, entry models.LedgerEntry) error {
	_, err := t.tx.ExecContext(ctx, `
        INSERT INTO history (user_id, stock, shares, price, type)
        VALUES ($1, $2, $3, $4, $5)
    `, entry.UserID, entry.Ticker, entry.Shares, entry.Price, entry.Type)
	if err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return nil
}
