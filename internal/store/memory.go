package store

import (
	"context"
	"sync"
	"time"

	"github.com/finbook/papertrade/internal/models"
	"github.com/finbook/papertrade/internal/money"
)

// Memory is an in-memory Store. It backs the engine and handler tests and
// keeps the same semantics as Postgres: transactional writes roll back on
// error, company registration is first-writer-wins, zero-share positions
// are retained.
type Memory struct {
	mu        sync.Mutex
	nextUser  int
	nextEntry int
	users     map[int]*models.User
	usernames map[string]int
	positions map[int]map[string]int
	companies map[string]string
	ledger    []models.LedgerEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextUser:  1,
		nextEntry: 1,
		users:     make(map[int]*models.User),
		usernames: make(map[string]int),
		positions: make(map[int]map[string]int),
		companies: make(map[string]string),
	}
}

// InTx implements Store. The whole store is snapshotted up front and
// restored if fn fails, so rejections leave no partial state.
func (m *Memory) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshotLocked()
	if err := fn(&memTx{store: m}); err != nil {
		m.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	nextEntry int
	users     map[int]*models.User
	positions map[int]map[string]int
	ledger    []models.LedgerEntry
}

func (m *Memory) snapshotLocked() memSnapshot {
	users := make(map[int]*models.User, len(m.users))
	for id, u := range m.users {
		copied := *u
		users[id] = &copied
	}
	positions := make(map[int]map[string]int, len(m.positions))
	for id, pos := range m.positions {
		copied := make(map[string]int, len(pos))
		for t, s := range pos {
			copied[t] = s
		}
		positions[id] = copied
	}
	ledger := make([]models.LedgerEntry, len(m.ledger))
	copy(ledger, m.ledger)
	return memSnapshot{nextEntry: m.nextEntry, users: users, positions: positions, ledger: ledger}
}

func (m *Memory) restoreLocked(s memSnapshot) {
	m.nextEntry = s.nextEntry
	m.users = s.users
	m.positions = s.positions
	m.ledger = s.ledger
}

// CreateUser implements Store.
func (m *Memory) CreateUser(_ context.Context, username, hash string, cash money.Amount) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usernames[username]; exists {
		return nil, ErrUsernameTaken
	}
	u := &models.User{ID: m.nextUser, Username: username, Hash: hash, Cash: cash}
	m.nextUser++
	m.users[u.ID] = u
	m.usernames[username] = u.ID
	copied := *u
	return &copied, nil
}

// UserByUsername implements Store.
func (m *Memory) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.usernames[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *m.users[id]
	return &copied, nil
}

// UserByID implements Store.
func (m *Memory) UserByID(_ context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// Positions implements Store.
func (m *Memory) Positions(_ context.Context, userID int) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int)
	for ticker, shares := range m.positions[userID] {
		out[ticker] = shares
	}
	return out, nil
}

// EnsureCompany implements Store.
func (m *Memory) EnsureCompany(_ context.Context, ticker, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.companies[ticker]; !exists {
		m.companies[ticker] = name
	}
	return nil
}

// ResolveCompanies implements Store.
func (m *Memory) ResolveCompanies(_ context.Context, tickers []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make(map[string]string)
	for _, t := range tickers {
		if name, ok := m.companies[t]; ok {
			names[t] = name
		}
	}
	return names, nil
}

// LedgerEntries implements Store, newest first.
func (m *Memory) LedgerEntries(_ context.Context, userID int) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []models.LedgerEntry
	for i := len(m.ledger) - 1; i >= 0; i-- {
		if m.ledger[i].UserID == userID {
			entries = append(entries, m.ledger[i])
		}
	}
	return entries, nil
}

// CompanyCount reports how many companies are registered. Test helper.
func (m *Memory) CompanyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.companies)
}

// memTx implements Tx directly against the locked store. The store mutex
// is held for the whole transaction, so per-account serialization holds
// trivially.
type memTx struct {
	store *Memory
}

func (t *memTx) Balance(_ context.Context, userID int) (money.Amount, error) {
	u, ok := t.store.users[userID]
	if !ok {
		return money.Zero(), ErrUserNotFound
	}
	return u.Cash, nil
}

func (t *memTx) SetBalance(_ context.Context, userID int, amount money.Amount) error {
	u, ok := t.store.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.Cash = amount
	return nil
}

func (t *memTx) Shares(_ context.Context, userID int, ticker string) (int, error) {
	return t.store.positions[userID][ticker], nil
}

func (t *memTx) SetShares(_ context.Context, userID int, ticker string, shares int) error {
	if t.store.positions[userID] == nil {
		t.store.positions[userID] = make(map[string]int)
	}
	t.store.positions[userID][ticker] = shares
	return nil
}

func (t *memTx) AppendLedger(_ context.Context, entry models.LedgerEntry) error {
	entry.ID = t.store.nextEntry
	t.store.nextEntry++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	t.store.ledger = append(t.store.ledger, entry)
	return nil
}
