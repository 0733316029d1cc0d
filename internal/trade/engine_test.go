package trade

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbook/papertrade/internal/common"
	"github.com/finbook/papertrade/internal/models"
	"github.com/finbook/papertrade/internal/money"
	"github.com/finbook/papertrade/internal/quote"
	"github.com/finbook/papertrade/internal/store"
)

// staticProvider serves fixed prices so assertions stay exact.
type staticProvider struct {
	prices map[string]float64
}

func (p *staticProvider) Lookup(_ context.Context, symbol string) (*quote.Quote, error) {
	symbol = strings.ToUpper(symbol)
	price, ok := p.prices[symbol]
	if !ok {
		return nil, quote.ErrNotFound
	}
	return &quote.Quote{Symbol: symbol, Name: symbol + " Corp", Price: price}, nil
}

func (p *staticProvider) BatchLookup(ctx context.Context, symbols []string) ([]quote.Quote, error) {
	var out []quote.Quote
	for _, s := range symbols {
		if q, err := p.Lookup(ctx, s); err == nil {
			out = append(out, *q)
		}
	}
	return out, nil
}

func newTestEngine(t *testing.T, prices map[string]float64, cash float64) (*Engine, *store.Memory, *staticProvider, int) {
	t.Helper()

	mem := store.NewMemory()
	provider := &staticProvider{prices: prices}
	engine := NewEngine(mem, provider, common.NewSilentLogger())

	user, err := mem.CreateUser(context.Background(), "tester", "x", money.FromFloat(cash))
	require.NoError(t, err)

	return engine, mem, provider, user.ID
}

func requireUnchanged(t *testing.T, mem *store.Memory, userID int, cash float64) {
	t.Helper()
	ctx := context.Background()

	user, err := mem.UserByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, user.Cash.Equal(money.FromFloat(cash)), "balance changed: %s", user.Cash)

	positions, err := mem.Positions(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, positions)

	entries, err := mem.LedgerEntries(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuyThenSellScenario(t *testing.T) {
	// Start with $10,000; buy 10 AAA at $100, sell 10 at $120.
	engine, mem, provider, userID := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)
	ctx := context.Background()

	receipt, err := engine.Buy(ctx, userID, "AAA", "10")
	require.NoError(t, err)
	assert.Equal(t, "$1,000.00", receipt.Total)
	assert.Equal(t, 10, receipt.NewHolding)
	assert.True(t, receipt.NewBalance.Equal(money.FromInt(9000)))

	provider.prices["AAA"] = 120

	receipt, err = engine.Sell(ctx, userID, "AAA", "10")
	require.NoError(t, err)
	assert.Equal(t, "$1,200.00", receipt.Total)
	assert.Equal(t, 0, receipt.NewHolding)
	assert.True(t, receipt.NewBalance.Equal(money.FromInt(10200)))

	// Selling the full holding keeps a zero-share row, it is not deleted.
	positions, err := mem.Positions(ctx, userID)
	require.NoError(t, err)
	shares, present := positions["AAA"]
	assert.True(t, present)
	assert.Equal(t, 0, shares)

	entries, err := mem.LedgerEntries(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.TradeSell, entries[0].Type)
	assert.Equal(t, "$1,200.00", entries[0].Price)
	assert.Equal(t, models.TradeBuy, entries[1].Type)
	assert.Equal(t, "$1,000.00", entries[1].Price)
}

func TestBuyInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		shares string
		want   string
	}{
		{"blank symbol", "", "1", "Symbol field cannot be blank"},
		{"blank shares", "AAA", "", "Shares field cannot be blank"},
		{"non-numeric shares", "AAA", "abc", "positive whole number"},
		{"zero shares", "AAA", "0", "positive whole number"},
		{"negative shares", "AAA", "-5", "positive whole number"},
		{"fractional shares", "AAA", "1.5", "positive whole number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)

			_, err := engine.Buy(context.Background(), userID, tt.symbol, tt.shares)
			var rej *Rejection
			require.ErrorAs(t, err, &rej)
			assert.Contains(t, rej.Reason, tt.want)

			requireUnchanged(t, mem, userID, 10000)
		})
	}
}

func TestBuyUnknownTicker(t *testing.T) {
	engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)

	_, err := engine.Buy(context.Background(), userID, "ZZZZ", "1")
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "'ZZZZ' does not exist", rej.Reason)

	requireUnchanged(t, mem, userID, 10000)
}

func TestBuyInsufficientFunds(t *testing.T) {
	engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 150}, 100)

	_, err := engine.Buy(context.Background(), userID, "AAA", "10")
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	// Both numbers are named in the rejection.
	assert.Contains(t, rej.Reason, "$100.00")
	assert.Contains(t, rej.Reason, "$1,500.00")

	user, err := mem.UserByID(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, user.Cash.Equal(money.FromInt(100)))

	positions, err := mem.Positions(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestRepeatedBuysAccumulate(t *testing.T) {
	engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 10}, 10000)
	ctx := context.Background()

	_, err := engine.Buy(ctx, userID, "AAA", "3")
	require.NoError(t, err)
	receipt, err := engine.Buy(ctx, userID, "aaa", "4")
	require.NoError(t, err)

	// One position entry, not separate lots.
	assert.Equal(t, 7, receipt.NewHolding)
	positions, err := mem.Positions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 7, positions["AAA"])

	// Registering the company twice leaves exactly one record.
	assert.Equal(t, 1, mem.CompanyCount())
}

func TestSellWithoutHolding(t *testing.T) {
	engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)

	_, err := engine.Sell(context.Background(), userID, "AAA", "5")
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Contains(t, rej.Reason, "Have: 0")

	requireUnchanged(t, mem, userID, 10000)
}

func TestSellMoreThanHeld(t *testing.T) {
	engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)
	ctx := context.Background()

	_, err := engine.Buy(ctx, userID, "AAA", "5")
	require.NoError(t, err)

	// Selling exactly held+1 is rejected with no state change.
	_, err = engine.Sell(ctx, userID, "AAA", "6")
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Contains(t, rej.Reason, "Have: 5")
	assert.Contains(t, rej.Reason, "selling: 6")

	user, err := mem.UserByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, user.Cash.Equal(money.FromInt(9500)))

	positions, err := mem.Positions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, positions["AAA"])

	entries, err := mem.LedgerEntries(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Selling exactly the held amount succeeds.
	receipt, err := engine.Sell(ctx, userID, "AAA", "5")
	require.NoError(t, err)
	assert.Equal(t, 0, receipt.NewHolding)
}

func TestSellValidation(t *testing.T) {
	engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)

	_, err := engine.Sell(context.Background(), userID, "AAA", "abc")
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Contains(t, rej.Reason, "positive whole number")

	requireUnchanged(t, mem, userID, 10000)
}

func TestBuyUnknownAccount(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)

	_, err := engine.Buy(context.Background(), 999, "AAA", "1")
	require.Error(t, err)
	var rej *Rejection
	assert.False(t, errors.As(err, &rej), "missing account is not a user-facing rejection")
}

func TestConcurrentBuysSameAccount(t *testing.T) {
	// Every goroutine trades the same account; run with -race.
	engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)

	const workers = 10
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Buy(context.Background(), userID, "AAA", "2")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	ctx := context.Background()
	user, err := mem.UserByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, user.Cash.Equal(money.FromInt(10000-workers*2*100)), "balance: %s", user.Cash)

	positions, err := mem.Positions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, workers*2, positions["AAA"])

	entries, err := mem.LedgerEntries(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, entries, workers)
}

func TestConcurrentBuysDifferentAccounts(t *testing.T) {
	engine, mem, _, first := newTestEngine(t, map[string]float64{"AAA": 100}, 10000)

	second, err := mem.CreateUser(context.Background(), "other", "x", money.FromFloat(10000))
	require.NoError(t, err)

	errs := make(chan error, 10)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Buy(context.Background(), first, "AAA", "1")
			errs <- err
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Buy(context.Background(), second.ID, "AAA", "3")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	ctx := context.Background()
	for _, tc := range []struct {
		userID int
		cash   int64
		shares int
	}{
		{first, 9500, 5},
		{second.ID, 8500, 15},
	} {
		user, err := mem.UserByID(ctx, tc.userID)
		require.NoError(t, err)
		assert.True(t, user.Cash.Equal(money.FromInt(tc.cash)), "balance: %s", user.Cash)

		positions, err := mem.Positions(ctx, tc.userID)
		require.NoError(t, err)
		assert.Equal(t, tc.shares, positions["AAA"])
	}
}

func TestConcurrentBuysAndSells(t *testing.T) {
	engine, mem, _, userID := newTestEngine(t, map[string]float64{"AAA": 10}, 10000)
	ctx := context.Background()

	// Seed a holding large enough that no interleaving can drain it.
	_, err := engine.Buy(ctx, userID, "AAA", "50")
	require.NoError(t, err)

	const pairs = 6
	errs := make(chan error, pairs*2)
	var wg sync.WaitGroup
	for i := 0; i < pairs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Buy(context.Background(), userID, "AAA", "1")
			errs <- err
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Sell(context.Background(), userID, "AAA", "1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Buys and sells at a fixed price cancel out exactly.
	user, err := mem.UserByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, user.Cash.Equal(money.FromInt(9500)), "balance: %s", user.Cash)

	positions, err := mem.Positions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 50, positions["AAA"])

	entries, err := mem.LedgerEntries(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, entries, 1+pairs*2)
}
