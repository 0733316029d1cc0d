package trade

import (
	"context"
	"sync"
	"testing"

	"github.com/finbook/papertrade/internal/common"
	"github.com/finbook/papertrade/internal/db"
	"github.com/finbook/papertrade/internal/money"
	"github.com/finbook/papertrade/internal/store"
)

// Concurrent trades against a real database. Two engines share the
// database but not their in-process locks, like two server instances
// behind a load balancer, so serialization has to come from the row
// locks taken inside the transaction.
func TestConcurrentBuysPostgres(t *testing.T) {
	database := db.SetupTestDB(t)
	defer database.Close()
	defer db.CleanupTestDB(t, database)

	st := store.NewPostgres(database)
	provider := &staticProvider{prices: map[string]float64{"AAA": 100}}
	first := NewEngine(st, provider, common.NewSilentLogger())
	second := NewEngine(st, provider, common.NewSilentLogger())

	userID := db.CreateTestUser(t, database, "concurrent_buyer", 10000)

	const workers = 10
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		engine := first
		if i%2 == 1 {
			engine = second
		}
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
		if err != nil {
			t.Fatalf("Buy failed: %v", err)
		}
	}

	ctx := context.Background()
	user, err := st.UserByID(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to load user: %v", err)
	}
	want := money.FromInt(10000 - workers*2*100)
	if !user.Cash.Equal(want) {
		t.Errorf("Expected balance %s, got %s", want, user.Cash)
	}

	positions, err := st.Positions(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to load positions: %v", err)
	}
	if positions["AAA"] != workers*2 {
		t.Errorf("Expected %d shares, got %d", workers*2, positions["AAA"])
	}

	entries, err := st.LedgerEntries(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	if len(entries) != workers {
		t.Errorf("Expected %d history entries, got %d", workers, len(entries))
	}
}

// Buys and sells race across the two engines. Both paths lock the users
// row before the positions row, so the interleaving cannot deadlock and
// at a fixed price the trades cancel out exactly.
func TestConcurrentBuysAndSellsPostgres(t *testing.T) {
	database := db.SetupTestDB(t)
	defer database.Close()
	defer db.CleanupTestDB(t, database)

	st := store.NewPostgres(database)
	provider := &staticProvider{prices: map[string]float64{"AAA": 10}}
	first := NewEngine(st, provider, common.NewSilentLogger())
	second := NewEngine(st, provider, common.NewSilentLogger())

	userID := db.CreateTestUser(t, database, "concurrent_mixed", 10000)

	ctx := context.Background()
	if _, err := first.Buy(ctx, userID, "AAA", "50"); err != nil {
		t.Fatalf("Seed buy failed: %v", err)
	}

	const pairs = 6
	errs := make(chan error, pairs*2)
	var wg sync.WaitGroup
	for i := 0; i < pairs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := first.Buy(context.Background(), userID, "AAA", "1")
			errs <- err
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := second.Sell(context.Background(), userID, "AAA", "1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Trade failed: %v", err)
		}
	}

	user, err := st.UserByID(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to load user: %v", err)
	}
	if !user.Cash.Equal(money.FromInt(9500)) {
		t.Errorf("Expected balance $9,500.00, got %s", user.Cash)
	}

	positions, err := st.Positions(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to load positions: %v", err)
	}
	if positions["AAA"] != 50 {
		t.Errorf("Expected 50 shares, got %d", positions["AAA"])
	}
}
