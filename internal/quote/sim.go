package quote

import (
	"context"
	"math/rand"
	"strings"
	"sync"
)

// Sim is an in-process provider that serves a fixed set of symbols with
// random-walk prices. It exists so the service can run without network
// access, and so tests have a provider that never reaches out.
type Sim struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64
	opens  map[string]float64
	names  map[string]string
}

// NewSim creates a simulated provider seeded with a handful of large caps.
func NewSim(seed int64) *Sim {
	prices := map[string]float64{
		"AAPL":  150.00,
		"GOOGL": 140.00,
		"MSFT":  380.00,
		"TSLA":  250.00,
		"AMZN":  180.00,
	}
	names := map[string]string{
		"AAPL":  "Apple Inc.",
		"GOOGL": "Alphabet Inc.",
		"MSFT":  "Microsoft Corporation",
		"TSLA":  "Tesla, Inc.",
		"AMZN":  "Amazon.com, Inc.",
	}
	opens := make(map[string]float64, len(prices))
	for sym, p := range prices {
		opens[sym] = p
	}
	return &Sim{
		rng:    rand.New(rand.NewSource(seed)),
		prices: prices,
		opens:  opens,
		names:  names,
	}
}

// Lookup implements Provider.
func (s *Sim) Lookup(_ context.Context, symbol string) (*Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	price, ok := s.prices[symbol]
	if !ok {
		return nil, ErrNotFound
	}

	// Walk the price -2% to +2% per observation.
	price = price * (1 + (s.rng.Float64()-0.5)*4/100)
	s.prices[symbol] = price

	q := s.build(symbol, price)
	return &q, nil
}

// BatchLookup implements Provider.
func (s *Sim) BatchLookup(ctx context.Context, symbols []string) ([]Quote, error) {
	var out []Quote
	for _, sym := range symbols {
		q, err := s.Lookup(ctx, sym)
		if err != nil {
			continue // unknown symbols are skipped, not fatal
		}
		out = append(out, *q)
	}
	return out, nil
}

func (s *Sim) build(symbol string, price float64) Quote {
	open := s.opens[symbol]
	change := price - open
	percent := 0.0
	if open != 0 {
		percent = change / open * 100
	}
	return Quote{
		Symbol:        symbol,
		Name:          s.names[symbol],
		Price:         price,
		High:          open * 1.03,
		Low:           open * 0.97,
		YearlyHigh:    open * 1.40,
		YearlyLow:     open * 0.60,
		Change:        change,
		PercentChange: percent,
	}
}
