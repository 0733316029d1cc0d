package quote

import (
	"context"

	finance "github.com/piquette/finance-go"
	fquote "github.com/piquette/finance-go/quote"
)

// Yahoo resolves quotes through the Yahoo Finance API.
type Yahoo struct{}

// NewYahoo creates a Yahoo-backed provider.
func NewYahoo() *Yahoo {
	return &Yahoo{}
}

// Lookup implements Provider. The underlying client does not take a
// context; the call is synchronous and bounded by the client's own
// HTTP timeout.
func (y *Yahoo) Lookup(_ context.Context, symbol string) (*Quote, error) {
	q, err := fquote.Get(symbol)
	if err != nil || q == nil {
		return nil, ErrNotFound
	}
	out := fromFinance(q)
	return &out, nil
}

// BatchLookup implements Provider. Unresolvable symbols are silently
// skipped; only a wholly failed batch with no results reports ErrNotFound.
func (y *Yahoo) BatchLookup(_ context.Context, symbols []string) ([]Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	iter := fquote.List(symbols)
	var out []Quote
	for iter.Next() {
		out = append(out, fromFinance(iter.Quote()))
	}
	if err := iter.Err(); err != nil && len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func fromFinance(q *finance.Quote) Quote {
	name := q.ShortName
	if name == "" {
		name = q.Symbol
	}
	return Quote{
		Symbol:        q.Symbol,
		Name:          name,
		Price:         q.RegularMarketPrice,
		High:          q.RegularMarketDayHigh,
		Low:           q.RegularMarketDayLow,
		YearlyHigh:    q.FiftyTwoWeekHigh,
		YearlyLow:     q.FiftyTwoWeekLow,
		Change:        q.RegularMarketChange,
		PercentChange: q.RegularMarketChangePercent,
	}
}
