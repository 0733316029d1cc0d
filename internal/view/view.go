// Package view assembles the read-only display rows for the portfolio
// and transaction history pages.
package view

import (
	"fmt"
	"sort"

	"github.com/finbook/papertrade/internal/models"
	"github.com/finbook/papertrade/internal/money"
	"github.com/finbook/papertrade/internal/quote"
)

// Change sign classification. Exact zero is its own category.
const (
	SignPositive  = "positive"
	SignNegative  = "negative"
	SignUnchanged = "unchanged"
)

func classifyChange(change float64) string {
	switch {
	case change > 0:
		return SignPositive
	case change < 0:
		return SignNegative
	default:
		return SignUnchanged
	}
}

// BuildPortfolio combines a user's positions with their batch quotes and
// company names into display rows, and returns the total market value of
// the holdings. Tickers the provider could not resolve are kept as
// price-unavailable rows rather than silently dropped, so the view never
// hides a holding; they contribute nothing to the total.
func BuildPortfolio(positions map[string]int, names map[string]string, quotes []quote.Quote) ([]models.PortfolioRow, money.Amount) {
	bySymbol := make(map[string]quote.Quote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}

	tickers := make([]string, 0, len(positions))
	for t := range positions {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	rows := make([]models.PortfolioRow, 0, len(tickers))
	total := money.Zero()

	for _, ticker := range tickers {
		shares := positions[ticker]
		company := names[ticker]
		if company == "" {
			company = ticker
		}

		q, ok := bySymbol[ticker]
		if !ok {
			rows = append(rows, models.PortfolioRow{
				Symbol:           ticker,
				Company:          company,
				ChangeSign:       SignUnchanged,
				Shares:           shares,
				PriceUnavailable: true,
			})
			continue
		}

		price := money.FromFloat(q.Price)
		value := price.MulInt(shares)
		total = total.Add(value)

		rows = append(rows, models.PortfolioRow{
			Symbol:        ticker,
			Company:       company,
			High:          q.High,
			Low:           q.Low,
			YearlyHigh:    q.YearlyHigh,
			YearlyLow:     q.YearlyLow,
			Change:        q.Change,
			ChangePercent: fmt.Sprintf("%.2f%%", q.PercentChange),
			ChangeSign:    classifyChange(q.Change),
			Price:         price.USD(),
			Shares:        shares,
			Value:         value.USD(),
		})
	}

	return rows, total
}

// BuildHistory turns ledger entries into display rows, resolving company
// names where the directory has them.
func BuildHistory(entries []models.LedgerEntry, names map[string]string) []models.HistoryRow {
	rows := make([]models.HistoryRow, 0, len(entries))
	for _, e := range entries {
		company := names[e.Ticker]
		if company == "" {
			company = e.Ticker
		}
		rows = append(rows, models.HistoryRow{
			Stock:   e.Ticker,
			Company: company,
			Date:    e.CreatedAt.Format("2006-01-02"),
			Time:    e.CreatedAt.Format("15:04:05"),
			Shares:  e.Shares,
			Value:   e.Price,
			Type:    string(e.Type),
		})
	}
	return rows
}
