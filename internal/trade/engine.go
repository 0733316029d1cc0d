// Package trade implements the engine that executes buy and sell orders
// against the account balance, positions and ledger as one unit.
package trade

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/finbook/papertrade/internal/models"
	"github.com/finbook/papertrade/internal/money"
	"github.com/finbook/papertrade/internal/quote"
	"github.com/finbook/papertrade/internal/store"
)

// Rejection is a user-facing refusal: bad input or a business rule hit.
// A rejected trade leaves the account, positions and ledger untouched.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func reject(format string, args ...interface{}) error {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// Receipt confirms an executed trade.
type Receipt struct {
	Symbol     string       `json:"symbol"`
	Shares     int          `json:"shares"`
	UnitPrice  string       `json:"unit_price"`
	Total      string       `json:"total"`
	NewBalance money.Amount `json:"new_balance"`
	NewHolding int          `json:"new_holding"`
}

// Engine orchestrates quote lookups and the transactional writes behind
// buy and sell requests.
type Engine struct {
	store  store.Store
	quotes quote.Provider
	locks  *accountLocks
	log    zerolog.Logger
}

// NewEngine creates a trade engine.
func NewEngine(st store.Store, quotes quote.Provider, log zerolog.Logger) *Engine {
	return &Engine{
		store:  st,
		quotes: quotes,
		locks:  newAccountLocks(),
		log:    log,
	}
}

// parseShares validates the shares form field: it must be a positive
// whole number. Blank, non-numeric and non-positive input is rejected.
func parseShares(field string) (int, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, reject("Shares field cannot be blank")
	}
	shares, err := strconv.Atoi(field)
	if err != nil || shares <= 0 {
		return 0, reject("Shares must be a positive whole number")
	}
	return shares, nil
}

// resolve validates the symbol field and fetches its quote. A provider
// failure is indistinguishable from an unknown ticker.
func (e *Engine) resolve(ctx context.Context, symbol string) (*quote.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, reject("Symbol field cannot be blank")
	}
	q, err := e.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, reject("'%s' does not exist", symbol)
	}
	return q, nil
}

// Buy executes a buy order: resolve the quote, register the company,
// check funds, then debit cash, increment the position and append the
// ledger entry in one transaction.
func (e *Engine) Buy(ctx context.Context, accountID int, symbol, sharesField string) (*Receipt, error) {
	shares, err := parseShares(sharesField)
	if err != nil {
		return nil, err
	}
	q, err := e.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// Registered as soon as the ticker resolves, whether or not the
	// purchase goes through. First writer wins.
	if err := e.store.EnsureCompany(ctx, q.Symbol, q.Name); err != nil {
		e.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("company registration failed")
	}

	unitPrice := money.FromFloat(q.Price)
	cost := unitPrice.MulInt(shares)

	e.locks.Lock(accountID)
	defer e.locks.Unlock(accountID)

	var receipt *Receipt
	err = e.store.InTx(ctx, func(tx store.Tx) error {
		balance, err := tx.Balance(ctx, accountID)
		if err != nil {
			return err
		}
		if balance.LessThan(cost) {
			return reject("Insufficient funds. Balance: %s, cost: %s", balance.USD(), cost.USD())
		}

		held, err := tx.Shares(ctx, accountID, q.Symbol)
		if err != nil {
			return err
		}

		newBalance := balance.Sub(cost)
		if err := tx.SetBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		if err := tx.SetShares(ctx, accountID, q.Symbol, held+shares); err != nil {
			return err
		}
		if err := tx.AppendLedger(ctx, models.LedgerEntry{
			UserID: accountID,
			Ticker: q.Symbol,
			Shares: shares,
			Price:  cost.USD(),
			Type:   models.TradeBuy,
		}); err != nil {
			return err
		}

		receipt = &Receipt{
			Symbol:     q.Symbol,
			Shares:     shares,
			UnitPrice:  unitPrice.USD(),
			Total:      cost.USD(),
			NewBalance: newBalance,
			NewHolding: held + shares,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int("account", accountID).
		Str("symbol", q.Symbol).
		Int("shares", shares).
		Str("cost", receipt.Total).
		Msg("buy executed")
	return receipt, nil
}

// Sell executes a sell order. Selling the full held amount leaves a
// zero-share position row in place.
func (e *Engine) Sell(ctx context.Context, accountID int, symbol, sharesField string) (*Receipt, error) {
	shares, err := parseShares(sharesField)
	if err != nil {
		return nil, err
	}
	q, err := e.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	unitPrice := money.FromFloat(q.Price)
	proceeds := unitPrice.MulInt(shares)

	e.locks.Lock(accountID)
	defer e.locks.Unlock(accountID)

	var receipt *Receipt
	err = e.store.InTx(ctx, func(tx store.Tx) error {
		// Row locks are taken users then positions, same as Buy, so two
		// instances sharing a database cannot deadlock a buy against a sell.
		balance, err := tx.Balance(ctx, accountID)
		if err != nil {
			return err
		}

		held, err := tx.Shares(ctx, accountID, q.Symbol)
		if err != nil {
			return err
		}
		if held < shares {
			return reject("Missing stocks. Have: %d, selling: %d", held, shares)
		}

		newBalance := balance.Add(proceeds)
		if err := tx.SetBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		if err := tx.SetShares(ctx, accountID, q.Symbol, held-shares); err != nil {
			return err
		}
		if err := tx.AppendLedger(ctx, models.LedgerEntry{
			UserID: accountID,
			Ticker: q.Symbol,
			Shares: shares,
			Price:  proceeds.USD(),
			Type:   models.TradeSell,
		}); err != nil {
			return err
		}

		receipt = &Receipt{
			Symbol:     q.Symbol,
			Shares:     shares,
			UnitPrice:  unitPrice.USD(),
			Total:      proceeds.USD(),
			NewBalance: newBalance,
			NewHolding: held - shares,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int("account", accountID).
		Str("symbol", q.Symbol).
		Int("shares", shares).
		Str("proceeds", receipt.Total).
		Msg("sell executed")
	return receipt, nil
}
