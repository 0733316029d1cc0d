package models

import (
	"time"

	"github.com/finbook/papertrade/internal/money"
)

// TradeType distinguishes the two ledger entry kinds.
type TradeType string

const (
	TradeBuy  = TradeType("buy")
	TradeSell = TradeType("sell")
)

// User represents an account: credentials plus the virtual cash balance.
type User struct {
	ID       int          `json:"id"`
	Username string       `json:"username"`
	Hash     string       `json:"-"`
	Cash     money.Amount `json:"cash"`
}

// Position is one row of a user's portfolio. Shares is never negative;
// a position sold down to zero is retained, not deleted.
type Position struct {
	UserID int    `json:"user_id"`
	Ticker string `json:"ticker"`
	Shares int    `json:"shares"`
}

// Company maps a ticker to its display name. Written once per ticker,
// first writer wins.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// LedgerEntry is an immutable record of one buy or sell event. Price holds
// the display-formatted total at the time of the trade.
type LedgerEntry struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Ticker    string    `json:"ticker"`
	Shares    int       `json:"shares"`
	Price     string    `json:"price"`
	Type      TradeType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// TradeRequest - what the client submits to buy or sell. Shares stays a
// string so the engine can reject blank and non-numeric input itself.
type TradeRequest struct {
	Symbol string `json:"symbol" form:"symbol"`
	Shares string `json:"shares" form:"shares"`
}

// RegisterRequest - registration form fields.
type RegisterRequest struct {
	Username     string `json:"username" form:"username"`
	Password     string `json:"password" form:"password"`
	Confirmation string `json:"confirmation" form:"confirmation"`
}

// LoginRequest - login form fields.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// PortfolioRow is one display row of the portfolio view.
type PortfolioRow struct {
	Symbol           string  `json:"symbol"`
	Company          string  `json:"company"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	YearlyHigh       float64 `json:"yearly_high"`
	YearlyLow        float64 `json:"yearly_low"`
	Change           float64 `json:"change"`
	ChangePercent    string  `json:"change_percent"`
	ChangeSign       string  `json:"change_sign"` // "positive", "negative" or "unchanged"
	Price            string  `json:"price"`
	Shares           int     `json:"shares"`
	Value            string  `json:"value"`
	PriceUnavailable bool    `json:"price_unavailable"`
}

// PortfolioResponse - what we send back for the portfolio view.
type PortfolioResponse struct {
	Stocks      []PortfolioRow `json:"stocks"`
	CashBalance money.Amount   `json:"cash_balance"`
	TotalValue  money.Amount   `json:"total_value"`
}

// HistoryRow is one display row of the transaction history.
type HistoryRow struct {
	Stock   string `json:"stock"`
	Company string `json:"company"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Shares  int    `json:"shares"`
	Value   string `json:"value"`
	Type    string `json:"type"`
}
