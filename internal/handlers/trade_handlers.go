package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/finbook/papertrade/internal/models"
	"github.com/finbook/papertrade/internal/money"
	"github.com/finbook/papertrade/internal/trade"
	"github.com/finbook/papertrade/internal/view"
)

// respondTradeError maps engine errors to responses: rejections are the
// user's problem, anything else is ours.
func (s *Server) respondTradeError(c *gin.Context, err error) {
	var rej *trade.Rejection
	if errors.As(err, &rej) {
		c.JSON(http.StatusBadRequest, gin.H{"error": rej.Reason})
		return
	}
	s.log.Error().Err(err).Msg("trade failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Trade failed"})
}

// Index handles GET /: the portfolio view.
func (s *Server) Index(c *gin.Context) {
	ctx := c.Request.Context()
	id := accountID(c)

	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	positions, err := s.store.Positions(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio"})
		return
	}

	tickers := make([]string, 0, len(positions))
	for t := range positions {
		tickers = append(tickers, t)
	}

	names, err := s.store.ResolveCompanies(ctx, tickers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve companies"})
		return
	}

	// A provider outage leaves quotes empty; every holding then renders
	// as price-unavailable instead of disappearing.
	quotes, err := s.quotes.BatchLookup(ctx, tickers)
	if err != nil {
		quotes = nil
	}

	rows, holdingsValue := view.BuildPortfolio(positions, names, quotes)
	c.JSON(http.StatusOK, models.PortfolioResponse{
		Stocks:      rows,
		CashBalance: user.Cash,
		TotalValue:  user.Cash.Add(holdingsValue),
	})
}

// BuyForm handles GET /buy: the data the buy form needs.
func (s *Server) BuyForm(c *gin.Context) {
	user, err := s.store.UserByID(c.Request.Context(), accountID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cash": user.Cash})
}

// Buy handles POST /buy.
func (s *Server) Buy(c *gin.Context) {
	var req models.TradeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := s.engine.Buy(c.Request.Context(), accountID(c), req.Symbol, req.Shares)
	if err != nil {
		s.respondTradeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Purchase completed",
		"symbol":      receipt.Symbol,
		"shares":      receipt.Shares,
		"price":       receipt.UnitPrice,
		"total_cost":  receipt.Total,
		"new_balance": receipt.NewBalance,
		"holding":     receipt.NewHolding,
	})
}

// SellForm handles GET /sell: the tickers the user can sell.
func (s *Server) SellForm(c *gin.Context) {
	positions, err := s.store.Positions(c.Request.Context(), accountID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio"})
		return
	}

	held := make([]string, 0, len(positions))
	for ticker, shares := range positions {
		if shares > 0 {
			held = append(held, ticker)
		}
	}
	sort.Strings(held)
	c.JSON(http.StatusOK, gin.H{"active_stocks": held})
}

// Sell handles POST /sell.
func (s *Server) Sell(c *gin.Context) {
	var req models.TradeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := s.engine.Sell(c.Request.Context(), accountID(c), req.Symbol, req.Shares)
	if err != nil {
		s.respondTradeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Sale completed",
		"symbol":         receipt.Symbol,
		"shares":         receipt.Shares,
		"price":          receipt.UnitPrice,
		"total_proceeds": receipt.Total,
		"new_balance":    receipt.NewBalance,
		"holding":        receipt.NewHolding,
	})
}

// QuoteForm handles GET /quote.
func (s *Server) QuoteForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}

// Quote handles POST /quote: look a symbol up and register its company.
func (s *Server) Quote(c *gin.Context) {
	var req struct {
		Symbol string `json:"symbol" form:"symbol"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Same normalization the engine applies, so a whitespace-only field
	// gets the blank-field rejection rather than a lookup failure.
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol field cannot be blank"})
		return
	}

	q, err := s.quotes.Lookup(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'" + symbol + "' does not exist"})
		return
	}

	if err := s.store.EnsureCompany(c.Request.Context(), q.Symbol, q.Name); err != nil {
		s.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("company registration failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":  q.Symbol,
		"company": q.Name,
		"price":   money.FromFloat(q.Price).USD(),
	})
}

// History handles GET /history.
func (s *Server) History(c *gin.Context) {
	ctx := c.Request.Context()

	entries, err := s.store.LedgerEntries(ctx, accountID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trades"})
		return
	}

	seen := make(map[string]bool)
	var tickers []string
	for _, e := range entries {
		if !seen[e.Ticker] {
			seen[e.Ticker] = true
			tickers = append(tickers, e.Ticker)
		}
	}

	names, err := s.store.ResolveCompanies(ctx, tickers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve companies"})
		return
	}

	rows := view.BuildHistory(entries, names)
	c.JSON(http.StatusOK, gin.H{
		"transactions": rows,
		"count":        len(rows),
	})
}
