package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// PriceUpdate is one message on the price stream.
type PriceUpdate struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percent_change"`
	Timestamp     time.Time `json:"timestamp"`
}

// streamInterval is how often held tickers are re-quoted on the stream.
const streamInterval = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin frontends only; tighten behind a proxy
	},
}

// StreamPrices handles GET /ws/prices: a WebSocket stream of live quotes
// for every ticker the authenticated user holds. A failed provider call
// skips the tick; there is no retry.
func (s *Server) StreamPrices(c *gin.Context) {
	id := accountID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.log.Debug().Int("account", id).Msg("price stream opened")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			positions, err := s.store.Positions(ctx, id)
			if err != nil {
				s.log.Warn().Err(err).Msg("price stream: positions fetch failed")
				continue
			}

			symbols := make([]string, 0, len(positions))
			for sym, shares := range positions {
				if shares > 0 {
					symbols = append(symbols, sym)
				}
			}
			sort.Strings(symbols)

			quotes, err := s.quotes.BatchLookup(ctx, symbols)
			if err != nil {
				continue
			}

			now := time.Now()
			for _, q := range quotes {
				update := PriceUpdate{
					Symbol:        q.Symbol,
					Price:         q.Price,
					Change:        q.Change,
					PercentChange: q.PercentChange,
					Timestamp:     now,
				}
				if err := conn.WriteJSON(update); err != nil {
					s.log.Debug().Err(err).Msg("price stream closed")
					return
				}
			}
		}
	}
}
