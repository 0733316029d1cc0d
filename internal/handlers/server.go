// Package handlers wires the HTTP surface: routing, middleware, session
// auth and the request handlers themselves.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/finbook/papertrade/internal/auth"
	"github.com/finbook/papertrade/internal/common"
	"github.com/finbook/papertrade/internal/quote"
	"github.com/finbook/papertrade/internal/store"
	"github.com/finbook/papertrade/internal/trade"
)

// sessionCookie is the name of the cookie carrying the session token.
const sessionCookie = "session"

// Server bundles the dependencies shared by all handlers.
type Server struct {
	cfg      common.Config
	log      zerolog.Logger
	store    store.Store
	quotes   quote.Provider
	engine   *trade.Engine
	sessions *auth.Sessions
}

// New creates the HTTP server façade.
func New(cfg common.Config, log zerolog.Logger, st store.Store, quotes quote.Provider, engine *trade.Engine, sessions *auth.Sessions) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		store:    st,
		quotes:   quotes,
		engine:   engine,
		sessions: sessions,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.Use(noCache())

	// Open routes
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})
	router.GET("/register", s.RegisterInfo)
	router.POST("/register", s.Register)
	router.GET("/login", s.SessionProbe)
	router.POST("/login", s.Login)
	router.GET("/logout", s.Logout)

	// Everything else requires an authenticated session
	authed := router.Group("/", s.requireAuth())
	{
		authed.GET("/", s.Index)
		authed.GET("/buy", s.BuyForm)
		authed.POST("/buy", s.Buy)
		authed.GET("/sell", s.SellForm)
		authed.POST("/sell", s.Sell)
		authed.GET("/quote", s.QuoteForm)
		authed.POST("/quote", s.Quote)
		authed.GET("/history", s.History)
		authed.GET("/ws/prices", s.StreamPrices)
	}

	return router
}
