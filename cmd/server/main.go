package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/finbook/papertrade/internal/auth"
	"github.com/finbook/papertrade/internal/common"
	"github.com/finbook/papertrade/internal/db"
	"github.com/finbook/papertrade/internal/handlers"
	"github.com/finbook/papertrade/internal/quote"
	"github.com/finbook/papertrade/internal/store"
	"github.com/finbook/papertrade/internal/trade"
)

func main() {
	// Load .env file if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	log := common.NewLogger(cfg.LogLevel)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}
	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("database connected")

	var quotes quote.Provider
	switch cfg.QuoteProvider {
	case "sim":
		quotes = quote.NewSim(time.Now().UnixNano())
		log.Info().Msg("using simulated quote provider")
	default:
		quotes = quote.NewYahoo()
	}

	st := store.NewPostgres(database)
	engine := trade.NewEngine(st, quotes, log)
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)

	server := handlers.New(cfg, log, st, quotes, engine, sessions)
	router := server.Router()

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
