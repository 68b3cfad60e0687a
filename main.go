// main.go
//
// Process bootstrap for the shiritori Go server.
// Loads .env, configures logging, opens/migrates SQLite, builds the Gemini
// client and opponent orchestrator, and starts the HTTP server.
//
// Environment variables:
//   PORT                HTTP port (default 5175)
//   LOG_LEVEL           zerolog level (default info)
//   DB_PATH             SQLite file (default ./data/app.db)
//   GEMINI_API_KEY      API key for the text-generation service (required)
//   GEMINI_MODEL        model name (default gemini-1.5-flash)
//   GEMINI_TIMEOUT_SEC  per-attempt generation timeout (default 10)
//   JWT_SECRET          auth token signing secret

package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ymgn/shiritori-go/internal/gemini"
	"github.com/ymgn/shiritori-go/internal/httpserver"
	"github.com/ymgn/shiritori-go/internal/opponent"
	"github.com/ymgn/shiritori-go/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required")
	}

	db, err := openDB(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	gen := gemini.New(apiKey,
		gemini.WithModel(getEnv("GEMINI_MODEL", "gemini-1.5-flash")),
		gemini.WithTimeout(time.Duration(envInt("GEMINI_TIMEOUT_SEC", 10))*time.Second),
	)
	opp := opponent.New(gen,
		opponent.WithAttemptTimeout(time.Duration(envInt("GEMINI_TIMEOUT_SEC", 10))*time.Second),
	)

	mem := store.NewMemoryStore()
	srv := httpserver.New(mem, opp, db)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting shiritori-go")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
