// internal/httpserver/server.go
//
// HTTP server wiring for the shiritori backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): GET /api/game, POST /api/game/word,
//     POST /api/game/opponent, POST /api/game/reset, POST /api/game/level.
//   - Auth + profile/stat endpoints: mounted in routes_auth.go.
//   - Match identity via an HttpOnly session cookie; live state in the match
//     store, finished matches persisted to SQLite.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every game endpoint responds with a full match snapshot; errors never
//     leave the engine, they are part of the snapshot's message fields.
//   - The host serializes requests per match at the handler level: the
//     engine itself assumes one in-flight move per match.

package httpserver

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ymgn/shiritori-go/internal/game"
	"github.com/ymgn/shiritori-go/internal/history"
	"github.com/ymgn/shiritori-go/internal/opponent"
	"github.com/ymgn/shiritori-go/internal/store"
)

const matchCookieName = "shiritori_match"

// Server bundles router, live match store, opponent orchestrator, and the
// SQLite handle used for users and match history.
type Server struct {
	r       *chi.Mux
	store   store.Store
	opp     *opponent.Orchestrator
	db      *sql.DB
	history *history.Store

	mu      sync.Mutex            // guards locks
	locks   map[string]*sync.Mutex // per-match serialization
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, opp *opponent.Orchestrator, db *sql.DB) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		store:   st,
		opp:     opp,
		db:      db,
		history: history.NewStore(db),
		locks:   make(map[string]*sync.Mutex),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(60 * time.Second)) // opponent turns can take several generation attempts
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"shiritori-go","endpoints":["/health","GET /api/game","POST /api/game/word","POST /api/game/opponent","POST /api/game/reset","POST /api/game/level","/api/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game endpoints — OPTIONAL AUTH (guests can play)
	s.r.Route("/api/game", func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Get("/", s.handleStatus)
		r.Post("/word", s.handleWord)
		r.Post("/opponent", s.handleOpponent)
		r.Post("/reset", s.handleReset)
		r.Post("/level", s.handleLevel)
	})

	// Auth + profile/stats + leaderboard
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ GAME ---------------------------------------

// matchLock returns the serialization lock for a match ID.
func (s *Server) matchLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// matchForRequest loads the caller's match via the session cookie, creating a
// fresh match (and cookie) on first contact.
func (s *Server) matchForRequest(w http.ResponseWriter, r *http.Request) (*game.Match, error) {
	if c, err := r.Cookie(matchCookieName); err == nil && c.Value != "" {
		if m, err := s.store.Get(r.Context(), c.Value); err == nil {
			return m, nil
		}
		// Stale cookie: fall through and start over.
	}

	m := game.NewMatch()
	if err := s.store.Save(r.Context(), m); err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     matchCookieName,
		Value:    m.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("NODE_ENV") == "production",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(7 * 24 * time.Hour),
	})
	return m, nil
}

// handleStatus returns the current match snapshot, creating a match if the
// caller has none yet.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	m, err := s.matchForRequest(w, r)
	if err != nil {
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(m.Snapshot(false))
}

// wordReq is the body of POST /api/game/word.
type wordReq struct {
	Word string `json:"word"`
}

// handleWord applies a human move and, if the match just ended, persists the
// result.
func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	var req wordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	m, err := s.matchForRequest(w, r)
	if err != nil {
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}

	l := s.matchLock(m.ID)
	l.Lock()
	justFinished := m.ApplyPlayerWord(req.Word)
	l.Unlock()

	if err := s.store.Save(r.Context(), m); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	if justFinished {
		s.persistResult(w, r, m)
	}
	_ = json.NewEncoder(w).Encode(m.Snapshot(justFinished))
}

// handleOpponent lets the orchestrator play the opponent's turn.
func (s *Server) handleOpponent(w http.ResponseWriter, r *http.Request) {
	m, err := s.matchForRequest(w, r)
	if err != nil {
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}

	l := s.matchLock(m.ID)
	l.Lock()
	justFinished := s.opp.PlayTurn(r.Context(), m)
	l.Unlock()

	if err := s.store.Save(r.Context(), m); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	if justFinished {
		s.persistResult(w, r, m)
	}
	_ = json.NewEncoder(w).Encode(m.Snapshot(justFinished))
}

// handleReset starts the match over, keeping the selected difficulty.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	m, err := s.matchForRequest(w, r)
	if err != nil {
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}

	l := s.matchLock(m.ID)
	l.Lock()
	m.Reset()
	l.Unlock()

	if err := s.store.Save(r.Context(), m); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(m.Snapshot(false))
}

// levelReq/levelRes are the payloads of POST /api/game/level.
type levelReq struct {
	Level string `json:"level"`
}
type levelRes struct {
	Status  string `json:"status"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

// handleLevel selects the opponent difficulty for the caller's match.
// An unknown tier is rejected without touching the match.
func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	var req levelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	m, err := s.matchForRequest(w, r)
	if err != nil {
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}

	l := s.matchLock(m.ID)
	l.Lock()
	err = m.SelectLevel(req.Level)
	l.Unlock()
	if err != nil {
		if errors.Is(err, game.ErrUnknownLevel) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(levelRes{Status: "error", Message: "no such level: " + req.Level})
			return
		}
		http.Error(w, `{"error":"select_failed"}`, http.StatusInternalServerError)
		return
	}

	if err := s.store.Save(r.Context(), m); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(levelRes{Status: "success", Level: string(m.Difficulty)})
}

// persistResult writes the finished match to SQLite and, for registered
// users, bumps aggregate stats. All best-effort: a history failure never
// breaks the response.
func (s *Server) persistResult(w http.ResponseWriter, r *http.Request, m *game.Match) {
	res := history.Result{
		MatchID:     m.ID,
		Difficulty:  string(m.Difficulty),
		Outcome:     string(m.Status),
		ChainLength: m.ChainLength(),
		FinishedAt:  time.Now().UTC(),
	}
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	if me != nil {
		res.UserID = me.ID
	} else {
		res.AnonymousID = s.ensureAnonID(w, r)
	}

	if err := s.history.InsertResult(r.Context(), res); err != nil {
		log.Warn().Err(err).Str("match", m.ID).Msg("insert match result")
	}
	if me != nil {
		if err := s.bumpStats(me.ID, m.Status == game.StatusWon, m.ChainLength()); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}
}

// bumpStats updates a user's aggregates inside a transaction.
func (s *Server) bumpStats(userID string, won bool, chain int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var played, wins, losses, best int
	row := tx.QueryRow(`SELECT games_played, wins, losses, best_chain FROM users WHERE id=?`, userID)
	if err := row.Scan(&played, &wins, &losses, &best); err != nil {
		return err
	}
	played++
	if won {
		wins++
	} else {
		losses++
	}
	if chain > best {
		best = chain
	}
	if _, err := tx.Exec(`UPDATE users SET games_played=?, wins=?, losses=?, best_chain=? WHERE id=?`,
		played, wins, losses, best, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// ------------------------------- anon ID -----------------------------------

const anonCookieName = "shiritori_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to associate guest matches with a stable identifier.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("NODE_ENV") == "production",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
