package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ymgn/shiritori-go/internal/game"
	"github.com/ymgn/shiritori-go/internal/opponent"
	"github.com/ymgn/shiritori-go/internal/store"
)

const testSchema = `
CREATE TABLE users (
    id TEXT PRIMARY KEY, username TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL, games_played INTEGER NOT NULL DEFAULT 0,
    wins INTEGER NOT NULL DEFAULT 0, losses INTEGER NOT NULL DEFAULT 0,
    best_chain INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE matches (
    id TEXT PRIMARY KEY, user_id TEXT, anonymous_id TEXT, difficulty TEXT NOT NULL,
    outcome TEXT NOT NULL, chain_length INTEGER NOT NULL DEFAULT 0, finished_at TEXT NOT NULL
);`

// scriptedGenerator plays back canned responses.
type scriptedGenerator struct {
	responses []string
	i         int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.i >= len(g.responses) {
		return "", nil
	}
	r := g.responses[g.i]
	g.i++
	return r, nil
}

// newTestClient spins up the server and a cookie-aware client.
func newTestClient(t *testing.T, responses ...string) (*http.Client, string) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	opp := opponent.New(
		&scriptedGenerator{responses: responses},
		opponent.WithRandSource(func() float64 { return 0.99 }),
	)
	s := New(store.NewMemoryStore(), opp, db)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	return &http.Client{Jar: jar}, ts.URL
}

// decodeSnapshot reads a snapshot body, failing the test on errors.
func decodeSnapshot(t *testing.T, resp *http.Response) game.Snapshot {
	t.Helper()
	defer resp.Body.Close()
	var snap game.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func postJSON(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := c.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestStatusCreatesMatch(t *testing.T) {
	c, base := newTestClient(t)

	resp, err := c.Get(base + "/api/game")
	if err != nil {
		t.Fatalf("GET /api/game: %v", err)
	}
	snap := decodeSnapshot(t, resp)
	if snap.PlayerTurn != game.TurnHuman || snap.GameOver {
		t.Errorf("fresh snapshot %+v", snap)
	}
	if snap.Difficulty != "easy" {
		t.Errorf("Difficulty %q, want easy", snap.Difficulty)
	}

	// Second request sees the same match via the cookie.
	resp2, err := c.Get(base + "/api/game")
	if err != nil {
		t.Fatalf("GET /api/game: %v", err)
	}
	snap2 := decodeSnapshot(t, resp2)
	if snap2.Message != snap.Message || len(snap2.UsedWords) != 0 {
		t.Errorf("second snapshot %+v differs", snap2)
	}
}

func TestFullTurnFlow(t *testing.T) {
	c, base := newTestClient(t, "ごりら")

	snap := decodeSnapshot(t, postJSON(t, c, base+"/api/game/word", map[string]string{"word": "りんご"}))
	if snap.CurrentWord != "りんご" || snap.PlayerTurn != game.TurnOpponent {
		t.Fatalf("after human move: %+v", snap)
	}

	snap = decodeSnapshot(t, postJSON(t, c, base+"/api/game/opponent", nil))
	if snap.CurrentWord != "ごりら" || snap.PlayerTurn != game.TurnHuman {
		t.Fatalf("after opponent move: %+v", snap)
	}
	if snap.GameOver || snap.JustFinished {
		t.Errorf("match should still be running: %+v", snap)
	}
	if len(snap.UsedWords) != 2 {
		t.Errorf("UsedWords %v, want 2 entries", snap.UsedWords)
	}
}

func TestOpponentFailureFinishesMatch(t *testing.T) {
	// Five garbage responses exhaust the retry budget.
	c, base := newTestClient(t, "!", "?", "#", "%", "&")

	decodeSnapshot(t, postJSON(t, c, base+"/api/game/word", map[string]string{"word": "りんご"}))
	snap := decodeSnapshot(t, postJSON(t, c, base+"/api/game/opponent", nil))
	if snap.Status != game.StatusWon || !snap.JustFinished {
		t.Fatalf("want just-finished win, got %+v", snap)
	}
	if snap.OpponentError == "" {
		t.Error("snapshot should carry the opponent diagnostic")
	}
}

func TestHumanLossIsPersistedOnce(t *testing.T) {
	c, base := newTestClient(t)

	// りん ends in ん: opener stored, match lost.
	snap := decodeSnapshot(t, postJSON(t, c, base+"/api/game/word", map[string]string{"word": "りん"}))
	if snap.Status != game.StatusLost || !snap.JustFinished {
		t.Fatalf("want just-finished loss, got %+v", snap)
	}
	if len(snap.UsedWords) != 1 || snap.UsedWords[0] != "りん" {
		t.Errorf("opener must be stored: %v", snap.UsedWords)
	}

	// Further moves are ignored and no longer flagged as just finished.
	snap = decodeSnapshot(t, postJSON(t, c, base+"/api/game/word", map[string]string{"word": "りす"}))
	if snap.JustFinished || snap.Status != game.StatusLost {
		t.Errorf("terminal match must stay frozen: %+v", snap)
	}
}

func TestLevelSelection(t *testing.T) {
	c, base := newTestClient(t)

	resp := postJSON(t, c, base+"/api/game/level", map[string]string{"level": "hard"})
	var res struct {
		Status string `json:"status"`
		Level  string `json:"level"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if res.Status != "success" || res.Level != "hard" {
		t.Errorf("level response %+v", res)
	}

	// Unknown tier rejected, match untouched.
	resp = postJSON(t, c, base+"/api/game/level", map[string]string{"level": "impossible"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	snap := decodeSnapshot(t, mustGet(t, c, base+"/api/game"))
	if snap.Difficulty != "hard" {
		t.Errorf("Difficulty %q, want hard kept after rejected selection", snap.Difficulty)
	}
}

func TestResetPreservesDifficulty(t *testing.T) {
	c, base := newTestClient(t)

	postJSON(t, c, base+"/api/game/level", map[string]string{"level": "medium"}).Body.Close()
	decodeSnapshot(t, postJSON(t, c, base+"/api/game/word", map[string]string{"word": "りんご"}))

	snap := decodeSnapshot(t, postJSON(t, c, base+"/api/game/reset", nil))
	if len(snap.UsedWords) != 0 || snap.CurrentWord != "" || snap.GameOver {
		t.Errorf("reset snapshot %+v", snap)
	}
	if snap.Difficulty != "medium" {
		t.Errorf("Difficulty %q, want medium preserved", snap.Difficulty)
	}
}

func mustGet(t *testing.T, c *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}
