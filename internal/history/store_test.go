package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	schema := `
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
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func addUser(t *testing.T, db *sql.DB, id, name string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, name, "x", time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
}

func TestInsertResultIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	s := NewStore(db)

	r := Result{MatchID: "m1", AnonymousID: "anon1", Difficulty: "easy", Outcome: "won", ChainLength: 4, FinishedAt: time.Now()}
	if err := s.InsertResult(ctx, r); err != nil {
		t.Fatalf("InsertResult: %v", err)
	}
	if err := s.InsertResult(ctx, r); err != nil {
		t.Fatalf("InsertResult (repeat): %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM matches`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count %d, want 1", n)
	}
}

func TestRecentForUser(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	s := NewStore(db)
	addUser(t, db, "u1", "alice")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		err := s.InsertResult(ctx, Result{
			MatchID: id, UserID: "u1", Difficulty: "easy", Outcome: "lost",
			ChainLength: i + 1, FinishedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertResult: %v", err)
		}
	}

	out, err := s.RecentForUser(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentForUser: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len %d, want 2", len(out))
	}
	if out[0].MatchID != "m3" || out[1].MatchID != "m2" {
		t.Errorf("order %s, %s, want newest first", out[0].MatchID, out[1].MatchID)
	}
}

func TestLeaderboardRanksByChainLength(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	s := NewStore(db)
	addUser(t, db, "u1", "alice")
	addUser(t, db, "u2", "bob")

	now := time.Now()
	_ = s.InsertResult(ctx, Result{MatchID: "m1", UserID: "u1", Difficulty: "easy", Outcome: "won", ChainLength: 3, FinishedAt: now})
	_ = s.InsertResult(ctx, Result{MatchID: "m2", UserID: "u1", Difficulty: "hard", Outcome: "lost", ChainLength: 9, FinishedAt: now})
	_ = s.InsertResult(ctx, Result{MatchID: "m3", UserID: "u2", Difficulty: "easy", Outcome: "won", ChainLength: 5, FinishedAt: now})
	// Guests never rank.
	_ = s.InsertResult(ctx, Result{MatchID: "m4", AnonymousID: "anon", Difficulty: "easy", Outcome: "won", ChainLength: 99, FinishedAt: now})

	rows, err := s.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len %d, want 2", len(rows))
	}
	if rows[0].Username != "alice" || rows[0].ChainLength != 9 {
		t.Errorf("top row %+v, want alice with 9", rows[0])
	}
	if rows[1].Username != "bob" || rows[1].ChainLength != 5 {
		t.Errorf("second row %+v, want bob with 5", rows[1])
	}
}

func TestClaimAnonMatches(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	s := NewStore(db)
	addUser(t, db, "u1", "alice")

	_ = s.InsertResult(ctx, Result{MatchID: "m1", AnonymousID: "anon1", Difficulty: "easy", Outcome: "won", ChainLength: 2, FinishedAt: time.Now()})
	if err := s.ClaimAnonMatches(ctx, "anon1", "u1"); err != nil {
		t.Fatalf("ClaimAnonMatches: %v", err)
	}

	out, err := s.RecentForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentForUser: %v", err)
	}
	if len(out) != 1 || out[0].MatchID != "m1" {
		t.Errorf("claimed matches %v, want m1 owned by u1", out)
	}
}
