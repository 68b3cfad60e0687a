// internal/history/store.go
//
// SQLite-backed record of finished matches.
// Live matches stay in the in-memory store; once a match turns terminal the
// HTTP layer writes one row here. Powers per-user match history and the
// longest-chain leaderboard.

package history

import (
	"context"
	"database/sql"
	"time"
)

// Result is one finished match.
type Result struct {
	MatchID     string `json:"matchId"`
	UserID      string `json:"userId,omitempty"`      // registered owner, if any
	AnonymousID string `json:"anonymousId,omitempty"` // guest owner, if any
	Difficulty  string `json:"difficulty"`
	Outcome     string `json:"outcome"` // "won" | "lost"
	ChainLength int    `json:"chainLength"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// LBRow is one leaderboard entry: a registered player's longest chain.
type LBRow struct {
	Username    string `json:"username"`
	ChainLength int    `json:"chainLength"`
	Difficulty  string `json:"difficulty"`
}

// Store wraps the matches table.
type Store struct{ db *sql.DB }

// NewStore constructs a Store over db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// InsertResult records a finished match. Re-inserting the same match ID is
// ignored, so retried requests stay idempotent.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO matches
            (id, user_id, anonymous_id, difficulty, outcome, chain_length, finished_at)
        VALUES (?,?,?,?,?,?,?)`,
		r.MatchID, nullable(r.UserID), nullable(r.AnonymousID),
		r.Difficulty, r.Outcome, r.ChainLength, r.FinishedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// RecentForUser returns a user's latest finished matches, newest first.
func (s *Store) RecentForUser(ctx context.Context, userID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, difficulty, outcome, chain_length, finished_at
        FROM matches WHERE user_id=?
        ORDER BY finished_at DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var r Result
		var finished string
		if err := rows.Scan(&r.MatchID, &r.Difficulty, &r.Outcome, &r.ChainLength, &finished); err != nil {
			return nil, err
		}
		r.UserID = userID
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Leaderboard returns the longest chains played by registered users.
// Ordered by chain length DESC, then earliest finish first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT u.username, MAX(m.chain_length), m.difficulty
        FROM matches m JOIN users u ON u.id = m.user_id
        GROUP BY u.id
        ORDER BY MAX(m.chain_length) DESC, MIN(m.finished_at) ASC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Username, &r.ChainLength, &r.Difficulty); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnonMatches transfers guest matches to a user account after auth.
func (s *Store) ClaimAnonMatches(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE matches SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`,
		userID, anonID)
	return err
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
