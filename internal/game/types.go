// internal/game/types.go
//
// Core type definitions for the shiritori game engine.
// Defines:
//   - Turn: whose move is expected next (human player or the generated opponent).
//   - Status: coarse match state (in progress / won / lost).
//   - Difficulty: opponent difficulty tier.
//   - Match: state for a single in-progress or finished match.
//   - Snapshot: the JSON view of a Match returned by every API entry point.

package game

// Turn identifies the party expected to move next.
// Wire values match what the front end switches on.
type Turn string

const (
	TurnHuman    Turn = "user"
	TurnOpponent Turn = "gemini"
)

// Status is the coarse match state. Won/Lost are from the human's
// point of view and are terminal until the match is reset.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Difficulty selects the opponent's LevelConfig entry.
// It is the only field that survives a reset.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Match holds the state of a single shiritori match.
// Mutated only by the engine entry points in engine.go, one move at a time.
type Match struct {
	ID            string     // Unique match identifier (random hex string).
	CurrentWord   string     // Most recently played word; empty before the first move.
	UsedWords     []string   // Chronological move history; doubles as the duplicate set.
	Turn          Turn       // Whose move is expected next.
	Status        Status     // Terminal once Won or Lost; frozen until reset.
	Difficulty    Difficulty // Survives Reset.
	LastMessage   string     // Outcome/explanation for the last processed move.
	OpponentError string     // Diagnostic set when the opponent's move failed; cleared per move.
}

// Snapshot is the read-only view of a Match handed to callers after every
// operation. Field names mirror the browser client's expectations.
type Snapshot struct {
	CurrentWord   string   `json:"current_word"`
	UsedWords     []string `json:"used_words"`
	PlayerTurn    Turn     `json:"player_turn"`
	Status        Status   `json:"status"`
	Difficulty    string   `json:"difficulty"`
	Message       string   `json:"message"`
	OpponentError string   `json:"gemini_error_message,omitempty"`
	GameOver      bool     `json:"game_over"`
	JustFinished  bool     `json:"just_finished"`
}

// Snapshot renders the match for a caller. justFinished reports whether the
// match became terminal during the operation that produced this snapshot,
// so the client can decide to navigate to a results view.
func (m *Match) Snapshot(justFinished bool) Snapshot {
	words := make([]string, len(m.UsedWords))
	copy(words, m.UsedWords)
	return Snapshot{
		CurrentWord:   m.CurrentWord,
		UsedWords:     words,
		PlayerTurn:    m.Turn,
		Status:        m.Status,
		Difficulty:    string(m.Difficulty),
		Message:       m.LastMessage,
		OpponentError: m.OpponentError,
		GameOver:      m.Status != StatusInProgress,
		JustFinished:  justFinished,
	}
}

// Finished reports whether the match is in a terminal state.
func (m *Match) Finished() bool { return m.Status != StatusInProgress }

// ChainLength is the number of words played so far.
func (m *Match) ChainLength() int { return len(m.UsedWords) }
