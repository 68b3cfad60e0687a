// internal/game/engine.go
//
// Turn engine for a single shiritori match.
// Responsibilities:
//   - Create new matches with default state (human opens, easy difficulty).
//   - Apply human moves: trim, validate, transition per the rules verdict.
//   - Apply opponent candidates: same validator, but every rejection is
//     terminal in the human's favor because the opponent gets exactly one
//     candidate per turn.
//   - Reset matches in place, preserving difficulty.
//
// Notes:
//   - Terminal state freezes the match; every entry point is a no-op until
//     Reset is called.
//   - Each entry point reports whether the match became terminal during that
//     call, so the HTTP layer can persist results and the client can navigate
//     to the result view.
//   - The opening word is recorded into history before the losing-ending
//     check; later moves are recorded only on acceptance. The original game
//     behaves this way and players expect the opener to show up in the list.

package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ymgn/shiritori-go/internal/kana"
)

const openingMessage = "しりとりスタート！「り」から始まる言葉を入力してください。"

// NewMatch constructs a fresh match: human to move, easy difficulty.
func NewMatch() *Match {
	return &Match{
		ID:          randomID(),
		UsedWords:   []string{},
		Turn:        TurnHuman,
		Status:      StatusInProgress,
		Difficulty:  DifficultyEasy,
		LastMessage: openingMessage,
	}
}

// Reset returns the match to its initial state. Difficulty and ID survive;
// everything else goes back to defaults.
func (m *Match) Reset() {
	m.CurrentWord = ""
	m.UsedWords = []string{}
	m.Turn = TurnHuman
	m.Status = StatusInProgress
	m.LastMessage = openingMessage
	m.OpponentError = ""
}

// ApplyPlayerWord processes one human move. Returns true if the match became
// terminal during this call. Terminal matches and out-of-turn submissions are
// left unchanged; retryable rejections update only LastMessage.
func (m *Match) ApplyPlayerWord(raw string) bool {
	if m.Finished() {
		return false
	}
	m.OpponentError = ""
	if m.Turn != TurnHuman {
		m.LastMessage = "今はGeminiの番です。"
		return false
	}

	word := strings.TrimSpace(raw)
	if word == "" {
		m.LastMessage = "何も入力されていません。"
		return false
	}

	v := Validate(word, m)
	if !v.Accepted && !v.Terminal {
		m.LastMessage = rejectMessage(v.Reason, m)
		return false
	}

	// The opening word goes into history no matter how it ends.
	firstMove := m.CurrentWord == ""
	if firstMove {
		m.record(word)
	}

	if v.Terminal {
		// Losing words after the opener are not recorded; the chain keeps
		// its last legal word.
		m.Status = StatusLost
		m.LastMessage = lossMessage(v.Reason, word)
		return true
	}

	if !firstMove {
		m.record(word)
	}
	m.Turn = TurnOpponent
	m.LastMessage = fmt.Sprintf("「%s」ですね。次はGeminiの番です。", word)
	return false
}

// ResolveOpponentWord processes the opponent's single candidate for this
// turn. An empty candidate means the orchestrator could not extract a word;
// any rejection — retryable or terminal for a human — ends the match in the
// human's favor, with OpponentError saying which case occurred.
// Returns true if the match became terminal during this call.
func (m *Match) ResolveOpponentWord(candidate string) bool {
	if m.Finished() || m.Turn != TurnOpponent {
		return false
	}
	m.OpponentError = ""

	if candidate == "" {
		return m.opponentLoses("Geminiは有効な単語を生成できませんでした。")
	}

	v := Validate(candidate, m)
	switch {
	case v.Accepted:
		m.record(candidate)
		m.Turn = TurnHuman
		m.LastMessage = fmt.Sprintf("Geminiは「%s」と答えました。次はあなたの番です！", candidate)
		return false
	case v.Reason == ReasonDuplicate:
		return m.opponentLoses(fmt.Sprintf("Geminiは使用済みの単語「%s」を答えました。", candidate))
	case v.Reason == ReasonForbiddenEnding:
		return m.opponentLoses(fmt.Sprintf("Geminiの「%s」は「ん」で終わっています。", candidate))
	default:
		return m.opponentLoses(fmt.Sprintf("Geminiの「%s」はルール違反です。", candidate))
	}
}

// FailOpponentMove ends the match in the human's favor after an external
// generation failure (transport error or timeout). diagnostic lands in
// OpponentError. No-op on terminal matches or out of turn.
// Returns true if the match became terminal during this call.
func (m *Match) FailOpponentMove(diagnostic string) bool {
	if m.Finished() || m.Turn != TurnOpponent {
		return false
	}
	m.OpponentError = ""
	return m.opponentLoses(diagnostic)
}

// record appends word to the history and makes it the current word.
func (m *Match) record(word string) {
	m.UsedWords = append(m.UsedWords, word)
	m.CurrentWord = word
}

// opponentLoses marks the match won by the human with the given diagnostic.
func (m *Match) opponentLoses(diagnostic string) bool {
	m.Status = StatusWon
	m.Turn = TurnHuman
	m.LastMessage = "あなたの勝ちです！"
	m.OpponentError = diagnostic
	return true
}

// rejectMessage renders a retryable rejection for the human player.
func rejectMessage(reason RejectReason, m *Match) string {
	switch reason {
	case ReasonNotKana:
		return "ひらがなで入力してください。"
	case ReasonWrongOpening:
		return fmt.Sprintf("最初の言葉は「%c」から始めてください。", OpeningChar)
	case ReasonChainMismatch:
		return fmt.Sprintf("「%c」から始まる言葉を入力してください。", kana.EffectiveLastChar(m.CurrentWord))
	default:
		return "その言葉は使えません。"
	}
}

// lossMessage renders a terminal loss for the human player.
func lossMessage(reason RejectReason, word string) string {
	if reason == ReasonDuplicate {
		return fmt.Sprintf("「%s」はすでに使われています。あなたの負けです…", word)
	}
	return fmt.Sprintf("「%s」は「ん」で終わっています。あなたの負けです…", word)
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
