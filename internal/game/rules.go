// internal/game/rules.go
//
// Pure move validation for shiritori. One entry point, Validate, applied
// identically to human and opponent candidates; the engine maps the verdict
// to different state transitions per mover. Rule symmetry is what keeps the
// game fair, so no rule logic lives anywhere else.
//
// Checks run in order; the first failing check decides the verdict:
//   1. format      (hiragana + ー only)        → retryable rejection
//   2. opening     (first word starts with り) → retryable rejection
//   3. chaining    (first char links to the previous word) → retryable rejection
//   4. duplicate   (exact-string match against history)    → terminal loss
//   5. ending      (must not end in ん)                     → terminal loss

package game

import "github.com/ymgn/shiritori-go/internal/kana"

const (
	// OpeningChar is the required first character of the opening word.
	// The banner word is しりとり, so play starts from り.
	OpeningChar = 'り'

	// ForbiddenEnding ends the match against whoever plays it.
	ForbiddenEnding = 'ん'
)

// RejectReason says which rule a candidate broke.
type RejectReason int

const (
	ReasonNone RejectReason = iota
	ReasonNotKana
	ReasonWrongOpening
	ReasonChainMismatch
	ReasonDuplicate
	ReasonForbiddenEnding
)

// Verdict is the structured result of validating one candidate.
// Terminal implies the mover loses the match; Accepted and Terminal are
// mutually exclusive. A verdict that is neither accepted nor terminal is a
// retryable rejection: the mover may try again with no state change.
type Verdict struct {
	Accepted bool
	Terminal bool
	Reason   RejectReason
}

// Validate checks candidate against the current match state.
// It never mutates the match; callers apply the transition.
func Validate(candidate string, m *Match) Verdict {
	if !kana.IsKanaWord(candidate) {
		return Verdict{Reason: ReasonNotKana}
	}
	if m.CurrentWord == "" {
		if kana.FirstChar(candidate) != OpeningChar {
			return Verdict{Reason: ReasonWrongOpening}
		}
	} else if kana.FirstChar(candidate) != kana.EffectiveLastChar(m.CurrentWord) {
		return Verdict{Reason: ReasonChainMismatch}
	}
	// Duplicate comparison is exact-string on purpose: small-kana and
	// long-vowel variants count as distinct words.
	for _, w := range m.UsedWords {
		if w == candidate {
			return Verdict{Terminal: true, Reason: ReasonDuplicate}
		}
	}
	if kana.EffectiveLastChar(candidate) == ForbiddenEnding {
		return Verdict{Terminal: true, Reason: ReasonForbiddenEnding}
	}
	return Verdict{Accepted: true}
}
