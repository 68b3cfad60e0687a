// internal/opponent/orchestrator.go
//
// Produces the opponent's move from an unreliable text-generation service.
// Responsibilities:
//   - Build the prompt from the match state and the difficulty tier's
//     persona/instruction, with two independent per-turn relaxation draws.
//   - Run a bounded retry loop: call the generator, strip the response down
//     to kana, escalate with a "kana only" directive when nothing usable
//     comes back.
//   - Hand the final candidate (possibly empty) to the match engine, which
//     applies the same validator as for human moves.
//
// Failure policy: a transport error or per-attempt timeout is terminal in the
// human's favor immediately; it does not burn the remaining retry budget.
// Exhausting the budget without a kana candidate resolves as "no word
// produced", also in the human's favor.

package opponent

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ymgn/shiritori-go/internal/game"
	"github.com/ymgn/shiritori-go/internal/kana"
)

const (
	defaultMaxAttempts    = 5
	defaultAttemptTimeout = 10 * time.Second

	kanaOnlyDirective = "ひらがなの単語だけを出力してください。説明や記号は一切書かないでください。"
)

// Generator is the external text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Orchestrator turns generator output into validated opponent moves.
type Orchestrator struct {
	gen            Generator
	roll           func() float64 // source for the relaxation draws
	maxAttempts    int
	attemptTimeout time.Duration
}

// Option mutates an Orchestrator during construction.
type Option func(*Orchestrator)

// WithRandSource replaces the relaxation-draw source (tests).
func WithRandSource(roll func() float64) Option {
	return func(o *Orchestrator) {
		if roll != nil {
			o.roll = roll
		}
	}
}

// WithMaxAttempts overrides the retry budget.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithAttemptTimeout overrides the per-attempt generation timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.attemptTimeout = d
		}
	}
}

// New constructs an Orchestrator around gen.
func New(gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:            gen,
		roll:           rand.Float64,
		maxAttempts:    defaultMaxAttempts,
		attemptTimeout: defaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PlayTurn produces and applies the opponent's move for m.
// Idempotent no-op when the match is terminal or it is not the opponent's
// turn. Returns true if the match became terminal during this call.
func (o *Orchestrator) PlayTurn(ctx context.Context, m *game.Match) bool {
	if m.Finished() || m.Turn != game.TurnOpponent {
		return false
	}

	cfg := game.LevelFor(m.Difficulty)
	relaxEnding := o.roll() < cfg.RelaxEndingProb
	allowReuse := o.roll() < cfg.AllowReuseProb
	prompt := buildPrompt(cfg, m, relaxEnding, allowReuse)

	candidate, err := o.generateCandidate(ctx, m.ID, prompt)
	if err != nil {
		log.Warn().Err(err).Str("match", m.ID).Msg("opponent generation failed")
		return m.FailOpponentMove("Geminiとの通信に失敗しました。")
	}
	return m.ResolveOpponentWord(candidate)
}

// generateCandidate runs the bounded retry loop and returns a kana candidate,
// an empty string when the budget is exhausted, or an error on the first
// transport failure.
func (o *Orchestrator) generateCandidate(ctx context.Context, matchID, prompt string) (string, error) {
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		raw, err := o.callOnce(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("attempt %d: %w", attempt, err)
		}
		if word := kana.ExtractKana(raw); word != "" {
			return word, nil
		}
		log.Debug().
			Str("match", matchID).
			Int("attempt", attempt).
			Str("raw", raw).
			Msg("no kana in response, retrying")
		prompt += "\n" + kanaOnlyDirective
	}
	return "", nil
}

// callOnce issues one generation call bounded by the per-attempt timeout.
func (o *Orchestrator) callOnce(ctx context.Context, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()
	return o.gen.Generate(cctx, prompt)
}

// buildPrompt assembles the instruction payload for one opponent turn.
// The history is always embedded; the prohibition sentences are dropped when
// the corresponding relaxation draw fires.
func buildPrompt(cfg game.LevelConfig, m *game.Match, relaxEnding, allowReuse bool) string {
	link := kana.EffectiveLastChar(m.CurrentWord)

	b := strings.Builder{}
	b.WriteString(cfg.Persona)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("しりとりの途中です。「%c」から始まる日本語の単語を1つだけ、ひらがなで答えてください。\n", link))
	b.WriteString("これまでに使われた単語: ")
	b.WriteString(strings.Join(m.UsedWords, "、"))
	b.WriteString("\n")
	if !allowReuse {
		b.WriteString("すでに使われた単語は答えないでください。\n")
	}
	if !relaxEnding {
		b.WriteString("「ん」で終わる単語は答えないでください。\n")
	}
	b.WriteString(cfg.Instruction)
	b.WriteString("\n単語以外の文章は書かないでください。")
	return b.String()
}
