// internal/game/levels.go
//
// Static difficulty table for the generated opponent.
// Each tier carries the persona and instruction text embedded into the
// opponent's prompt, plus two relaxation probabilities that occasionally let
// the opponent blunder into handing the human a win. Both are drawn fresh and
// independently on every opponent turn, and are tuned softer as difficulty
// rises.

package game

import "errors"

// ErrUnknownLevel is returned by SelectLevel for an unrecognized tier key.
var ErrUnknownLevel = errors.New("no such level")

// LevelConfig is one entry of the difficulty table.
type LevelConfig struct {
	Persona          string  // who the opponent pretends to be
	Instruction      string  // tier-specific playing instructions
	RelaxEndingProb  float64 // chance the prompt permits ending on ん
	AllowReuseProb   float64 // chance the prompt permits reusing a played word
}

// levels is immutable after init; read-only lookups only.
var levels = map[Difficulty]LevelConfig{
	DifficultyEasy: {
		Persona:         "あなたはしりとりで遊ぶのが大好きな、のんびりした小学生です。",
		Instruction:     "簡単で身近な単語を選んでください。難しい言葉は使わないでください。",
		RelaxEndingProb: 0.30,
		AllowReuseProb:  0.20,
	},
	DifficultyMedium: {
		Persona:         "あなたはしりとりが得意な大学生です。",
		Instruction:     "普通の語彙で、少し工夫した単語を選んでください。",
		RelaxEndingProb: 0.15,
		AllowReuseProb:  0.10,
	},
	DifficultyHard: {
		Persona:         "あなたはしりとり全国大会で優勝したことのある達人です。",
		Instruction:     "相手が返しにくい、珍しい単語を選んでください。絶対にミスをしないでください。",
		RelaxEndingProb: 0.05,
		AllowReuseProb:  0.02,
	},
}

// LevelFor returns the config for d, falling back to the Easy entry for an
// unknown key. Lookup never fails so the orchestrator always has a persona.
func LevelFor(d Difficulty) LevelConfig {
	if cfg, ok := levels[d]; ok {
		return cfg
	}
	return levels[DifficultyEasy]
}

// SelectLevel assigns a difficulty to the match if level names a known tier.
// An unknown key is rejected with ErrUnknownLevel and leaves the match
// untouched.
func (m *Match) SelectLevel(level string) error {
	d := Difficulty(level)
	if _, ok := levels[d]; !ok {
		return ErrUnknownLevel
	}
	m.Difficulty = d
	return nil
}
