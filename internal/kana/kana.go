// internal/kana/kana.go
//
// Kana normalization helpers for shiritori chaining.
// Responsibilities:
//   - Normalize small-form kana (ゃ, っ, ...) to their full-size counterparts.
//   - Compute the "effective" linking character of a word, ignoring trailing
//     long-vowel marks (ー).
//   - Classify candidate words: hiragana + ー only.
//   - Extract the kana portion of arbitrary model output (sanitization).
//
// Shiritori links on the *sound* at a word boundary, so きしゃ chains on や,
// not ゃ, and りんごー chains on ご. Everything here is pure and allocation
// light; the game engine calls these on every move.

package kana

import "strings"

// smallToLarge maps each small-form hiragana to its full-size equivalent.
var smallToLarge = map[rune]rune{
	'ぁ': 'あ', 'ぃ': 'い', 'ぅ': 'う', 'ぇ': 'え', 'ぉ': 'お',
	'ゃ': 'や', 'ゅ': 'ゆ', 'ょ': 'よ',
	'っ': 'つ',
	'ゎ': 'わ',
	'ゕ': 'か', 'ゖ': 'け',
}

// LongVowelMark is the katakana-hiragana prolonged sound mark (ー).
const LongVowelMark = 'ー'

// Normalize maps a small-form kana rune to its full-size form.
// All other runes pass through unchanged.
func Normalize(r rune) rune {
	if n, ok := smallToLarge[r]; ok {
		return n
	}
	return r
}

// IsHiragana reports whether r falls inside the hiragana block
// (ぁ U+3041 through ゖ U+3096).
func IsHiragana(r rune) bool {
	return r >= 'ぁ' && r <= 'ゖ'
}

// IsWordRune reports whether r may appear in a playable word:
// hiragana or the long-vowel mark.
func IsWordRune(r rune) bool {
	return IsHiragana(r) || r == LongVowelMark
}

// IsKanaWord reports whether s is a non-empty run of playable runes.
func IsKanaWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsWordRune(r) {
			return false
		}
	}
	return true
}

// ExtractKana strips every rune outside the playable class from s.
// Used to salvage a word from noisy generated text ("「りんご」です！" → りんごです).
func ExtractKana(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if IsWordRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FirstChar returns the normalized first rune of word, or 0 if empty.
func FirstChar(word string) rune {
	for _, r := range word {
		return Normalize(r)
	}
	return 0
}

// EffectiveLastChar returns the sound-bearing final character of word:
// trailing long-vowel marks are stripped, then the last rune is normalized.
// Returns 0 for an empty or all-ー word.
func EffectiveLastChar(word string) rune {
	runes := []rune(word)
	i := len(runes) - 1
	for i >= 0 && runes[i] == LongVowelMark {
		i--
	}
	if i < 0 {
		return 0
	}
	return Normalize(runes[i])
}
