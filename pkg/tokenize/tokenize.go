// Package tokenize splits raw text into token spans for term matching.
// The rules are biomedical-aware: hyphenated compounds ("IL-6"), slash
// alternatives ("and/or") and letter-digit mixtures ("p53") stay single
// tokens unless splitting is requested.
package tokenize

import (
	"unicode"
	"unicode/utf8"
)

// Token is a span into the raw text it was produced from.
// Start and End are byte offsets, half-open.
type Token struct {
	Start int
	End   int
	Text  string
	// Key is the normalized comparison key. The tokenizer leaves it
	// empty; the matching pipeline fills it in.
	Key string
}

// Options control where token boundaries fall.
type Options struct {
	// SplitHyphen makes '-' a separator, so "IL-6" becomes ["IL", "6"].
	SplitHyphen bool
	// SplitSlash makes '/' a separator, so "and/or" becomes ["and", "or"].
	SplitSlash bool
}

// Tokenizer splits text deterministically: the same input always yields
// the same token sequence. It is immutable and safe for concurrent use.
type Tokenizer struct {
	opts Options
}

// New creates a Tokenizer with the given options.
func New(opts Options) *Tokenizer {
	return &Tokenizer{opts: opts}
}

// Options returns the configured options.
func (t *Tokenizer) Options() Options {
	return t.opts
}

// isJoiner reports whether r glues token characters together under the
// current options. Dash variants are treated like plain hyphens.
func (t *Tokenizer) isJoiner(r rune) bool {
	switch r {
	case '-', '–', '—':
		return !t.opts.SplitHyphen
	case '/':
		return !t.opts.SplitSlash
	case '\'', '’', '_':
		return true
	default:
		return false
	}
}

func (t *Tokenizer) isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || t.isJoiner(r)
}

// Tokenize splits text into tokens with byte spans. Tokens never overlap
// and never skip characters; separator runs are simply not covered by any
// span. Returns ErrInvalidUTF8 if text is not valid UTF-8.
func (t *Tokenizer) Tokenize(text string) ([]Token, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}

	out := make([]Token, 0, len(text)/6)
	i := 0
	for i < len(text) {
		// Skip separators.
		for i < len(text) {
			r, w := utf8.DecodeRuneInString(text[i:])
			if t.isTokenRune(r) {
				break
			}
			i += w
		}
		start := i

		// Consume token characters.
		for i < len(text) {
			r, w := utf8.DecodeRuneInString(text[i:])
			if !t.isTokenRune(r) {
				break
			}
			i += w
		}
		end := i

		// Joiners only glue; a token may not begin or end with one.
		start, end = t.trimJoiners(text, start, end)
		if start < end {
			out = append(out, Token{Start: start, End: end, Text: text[start:end]})
		}
	}
	return out, nil
}

// trimJoiners shrinks the span until it starts and ends on a letter or digit.
func (t *Tokenizer) trimJoiners(text string, start, end int) (int, int) {
	for start < end {
		r, w := utf8.DecodeRuneInString(text[start:end])
		if !t.isJoiner(r) {
			break
		}
		start += w
	}
	for start < end {
		r, w := utf8.DecodeLastRuneInString(text[start:end])
		if !t.isJoiner(r) {
			break
		}
		end -= w
	}
	return start, end
}

// Sentence is a half-open byte span covering one sentence, including any
// trailing whitespace up to the next sentence.
type Sentence struct {
	Start int
	End   int
}

// Sentences splits text into sentence spans on '.', '!' and '?' followed
// by whitespace. The spans cover the whole string: they are used as hard
// boundaries that no entity span may cross, not as a linguistic analysis.
func Sentences(text string) []Sentence {
	var out []Sentence
	start := 0
	i := 0
	for i < len(text) {
		r, w := utf8.DecodeRuneInString(text[i:])
		i += w
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Consume the whitespace run after the delimiter.
		j := i
		for j < len(text) {
			r2, w2 := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r2) {
				break
			}
			j += w2
		}
		if j > i {
			out = append(out, Sentence{Start: start, End: j})
			start = j
			i = j
		}
	}
	if start < len(text) || len(out) == 0 {
		out = append(out, Sentence{Start: start, End: len(text)})
	}
	return out
}

// RuneOffset converts a byte offset into text to a codepoint offset.
// Used when the caller configured codepoint offset reporting.
func RuneOffset(text string, byteOffset int) int {
	return utf8.RuneCountInString(text[:byteOffset])
}
