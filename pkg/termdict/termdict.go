// Package termdict builds and queries the term dictionary.
//
// A dictionary is built once from a term source and is immutable
// afterwards; that immutability is what makes lock-free concurrent reads
// from many matcher goroutines safe. Two query paths serve the matcher:
// a first-token index for positional lookup, and an Aho-Corasick
// automaton over whole normalized phrases for document-level scans.
// Both are exhaustive and agree on every input.
package termdict

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/ontotag/ontotag/pkg/normalize"
	"github.com/ontotag/ontotag/pkg/termsource"
	"github.com/ontotag/ontotag/pkg/tokenize"
)

// keySep joins token keys into phrase patterns. Token text cannot contain
// control characters, so the separator never collides with key content.
const keySep = "\x1f"

// Entry is one dictionary term: the normalized token-key sequence of its
// surface form plus the concept it maps to. Entries are created at build
// time and never mutated.
type Entry struct {
	Keys          []string
	ConceptID     string
	Type          string
	PreferredForm string
	Resource      string
	Extra         []string
	Priority      int
}

// Candidate is a positional lookup result: an entry whose key sequence
// matches the token stream at the queried position.
type Candidate struct {
	Entry *Entry
	// Length is the match length in tokens.
	Length int
}

// Hit is a scan result: a candidate anchored at a token position.
type Hit struct {
	// Pos is the index of the first matched token.
	Pos    int
	Entry  *Entry
	Length int
}

// Dictionary indexes term entries for fast prefix lookup.
type Dictionary struct {
	name     string
	normName string
	priority int
	size     int

	// first maps a normalized token key to all entries whose key sequence
	// begins with it, ordered by descending phrase length.
	first map[string][]*Entry

	// phrase automaton: one pattern per distinct key sequence.
	patterns      []string
	patternCount  []int // tokens per pattern
	patternFirst  []string
	patternChecks [][]*Entry
	ac            *ahocorasick.Automaton

	warnings []error
}

// Build reads the source to exhaustion and indexes every valid row.
// Malformed rows (*termsource.RowError, empty tokenization) are skipped
// and recorded as warnings; a partial dictionary is valid. Any other
// source error aborts the build.
func Build(name string, src termsource.Source, tok *tokenize.Tokenizer, norm normalize.Chain, priority int) (*Dictionary, error) {
	d := &Dictionary{
		name:     name,
		normName: norm.Name(),
		priority: priority,
		first:    make(map[string][]*Entry),
	}
	phraseIndex := make(map[string]int)

	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		var rowErr *termsource.RowError
		if errors.As(err, &rowErr) {
			d.warnings = append(d.warnings, rowErr)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("termdict %s: %w", name, err)
		}

		// The TSV reader screens for this, but programmatic sources reach
		// Build directly.
		if row.ConceptID == "" {
			d.warnings = append(d.warnings, &termsource.RowError{
				Reason: fmt.Sprintf("term %q has no concept id", row.Term),
			})
			continue
		}

		toks, err := tok.Tokenize(row.Term)
		if err != nil || len(toks) == 0 {
			d.warnings = append(d.warnings, &termsource.RowError{
				Reason: fmt.Sprintf("term %q yields no tokens", row.Term),
			})
			continue
		}
		keys := make([]string, len(toks))
		for i, t := range toks {
			keys[i] = norm.Apply(t.Text)
		}

		entryPriority := priority
		if row.Priority != 0 {
			entryPriority = row.Priority
		}
		entry := &Entry{
			Keys:          keys,
			ConceptID:     row.ConceptID,
			Type:          row.Type,
			PreferredForm: row.PreferredForm,
			Resource:      row.Resource,
			Extra:         row.Extra,
			Priority:      entryPriority,
		}
		d.size++
		d.first[keys[0]] = append(d.first[keys[0]], entry)

		phrase := strings.Join(keys, keySep)
		idx, ok := phraseIndex[phrase]
		if !ok {
			idx = len(d.patterns)
			phraseIndex[phrase] = idx
			d.patterns = append(d.patterns, phrase)
			d.patternCount = append(d.patternCount, len(keys))
			d.patternFirst = append(d.patternFirst, keys[0])
			d.patternChecks = append(d.patternChecks, nil)
		}
		d.patternChecks[idx] = append(d.patternChecks[idx], entry)
	}

	for key, entries := range d.first {
		sort.SliceStable(entries, func(i, j int) bool {
			return len(entries[i].Keys) > len(entries[j].Keys)
		})
		d.first[key] = entries
	}

	if len(d.patterns) > 0 {
		delimited := make([]string, len(d.patterns))
		for i, p := range d.patterns {
			// Surrounding separators force whole-token alignment.
			delimited[i] = keySep + p + keySep
		}
		ac, err := ahocorasick.NewBuilder().
			AddStrings(delimited).
			SetMatchKind(ahocorasick.LeftmostLongest).
			SetPrefilter(true).
			Build()
		if err != nil {
			return nil, fmt.Errorf("termdict %s: automaton: %w", name, err)
		}
		d.ac = ac
	}

	return d, nil
}

// Name identifies the dictionary (used as the recognizer id on entities).
func (d *Dictionary) Name() string { return d.name }

// NormalizerName reports the normalizer configuration the keys were built
// with. The pipeline refuses to match with a different one.
func (d *Dictionary) NormalizerName() string { return d.normName }

// Priority is the dictionary's source priority for overlap tie-breaking.
func (d *Dictionary) Priority() int { return d.priority }

// Len reports the number of indexed entries.
func (d *Dictionary) Len() int { return d.size }

// Warnings lists the rows skipped during the build.
func (d *Dictionary) Warnings() []error { return d.warnings }

// Lookup returns every entry whose full key sequence matches keys[i:],
// for every length, not just the longest. Overlap policy is decided
// later; this stage never prunes. Cost is proportional to the number of
// entries sharing keys[i], independent of dictionary size.
func (d *Dictionary) Lookup(keys []string, i int) []Candidate {
	entries := d.first[keys[i]]
	if len(entries) == 0 {
		return nil
	}
	var out []Candidate
	for _, entry := range entries {
		n := len(entry.Keys)
		if i+n > len(keys) {
			continue
		}
		if !equalKeys(entry.Keys, keys[i:i+n]) {
			continue
		}
		out = append(out, Candidate{Entry: entry, Length: n})
	}
	return out
}

// Scan finds every dictionary phrase occurrence in the key sequence via
// the automaton. Results are equivalent to calling Lookup at every
// position; the automaton path skips positions that cannot start a term.
func (d *Dictionary) Scan(keys []string) []Hit {
	if d.ac == nil || len(keys) == 0 {
		return nil
	}
	// Rebuild the delimited haystack and remember where each token starts.
	var b strings.Builder
	starts := make([]int, len(keys))
	b.WriteString(keySep)
	for i, k := range keys {
		starts[i] = b.Len()
		b.WriteString(k)
		b.WriteString(keySep)
	}
	haystack := b.String()

	posOf := make(map[int]int, len(keys))
	for i, off := range starts {
		posOf[off] = i
	}

	var out []Hit
	for _, m := range d.ac.FindAllOverlapping([]byte(haystack)) {
		pos, ok := posOf[m.Start+len(keySep)]
		if !ok {
			continue
		}
		for _, entry := range d.patternChecks[m.PatternID] {
			out = append(out, Hit{Pos: pos, Entry: entry, Length: d.patternCount[m.PatternID]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos != out[j].Pos {
			return out[i].Pos < out[j].Pos
		}
		return out[i].Length > out[j].Length
	})
	return out
}

func equalKeys(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
