// Package match walks a section's token stream, queries the term
// dictionaries for candidates, and resolves overlaps into the final
// entity set.
package match

import (
	"context"
	"fmt"

	"github.com/ontotag/ontotag/pkg/doc"
	"github.com/ontotag/ontotag/pkg/normalize"
	"github.com/ontotag/ontotag/pkg/termdict"
)

// Policy selects how overlapping candidates are reduced.
type Policy int

const (
	// LongestWins keeps, per group of mutually overlapping candidates,
	// the one with the greatest token length; ties go to the earliest
	// start, then the highest source priority. Candidates still tied
	// after that are all kept.
	LongestWins Policy = iota
	// KeepAll disables overlap resolution entirely (full-recall mode).
	KeepAll
)

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "longest-wins":
		return LongestWins, nil
	case "keep-all":
		return KeepAll, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

func (p Policy) String() string {
	if p == KeepAll {
		return "keep-all"
	}
	return "longest-wins"
}

// Raw is a candidate entity before overlap resolution. Offsets are bytes
// into the section text.
type Raw struct {
	Start      int
	End        int
	TokenPos   int
	TokenLen   int
	Entry      *termdict.Entry
	Recognizer string
	Priority   int
}

// Options control one section's matching run.
type Options struct {
	Policy Policy
	// StepBudget caps the number of candidates generated per section, so
	// it only trips on the near-quadratic blowup of dense, highly
	// overlapping dictionaries, not on long benign documents. Zero means
	// unlimited. Exceeding it aborts the section with ErrBudgetExceeded;
	// the document is reported as unmatched, not crashed.
	StepBudget int
	// Boundaries are byte offsets that no candidate span may cross
	// (sentence ends, when sentence splitting is enabled upstream).
	Boundaries []int
}

// Section matches sec against all dictionaries and returns the resolved
// entities; the caller decides what to do with a partial failure.
func Section(ctx context.Context, sec *doc.Section, dicts []*termdict.Dictionary, norm normalize.Chain, opts Options) ([]doc.Entity, error) {
	raws, err := Candidates(ctx, sec, dicts, norm, opts)
	if err != nil {
		return nil, err
	}
	return Resolve(sec, raws, opts.Policy), nil
}

// Candidates produces the raw match set for one section: the full cross
// product of position, dictionary and match length, with no pruning.
// Every dictionary contributes independently; the merge happens in
// resolution. sec.Tokens must be populated; each token's Key is filled
// in from norm as a side effect.
func Candidates(ctx context.Context, sec *doc.Section, dicts []*termdict.Dictionary, norm normalize.Chain, opts Options) ([]Raw, error) {
	if len(sec.Tokens) == 0 || len(dicts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(sec.Tokens))
	for i, tok := range sec.Tokens {
		if tok.Key == "" {
			sec.Tokens[i].Key = norm.Apply(tok.Text)
		}
		keys[i] = sec.Tokens[i].Key
	}

	var raws []Raw
	var err error
	if opts.StepBudget == 0 && ctx.Done() == nil {
		raws = scanCandidates(sec, dicts, keys)
	} else {
		raws, err = walkCandidates(ctx, sec, dicts, keys, opts.StepBudget)
		if err != nil {
			return nil, err
		}
	}

	if len(opts.Boundaries) > 0 {
		raws = dropCrossing(raws, opts.Boundaries)
	}
	return raws, nil
}

// scanCandidates uses each dictionary's automaton to jump straight to the
// token positions that can match.
func scanCandidates(sec *doc.Section, dicts []*termdict.Dictionary, keys []string) []Raw {
	var raws []Raw
	for _, dict := range dicts {
		for _, hit := range dict.Scan(keys) {
			raws = append(raws, newRaw(sec, dict, hit.Pos, hit.Entry, hit.Length))
		}
	}
	return raws
}

// walkCandidates queries every dictionary at every token position,
// checking the cooperative budget between positions. Work is counted in
// candidates generated, the term that grows near-quadratically on
// pathological dictionary/text pairs.
func walkCandidates(ctx context.Context, sec *doc.Section, dicts []*termdict.Dictionary, keys []string, budget int) ([]Raw, error) {
	var raws []Raw
	for i := range keys {
		if budget > 0 && len(raws) > budget {
			return nil, fmt.Errorf("%w: %d candidates", ErrBudgetExceeded, len(raws))
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBudgetExceeded, err)
		}
		for _, dict := range dicts {
			for _, cand := range dict.Lookup(keys, i) {
				raws = append(raws, newRaw(sec, dict, i, cand.Entry, cand.Length))
			}
		}
	}
	return raws, nil
}

func newRaw(sec *doc.Section, dict *termdict.Dictionary, pos int, entry *termdict.Entry, length int) Raw {
	return Raw{
		Start:      sec.Tokens[pos].Start,
		End:        sec.Tokens[pos+length-1].End,
		TokenPos:   pos,
		TokenLen:   length,
		Entry:      entry,
		Recognizer: dict.Name(),
		Priority:   entry.Priority,
	}
}

// dropCrossing removes candidates whose span crosses a hard boundary.
// A span crosses a boundary b when start < b < end.
func dropCrossing(raws []Raw, boundaries []int) []Raw {
	kept := raws[:0]
	for _, r := range raws {
		crosses := false
		for _, b := range boundaries {
			if r.Start < b && b < r.End {
				crosses = true
				break
			}
		}
		if !crosses {
			kept = append(kept, r)
		}
	}
	return kept
}
