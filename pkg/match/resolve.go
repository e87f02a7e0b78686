package match

import (
	"sort"

	"github.com/ontotag/ontotag/pkg/doc"
)

// Resolve reduces raw candidates to the final entity set for one section.
// It is a pure function of the raw match set: the input is sorted into a
// total order first, so any input ordering produces identical output.
func Resolve(sec *doc.Section, raws []Raw, policy Policy) []doc.Entity {
	if len(raws) == 0 {
		return nil
	}

	sortRaws(raws)

	if policy == KeepAll {
		return materialize(sec, raws)
	}

	var winners []Raw
	group := []Raw{raws[0]}
	maxEnd := raws[0].End
	for _, r := range raws[1:] {
		// Two spans overlap when their intervals intersect; a group is a
		// chain of pairwise-overlapping spans.
		if r.Start < maxEnd {
			group = append(group, r)
			if r.End > maxEnd {
				maxEnd = r.End
			}
			continue
		}
		winners = append(winners, pickWinners(group)...)
		group = append(group[:0], r)
		maxEnd = r.End
	}
	winners = append(winners, pickWinners(group)...)

	return materialize(sec, winners)
}

// pickWinners keeps the best-ranked candidates of one overlap group:
// greatest token length, then earliest start, then highest priority.
// Candidates still tied on all three are all kept rather than dropped
// arbitrarily; the total sort order makes the result deterministic.
func pickWinners(group []Raw) []Raw {
	best := group[0]
	for _, r := range group[1:] {
		if rankLess(best, r) {
			best = r
		}
	}
	var out []Raw
	for _, r := range group {
		if r.TokenLen == best.TokenLen && r.Start == best.Start && r.Priority == best.Priority {
			out = append(out, r)
		}
	}
	return out
}

// rankLess reports whether b outranks a under the longest-wins policy.
func rankLess(a, b Raw) bool {
	if a.TokenLen != b.TokenLen {
		return a.TokenLen < b.TokenLen
	}
	if a.Start != b.Start {
		return a.Start > b.Start
	}
	return a.Priority < b.Priority
}

// sortRaws imposes the total order: start ascending, longer span first,
// priority descending, then recognizer and concept id so that equal-rank
// candidates always come out in the same order.
func sortRaws(raws []Raw) {
	sort.SliceStable(raws, func(i, j int) bool {
		a, b := raws[i], raws[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End > b.End
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Recognizer != b.Recognizer {
			return a.Recognizer < b.Recognizer
		}
		return a.Entry.ConceptID < b.Entry.ConceptID
	})
}

// materialize copies raw matches into entities, slicing the matched text
// from the raw section text so the offset round-trip law holds by
// construction.
func materialize(sec *doc.Section, raws []Raw) []doc.Entity {
	out := make([]doc.Entity, 0, len(raws))
	for _, r := range raws {
		entry := r.Entry
		out = append(out, doc.Entity{
			Start:         r.Start,
			End:           r.End,
			Text:          sec.Text[r.Start:r.End],
			ConceptID:     entry.ConceptID,
			Type:          entry.Type,
			PreferredForm: entry.PreferredForm,
			Extra:         entry.Extra,
			Recognizer:    r.Recognizer,
			Priority:      r.Priority,
		})
	}
	return out
}
