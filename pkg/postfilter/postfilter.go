// Package postfilter provides ready-made document postfilters: submatch
// removal and a frequent-false-positive guard. All of them mutate the
// document in place after overlap resolution, the same way a caller-
// registered hook would.
package postfilter

import (
	"regexp"
	"strings"

	"github.com/orsinium-labs/stopwords"

	"github.com/ontotag/ontotag/pkg/doc"
)

// Submatches removes entities whose span is strictly contained in
// another entity's span. With SameTypeOnly set, containment only counts
// between entities of the same type, so a gene nested in a disease
// mention survives.
type Submatches struct {
	SameTypeOnly bool
}

// Visit implements the pipeline's postfilter hook.
func (f Submatches) Visit(a *doc.Article) error {
	for _, sec := range a.Sections {
		if f.SameTypeOnly {
			sec.Entities = removeSametypeSubmatches(sec.Entities)
		} else {
			sec.Entities = removeSubmatches(sec.Entities)
		}
	}
	return nil
}

func removeSubmatches(entities []doc.Entity) []doc.Entity {
	kept := entities[:0]
	for i, e := range entities {
		if !containedInAny(entities, i) {
			kept = append(kept, e)
		}
	}
	return kept
}

func removeSametypeSubmatches(entities []doc.Entity) []doc.Entity {
	byType := make(map[string][]doc.Entity)
	for _, e := range entities {
		byType[e.Type] = append(byType[e.Type], e)
	}
	var out []doc.Entity
	for _, group := range byType {
		out = append(out, removeSubmatches(group)...)
	}
	doc.SortEntities(out)
	return out
}

// containedInAny reports whether entities[i] sits strictly inside some
// other entity of the slice. Equal spans do not contain each other.
func containedInAny(entities []doc.Entity, i int) bool {
	e := entities[i]
	for j, other := range entities {
		if j == i {
			continue
		}
		if contains(other, e) {
			return true
		}
	}
	return false
}

func contains(a, b doc.Entity) bool {
	return (a.Start <= b.Start && a.End > b.End) ||
		(a.Start < b.Start && a.End >= b.End)
}

// unitPattern catches measurement artifacts like "μg" or "μM" that slip
// into gene/chemical termlists.
var unitPattern = regexp.MustCompile(`^μ[A-Za-z]`)

// FrequentFP drops entities whose surface is a common-language word or a
// known measurement artifact. These dominate the false positives of large
// automatically harvested termlists.
type FrequentFP struct {
	checker *stopwords.Stopwords
	extra   map[string]bool
}

// NewFrequentFP builds the filter with the English stopword list plus the
// historically observed extra offenders.
func NewFrequentFP() *FrequentFP {
	extra := map[string]bool{
		"cm": true, "kg": true, "ml": true, "mm": true, "mol": true,
		"ci": true, "hr": true, "max": true, "min": true, "ph": true,
		"sp": true,
	}
	return &FrequentFP{checker: stopwords.MustGet("en"), extra: extra}
}

// Visit implements the pipeline's postfilter hook.
func (f *FrequentFP) Visit(a *doc.Article) error {
	for _, sec := range a.Sections {
		kept := sec.Entities[:0]
		for _, e := range sec.Entities {
			if !f.bad(e.Text) {
				kept = append(kept, e)
			}
		}
		sec.Entities = kept
	}
	return nil
}

func (f *FrequentFP) bad(span string) bool {
	lower := strings.ToLower(strings.TrimSpace(span))
	if f.extra[lower] || f.checker.Contains(lower) {
		return true
	}
	if unitPattern.MatchString(span) {
		return true
	}
	return strings.ContainsAny(span, "<=>")
}
