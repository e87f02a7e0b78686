package pipeline

import (
	"regexp"

	"github.com/ontotag/ontotag/pkg/doc"
	"github.com/ontotag/ontotag/pkg/match"
	"github.com/ontotag/ontotag/pkg/termdict"
)

// abbrevPattern recognizes a parenthesized short form directly after a
// matched term, as in "tumor necrosis factor (TNF)".
var abbrevPattern = regexp.MustCompile(`^\s*\(([A-Za-z0-9][A-Za-z0-9-]*)\)`)

// learnedAbbrevs returns this document's learned short forms, seeded
// from the cache when the same document was processed before. The copy
// keeps cache entries immutable for concurrent readers.
func (p *Pipeline) learnedAbbrevs(articleID string) map[string]*termdict.Entry {
	learned := make(map[string]*termdict.Entry)
	if p.abbrevCache == nil {
		return learned
	}
	if cached, ok := p.abbrevCache.Get(articleID); ok {
		for k, v := range cached {
			learned[k] = v
		}
	}
	return learned
}

// storeAbbrevs publishes the document's learned short forms. Writes for
// the same key are serialized; reads for other documents never block.
func (p *Pipeline) storeAbbrevs(articleID string, learned map[string]*termdict.Entry) {
	p.abbrevMu.Lock()
	defer p.abbrevMu.Unlock()
	copied := make(map[string]*termdict.Entry, len(learned))
	for k, v := range learned {
		copied[k] = v
	}
	p.abbrevCache.Add(articleID, copied)
}

// detectAbbrevs inspects the text right after each raw match for a
// parenthesized definition and records the short form under its
// normalized key. First definition wins within a document.
func (p *Pipeline) detectAbbrevs(sec *doc.Section, raws []match.Raw, learned map[string]*termdict.Entry) {
	for _, r := range raws {
		m := abbrevPattern.FindStringSubmatch(sec.Text[r.End:])
		if m == nil {
			continue
		}
		key := p.normalizer.Apply(m[1])
		if key == "" {
			continue
		}
		if _, ok := learned[key]; !ok {
			learned[key] = r.Entry
		}
	}
}

// abbrevRaws generates candidates for every learned short form occurring
// in the section, so later mentions of "TNF" resolve like the long form.
func (p *Pipeline) abbrevRaws(sec *doc.Section, learned map[string]*termdict.Entry) []match.Raw {
	if len(learned) == 0 {
		return nil
	}
	var out []match.Raw
	for i, tok := range sec.Tokens {
		entry, ok := learned[tok.Key]
		if !ok {
			continue
		}
		out = append(out, match.Raw{
			Start:      tok.Start,
			End:        tok.End,
			TokenPos:   i,
			TokenLen:   1,
			Entry:      entry,
			Recognizer: "abbrev",
			Priority:   entry.Priority,
		})
	}
	return out
}
