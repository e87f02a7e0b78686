// Package doc holds the document tree that the matching core populates
// and external readers and writers consume.
//
// The hierarchy is fixed: Collection > Article > Section. A Section is
// the unit of matching: it owns the raw text, the token sequence derived
// from it, and the entities anchored in it.
package doc

import (
	"sort"

	"github.com/ontotag/ontotag/pkg/tokenize"
)

// OffsetMode selects how entity offsets are reported. Matching always
// works in bytes internally; the configured mode is echoed back verbatim
// in entity spans.
type OffsetMode int

const (
	// ByteOffsets reports spans as byte offsets into the section text.
	ByteOffsets OffsetMode = iota
	// RuneOffsets reports spans as Unicode codepoint offsets.
	RuneOffsets
)

func (m OffsetMode) String() string {
	if m == RuneOffsets {
		return "codepoints"
	}
	return "bytes"
}

// Collection is an ordered set of articles. Insertion order is significant
// and preserved through processing and export.
type Collection struct {
	ID       string
	Articles []*Article
}

// AddArticle appends an article.
func (c *Collection) AddArticle(a *Article) {
	c.Articles = append(c.Articles, a)
}

// Article is one document: an ordered sequence of sections plus metadata
// carried through from the loader.
type Article struct {
	ID       string
	Type     string
	Sections []*Section
	Metadata map[string]string

	cursor int
}

// NewArticle creates an empty article.
func NewArticle(id string) *Article {
	return &Article{ID: id}
}

// AddSection appends a section, assigning it the next running offset
// within the article (one separator character between sections, the way
// loaders reconstruct concatenated text).
func (a *Article) AddSection(sectionType, text string) *Section {
	offset := a.cursor
	sec := &Section{
		ID:     len(a.Sections),
		Type:   sectionType,
		Text:   text,
		Offset: offset,
	}
	a.Sections = append(a.Sections, sec)
	a.cursor = offset + len(text) + 1
	return sec
}

// Entities iterates over all entities of the article in section order.
func (a *Article) Entities() []Entity {
	var out []Entity
	for _, sec := range a.Sections {
		out = append(out, sec.Entities...)
	}
	return out
}

// Section is the unit of matching.
type Section struct {
	ID   int
	Type string
	// Text is the raw section text. Entity offsets point into it.
	Text string
	// Offset is the section's start within the whole article text.
	Offset int
	// Tokens is the tokenization of Text, filled in by the pipeline.
	Tokens []tokenize.Token
	// Entities is kept ordered; use AddEntities rather than appending.
	Entities []Entity
}

// AddEntities merges entities into the section and restores the canonical
// order: start ascending, longer span first, higher priority first.
func (s *Section) AddEntities(entities ...Entity) {
	s.Entities = append(s.Entities, entities...)
	SortEntities(s.Entities)
}

// Entity links a text span to a concept identifier.
type Entity struct {
	// Start and End delimit the span in the owning section's raw text,
	// in the offset mode the pipeline was configured with.
	Start int
	End   int
	// Text is a materialized copy of the raw span. It always equals the
	// section text sliced at [Start:End], whatever normalization was used
	// to find the match.
	Text string
	// ConceptID is the stable external identity the span maps to.
	ConceptID string
	// Type is the entity category from the term dictionary.
	Type string
	// PreferredForm is the dictionary's canonical spelling of the concept.
	PreferredForm string
	// Extra carries any additional termlist columns, in source order.
	Extra []string
	// Recognizer names the dictionary that produced the match.
	Recognizer string
	// Priority is the source priority used for overlap tie-breaking.
	Priority int
}

// SortEntities orders entities by start ascending, then longer span first,
// then priority descending, then recognizer and concept id for stability.
func SortEntities(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
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
		return a.ConceptID < b.ConceptID
	})
}
