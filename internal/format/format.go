// Package format converts between external document representations and
// the internal document tree. Loaders build collections, writers export
// annotated ones; neither touches matching.
package format

import (
	"strings"

	"github.com/ontotag/ontotag/pkg/doc"
)

// A Writer exports an annotated collection.
type Writer interface {
	Write(*doc.Collection) error
}

// articleText reconstructs the article's concatenated text the way
// section offsets were assigned: one newline between sections.
func articleText(a *doc.Article) string {
	parts := make([]string, len(a.Sections))
	for i, sec := range a.Sections {
		parts[i] = sec.Text
	}
	return strings.Join(parts, "\n")
}
