package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ontotag/ontotag/pkg/doc"
)

// pubAnnoDoc is the PubAnnotation JSON shape for one article.
type pubAnnoDoc struct {
	SourceDB    string          `json:"sourcedb,omitempty"`
	SourceID    string          `json:"sourceid"`
	Text        string          `json:"text"`
	Denotations []pubAnnoSpan   `json:"denotations"`
	Attributes  []pubAnnoAttrib `json:"attributes,omitempty"`
}

type pubAnnoSpan struct {
	ID   string       `json:"id"`
	Span pubAnnoRange `json:"span"`
	Obj  string       `json:"obj"`
}

type pubAnnoRange struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

type pubAnnoAttrib struct {
	ID      string `json:"id"`
	Subject string `json:"subj"`
	Pred    string `json:"pred"`
	Obj     string `json:"obj"`
}

// PubAnnotationWriter exports one JSON document per article, as a JSON
// array over the collection. Spans use article-wide offsets.
type PubAnnotationWriter struct {
	w io.Writer
}

// NewPubAnnotationWriter wraps w.
func NewPubAnnotationWriter(w io.Writer) *PubAnnotationWriter {
	return &PubAnnotationWriter{w: w}
}

// Write implements Writer.
func (pw *PubAnnotationWriter) Write(coll *doc.Collection) error {
	docs := make([]pubAnnoDoc, 0, len(coll.Articles))
	for _, article := range coll.Articles {
		d := pubAnnoDoc{
			SourceID: article.ID,
			Text:     articleText(article),
		}
		n := 0
		for _, sec := range article.Sections {
			for _, e := range sec.Entities {
				n++
				id := fmt.Sprintf("T%d", n)
				d.Denotations = append(d.Denotations, pubAnnoSpan{
					ID:   id,
					Span: pubAnnoRange{Begin: sec.Offset + e.Start, End: sec.Offset + e.End},
					Obj:  e.ConceptID,
				})
				if e.Type != "" {
					d.Attributes = append(d.Attributes, pubAnnoAttrib{
						ID:      fmt.Sprintf("A%d", n),
						Subject: id,
						Pred:    "type",
						Obj:     e.Type,
					})
				}
			}
		}
		if d.Denotations == nil {
			d.Denotations = []pubAnnoSpan{}
		}
		docs = append(docs, d)
	}

	enc := json.NewEncoder(pw.w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
