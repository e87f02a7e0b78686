package format

import (
	"fmt"
	"io"

	"github.com/ontotag/ontotag/pkg/doc"
)

// CoNLLWriter exports token/tag pairs with BIO labels, one token per
// line and a blank line between sections. It reads the token sequences
// the pipeline left on each section, so it only works on processed
// documents with byte offsets.
type CoNLLWriter struct {
	w io.Writer
}

// NewCoNLLWriter wraps w.
func NewCoNLLWriter(w io.Writer) *CoNLLWriter {
	return &CoNLLWriter{w: w}
}

// Write implements Writer.
func (cw *CoNLLWriter) Write(coll *doc.Collection) error {
	for _, article := range coll.Articles {
		for _, sec := range article.Sections {
			if err := cw.writeSection(sec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cw *CoNLLWriter) writeSection(sec *doc.Section) error {
	for _, tok := range sec.Tokens {
		tag := "O"
		for _, e := range sec.Entities {
			if e.Start > tok.Start {
				break
			}
			if tok.Start >= e.Start && tok.End <= e.End {
				if tok.Start == e.Start {
					tag = "B-" + e.Type
				} else {
					tag = "I-" + e.Type
				}
				break
			}
		}
		if _, err := fmt.Fprintf(cw.w, "%s\t%s\n", tok.Text, tag); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(cw.w)
	return err
}
