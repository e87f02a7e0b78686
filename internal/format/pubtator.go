package format

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ontotag/ontotag/pkg/doc"
)

// LoadPubTator parses PubTator-formatted input: per document a
// "pmid|t|title" line, a "pmid|a|abstract" line, optional annotation
// lines, and a blank separator line. Annotation lines on input are
// ignored; matching regenerates them.
func LoadPubTator(r io.Reader) (*doc.Collection, error) {
	coll := &doc.Collection{}
	var current *doc.Article

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			current = nil
			continue
		}

		parts := strings.SplitN(line, "|", 3)
		if len(parts) == 3 && (parts[1] == "t" || parts[1] == "a") {
			id := parts[0]
			if current == nil || current.ID != id {
				current = doc.NewArticle(id)
				coll.AddArticle(current)
			}
			sectionType := "title"
			if parts[1] == "a" {
				sectionType = "abstract"
			}
			current.AddSection(sectionType, parts[2])
			continue
		}

		// Annotation rows are tab separated and refer to a known pmid.
		if fields := strings.Split(line, "\t"); len(fields) >= 5 {
			continue
		}
		return nil, fmt.Errorf("pubtator: line %d: unrecognized line %q", lineNo, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return coll, nil
}

// PubTatorWriter exports annotated articles in PubTator format. Offsets
// are written relative to the concatenated article text, which is how
// the format counts them.
type PubTatorWriter struct {
	w io.Writer
}

// NewPubTatorWriter wraps w.
func NewPubTatorWriter(w io.Writer) *PubTatorWriter {
	return &PubTatorWriter{w: w}
}

// Write implements Writer.
func (pw *PubTatorWriter) Write(coll *doc.Collection) error {
	for _, article := range coll.Articles {
		for _, sec := range article.Sections {
			code := "t"
			if sec.Type != "title" {
				code = "a"
			}
			if _, err := fmt.Fprintf(pw.w, "%s|%s|%s\n", article.ID, code, sec.Text); err != nil {
				return err
			}
		}
		for _, sec := range article.Sections {
			for _, e := range sec.Entities {
				if _, err := fmt.Fprintf(pw.w, "%s\t%d\t%d\t%s\t%s\t%s\n",
					article.ID, sec.Offset+e.Start, sec.Offset+e.End,
					e.Text, e.Type, e.ConceptID); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(pw.w); err != nil {
			return err
		}
	}
	return nil
}
