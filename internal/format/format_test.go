package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ontotag/ontotag/pkg/doc"
	"github.com/ontotag/ontotag/pkg/tokenize"
)

func TestLoadText(t *testing.T) {
	article, err := LoadText("doc1", strings.NewReader("one two three\n"), TxtOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(article.Sections) != 1 || article.Sections[0].Text != "one two three" {
		t.Errorf("got %+v", article.Sections)
	}

	article, err = LoadText("doc2", strings.NewReader("line one\n\nline two\n"), TxtOptions{SectionPerLine: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(article.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(article.Sections))
	}
	if article.Sections[1].Text != "line two" {
		t.Errorf("second section = %q", article.Sections[1].Text)
	}
}

func TestLoadPubTator(t *testing.T) {
	input := "123|t|A title\n" +
		"123|a|An abstract about cells\n" +
		"123\t18\t23\tcells\tcell\tC1\n" +
		"\n" +
		"456|t|Second title\n" +
		"456|a|Second abstract\n" +
		"\n"
	coll, err := LoadPubTator(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(coll.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(coll.Articles))
	}
	a := coll.Articles[0]
	if a.ID != "123" || len(a.Sections) != 2 {
		t.Fatalf("article 123 malformed: %+v", a)
	}
	if a.Sections[0].Type != "title" || a.Sections[1].Type != "abstract" {
		t.Errorf("section types: %q, %q", a.Sections[0].Type, a.Sections[1].Type)
	}
	if a.Sections[1].Offset != len("A title")+1 {
		t.Errorf("abstract offset = %d", a.Sections[1].Offset)
	}
}

func TestWritePubTator(t *testing.T) {
	coll := &doc.Collection{}
	a := doc.NewArticle("123")
	a.AddSection("title", "A title")
	abs := a.AddSection("abstract", "An abstract about cells")
	abs.Entities = []doc.Entity{
		{Start: 18, End: 23, Text: "cells", Type: "cell", ConceptID: "C1"},
	}
	coll.AddArticle(a)

	var buf bytes.Buffer
	if err := NewPubTatorWriter(&buf).Write(coll); err != nil {
		t.Fatal(err)
	}

	want := "123|t|A title\n" +
		"123|a|An abstract about cells\n" +
		"123\t26\t31\tcells\tcell\tC1\n" +
		"\n"
	if buf.String() != want {
		t.Errorf("output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestLoadPubTatorRejectsGarbage(t *testing.T) {
	input := "garbage line without pipes or tabs"
	if _, err := LoadPubTator(strings.NewReader(input)); err == nil {
		t.Error("garbage line must be rejected")
	}
}

func TestWriteCoNLL(t *testing.T) {
	coll := &doc.Collection{}
	a := doc.NewArticle("doc1")
	sec := a.AddSection("text", "the cell line assay")
	sec.Tokens = []tokenize.Token{
		{Start: 0, End: 3, Text: "the"},
		{Start: 4, End: 8, Text: "cell"},
		{Start: 9, End: 13, Text: "line"},
		{Start: 14, End: 19, Text: "assay"},
	}
	sec.Entities = []doc.Entity{
		{Start: 4, End: 13, Text: "cell line", Type: "cell_line", ConceptID: "C2"},
	}
	coll.AddArticle(a)

	var buf bytes.Buffer
	if err := NewCoNLLWriter(&buf).Write(coll); err != nil {
		t.Fatal(err)
	}

	want := "the\tO\n" +
		"cell\tB-cell_line\n" +
		"line\tI-cell_line\n" +
		"assay\tO\n" +
		"\n"
	if buf.String() != want {
		t.Errorf("output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWritePubAnnotation(t *testing.T) {
	coll := &doc.Collection{}
	a := doc.NewArticle("123")
	a.AddSection("title", "A title")
	abs := a.AddSection("abstract", "cells everywhere")
	abs.Entities = []doc.Entity{
		{Start: 0, End: 5, Text: "cells", Type: "cell", ConceptID: "C1"},
	}
	coll.AddArticle(a)

	var buf bytes.Buffer
	if err := NewPubAnnotationWriter(&buf).Write(coll); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, fragment := range []string{
		`"sourceid": "123"`,
		`"text": "A title\ncells everywhere"`,
		`"begin": 8`,
		`"end": 13`,
		`"obj": "C1"`,
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("output missing %s:\n%s", fragment, out)
		}
	}
}
