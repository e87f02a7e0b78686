package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontotag/ontotag/pkg/doc"
	"github.com/ontotag/ontotag/pkg/normalize"
	"github.com/ontotag/ontotag/pkg/termdict"
	"github.com/ontotag/ontotag/pkg/termsource"
	"github.com/ontotag/ontotag/pkg/tokenize"
)

var (
	testTok  = tokenize.New(tokenize.Options{})
	testNorm = normalize.MustNew("lowercase")
)

func buildDict(t *testing.T, rows ...termsource.Row) *termdict.Dictionary {
	t.Helper()
	d, err := termdict.Build("test", &termsource.SliceSource{Rows: rows}, testTok, testNorm, 0)
	require.NoError(t, err)
	return d
}

func newPipeline(t *testing.T, dicts []*termdict.Dictionary, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(testTok, testNorm, dicts, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNormalizerMismatchRejected(t *testing.T) {
	d := buildDict(t, termsource.Row{Term: "cell", ConceptID: "C1"})

	_, err := New(testTok, normalize.MustNew("identity"), []*termdict.Dictionary{d})
	assert.ErrorIs(t, err, ErrNormalizerMismatch)
}

func TestProcessArticle(t *testing.T) {
	d := buildDict(t,
		termsource.Row{Term: "cell", ConceptID: "C1"},
		termsource.Row{Term: "cell line", ConceptID: "C2"},
	)
	p := newPipeline(t, []*termdict.Dictionary{d})

	article := doc.NewArticle("doc1")
	article.AddSection("title", "The cell line")
	article.AddSection("abstract", "No matches here.")

	require.NoError(t, p.ProcessArticle(context.Background(), article))

	require.Len(t, article.Sections[0].Entities, 1)
	e := article.Sections[0].Entities[0]
	assert.Equal(t, "C2", e.ConceptID)
	assert.Equal(t, "cell line", e.Text)
	assert.Equal(t, article.Sections[0].Text[e.Start:e.End], e.Text)
	assert.NotEmpty(t, article.Sections[0].Tokens, "tokens stay on the section for writers")
	assert.Empty(t, article.Sections[1].Entities)
}

func TestProcessArticleInvalidEncoding(t *testing.T) {
	d := buildDict(t, termsource.Row{Term: "cell", ConceptID: "C1"})
	p := newPipeline(t, []*termdict.Dictionary{d})

	article := doc.NewArticle("bad")
	article.AddSection("text", "broken \xff bytes")

	err := p.ProcessArticle(context.Background(), article)
	var docErr *DocError
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, "bad", docErr.ArticleID)
	assert.ErrorIs(t, err, tokenize.ErrInvalidUTF8)
}

func TestRuneOffsetReporting(t *testing.T) {
	d := buildDict(t, termsource.Row{Term: "cell", ConceptID: "C1"})
	p := newPipeline(t, []*termdict.Dictionary{d}, WithOffsetMode(doc.RuneOffsets))

	article := doc.NewArticle("doc1")
	article.AddSection("text", "ββ cell")

	require.NoError(t, p.ProcessArticle(context.Background(), article))

	require.Len(t, article.Sections[0].Entities, 1)
	e := article.Sections[0].Entities[0]
	assert.Equal(t, 3, e.Start, "codepoint offset, not byte offset")
	assert.Equal(t, 7, e.End)
	assert.Equal(t, "cell", e.Text)
}

func TestPostfiltersRunInOrder(t *testing.T) {
	d := buildDict(t, termsource.Row{Term: "cell", ConceptID: "C1"})

	var order []string
	p := newPipeline(t, []*termdict.Dictionary{d}, WithPostfilters(
		PostfilterFunc(func(a *doc.Article) error {
			order = append(order, "first")
			for _, sec := range a.Sections {
				sec.Entities = nil
			}
			return nil
		}),
		PostfilterFunc(func(a *doc.Article) error {
			order = append(order, "second")
			return nil
		}),
	))

	article := doc.NewArticle("doc1")
	article.AddSection("text", "a cell")
	require.NoError(t, p.ProcessArticle(context.Background(), article))

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Empty(t, article.Entities(), "hooks may rewrite the entity set")
}

func TestPostfilterFailureIsScoped(t *testing.T) {
	d := buildDict(t, termsource.Row{Term: "cell", ConceptID: "C1"})
	boom := errors.New("boom")
	p := newPipeline(t, []*termdict.Dictionary{d}, WithPostfilters(
		PostfilterFunc(func(*doc.Article) error { return boom }),
	))

	article := doc.NewArticle("doc1")
	article.AddSection("text", "a cell")

	err := p.ProcessArticle(context.Background(), article)
	var pfErr *PostfilterError
	require.ErrorAs(t, err, &pfErr)
	assert.Equal(t, "doc1", pfErr.ArticleID)
	assert.ErrorIs(t, err, boom)
}

func TestAbbreviationLearning(t *testing.T) {
	d := buildDict(t, termsource.Row{Term: "tumor necrosis factor", ConceptID: "C7", Type: "gene"})
	p := newPipeline(t, []*termdict.Dictionary{d}, WithAbbrevDetection())

	article := doc.NewArticle("doc1")
	article.AddSection("text", "tumor necrosis factor (TNF) regulates TNF signaling")

	require.NoError(t, p.ProcessArticle(context.Background(), article))

	entities := article.Entities()
	require.Len(t, entities, 3)
	for _, e := range entities {
		assert.Equal(t, "C7", e.ConceptID)
	}
	assert.Equal(t, "tumor necrosis factor", entities[0].Text)
	assert.Equal(t, "TNF", entities[1].Text)
	assert.Equal(t, "abbrev", entities[1].Recognizer)
	assert.Equal(t, "TNF", entities[2].Text)
}

func TestSentenceBoundaries(t *testing.T) {
	d := buildDict(t, termsource.Row{Term: "cell line", ConceptID: "C2"})
	p := newPipeline(t, []*termdict.Dictionary{d}, WithSentenceBoundaries())

	article := doc.NewArticle("doc1")
	article.AddSection("text", "This ends in cell. line starts here")

	require.NoError(t, p.ProcessArticle(context.Background(), article))
	assert.Empty(t, article.Entities())
}

func TestProcessCollection(t *testing.T) {
	d := buildDict(t, termsource.Row{Term: "cell", ConceptID: "C1"})

	makeColl := func() *doc.Collection {
		coll := &doc.Collection{}
		a1 := doc.NewArticle("good1")
		a1.AddSection("text", "a cell")
		a2 := doc.NewArticle("bad")
		a2.AddSection("text", "broken \xff bytes")
		a3 := doc.NewArticle("good2")
		a3.AddSection("text", "cell cell")
		coll.AddArticle(a1)
		coll.AddArticle(a2)
		coll.AddArticle(a3)
		return coll
	}

	// Default: the failed document fails the run, but every document is
	// still reported.
	p := newPipeline(t, []*termdict.Dictionary{d})
	report, err := p.ProcessCollection(context.Background(), makeColl())
	require.Error(t, err)
	require.Len(t, report.Docs, 3)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "bad", report.Failed()[0].ArticleID)

	// Ignore mode: the run succeeds, good documents keep their entities.
	p2 := newPipeline(t, []*termdict.Dictionary{d}, WithIgnoreDocErrors(), WithWorkers(2))
	coll := makeColl()
	report, err = p2.ProcessCollection(context.Background(), coll)
	require.NoError(t, err)
	require.Len(t, report.Failed(), 1)
	assert.Len(t, coll.Articles[2].Entities(), 2)
	for _, dr := range report.Docs {
		if dr.ArticleID == "good2" {
			assert.Equal(t, 2, dr.Entities)
		}
	}
}
