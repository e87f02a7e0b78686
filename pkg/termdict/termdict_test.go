package termdict

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontotag/ontotag/pkg/normalize"
	"github.com/ontotag/ontotag/pkg/termsource"
	"github.com/ontotag/ontotag/pkg/tokenize"
)

func buildDict(t *testing.T, rows []termsource.Row) *Dictionary {
	t.Helper()
	d, err := Build("test", &termsource.SliceSource{Rows: rows},
		tokenize.New(tokenize.Options{}), normalize.MustNew("lowercase"), 0)
	require.NoError(t, err)
	return d
}

var testRows = []termsource.Row{
	{Term: "cell", ConceptID: "C1", Type: "cell"},
	{Term: "cell line", ConceptID: "C2", Type: "cell_line"},
	{Term: "line", ConceptID: "C3", Type: "other"},
	{Term: "Cell Line", ConceptID: "C4", Type: "cell_line"},
}

func TestBuildIndexes(t *testing.T) {
	d := buildDict(t, testRows)
	assert.Equal(t, 4, d.Len())
	assert.Equal(t, "test", d.Name())
	assert.Equal(t, "lowercase", d.NormalizerName())
	assert.Empty(t, d.Warnings())
}

func TestLookupAllLengths(t *testing.T) {
	d := buildDict(t, testRows)
	keys := []string{"the", "cell", "line", "assay"}

	got := d.Lookup(keys, 1)
	require.Len(t, got, 3, "every matching length, not just the longest")

	// Longer phrases come first.
	assert.Equal(t, 2, got[0].Length)
	assert.Equal(t, 2, got[1].Length)
	assert.Equal(t, 1, got[2].Length)
	assert.Equal(t, "C1", got[2].Entry.ConceptID)

	assert.Nil(t, d.Lookup(keys, 0), "no entry starts with 'the'")
}

func TestLookupRespectsEnd(t *testing.T) {
	d := buildDict(t, testRows)

	// "cell" as the last token: the two-token phrases cannot fit.
	got := d.Lookup([]string{"the", "cell"}, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "C1", got[0].Entry.ConceptID)
}

func TestScanAgreesWithLookup(t *testing.T) {
	d := buildDict(t, testRows)
	keys := []string{"a", "cell", "line", "in", "a", "cell", "culture", "line"}

	type triple struct {
		pos, length int
		concept     string
	}
	var fromLookup []triple
	for i := range keys {
		for _, c := range d.Lookup(keys, i) {
			fromLookup = append(fromLookup, triple{i, c.Length, c.Entry.ConceptID})
		}
	}
	var fromScan []triple
	for _, h := range d.Scan(keys) {
		fromScan = append(fromScan, triple{h.Pos, h.Length, h.Entry.ConceptID})
	}
	assert.ElementsMatch(t, fromLookup, fromScan)
}

func TestScanOrdering(t *testing.T) {
	d := buildDict(t, testRows)
	hits := d.Scan([]string{"cell", "line"})
	require.NotEmpty(t, hits)
	for i := 1; i < len(hits); i++ {
		if hits[i].Pos == hits[i-1].Pos {
			assert.GreaterOrEqual(t, hits[i-1].Length, hits[i].Length)
		} else {
			assert.Greater(t, hits[i].Pos, hits[i-1].Pos)
		}
	}
}

func TestBuildSkipsBadRows(t *testing.T) {
	src := &errSource{
		rows: []termsource.Row{
			{Term: "water", ConceptID: "C1"},
			{Term: "...", ConceptID: "C2"}, // tokenizes to nothing
		},
		rowErr: &termsource.RowError{Line: 7, Reason: "too few columns"},
	}
	d, err := Build("partial", src, tokenize.New(tokenize.Options{}),
		normalize.MustNew("lowercase"), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, d.Len(), "only the valid row is indexed")
	assert.Len(t, d.Warnings(), 2)
}

func TestBuildSkipsRowsWithoutConceptID(t *testing.T) {
	d, err := Build("test", &termsource.SliceSource{Rows: []termsource.Row{
		{Term: "cell", ConceptID: ""},
		{Term: "line", ConceptID: "C3"},
	}}, tokenize.New(tokenize.Options{}), normalize.MustNew("lowercase"), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, d.Len(), "an id-less entry must not be indexed")
	require.Len(t, d.Warnings(), 1)
	assert.Contains(t, d.Warnings()[0].Error(), "concept id")
	assert.Nil(t, d.Lookup([]string{"cell"}, 0))
}

func TestBuildAbortsOnFatalSourceError(t *testing.T) {
	src := &errSource{fatal: io.ErrUnexpectedEOF}
	_, err := Build("broken", src, tokenize.New(tokenize.Options{}),
		normalize.MustNew("lowercase"), 0)
	require.Error(t, err)
}

func TestRowPriorityOverridesSourcePriority(t *testing.T) {
	d, err := Build("test", &termsource.SliceSource{Rows: []termsource.Row{
		{Term: "cell", ConceptID: "C1", Priority: 5},
		{Term: "line", ConceptID: "C2"},
	}}, tokenize.New(tokenize.Options{}), normalize.MustNew("lowercase"), 1)
	require.NoError(t, err)

	got := d.Lookup([]string{"cell"}, 0)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Entry.Priority)

	got = d.Lookup([]string{"line"}, 0)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Entry.Priority, "rows without their own priority inherit the source's")
}

func TestEmptyDictionary(t *testing.T) {
	d := buildDict(t, nil)
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Lookup([]string{"cell"}, 0))
	assert.Nil(t, d.Scan([]string{"cell"}))
}

// errSource replays rows, then a row error, then EOF or a fatal error.
type errSource struct {
	rows   []termsource.Row
	rowErr *termsource.RowError
	fatal  error
	step   int
}

func (s *errSource) Next() (termsource.Row, error) {
	if s.step < len(s.rows) {
		row := s.rows[s.step]
		s.step++
		return row, nil
	}
	if s.rowErr != nil && s.step == len(s.rows) {
		s.step++
		return termsource.Row{}, s.rowErr
	}
	if s.fatal != nil {
		return termsource.Row{}, s.fatal
	}
	return termsource.Row{}, io.EOF
}
