// Package termsource supplies term dictionary rows to the builder.
//
// A source is a lazy iterator over (surface form, concept id, type, ...)
// rows; the file format behind it is this package's concern, never the
// dictionary's. The TSV reader understands the column layouts of the
// historical termlist exports.
package termsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Row is one termlist entry before tokenization.
type Row struct {
	// Term is the surface form as written.
	Term string
	// ConceptID is the identifier in the originating database.
	ConceptID string
	// Type is the entity category.
	Type string
	// PreferredForm is the canonical spelling, if the source has one.
	PreferredForm string
	// Resource names the originating database.
	Resource string
	// Extra carries any additional columns, in file order.
	Extra []string
	// Priority overrides the dictionary's source priority for this row
	// when non-zero. The TSV layouts have no priority column; programmatic
	// sources set it.
	Priority int
}

// Source is a lazy sequence of rows. Next returns io.EOF when exhausted.
// A malformed row is reported as a *RowError; callers may skip it and
// keep reading.
type Source interface {
	Next() (Row, error)
}

// RowError describes a malformed termlist row. The dictionary builder
// skips such rows and records a warning; they are never fatal.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("termlist row %d: %s", e.Line, e.Reason)
}

// SliceSource replays rows from memory. Used in tests and when rows come
// out of the compiled-dictionary cache.
type SliceSource struct {
	Rows []Row
	next int
}

// Next implements Source.
func (s *SliceSource) Next() (Row, error) {
	if s.next >= len(s.Rows) {
		return Row{}, io.EOF
	}
	row := s.Rows[s.next]
	s.next++
	return row, nil
}

// Format identifies a TSV column layout.
type Format string

const (
	// Format4 is the legacy 4-column layout:
	// id, term, type, preferred form [, extra...].
	Format4 Format = "4"
	// Format6 extends the legacy layout with provenance:
	// id, term, type, preferred form, resource, canonical id [, extra...].
	Format6 Format = "6"
	// FormatHub is the term-hub export layout:
	// canonical id, resource, id, term, preferred form, type [, extra...].
	FormatHub Format = "hub"
)

// minColumns reports how many columns a layout requires.
func (f Format) minColumns() int {
	if f == Format4 {
		return 4
	}
	return 6
}

// parse maps a TSV record to a Row, or describes why it cannot.
func (f Format) parse(record []string, line int) (Row, error) {
	if len(record) < f.minColumns() {
		return Row{}, &RowError{Line: line, Reason: fmt.Sprintf(
			"want at least %d columns, got %d", f.minColumns(), len(record))}
	}
	var row Row
	switch f {
	case Format4:
		row = Row{
			ConceptID:     record[0],
			Term:          record[1],
			Type:          record[2],
			PreferredForm: record[3],
			Extra:         record[4:],
		}
	case Format6:
		row = Row{
			ConceptID:     record[0],
			Term:          record[1],
			Type:          record[2],
			PreferredForm: record[3],
			Resource:      record[4],
			Extra:         record[6:],
		}
	case FormatHub:
		row = Row{
			Resource:      record[1],
			ConceptID:     record[2],
			Term:          record[3],
			PreferredForm: record[4],
			Type:          record[5],
			Extra:         record[6:],
		}
	default:
		return Row{}, fmt.Errorf("unknown termlist format %q", f)
	}
	if row.Term == "" {
		return Row{}, &RowError{Line: line, Reason: "empty term field"}
	}
	if row.ConceptID == "" {
		return Row{}, &RowError{Line: line, Reason: "missing concept id"}
	}
	return row, nil
}

// TSVOptions configure a TSV source.
type TSVOptions struct {
	Format     Format
	SkipHeader bool
}

// TSVSource reads termlist rows from tab-separated text.
type TSVSource struct {
	reader  *csv.Reader
	format  Format
	line    int
	skipped bool
	skip    bool
	closer  io.Closer
}

// NewTSV wraps r as a row source.
func NewTSV(r io.Reader, opts TSVOptions) *TSVSource {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	format := opts.Format
	if format == "" {
		format = Format6
	}
	return &TSVSource{reader: cr, format: format, skip: opts.SkipHeader}
}

// OpenTSV opens a termlist file. Close the source when done.
func OpenTSV(path string, opts TSVOptions) (*TSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src := NewTSV(f, opts)
	src.closer = f
	return src, nil
}

// Next implements Source.
func (s *TSVSource) Next() (Row, error) {
	if s.skip && !s.skipped {
		s.skipped = true
		if _, err := s.reader.Read(); err != nil {
			if err == io.EOF {
				return Row{}, io.EOF
			}
			return Row{}, err
		}
		s.line++
	}
	record, err := s.reader.Read()
	if err != nil {
		if err == io.EOF {
			return Row{}, io.EOF
		}
		s.line++
		return Row{}, &RowError{Line: s.line, Reason: err.Error()}
	}
	s.line++
	return s.format.parse(record, s.line)
}

// Close releases the underlying file, if the source owns one.
func (s *TSVSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
