package pipeline

import (
	"errors"
	"fmt"
)

// ErrNormalizerMismatch means a dictionary was built with a different
// normalizer than the matcher is configured with. The mismatch would
// cause silent false negatives, so pipeline construction refuses it.
var ErrNormalizerMismatch = errors.New("normalizer mismatch")

// DocError scopes a failure (encoding, match budget) to one document.
type DocError struct {
	ArticleID string
	Err       error
}

func (e *DocError) Error() string {
	return fmt.Sprintf("document %s: %v", e.ArticleID, e.Err)
}

func (e *DocError) Unwrap() error { return e.Err }

// PostfilterError wraps a failure raised inside a postfilter hook. It is
// propagated to the caller for that document only.
type PostfilterError struct {
	ArticleID string
	Err       error
}

func (e *PostfilterError) Error() string {
	return fmt.Sprintf("postfilter on document %s: %v", e.ArticleID, e.Err)
}

func (e *PostfilterError) Unwrap() error { return e.Err }

// Report is the per-document outcome of a collection run.
type Report struct {
	Docs []DocReport
}

// DocReport records one document's result.
type DocReport struct {
	ArticleID string
	Entities  int
	Err       error
}

// Failed lists the documents that did not complete.
func (r *Report) Failed() []DocReport {
	var out []DocReport
	for _, d := range r.Docs {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}
