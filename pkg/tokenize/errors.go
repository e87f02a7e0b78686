package tokenize

import "errors"

// ErrInvalidUTF8 is returned when the input text cannot be decoded.
// It fails the current document only; sibling documents are unaffected.
var ErrInvalidUTF8 = errors.New("text is not valid UTF-8")
