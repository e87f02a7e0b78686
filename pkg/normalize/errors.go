package normalize

import "errors"

// ErrUnknownMethod is returned when a chain names a method outside the
// registered set.
var ErrUnknownMethod = errors.New("unknown normalization method")
