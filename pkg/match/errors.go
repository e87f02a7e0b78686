package match

import "errors"

var (
	// ErrBudgetExceeded means a section hit its cooperative step or time
	// budget. The document is reported as unmatched; processing of other
	// documents continues.
	ErrBudgetExceeded = errors.New("match budget exceeded")

	// ErrUnknownPolicy is returned for an unrecognized overlap policy name.
	ErrUnknownPolicy = errors.New("unknown overlap policy")
)
