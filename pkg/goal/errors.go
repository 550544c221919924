package goal

import "errors"

// Sentinel kinds carried by *diag.Error values returned from this package.
var (
	ErrDuplicateGoal    = errors.New("duplicate goal definition")
	ErrInvalidAttr      = errors.New("invalid attribute")
	ErrCycle            = errors.New("dependency cycle")
	ErrAliasClash       = errors.New("alias clash")
	ErrDummyChecks      = errors.New("dummy goal has checks")
	ErrGlobalNotInstant = errors.New("global dependency is not instant")
	ErrEmptyFilter      = errors.New("empty goal filter")
	ErrUnknownGoal      = errors.New("unknown goal")
)
