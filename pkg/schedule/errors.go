package schedule

import "errors"

var (
	ErrDoubleSchedule = errors.New("scheduled more than once")
	ErrUnknownGoal    = errors.New("goal not found in plan")
	ErrAllocMismatch  = errors.New("allocation mismatch")
	ErrNoResources    = errors.New("no resources")
	ErrMixedBlock     = errors.New("goal block with subblocks")
	ErrInvalidAttr    = errors.New("invalid block attribute")
)
