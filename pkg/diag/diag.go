// Package diag carries source locations, located errors and the advisory
// warnings collected while building and scheduling a plan.
package diag

import (
	"fmt"
	"strings"
)

// Location points at a line of a plan file.
type Location struct {
	File string
	Line int
}

// NoLocation is used for entities synthesized outside of any plan file.
var NoLocation = Location{}

// Known reports whether the location refers to a real file position.
func (l Location) Known() bool {
	return l.File != "" || l.Line > 0
}

func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "?"
	}
	if l.Line <= 0 {
		return file + ":?"
	}
	return fmt.Sprintf("%s:%d", file, l.Line)
}

// Error is a fatal, location-tagged error. Kind is a package sentinel so
// callers can match with errors.Is.
type Error struct {
	Loc  Location
	Kind error
	Msg  string
}

// Errorf builds an *Error of the given kind.
func Errorf(loc Location, kind error, format string, args ...any) *Error {
	return &Error{Loc: loc, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if !e.Loc.Known() {
		return e.Msg
	}
	return e.Loc.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Warning is an advisory condition that does not stop processing.
type Warning struct {
	Loc Location
	Msg string
}

func (w Warning) String() string {
	if !w.Loc.Known() {
		return w.Msg
	}
	return w.Loc.String() + ": " + w.Msg
}

// Warnings collects advisory conditions in the order they were found.
// A nil *Warnings discards everything.
type Warnings struct {
	list []Warning
}

// Warnf records a warning at loc.
func (w *Warnings) Warnf(loc Location, format string, args ...any) {
	if w == nil {
		return
	}
	w.list = append(w.list, Warning{Loc: loc, Msg: fmt.Sprintf(format, args...)})
}

// List returns a copy of the collected warnings.
func (w *Warnings) List() []Warning {
	if w == nil {
		return nil
	}
	out := make([]Warning, len(w.list))
	copy(out, w.list)
	return out
}

// Len returns the number of collected warnings.
func (w *Warnings) Len() int {
	if w == nil {
		return 0
	}
	return len(w.list)
}

// Merge appends the warnings of other.
func (w *Warnings) Merge(other *Warnings) {
	if w == nil || other == nil {
		return
	}
	w.list = append(w.list, other.list...)
}

func (w *Warnings) String() string {
	var b strings.Builder
	for _, x := range w.List() {
		b.WriteString(x.String())
		b.WriteString("\n")
	}
	return b.String()
}
