// Package report renders projects, goal networks and schedules as indented
// text and as JSON-ready values.
package report

import (
	"fmt"
	"io"
	"strings"
)

const indentUnit = "  "

// printer writes indented lines and remembers the first write error.
type printer struct {
	w     io.Writer
	depth int
	err   error
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) writeln(format string, args ...any) {
	if p.err != nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	if line != "" {
		line = strings.Repeat(indentUnit, p.depth) + line
	}
	_, p.err = io.WriteString(p.w, line+"\n")
}

func (p *printer) enter() { p.depth++ }

func (p *printer) exit() {
	if p.depth > 0 {
		p.depth--
	}
}

// nested runs fn one level deeper.
func (p *printer) nested(fn func()) {
	p.enter()
	fn()
	p.exit()
}
