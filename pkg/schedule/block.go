// Package schedule turns a goal network and a user-authored tree of
// scheduling blocks into dated, resource-assigned work.
package schedule

import (
	"time"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/interval"
)

// Block is a node of the scheduling tree. A goal block names exactly one
// goal; other blocks combine their children sequentially or in parallel.
type Block struct {
	Seq    bool
	Loc    diag.Location
	Blocks []*Block

	// Alloc and Parallel override activity settings for everything below.
	Alloc    []string
	Parallel int

	Deadline *time.Time
	// Window, when set, is the period the block is meant to run in: nothing
	// starts before it and finishing after it is reported.
	Window *interval.Interval

	GoalName string
}

// NewSequential returns a block whose children run one after another.
func NewSequential(loc diag.Location) *Block {
	return &Block{Seq: true, Loc: loc}
}

// NewParallel returns a block whose children all start together.
func NewParallel(loc diag.Location) *Block {
	return &Block{Loc: loc}
}

// AddGoal appends a goal block.
func (b *Block) AddGoal(name string, loc diag.Location, attrs ...BlockAttr) (*Block, error) {
	child := &Block{Loc: loc, GoalName: name}
	if err := child.Apply(attrs...); err != nil {
		return nil, err
	}
	b.Blocks = append(b.Blocks, child)
	return child, nil
}

// AddBlock appends a nested block.
func (b *Block) AddBlock(child *Block) {
	b.Blocks = append(b.Blocks, child)
}

// IsGoal reports whether the block refers to a goal.
func (b *Block) IsGoal() bool {
	return b.GoalName != ""
}

// BlockAttr is a typed block attribute. The set of implementations is closed.
type BlockAttr interface {
	applyBlock(b *Block) error
}

type (
	BlockAlloc    []string
	BlockParallel int
	BlockDeadline time.Time
	BlockWindow   interval.Interval
)

func (a BlockAlloc) applyBlock(b *Block) error {
	for _, name := range a {
		if name == "" {
			return diag.Errorf(b.Loc, ErrInvalidAttr, "empty resource name in allocation")
		}
	}
	b.Alloc = append([]string(nil), a...)
	return nil
}

func (p BlockParallel) applyBlock(b *Block) error {
	if p < 1 {
		return diag.Errorf(b.Loc, ErrInvalidAttr, "invalid parallelism %d", int(p))
	}
	b.Parallel = int(p)
	return nil
}

func (d BlockDeadline) applyBlock(b *Block) error {
	t := time.Time(d)
	b.Deadline = &t
	return nil
}

func (w BlockWindow) applyBlock(b *Block) error {
	iv := interval.Interval(w)
	b.Window = &iv
	return nil
}

// Apply sets attributes on b.
func (b *Block) Apply(attrs ...BlockAttr) error {
	for _, a := range attrs {
		if err := a.applyBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// Plan is the root of the scheduling tree.
type Plan struct {
	Blocks []*Block
	Loc    diag.Location
}

// Validate checks the tree shape.
func (p *Plan) Validate() error {
	var check func(b *Block) error
	check = func(b *Block) error {
		if b.IsGoal() && len(b.Blocks) > 0 {
			return diag.Errorf(b.Loc, ErrMixedBlock, "block with goal %q should have no subblocks", b.GoalName)
		}
		for _, c := range b.Blocks {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, b := range p.Blocks {
		if err := check(b); err != nil {
			return err
		}
	}
	return nil
}

// GoalNames lists goals referenced by the tree in order.
func (p *Plan) GoalNames() []string {
	var out []string
	var walk func(b *Block)
	walk = func(b *Block) {
		if b.IsGoal() {
			out = append(out, b.GoalName)
		}
		for _, c := range b.Blocks {
			walk(c)
		}
	}
	for _, b := range p.Blocks {
		walk(b)
	}
	return out
}
