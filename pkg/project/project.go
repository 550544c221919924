// Package project describes the organizational side of a plan: people,
// teams and non-working days.
package project

import (
	"errors"
	"fmt"
	"sort"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/interval"
)

// AllTeam is the predefined team containing every member.
const AllTeam = "all"

var (
	ErrReservedTeam      = errors.New("reserved team name")
	ErrNameClash         = errors.New("team and member names clash")
	ErrUnknownResource   = errors.New("unknown resource")
	ErrDuplicateResource = errors.New("duplicate resource")
	ErrInvalidEfficiency = errors.New("invalid efficiency")
)

// Resource is a single person who can be booked for work.
type Resource struct {
	Name string
	Loc  diag.Location
	// Efficiency scales effort: a resource with efficiency 2 does 16h of
	// estimated work in one 8h day.
	Efficiency float64
	Vacations  []interval.Interval
}

// NewResource returns a resource with the default efficiency of 1.
func NewResource(name string, loc diag.Location) *Resource {
	return &Resource{Name: name, Loc: loc, Efficiency: 1}
}

// Team is a named group of resources.
type Team struct {
	Name    string
	Loc     diag.Location
	Members []string

	resolved []*Resource
}

// Resources returns the team members. Valid after Project.Resolve.
func (t *Team) Resources() []*Resource {
	return append([]*Resource(nil), t.resolved...)
}

// Project holds the resources of a plan.
type Project struct {
	Name     string
	Loc      diag.Location
	Duration interval.Interval
	Members  []*Resource
	Teams    []*Team
	Holidays []interval.Interval

	TrackerLink string
	PRLink      string

	members map[string]*Resource
	teams   map[string]*Team
}

// New returns an empty project.
func New(name string, loc diag.Location) *Project {
	return &Project{Name: name, Loc: loc}
}

// Resolve indexes members and teams and binds team members to resources.
// It must be called after the project is populated and before lookups.
func (p *Project) Resolve() error {
	p.members = make(map[string]*Resource, len(p.Members))
	for _, m := range p.Members {
		if m.Efficiency <= 0 {
			return diag.Errorf(m.Loc, ErrInvalidEfficiency, "resource %q has non-positive efficiency %g", m.Name, m.Efficiency)
		}
		if _, dup := p.members[m.Name]; dup {
			return diag.Errorf(m.Loc, ErrDuplicateResource, "resource %q defined twice", m.Name)
		}
		p.members[m.Name] = m
	}

	p.teams = make(map[string]*Team, len(p.Teams)+1)
	for _, t := range p.Teams {
		if t.Name == AllTeam {
			return diag.Errorf(t.Loc, ErrReservedTeam, "predefined team %q overridden", AllTeam)
		}
		if _, clash := p.members[t.Name]; clash {
			return diag.Errorf(t.Loc, ErrNameClash, "team %q clashes with developer %q", t.Name, t.Name)
		}
		if _, dup := p.teams[t.Name]; dup {
			return diag.Errorf(t.Loc, ErrDuplicateResource, "team %q defined twice", t.Name)
		}
		t.resolved = t.resolved[:0]
		for _, name := range t.Members {
			m, ok := p.members[name]
			if !ok {
				return diag.Errorf(t.Loc, ErrUnknownResource, "no member with name %q", name)
			}
			t.resolved = append(t.resolved, m)
		}
		p.teams[t.Name] = t
	}

	all := &Team{Name: AllTeam, Loc: p.Loc, resolved: append([]*Resource(nil), p.Members...)}
	for _, m := range p.Members {
		all.Members = append(all.Members, m.Name)
	}
	p.teams[AllTeam] = all
	return nil
}

// Member looks up a resource by name.
func (p *Project) Member(name string) (*Resource, bool) {
	m, ok := p.members[name]
	return m, ok
}

// Team looks up a team by name, including the predefined one.
func (p *Project) Team(name string) (*Team, bool) {
	t, ok := p.teams[name]
	return t, ok
}

// Resources expands team and member names into a deduplicated list of
// resources sorted by name. No names means everyone.
func (p *Project) Resources(names []string) ([]*Resource, error) {
	if len(names) == 0 {
		names = []string{AllTeam}
	}
	seen := make(map[*Resource]bool)
	var out []*Resource
	add := func(r *Resource) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, name := range names {
		if t, ok := p.teams[name]; ok {
			for _, r := range t.resolved {
				add(r)
			}
			continue
		}
		r, ok := p.members[name]
		if !ok {
			return nil, fmt.Errorf("%w: resource %q not defined", ErrUnknownResource, name)
		}
		add(r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// OffDays returns the intervals r does not work on: project holidays plus
// personal vacations.
func (p *Project) OffDays(r *Resource) []interval.Interval {
	off := make([]interval.Interval, 0, len(p.Holidays)+len(r.Vacations))
	off = append(off, p.Holidays...)
	return append(off, r.Vacations...)
}

// TaskURL renders a tracker link for a task ID.
func (p *Project) TaskURL(task string) string {
	if p.TrackerLink == "" {
		return task
	}
	return fmt.Sprintf(p.TrackerLink, task)
}

// PullRequestURL renders a link for a pull request ID.
func (p *Project) PullRequestURL(pr string) string {
	if p.PRLink == "" {
		return pr
	}
	return fmt.Sprintf(p.PRLink, pr)
}
