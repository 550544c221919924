package store

import (
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Raw YAML shapes of a plan file. Every element remembers the line it
// starts on so errors and warnings can point back into the file. Mapping
// keys that no field accepts are kept in Unknown and rejected by the
// builder.

// rawKey is a mapping key together with its line.
type rawKey struct {
	Name string
	Line int
}

// unknownKeys returns the keys of a mapping node that are not yaml tags
// of the struct v points to.
func unknownKeys(value *yaml.Node, v any) []rawKey {
	if value.Kind == yaml.DocumentNode && len(value.Content) == 1 {
		value = value.Content[0]
	}
	if value.Kind != yaml.MappingNode {
		return nil
	}
	known := yamlTags(reflect.TypeOf(v).Elem())
	var out []rawKey
	for i := 0; i+1 < len(value.Content); i += 2 {
		k := value.Content[i]
		if k.Value == "<<" || known[k.Value] {
			continue
		}
		out = append(out, rawKey{Name: k.Value, Line: k.Line})
	}
	return out
}

func yamlTags(t reflect.Type) map[string]bool {
	tags := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name != "" && name != "-" {
			tags[name] = true
		}
	}
	return tags
}

type rawPlan struct {
	Project  *rawProject `yaml:"project"`
	Goals    []*rawGoal  `yaml:"goals"`
	Schedule []*rawBlock `yaml:"schedule"`

	Unknown []rawKey `yaml:"-"`
}

func (p *rawPlan) UnmarshalYAML(value *yaml.Node) error {
	type plain rawPlan
	if err := value.Decode((*plain)(p)); err != nil {
		return err
	}
	p.Unknown = unknownKeys(value, p)
	return nil
}

type rawProject struct {
	Name     string       `yaml:"name"`
	Start    string       `yaml:"start"`
	Finish   string       `yaml:"finish"`
	Holidays []string     `yaml:"holidays"`
	Members  []*rawMember `yaml:"members"`
	Teams    []*rawTeam   `yaml:"teams"`
	Tracker  string       `yaml:"tracker"`
	PRs      string       `yaml:"prs"`

	Line    int      `yaml:"-"`
	Unknown []rawKey `yaml:"-"`
}

func (p *rawProject) UnmarshalYAML(value *yaml.Node) error {
	type plain rawProject
	if err := value.Decode((*plain)(p)); err != nil {
		return err
	}
	p.Line = value.Line
	p.Unknown = unknownKeys(value, p)
	return nil
}

// rawMember is either a bare name or a mapping.
type rawMember struct {
	Name       string   `yaml:"name"`
	Efficiency *float64 `yaml:"efficiency"`
	Vacations  []string `yaml:"vacations"`

	Line    int      `yaml:"-"`
	Unknown []rawKey `yaml:"-"`
}

func (m *rawMember) UnmarshalYAML(value *yaml.Node) error {
	m.Line = value.Line
	if value.Kind == yaml.ScalarNode {
		m.Name = value.Value
		return nil
	}
	type plain rawMember
	if err := value.Decode((*plain)(m)); err != nil {
		return err
	}
	m.Line = value.Line
	m.Unknown = unknownKeys(value, m)
	return nil
}

type rawTeam struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`

	Line    int      `yaml:"-"`
	Unknown []rawKey `yaml:"-"`
}

func (t *rawTeam) UnmarshalYAML(value *yaml.Node) error {
	type plain rawTeam
	if err := value.Decode((*plain)(t)); err != nil {
		return err
	}
	t.Line = value.Line
	t.Unknown = unknownKeys(value, t)
	return nil
}

type rawGoal struct {
	Name      string      `yaml:"name"`
	Alias     string      `yaml:"alias"`
	Prio      *int        `yaml:"prio"`
	Risk      *int        `yaml:"risk"`
	Iter      *int        `yaml:"iter"`
	Deadline  string      `yaml:"deadline"`
	Completed string      `yaml:"completed"`
	Checks    []*rawCheck `yaml:"checks"`
	Depends   []*rawDep   `yaml:"depends"`
	Children  []*rawGoal  `yaml:"children"`

	Line    int      `yaml:"-"`
	Unknown []rawKey `yaml:"-"`
}

func (g *rawGoal) UnmarshalYAML(value *yaml.Node) error {
	type plain rawGoal
	if err := value.Decode((*plain)(g)); err != nil {
		return err
	}
	g.Line = value.Line
	g.Unknown = unknownKeys(value, g)
	return nil
}

// rawCheck is either a bare check name (pending) or a mapping with a status.
type rawCheck struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`

	Line    int      `yaml:"-"`
	Unknown []rawKey `yaml:"-"`
}

func (c *rawCheck) UnmarshalYAML(value *yaml.Node) error {
	c.Line = value.Line
	if value.Kind == yaml.ScalarNode {
		c.Name = value.Value
		return nil
	}
	type plain rawCheck
	if err := value.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Line = value.Line
	c.Unknown = unknownKeys(value, c)
	return nil
}

// rawDep is an incoming activity of a goal. Without Goal but with nested
// Depends it introduces an anonymous junction goal.
type rawDep struct {
	Goal       string            `yaml:"goal"`
	ID         string            `yaml:"id"`
	Effort     string            `yaml:"effort"`
	Completion string            `yaml:"completion"`
	Alloc      []string          `yaml:"alloc"`
	Parallel   string            `yaml:"parallel"`
	Dates      string            `yaml:"dates"`
	Overlaps   map[string]string `yaml:"overlaps"`
	Global     bool              `yaml:"global"`
	Tasks      []string          `yaml:"tasks"`
	PRs        []string          `yaml:"prs"`
	Depends    []*rawDep         `yaml:"depends"`

	Line    int      `yaml:"-"`
	Unknown []rawKey `yaml:"-"`
}

func (d *rawDep) UnmarshalYAML(value *yaml.Node) error {
	d.Line = value.Line
	if value.Kind == yaml.ScalarNode {
		d.Goal = value.Value
		return nil
	}
	type plain rawDep
	if err := value.Decode((*plain)(d)); err != nil {
		return err
	}
	d.Line = value.Line
	d.Unknown = unknownKeys(value, d)
	return nil
}

// rawBlock is a scheduling block: either a goal reference or a seq/par
// group of nested blocks.
type rawBlock struct {
	Goal     string      `yaml:"goal"`
	Seq      []*rawBlock `yaml:"seq"`
	Par      []*rawBlock `yaml:"par"`
	Alloc    []string    `yaml:"alloc"`
	Parallel string      `yaml:"parallel"`
	Deadline string      `yaml:"deadline"`
	Window   string      `yaml:"window"`

	Line    int      `yaml:"-"`
	Unknown []rawKey `yaml:"-"`
}

func (b *rawBlock) UnmarshalYAML(value *yaml.Node) error {
	b.Line = value.Line
	if value.Kind == yaml.ScalarNode {
		b.Goal = value.Value
		return nil
	}
	type plain rawBlock
	if err := value.Decode((*plain)(b)); err != nil {
		return err
	}
	b.Line = value.Line
	b.Unknown = unknownKeys(value, b)
	return nil
}
