// Package catalog models the dependency graph of an ETL catalog: steps
// identified by URIs, grouped into channels, wired by human-authored
// dependency lists loaded from a YAML file.
package catalog

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Channel is a processing stage of the catalog. Data flows from snapshot
// through meadow and garden to grapher.
type Channel string

const (
	ChannelSnapshot Channel = "snapshot"
	ChannelMeadow   Channel = "meadow"
	ChannelGarden   Channel = "garden"
	ChannelGrapher  Channel = "grapher"
)

var channelRank = map[Channel]int{
	ChannelSnapshot: 0,
	ChannelMeadow:   1,
	ChannelGarden:   2,
	ChannelGrapher:  3,
}

// Valid reports whether the channel is one of the known stages.
func (c Channel) Valid() bool {
	_, ok := channelRank[c]
	return ok
}

// Step is one node of the dependency graph.
type Step struct {
	// URI has the form <channel>/<namespace>/<version>/<name>, optionally
	// prefixed with "data://".
	URI          string
	Dependencies []string
}

// Channel extracts the processing stage from the step URI.
func (s *Step) Channel() Channel {
	uri := strings.TrimPrefix(s.URI, "data://")
	if i := strings.Index(uri, "/"); i > 0 {
		return Channel(uri[:i])
	}
	return Channel(uri)
}

// CycleError reports a dependency cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Catalog is a validated set of steps.
type Catalog struct {
	steps map[string]*Step
}

type dagFile struct {
	Steps map[string][]string `yaml:"steps"`
}

// Load reads a catalog from a YAML DAG file of the form:
//
//	steps:
//	  garden/who/2024-01-03/gho:
//	    - meadow/who/2024-01-03/gho
func Load(r io.Reader) (*Catalog, error) {
	var file dagFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	steps := make([]*Step, 0, len(file.Steps))
	for uri, deps := range file.Steps {
		steps = append(steps, &Step{URI: uri, Dependencies: deps})
	}

	return New(steps)
}

// New builds a catalog, rejecting unknown channels, dangling dependencies
// and dependencies flowing against the channel order.
func New(steps []*Step) (*Catalog, error) {
	c := &Catalog{steps: make(map[string]*Step, len(steps))}
	for _, s := range steps {
		if !s.Channel().Valid() {
			return nil, fmt.Errorf("step %s: unknown channel %q", s.URI, s.Channel())
		}
		if _, ok := c.steps[s.URI]; ok {
			return nil, fmt.Errorf("duplicate step %s", s.URI)
		}
		c.steps[s.URI] = s
	}

	for _, s := range steps {
		for _, dep := range s.Dependencies {
			d, ok := c.steps[dep]
			if !ok {
				return nil, fmt.Errorf("step %s depends on unknown step %s", s.URI, dep)
			}
			if channelRank[d.Channel()] > channelRank[s.Channel()] {
				return nil, fmt.Errorf("step %s (%s) cannot depend on later-channel step %s (%s)",
					s.URI, s.Channel(), dep, d.Channel())
			}
		}
	}

	if _, err := c.TopoSort(); err != nil {
		return nil, err
	}

	return c, nil
}

// Step returns a step by URI.
func (c *Catalog) Step(uri string) (*Step, bool) {
	s, ok := c.steps[uri]
	return s, ok
}

// Len returns the number of steps.
func (c *Catalog) Len() int {
	return len(c.steps)
}

// URIs returns all step URIs, sorted.
func (c *Catalog) URIs() []string {
	uris := make([]string, 0, len(c.steps))
	for uri := range c.steps {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// TopoSort returns the steps in dependency order. Ties break
// lexicographically, so the order is stable across runs.
func (c *Catalog) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(c.steps))
	dependents := make(map[string][]string, len(c.steps))

	for uri, s := range c.steps {
		indegree[uri] += 0
		for _, dep := range s.Dependencies {
			indegree[uri]++
			dependents[dep] = append(dependents[dep], uri)
		}
	}

	ready := make([]string, 0, len(c.steps))
	for uri, deg := range indegree {
		if deg == 0 {
			ready = append(ready, uri)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(c.steps))
	for len(ready) > 0 {
		uri := ready[0]
		ready = ready[1:]
		order = append(order, uri)

		changed := false
		for _, dependent := range dependents[uri] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
				changed = true
			}
		}
		if changed {
			sort.Strings(ready)
		}
	}

	if len(order) != len(c.steps) {
		return nil, &CycleError{Path: c.findCycle()}
	}

	return order, nil
}

// findCycle walks the graph depth-first and returns one cycle path.
func (c *Catalog) findCycle() []string {
	const (
		white = 0
		grey  = 1
		black = 2
	)

	color := make(map[string]int, len(c.steps))
	var stack []string
	var cycle []string

	var visit func(uri string) bool
	visit = func(uri string) bool {
		color[uri] = grey
		stack = append(stack, uri)

		for _, dep := range c.steps[uri].Dependencies {
			switch color[dep] {
			case grey:
				for i, u := range stack {
					if u == dep {
						cycle = append(append([]string{}, stack[i:]...), dep)
						return true
					}
				}
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[uri] = black
		return false
	}

	for _, uri := range c.URIs() {
		if color[uri] == white && visit(uri) {
			break
		}
	}

	return cycle
}

// Subgraph returns the step and its transitive dependencies, sorted.
func (c *Catalog) Subgraph(uri string) ([]string, error) {
	if _, ok := c.steps[uri]; !ok {
		return nil, fmt.Errorf("unknown step %s", uri)
	}

	seen := make(map[string]bool)
	var walk func(u string)
	walk = func(u string) {
		if seen[u] {
			return
		}
		seen[u] = true
		for _, dep := range c.steps[u].Dependencies {
			walk(dep)
		}
	}
	walk(uri)

	uris := make([]string, 0, len(seen))
	for u := range seen {
		uris = append(uris, u)
	}
	sort.Strings(uris)
	return uris, nil
}

// Dependents returns every step that transitively depends on uri, sorted.
func (c *Catalog) Dependents(uri string) ([]string, error) {
	if _, ok := c.steps[uri]; !ok {
		return nil, fmt.Errorf("unknown step %s", uri)
	}

	reverse := make(map[string][]string, len(c.steps))
	for u, s := range c.steps {
		for _, dep := range s.Dependencies {
			reverse[dep] = append(reverse[dep], u)
		}
	}

	seen := make(map[string]bool)
	var walk func(u string)
	walk = func(u string) {
		for _, dependent := range reverse[u] {
			if !seen[dependent] {
				seen[dependent] = true
				walk(dependent)
			}
		}
	}
	walk(uri)

	uris := make([]string, 0, len(seen))
	for u := range seen {
		uris = append(uris, u)
	}
	sort.Strings(uris)
	return uris, nil
}
