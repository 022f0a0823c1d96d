package migrate

import (
	"errors"
	"log/slog"

	"github.com/Masterminds/semver/v3"
)

// Registry collects transition declarations from an ordered list of sources
// and assembles them into a Graph. It is rebuilt fresh on every invocation;
// nothing about it persists.
type Registry struct {
	sources []Source
	logger  *slog.Logger
}

// NewRegistry creates a registry over the given sources. Source order matters:
// it decides duplicate-edge precedence and path selection ties, so the
// built-in source must come first, followed by operator-supplied sources in
// the order given.
func NewRegistry(logger *slog.Logger, sources ...Source) *Registry {
	return &Registry{sources: sources, logger: logger}
}

// Load collects all transition declarations and builds the version graph. Any
// malformed source fails the whole load with a RegistryError; a partial graph
// is never returned.
func (r *Registry) Load() (*Graph, error) {
	graph := newGraph()
	for _, src := range r.sources {
		transitions, err := src.Transitions()
		if err != nil {
			return nil, &RegistryError{Source: src.Name(), Err: err}
		}

		for _, t := range transitions {
			if err = validateTransition(t); err != nil {
				return nil, &RegistryError{Source: src.Name(), Err: err}
			}
			if !graph.add(t) {
				r.logger.Warn("duplicate transition ignored; only the first registered is used",
					"transition", t.String(), "source", t.Source)
				continue
			}
			r.logger.Debug("registered transition",
				"transition", t.String(), "source", t.Source)
		}
	}

	return graph, nil
}

func validateTransition(t Transition) error {
	switch {
	case t.From == nil:
		return errors.New("transition has no from version")
	case t.To == nil:
		return errors.New("transition has no to version")
	case t.Apply == nil:
		return errors.New("transition has no operation")
	}
	return nil
}

// Graph maps a source version to the ordered sequence of outgoing transitions
// registered for it. Versions are compared only for equality; no numeric
// ordering is assumed.
type Graph struct {
	outgoing map[string][]Transition
}

func newGraph() *Graph {
	return &Graph{outgoing: make(map[string][]Transition)}
}

// add registers a transition, preserving registration order per source
// version. It reports false if a transition for the same (from, to) pair was
// already registered; the earliest registration wins.
func (g *Graph) add(t Transition) bool {
	key := t.From.String()
	for _, existing := range g.outgoing[key] {
		if existing.To.Equal(t.To) {
			return false
		}
	}
	g.outgoing[key] = append(g.outgoing[key], t)

	return true
}

// Outgoing returns the transitions registered for the given source version,
// in registration order.
func (g *Graph) Outgoing(from *semver.Version) []Transition {
	return g.outgoing[from.String()]
}
