package plugin

import (
	"fmt"
	"sort"
	"strings"
)

// initOrder computes a dependency-respecting initialization order over the
// registered plugins using Kahn's algorithm. Registration order breaks ties,
// so independent plugins initialize in the order they were registered
// regardless of how the graph interleaves them.
//
// Unknown dependencies and cycles are configuration errors.
func initOrder(plugins map[string]Plugin, registered []string) ([]string, error) {
	index := make(map[string]int, len(registered))
	for i, id := range registered {
		index[id] = i
	}

	// indegree counts unresolved dependencies; dependents is the reverse
	// adjacency.
	indegree := make(map[string]int, len(plugins))
	dependents := make(map[string][]string, len(plugins))

	for _, id := range registered {
		p := plugins[id]
		for _, dep := range p.Dependencies {
			if _, ok := plugins[dep]; !ok {
				return nil, fmt.Errorf("%w: %q requires %q", ErrUnknownDependency, id, dep)
			}
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	ready := make([]string, 0, len(registered))
	for _, id := range registered {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(registered))
	for len(ready) > 0 {
		// Earliest-registered ready plugin goes next.
		sort.Slice(ready, func(i, j int) bool {
			return index[ready[i]] < index[ready[j]]
		})
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(registered) {
		remaining := make([]string, 0)
		for _, id := range registered {
			if indegree[id] > 0 {
				remaining = append(remaining, id)
			}
		}
		sort.Strings(remaining)
		return nil, fmt.Errorf("%w: involving %s", ErrDependencyCycle, strings.Join(remaining, ", "))
	}

	return order, nil
}
