package migrate

import "github.com/Masterminds/semver/v3"

// Resolve computes the ordered sequence of transitions that moves the schema
// from the current version to the target. It returns an empty path if the two
// are equal, and a PathNotFoundError if the target is unreachable.
//
// The search is breadth-first, so the returned path always has the fewest
// possible transitions. Among equal-length candidates the path reached through
// earlier-registered transitions wins: each version is claimed by the first
// transition that discovers it, and outgoing transitions are explored in
// registration order. Path selection is therefore a pure function of the
// registry's load order.
func (g *Graph) Resolve(current, target *semver.Version) ([]Transition, error) {
	if current.Equal(target) {
		return []Transition{}, nil
	}

	type visit struct {
		version *semver.Version
		// transition that discovered this version, and the visit it came from
		via  *Transition
		prev *visit
	}

	visited := map[string]bool{current.String(): true}
	queue := []*visit{{version: current}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, t := range g.Outgoing(cur.version) {
			if visited[t.To.String()] {
				continue
			}
			visited[t.To.String()] = true

			next := &visit{version: t.To, via: &t, prev: cur}
			if t.To.Equal(target) {
				// Walk the discovery chain back to the start.
				var path []Transition
				for v := next; v.via != nil; v = v.prev {
					path = append(path, *v.via)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, nil
			}
			queue = append(queue, next)
		}
	}

	return nil, &PathNotFoundError{Current: current, Target: target}
}
