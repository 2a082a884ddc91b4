package geom

// PathQuery describes a grid search for [ShortestPath].
type PathQuery struct {
	// Starts are the cells the path may begin in.
	Starts []Point

	// Goal reports whether a cell ends the search. Goal cells are accepted
	// even when Passable rejects them.
	Goal func(Point) bool

	// Passable reports whether the path may cross a cell.
	Passable func(Point) bool

	// Bounds limits the search. The zero Area means unbounded.
	Bounds Area

	// MaxTurns caps the number of heading changes. Negative means no cap.
	MaxTurns int

	// Done aborts the search when closed. A nil channel never aborts.
	Done <-chan struct{}
}

type pathState struct {
	p     Point
	dir   Direction
	turns int
}

type pathNode struct {
	state  pathState
	parent int
}

const noHeading Direction = 255

// ShortestPath returns a path with the fewest steps from one of q.Starts to
// a goal cell, including both ends, honoring the turn cap. Neighbors are
// expanded in N, E, S, W order so the result is deterministic. ok is false
// when no goal is reachable or q.Done was closed.
//
// Without a turn cap states are keyed by cell and heading only, so the
// search visits each of them once.
func ShortestPath(q PathQuery) (path []Point, ok bool) {
	bounded := !q.Bounds.Empty()
	inBounds := func(p Point) bool { return !bounded || q.Bounds.Contains(p) }
	capped := q.MaxTurns >= 0

	seen := make(map[pathState]struct{})
	var nodes []pathNode
	for _, s := range q.Starts {
		if q.Goal(s) {
			return []Point{s}, true
		}
		st := pathState{s, noHeading, 0}
		if _, dup := seen[st]; dup {
			continue
		}
		seen[st] = struct{}{}
		nodes = append(nodes, pathNode{st, -1})
	}

	for head := 0; head < len(nodes); head++ {
		select {
		case <-q.Done:
			return nil, false
		default:
		}
		cur := nodes[head].state
		for _, d := range Directions {
			if cur.dir != noHeading && d == cur.dir.Opposite() {
				continue
			}
			turns := cur.turns
			if capped && cur.dir != noHeading && d != cur.dir {
				turns++
			}
			if capped && turns > q.MaxTurns {
				continue
			}
			next := cur.p.Step(d)
			if !inBounds(next) {
				continue
			}
			if q.Goal(next) {
				return unwind(nodes, head, next), true
			}
			if !q.Passable(next) {
				continue
			}
			st := pathState{next, d, turns}
			if _, dup := seen[st]; dup {
				continue
			}
			seen[st] = struct{}{}
			nodes = append(nodes, pathNode{st, head})
		}
	}
	return nil, false
}

func unwind(nodes []pathNode, from int, last Point) []Point {
	path := []Point{last}
	for i := from; i >= 0; i = nodes[i].parent {
		path = append(path, nodes[i].state.p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Turns counts the heading changes along a path.
func Turns(path []Point) int {
	turns := 0
	for i := 2; i < len(path); i++ {
		a, _ := DirectionTo(path[i-2], path[i-1])
		b, _ := DirectionTo(path[i-1], path[i])
		if a != b {
			turns++
		}
	}
	return turns
}
