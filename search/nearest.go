// Package search finds targets on the wrapped maze.
//
// All moves cost one step, so a plain breadth-first search gives graph
// distance. Ties inside a BFS layer are resolved by the grid's neighbor
// order (left, up, right, down), which makes results repeatable.
package search

import (
	"github.com/brensch/pacpellet/world"
)

// Result describes one nearest-pellet search.
type Result struct {
	Pellet   world.Pellet
	Found    bool
	Distance int // steps from start to Pellet.Pos, valid when Found
	Expanded int // positions dequeued before the search stopped
}

type node struct {
	pos  world.Point
	dist int
}

// Search runs BFS from start over floor cells and stops at the first
// dequeued position holding a pellet, start included.
func Search(s *world.State, start world.Point) Result {
	visited := map[world.Point]bool{start: true}
	queue := []node{{pos: start}}

	var res Result
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		res.Expanded++

		if pellet, ok := s.PelletAt(cur.pos); ok {
			res.Pellet = pellet
			res.Found = true
			res.Distance = cur.dist
			return res
		}

		for _, n := range s.Grid.Neighbors(cur.pos) {
			if visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, node{pos: n, dist: cur.dist + 1})
		}
	}
	return res
}

// NearestPellet returns the closest pellet by graph distance, or false when
// no pellet shares start's connected component.
func NearestPellet(s *world.State, start world.Point) (world.Pellet, bool) {
	res := Search(s, start)
	return res.Pellet, res.Found
}
