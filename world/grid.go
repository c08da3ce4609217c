// Package world defines the per-turn model of the maze: the wall layout,
// the pacs seen so far and the pellets currently in sight.
//
// The grid is loaded once per game and never changes. Entity data is owned
// by State and is only mutated by the per-turn update.
package world

import (
	"errors"
	"fmt"
	"strings"
)

// Point is a grid coordinate. (0,0) is the top-left cell; y grows downward.
type Point struct {
	X int32
	Y int32
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

type CellKind uint8

const (
	Wall CellKind = iota
	Floor
)

// MaxSide bounds each grid dimension read from input.
const MaxSide = 1024

// Markers used by the startup grid block.
const (
	WallMarker  = '#'
	FloorMarker = ' '
)

func (k CellKind) String() string {
	switch k {
	case Wall:
		return "wall"
	case Floor:
		return "floor"
	default:
		return fmt.Sprintf("CellKind(%d)", uint8(k))
	}
}

var (
	ErrBadCell    = errors.New("unrecognized cell marker")
	ErrRowWidth   = errors.New("row width mismatch")
	ErrDimensions = errors.New("invalid grid dimensions")
)

// Grid is the wrapped maze. Cells are stored row-major: index = y*Width + x.
type Grid struct {
	Width  int32
	Height int32
	cells  []CellKind
}

// NewGrid builds a grid from row-major cells. It panics if len(cells) does
// not match the dimensions, the same contract as any other index bug.
func NewGrid(width, height int32, cells []CellKind) *Grid {
	if width <= 0 || height <= 0 || int(width)*int(height) != len(cells) {
		panic(fmt.Sprintf("world: %dx%d grid with %d cells", width, height, len(cells)))
	}
	out := make([]CellKind, len(cells))
	copy(out, cells)
	return &Grid{Width: width, Height: height, cells: out}
}

// ParseGrid converts the startup block into a grid. Every row must be
// exactly width characters of '#' or ' '.
func ParseGrid(width, height int32, rows []string) (*Grid, error) {
	if width <= 0 || height <= 0 || width > MaxSide || height > MaxSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	if int32(len(rows)) != height {
		return nil, fmt.Errorf("%w: want %d rows, got %d", ErrDimensions, height, len(rows))
	}

	cells := make([]CellKind, 0, int(width)*int(height))
	for y, row := range rows {
		if int32(len(row)) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRowWidth, y, len(row), width)
		}
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case WallMarker:
				cells = append(cells, Wall)
			case FloorMarker:
				cells = append(cells, Floor)
			default:
				return nil, fmt.Errorf("%w: %q at (%d,%d)", ErrBadCell, row[x], x, y)
			}
		}
	}
	return &Grid{Width: width, Height: height, cells: cells}, nil
}

// InBounds reports whether p lies inside [0,Width)x[0,Height).
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

func (g *Grid) flatIndex(p Point) int {
	if !g.InBounds(p) {
		panic(fmt.Sprintf("world: point %v outside %dx%d grid", p, g.Width, g.Height))
	}
	return int(p.Y)*int(g.Width) + int(p.X)
}

// Kind returns the cell kind at p. Out-of-bounds access panics.
func (g *Grid) Kind(p Point) CellKind {
	return g.cells[g.flatIndex(p)]
}

// Neighbors returns the floor cells adjacent to p with wrap-around, in the
// fixed order left, up, right, down. Search tie-breaks depend on this order.
func (g *Grid) Neighbors(p Point) []Point {
	g.flatIndex(p)

	candidates := [4]Point{
		{X: wrap(p.X-1, g.Width), Y: p.Y},  // left
		{X: p.X, Y: wrap(p.Y-1, g.Height)}, // up
		{X: wrap(p.X+1, g.Width), Y: p.Y},  // right
		{X: p.X, Y: wrap(p.Y+1, g.Height)}, // down
	}

	out := make([]Point, 0, 4)
	for i, c := range candidates {
		if g.Kind(c) != Floor {
			continue
		}
		// A 1-wide or 1-tall grid wraps a cell onto itself or onto the
		// same neighbor twice.
		dup := c == p
		for _, prev := range candidates[:i] {
			if prev == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

func wrap(v, n int32) int32 {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Rows renders the grid back into its startup block form.
func (g *Grid) Rows() []string {
	rows := make([]string, g.Height)
	var b strings.Builder
	for y := int32(0); y < g.Height; y++ {
		b.Reset()
		for x := int32(0); x < g.Width; x++ {
			if g.Kind(Point{X: x, Y: y}) == Wall {
				b.WriteByte(WallMarker)
			} else {
				b.WriteByte(FloorMarker)
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// FloorCount returns the number of walkable cells.
func (g *Grid) FloorCount() int {
	n := 0
	for _, c := range g.cells {
		if c == Floor {
			n++
		}
	}
	return n
}

// Area is Width*Height.
func (g *Grid) Area() int { return len(g.cells) }
