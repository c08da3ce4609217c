package world

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrUnknownTeam = errors.New("pac team is unknown")

// State is the single mutable model of the game. It is not safe for
// concurrent use; the game loop owns it.
type State struct {
	Grid *Grid

	pacs    map[PacID]*Pac
	pellets map[Point]Pellet

	turn      int32
	myScore   int32
	oppScore  int32
	turnStart time.Time
}

// NewState returns a state for a freshly loaded grid, before the first turn.
func NewState(grid *Grid) *State {
	return &State{
		Grid:    grid,
		pacs:    make(map[PacID]*Pac),
		pellets: make(map[Point]Pellet),
	}
}

func (s *State) Turn() int32               { return s.turn }
func (s *State) TurnStart() time.Time      { return s.turnStart }
func (s *State) Scores() (mine, opp int32) { return s.myScore, s.oppScore }

// UpsertPac inserts the pac or replaces the properties of the existing
// record with the same identity. Positions are trusted.
func (s *State) UpsertPac(team Team, id int32, props PacProps) error {
	if team == TeamUnknown {
		return fmt.Errorf("upsert pac %d: %w", id, ErrUnknownTeam)
	}
	key := PacID{Team: team, ID: id}
	if p, ok := s.pacs[key]; ok {
		p.PacProps = props
		p.LastSeen = s.turn + 1
		return nil
	}
	s.pacs[key] = &Pac{PacID: key, PacProps: props, LastSeen: s.turn + 1}
	return nil
}

// PacsFor returns every tracked pac of the team, including ones that are no
// longer in sight. Results are ordered by id.
func (s *State) PacsFor(team Team) []Pac {
	out := make([]Pac, 0, len(s.pacs))
	for _, p := range s.pacs {
		if p.Team == team {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pac looks up a single record.
func (s *State) Pac(team Team, id int32) (Pac, bool) {
	p, ok := s.pacs[PacID{Team: team, ID: id}]
	if !ok {
		return Pac{}, false
	}
	return *p, true
}

// ReplacePellets drops every known pellet and stores the given ones. A later
// pellet at the same position overwrites an earlier one.
func (s *State) ReplacePellets(pellets []Pellet) {
	clear(s.pellets)
	for _, p := range pellets {
		s.pellets[p.Pos] = p
	}
}

func (s *State) PelletAt(p Point) (Pellet, bool) {
	pellet, ok := s.pellets[p]
	return pellet, ok
}

func (s *State) PelletCount() int { return len(s.pellets) }

// Snapshot is a detached copy of the visible entities, used for recording.
type Snapshot struct {
	Turn     int32
	MyScore  int32
	OppScore int32
	Pacs     []Pac
	Pellets  []Pellet
}

// Snapshot copies the current entities. Pacs are ordered by team then id and
// pellets by row then column so recordings are stable.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Turn:     s.turn,
		MyScore:  s.myScore,
		OppScore: s.oppScore,
		Pacs:     make([]Pac, 0, len(s.pacs)),
		Pellets:  make([]Pellet, 0, len(s.pellets)),
	}
	for _, p := range s.pacs {
		snap.Pacs = append(snap.Pacs, *p)
	}
	sort.Slice(snap.Pacs, func(i, j int) bool {
		if snap.Pacs[i].Team != snap.Pacs[j].Team {
			return snap.Pacs[i].Team < snap.Pacs[j].Team
		}
		return snap.Pacs[i].ID < snap.Pacs[j].ID
	})
	for _, p := range s.pellets {
		snap.Pellets = append(snap.Pellets, p)
	}
	sort.Slice(snap.Pellets, func(i, j int) bool {
		a, b := snap.Pellets[i].Pos, snap.Pellets[j].Pos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return snap
}
