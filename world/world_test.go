package world

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/brensch/pacpellet/protocol"
)

// dumpState renders the grid with pellets ('.') and pacs (digit for own id,
// letter for opponent id) for test logs.
func dumpState(s *State) string {
	rows := s.Grid.Rows()
	board := make([][]byte, len(rows))
	for y, r := range rows {
		board[y] = []byte(r)
	}
	snap := s.Snapshot()
	for _, p := range snap.Pellets {
		board[p.Pos.Y][p.Pos.X] = '.'
	}
	for _, p := range snap.Pacs {
		if p.Team == TeamSelf {
			board[p.Pos.Y][p.Pos.X] = byte('0' + p.ID%10)
		} else {
			board[p.Pos.Y][p.Pos.X] = byte('a' + p.ID%26)
		}
	}
	var sb strings.Builder
	for _, r := range board {
		sb.WriteByte('|')
		sb.Write(r)
		sb.WriteString("|\n")
	}
	return sb.String()
}

func openGrid(w, h int32) *Grid {
	rows := make([]string, h)
	for i := range rows {
		rows[i] = strings.Repeat(" ", int(w))
	}
	g, err := ParseGrid(w, h, rows)
	if err != nil {
		panic(err)
	}
	return g
}

func TestParseGrid_AsymmetricRowMajor(t *testing.T) {
	rows := []string{
		"#  # ",
		"  ## ",
		"#    ",
	}
	g, err := ParseGrid(5, 3, rows)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}

	cases := []struct {
		p    Point
		want CellKind
	}{
		{Point{0, 0}, Wall},
		{Point{3, 0}, Wall},
		{Point{4, 0}, Floor},
		{Point{0, 1}, Floor},
		{Point{2, 1}, Wall},
		{Point{3, 1}, Wall},
		{Point{0, 2}, Wall},
		{Point{4, 2}, Floor},
	}
	for _, c := range cases {
		if got := g.Kind(c.p); got != c.want {
			t.Errorf("Kind(%v) = %v, want %v", c.p, got, c.want)
		}
	}

	if got := strings.Join(g.Rows(), "\n"); got != strings.Join(rows, "\n") {
		t.Errorf("Rows round trip mismatch:\n%s", got)
	}
	if g.FloorCount() != 10 {
		t.Errorf("FloorCount = %d, want 10", g.FloorCount())
	}
}

func TestParseGrid_Rejects(t *testing.T) {
	if _, err := ParseGrid(3, 1, []string{"#W "}); !errors.Is(err, ErrBadCell) {
		t.Errorf("expected ErrBadCell, got %v", err)
	}
	if _, err := ParseGrid(3, 2, []string{"###", "# "}); !errors.Is(err, ErrRowWidth) {
		t.Errorf("expected ErrRowWidth, got %v", err)
	}
	if _, err := ParseGrid(3, 2, []string{"###"}); !errors.Is(err, ErrDimensions) {
		t.Errorf("expected ErrDimensions, got %v", err)
	}
	if _, err := ParseGrid(0, 2, nil); !errors.Is(err, ErrDimensions) {
		t.Errorf("expected ErrDimensions for zero width, got %v", err)
	}
}

func TestKind_OutOfBoundsPanics(t *testing.T) {
	g := openGrid(4, 2)
	for _, p := range []Point{{-1, 0}, {4, 0}, {0, 2}, {0, -1}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Kind(%v) did not panic", p)
				}
			}()
			g.Kind(p)
		}()
	}
}

func TestNeighbors_Properties(t *testing.T) {
	grids := []*Grid{
		openGrid(1, 1),
		openGrid(2, 1),
		openGrid(1, 3),
		openGrid(2, 2),
		openGrid(5, 3),
	}
	mixed, err := ParseGrid(4, 3, []string{"# # ", "    ", "## #"})
	if err != nil {
		t.Fatal(err)
	}
	grids = append(grids, mixed)

	for _, g := range grids {
		for y := int32(0); y < g.Height; y++ {
			for x := int32(0); x < g.Width; x++ {
				p := Point{x, y}
				ns := g.Neighbors(p)
				if len(ns) > 4 {
					t.Fatalf("%dx%d Neighbors(%v) returned %d points", g.Width, g.Height, p, len(ns))
				}
				seen := map[Point]bool{}
				for _, n := range ns {
					if seen[n] {
						t.Errorf("%dx%d Neighbors(%v) duplicate %v", g.Width, g.Height, p, n)
					}
					seen[n] = true
					if !g.InBounds(n) {
						t.Errorf("%dx%d Neighbors(%v) out of bounds %v", g.Width, g.Height, p, n)
					}
					if g.Kind(n) != Floor {
						t.Errorf("%dx%d Neighbors(%v) returned wall %v", g.Width, g.Height, p, n)
					}
				}
			}
		}
	}
}

func TestNeighbors_WrapAndOrder(t *testing.T) {
	g := openGrid(5, 4)
	got := g.Neighbors(Point{0, 0})
	want := []Point{{4, 0}, {0, 3}, {1, 0}, {0, 1}}
	if len(got) != len(want) {
		t.Fatalf("Neighbors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Neighbors = %v, want %v (left, up, right, down)", got, want)
		}
	}

	walled, err := ParseGrid(3, 3, []string{
		"###",
		"#  ",
		"# #",
	})
	if err != nil {
		t.Fatal(err)
	}
	got = walled.Neighbors(Point{1, 1})
	want = []Point{{2, 1}, {1, 2}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("walled Neighbors = %v, want %v", got, want)
	}
	// Moving right from (2,1) wraps onto the wall at (0,1).
	got = walled.Neighbors(Point{2, 1})
	if len(got) != 1 || got[0] != (Point{1, 1}) {
		t.Fatalf("wrapped Neighbors = %v", got)
	}
}

func TestUpsertPac_Idempotent(t *testing.T) {
	s := NewState(openGrid(3, 3))
	if err := s.UpsertPac(TeamSelf, 1, PacProps{Kind: KindRock, Pos: Point{0, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPac(TeamSelf, 1, PacProps{Kind: KindPaper, Pos: Point{2, 1}, SpeedTurnsLeft: 3}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPac(TeamOpponent, 1, PacProps{Kind: KindScissors, Pos: Point{1, 1}}); err != nil {
		t.Fatal(err)
	}

	mine := s.PacsFor(TeamSelf)
	if len(mine) != 1 {
		t.Fatalf("PacsFor(self) = %d records, want 1", len(mine))
	}
	if mine[0].Kind != KindPaper || mine[0].Pos != (Point{2, 1}) || mine[0].SpeedTurnsLeft != 3 {
		t.Fatalf("record not replaced: %+v", mine[0])
	}
	if opp := s.PacsFor(TeamOpponent); len(opp) != 1 || opp[0].Kind != KindScissors {
		t.Fatalf("opponent record = %+v", opp)
	}

	if err := s.UpsertPac(TeamUnknown, 2, PacProps{}); !errors.Is(err, ErrUnknownTeam) {
		t.Fatalf("expected ErrUnknownTeam, got %v", err)
	}
}

func TestReplacePellets_Total(t *testing.T) {
	s := NewState(openGrid(4, 4))
	s.ReplacePellets([]Pellet{{Pos: Point{0, 0}, Value: 1}, {Pos: Point{1, 1}, Value: 1}})
	s.ReplacePellets([]Pellet{
		{Pos: Point{1, 1}, Value: 1},
		{Pos: Point{3, 2}, Value: 1},
		{Pos: Point{3, 2}, Value: 10},
	})

	if _, ok := s.PelletAt(Point{0, 0}); ok {
		t.Errorf("stale pellet at (0,0) survived replace")
	}
	if _, ok := s.PelletAt(Point{1, 1}); !ok {
		t.Errorf("missing pellet at (1,1)")
	}
	if p, ok := s.PelletAt(Point{3, 2}); !ok || p.Value != 10 {
		t.Errorf("PelletAt(3,2) = %+v %v, want last write value 10", p, ok)
	}
	if s.PelletCount() != 2 {
		t.Errorf("PelletCount = %d, want 2", s.PelletCount())
	}
}

func TestParsePacKind(t *testing.T) {
	for token, want := range map[string]PacKind{"ROCK": KindRock, "PAPER": KindPaper, "SCISSORS": KindScissors, "DEAD": KindDead} {
		got, err := ParsePacKind(token)
		if err != nil || got != want {
			t.Errorf("ParsePacKind(%q) = %v, %v", token, got, err)
		}
		if got.String() != token {
			t.Errorf("%v.String() = %q", got, got.String())
		}
	}
	if _, err := ParsePacKind("rock"); !errors.Is(err, ErrUnknownPacKind) {
		t.Errorf("expected ErrUnknownPacKind, got %v", err)
	}
}

func TestReadGridAndUpdate(t *testing.T) {
	r := protocol.NewSliceReader(
		"5 3",
		"#####",
		"     ",
		"#####",
		"10 7",
		"2",
		"0 1 0 1 ROCK 0 0",
		"0 0 4 1 PAPER 2 5",
		"2",
		"2 1 1",
		"3 1 10",
		"11 7",
		"1",
		"0 1 1 1 ROCK 0 0",
		"1",
		"3 1 10",
	)
	g, err := ReadGrid(r)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	s := NewState(g)

	t0 := time.Unix(100, 0)
	if err := s.Update(r, t0); err != nil {
		t.Fatalf("Update 1: %v", err)
	}
	t.Logf("turn 1:\n%s", dumpState(s))
	if s.Turn() != 1 || !s.TurnStart().Equal(t0) {
		t.Fatalf("turn=%d start=%v", s.Turn(), s.TurnStart())
	}
	if mine, opp := s.Scores(); mine != 10 || opp != 7 {
		t.Fatalf("scores = %d,%d", mine, opp)
	}
	opp, ok := s.Pac(TeamOpponent, 0)
	if !ok || opp.Kind != KindPaper || opp.SpeedTurnsLeft != 2 || opp.AbilityCooldown != 5 || opp.LastSeen != 1 {
		t.Fatalf("opponent = %+v", opp)
	}

	t1 := t0.Add(time.Second)
	if err := s.Update(r, t1); err != nil {
		t.Fatalf("Update 2: %v", err)
	}
	t.Logf("turn 2:\n%s", dumpState(s))
	if s.Turn() != 2 || !s.TurnStart().Equal(t1) {
		t.Fatalf("turn=%d start=%v", s.Turn(), s.TurnStart())
	}
	// The opponent was not visible on turn 2 but its last-known record stays.
	opp, ok = s.Pac(TeamOpponent, 0)
	if !ok || opp.Pos != (Point{4, 1}) || opp.LastSeen != 1 {
		t.Fatalf("stale opponent = %+v %v", opp, ok)
	}
	mine, _ := s.Pac(TeamSelf, 0)
	if mine.Pos != (Point{1, 1}) || mine.LastSeen != 2 {
		t.Fatalf("own pac = %+v", mine)
	}
	if _, ok := s.PelletAt(Point{2, 1}); ok {
		t.Fatalf("pellet (2,1) should be gone after turn 2")
	}

	if err := s.Update(r, t1); err != io.EOF {
		t.Fatalf("expected bare io.EOF at end of game, got %v", err)
	}
}

func TestUpdate_MalformedInput(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  error
	}{
		{"bad score", []string{"x 0"}, nil},
		{"short score", []string{"1"}, protocol.ErrFieldCount},
		{"short pac", []string{"0 0", "1", "0 1 0 0 ROCK"}, protocol.ErrFieldCount},
		{"bad kind", []string{"0 0", "1", "0 1 0 0 LIZARD 0 0"}, ErrUnknownPacKind},
		{"bad mine", []string{"0 0", "1", "0 2 0 0 ROCK 0 0"}, ErrUnknownTeam},
		{"short pellet", []string{"0 0", "0", "1", "1 1"}, protocol.ErrFieldCount},
		{"truncated turn", []string{"0 0", "2", "0 1 0 0 ROCK 0 0"}, io.ErrUnexpectedEOF},
		{"missing pellet count", []string{"0 0", "0"}, io.ErrUnexpectedEOF},
		{"long score", []string{"1 2 3", "0", "0"}, protocol.ErrFieldCount},
		{"long pac count", []string{"1 2", "0 9", "0"}, protocol.ErrFieldCount},
		{"long pac", []string{"0 0", "1", "0 1 0 0 ROCK 0 0 EXTRA", "0"}, protocol.ErrFieldCount},
		{"long pellet", []string{"0 0", "0", "1", "1 1 1 junk"}, protocol.ErrFieldCount},
		{"negative pac count", []string{"1 2", "-1", "0"}, protocol.ErrCountRange},
		{"negative pellet count", []string{"1 2", "0", "-5"}, protocol.ErrCountRange},
		{"huge pellet count", []string{"1 2", "0", "9223372036854775807"}, protocol.ErrCountRange},
		{"more pacs than cells", []string{"1 2", "10"}, protocol.ErrCountRange},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewState(openGrid(3, 3))
			err := s.Update(protocol.NewSliceReader(c.lines...), time.Now())
			if err == nil {
				t.Fatalf("expected error")
			}
			if err == io.EOF || errors.Is(err, io.EOF) {
				t.Fatalf("mid-turn failure must not look like end of game: %v", err)
			}
			if c.want != nil && !errors.Is(err, c.want) {
				t.Fatalf("error = %v, want %v", err, c.want)
			}
			if s.Turn() != 0 {
				t.Fatalf("turn advanced on failure")
			}
		})
	}
}

func TestReadGrid_Truncated(t *testing.T) {
	_, err := ReadGrid(protocol.NewSliceReader("3 2", "###"))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	for _, header := range []string{"3 -2", "1 2147483647", "1025 1", "3 2 1"} {
		_, err = ReadGrid(protocol.NewSliceReader(header))
		if !errors.Is(err, ErrDimensions) && !errors.Is(err, protocol.ErrFieldCount) {
			t.Fatalf("header %q: expected a dimension or field count error, got %v", header, err)
		}
	}
}
