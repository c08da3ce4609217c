package agent

import (
	"testing"
	"time"

	"github.com/brensch/pacpellet/protocol"
	"github.com/brensch/pacpellet/world"
)

// runTurn loads a grid and one turn of input, then decides.
func runTurn(t *testing.T, cfg Config, lines ...string) (*Agent, string) {
	t.Helper()
	r := protocol.NewSliceReader(lines...)
	g, err := world.ReadGrid(r)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	a := New(world.NewState(g), cfg, nil)
	if err := a.State().Update(r, time.Unix(0, 0)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	a.now = func() time.Time { return time.Unix(0, 0).Add(1500 * time.Microsecond) }
	line := FormatLine(a.Decide())
	t.Logf("output: %q", line)
	return a, line
}

func TestDecide_StraightCorridor(t *testing.T) {
	_, line := runTurn(t, Config{},
		"5 1",
		"     ",
		"0 0",
		"1",
		"3 1 0 0 ROCK 0 0",
		"1",
		"4 0 1",
	)
	if line != "MOVE 3 4 0" {
		t.Fatalf("line = %q, want %q", line, "MOVE 3 4 0")
	}
}

func TestDecide_WalledInStaysPut(t *testing.T) {
	_, line := runTurn(t, Config{},
		"3 3",
		"###",
		"# #",
		"###",
		"0 0",
		"2",
		"1 1 1 1 PAPER 0 0",
		"0 0 1 1 ROCK 0 0",
		"0",
	)
	if line != "MOVE 1 1 1" {
		t.Fatalf("line = %q, want self position", line)
	}
}

func TestDecide_IsolatedFromPellets(t *testing.T) {
	_, line := runTurn(t, Config{},
		"5 3",
		"#####",
		"# # #",
		"#####",
		"0 0",
		"1",
		"2 1 1 1 SCISSORS 0 0",
		"1",
		"3 1 1",
	)
	if line != "MOVE 2 1 1" {
		t.Fatalf("line = %q, want self position", line)
	}
}

func TestDecide_MultiplePacsOrderedAndSkipsDead(t *testing.T) {
	_, line := runTurn(t, Config{},
		"7 1",
		"       ",
		"0 0",
		"4",
		"2 1 6 0 ROCK 0 0",
		"0 1 0 0 PAPER 0 0",
		"1 1 3 0 DEAD 0 0",
		"0 0 3 0 ROCK 0 0",
		"2",
		"1 0 1",
		"5 0 10",
	)
	if want := "MOVE 0 1 0 | MOVE 2 5 0"; line != want {
		t.Fatalf("line = %q, want %q", line, want)
	}
}

func TestDecide_Annotate(t *testing.T) {
	a, line := runTurn(t, Config{Annotate: true},
		"3 1",
		"   ",
		"0 0",
		"1",
		"0 1 0 0 ROCK 0 0",
		"1",
		"2 0 1",
	)
	if want := "MOVE 0 2 0 1.50 ms"; line != want {
		t.Fatalf("line = %q, want %q", line, want)
	}
	if ds := a.Decide(); len(ds) != 1 || !ds[0].Found {
		t.Fatalf("Decide = %+v", ds)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := map[time.Duration]string{
		0:                        "0 μs",
		999 * time.Microsecond:   "999 μs",
		time.Millisecond:         "1.00 ms",
		12346 * time.Microsecond: "12.35 ms",
	}
	for d, want := range cases {
		if got := FormatElapsed(d); got != want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestFormatLine_Empty(t *testing.T) {
	if got := FormatLine(nil); got != "" {
		t.Fatalf("FormatLine(nil) = %q", got)
	}
}
