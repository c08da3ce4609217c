// Package agent turns the world model into one line of commands per turn.
package agent

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brensch/pacpellet/search"
	"github.com/brensch/pacpellet/world"
)

// Directive is a single MOVE command.
type Directive struct {
	PacID   int32
	Target  world.Point
	Message string // optional free text shown by the referee
	Found   bool   // false when the pac holds position for lack of a target
}

func (d Directive) String() string {
	if d.Message == "" {
		return fmt.Sprintf("MOVE %d %d %d", d.PacID, d.Target.X, d.Target.Y)
	}
	return fmt.Sprintf("MOVE %d %d %d %s", d.PacID, d.Target.X, d.Target.Y, d.Message)
}

// FormatLine joins directives into the single output line for a turn.
func FormatLine(directives []Directive) string {
	parts := make([]string, len(directives))
	for i, d := range directives {
		parts[i] = d.String()
	}
	return strings.Join(parts, " | ")
}

type Config struct {
	// Annotate appends the elapsed time since turn start to each command.
	Annotate bool
}

// Agent reads a State and decides moves. It never mutates the state.
type Agent struct {
	state  *world.State
	config Config
	logger *slog.Logger
	now    func() time.Time
}

func New(state *world.State, config Config, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		state:  state,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// State exposes the model so the game loop can feed it turn input.
func (a *Agent) State() *world.State { return a.state }

// Decide sends every live pac of ours to its nearest reachable pellet, or
// keeps it where it is when nothing is reachable.
func (a *Agent) Decide() []Directive {
	turnStart := a.state.TurnStart()
	pacs := a.state.PacsFor(world.TeamSelf)
	out := make([]Directive, 0, len(pacs))

	for _, pac := range pacs {
		if pac.Kind == world.KindDead {
			continue
		}
		res := search.Search(a.state, pac.Pos)

		d := Directive{PacID: pac.ID, Target: pac.Pos, Found: res.Found}
		if res.Found {
			d.Target = res.Pellet.Pos
		}
		elapsed := a.now().Sub(turnStart)
		if a.config.Annotate {
			d.Message = FormatElapsed(elapsed)
		}

		if res.Found {
			a.logger.Debug("target",
				"pac", pac.ID,
				"from", pac.Pos.String(),
				"to", d.Target.String(),
				"distance", res.Distance,
				"expanded", res.Expanded,
				"elapsed", elapsed)
		} else {
			a.logger.Debug("no reachable pellet",
				"pac", pac.ID,
				"at", pac.Pos.String(),
				"expanded", res.Expanded,
				"elapsed", elapsed)
		}
		out = append(out, d)
	}
	return out
}

// FormatElapsed renders d as whole microseconds below one millisecond and
// as milliseconds with two decimals otherwise.
func FormatElapsed(d time.Duration) string {
	micros := d.Microseconds()
	if micros < 1000 {
		return fmt.Sprintf("%d μs", micros)
	}
	return fmt.Sprintf("%.2f ms", float64(micros)/1000)
}
