package world

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/brensch/pacpellet/protocol"
)

// ReadGrid consumes the startup block: "width height" followed by height
// rows of width cells.
func ReadGrid(r protocol.LineReader) (*Grid, error) {
	line, err := r.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("read grid header: %w", err)
	}
	f, err := protocol.RequireFields(line, 2)
	if err != nil {
		return nil, fmt.Errorf("grid header: %w", err)
	}
	width, err := protocol.Int32("width", f[0])
	if err != nil {
		return nil, err
	}
	height, err := protocol.Int32("height", f[1])
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || width > MaxSide || height > MaxSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}

	rows := make([]string, 0, height)
	for y := int32(0); y < height; y++ {
		row, err := r.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("read grid row %d: %w", y, noEOF(err))
		}
		rows = append(rows, row)
	}
	return ParseGrid(width, height, rows)
}

// Update applies one turn of referee input: scores, visible pacs, visible
// pellets. On success the turn counter advances and the turn start is
// stamped with now.
//
// io.EOF is returned as-is only when the stream ends before the score line,
// which is how a finished game looks. Any failure after that point leaves
// the state partly updated; the caller must treat it as fatal.
func (s *State) Update(r protocol.LineReader, now time.Time) error {
	if s.Grid == nil {
		return errors.New("update before grid was loaded")
	}

	line, err := r.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("read scores: %w", err)
	}
	f, err := protocol.RequireFields(line, 2)
	if err != nil {
		return fmt.Errorf("scores: %w", err)
	}
	myScore, err := protocol.Int32("my score", f[0])
	if err != nil {
		return err
	}
	oppScore, err := protocol.Int32("opponent score", f[1])
	if err != nil {
		return err
	}
	s.myScore, s.oppScore = myScore, oppScore

	// Nothing visible can outnumber the cells it stands on.
	maxVisible := s.Grid.Area()
	pacCount, err := protocol.ReadCount(r, "visible pac count", maxVisible)
	if err != nil {
		return noEOF(err)
	}
	for i := 0; i < pacCount; i++ {
		line, err := r.ReadLine()
		if err != nil {
			return fmt.Errorf("read pac %d: %w", i, noEOF(err))
		}
		team, id, props, err := parsePac(line)
		if err != nil {
			return fmt.Errorf("pac %d: %w", i, err)
		}
		if err := s.UpsertPac(team, id, props); err != nil {
			return err
		}
	}

	pelletCount, err := protocol.ReadCount(r, "visible pellet count", maxVisible)
	if err != nil {
		return noEOF(err)
	}
	pellets := make([]Pellet, 0, pelletCount)
	for i := 0; i < pelletCount; i++ {
		line, err := r.ReadLine()
		if err != nil {
			return fmt.Errorf("read pellet %d: %w", i, noEOF(err))
		}
		p, err := parsePellet(line)
		if err != nil {
			return fmt.Errorf("pellet %d: %w", i, err)
		}
		pellets = append(pellets, p)
	}
	s.ReplacePellets(pellets)

	s.turn++
	s.turnStart = now
	return nil
}

// parsePac reads "id mine x y typeId speedTurnsLeft abilityCooldown".
func parsePac(line string) (Team, int32, PacProps, error) {
	var props PacProps
	f, err := protocol.RequireFields(line, 7)
	if err != nil {
		return TeamUnknown, 0, props, err
	}
	id, err := protocol.Int32("id", f[0])
	if err != nil {
		return TeamUnknown, 0, props, err
	}
	var team Team
	switch f[1] {
	case "1":
		team = TeamSelf
	case "0":
		team = TeamOpponent
	default:
		return TeamUnknown, 0, props, fmt.Errorf("parse mine %q: %w", f[1], ErrUnknownTeam)
	}
	if props.Pos.X, err = protocol.Int32("x", f[2]); err != nil {
		return TeamUnknown, 0, props, err
	}
	if props.Pos.Y, err = protocol.Int32("y", f[3]); err != nil {
		return TeamUnknown, 0, props, err
	}
	if props.Kind, err = ParsePacKind(f[4]); err != nil {
		return TeamUnknown, 0, props, err
	}
	if props.SpeedTurnsLeft, err = protocol.Int32("speed turns left", f[5]); err != nil {
		return TeamUnknown, 0, props, err
	}
	if props.AbilityCooldown, err = protocol.Int32("ability cooldown", f[6]); err != nil {
		return TeamUnknown, 0, props, err
	}
	return team, id, props, nil
}

// parsePellet reads "x y value".
func parsePellet(line string) (Pellet, error) {
	f, err := protocol.RequireFields(line, 3)
	if err != nil {
		return Pellet{}, err
	}
	var p Pellet
	if p.Pos.X, err = protocol.Int32("x", f[0]); err != nil {
		return Pellet{}, err
	}
	if p.Pos.Y, err = protocol.Int32("y", f[1]); err != nil {
		return Pellet{}, err
	}
	if p.Value, err = protocol.Int32("value", f[2]); err != nil {
		return Pellet{}, err
	}
	return p, nil
}

// noEOF turns a clean EOF in the middle of a turn into io.ErrUnexpectedEOF so
// callers never mistake it for the end of the game.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%v: %w", err, io.ErrUnexpectedEOF)
	}
	return err
}
