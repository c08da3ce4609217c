package world

import (
	"errors"
	"fmt"
)

type Team uint8

const (
	TeamUnknown Team = iota
	TeamSelf
	TeamOpponent
)

func (t Team) String() string {
	switch t {
	case TeamSelf:
		return "self"
	case TeamOpponent:
		return "opponent"
	default:
		return "unknown"
	}
}

// PacKind is the rock/paper/scissors form of a pac.
type PacKind uint8

const (
	KindUninitialized PacKind = iota
	KindRock
	KindPaper
	KindScissors
	KindDead
)

var ErrUnknownPacKind = errors.New("unknown pac kind")

// ParsePacKind maps a referee type token to a PacKind. Unknown tokens are an
// error rather than a fallback.
func ParsePacKind(token string) (PacKind, error) {
	switch token {
	case "ROCK":
		return KindRock, nil
	case "PAPER":
		return KindPaper, nil
	case "SCISSORS":
		return KindScissors, nil
	case "DEAD":
		return KindDead, nil
	default:
		return KindUninitialized, fmt.Errorf("%w: %q", ErrUnknownPacKind, token)
	}
}

func (k PacKind) String() string {
	switch k {
	case KindRock:
		return "ROCK"
	case KindPaper:
		return "PAPER"
	case KindScissors:
		return "SCISSORS"
	case KindDead:
		return "DEAD"
	default:
		return "UNINITIALIZED"
	}
}

// PacID is the stable identity of a pac. Ids are only unique within a team.
type PacID struct {
	Team Team
	ID   int32
}

// PacProps is replaced wholesale every time the pac is seen.
type PacProps struct {
	Kind            PacKind
	Pos             Point
	SpeedTurnsLeft  int32
	AbilityCooldown int32
}

// Pac is the last-known record of a unit. Records are never dropped when a
// pac leaves sight; LastSeen is the turn (numbered from 1) of the most
// recent sighting.
type Pac struct {
	PacID
	PacProps
	LastSeen int32
}

type Pellet struct {
	Pos   Point
	Value int32
}
