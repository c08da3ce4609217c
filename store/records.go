// Package store persists played games: one parquet file of turn rows per
// game plus a small sqlite index of games.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/pacpellet/world"
)

const (
	RecordSchema = "turn_record_v1"

	metaSchema = "schema"
	metaGameID = "game_id"
	metaGrid   = "grid"
)

// TurnRow is the state the agent saw on one turn and the line it answered.
// Pellets are stored as parallel columns; pacs as a repeated group.
type TurnRow struct {
	GameID   string `parquet:"game_id,dict"`
	Turn     int32  `parquet:"turn"`
	Width    int32  `parquet:"width"`
	Height   int32  `parquet:"height"`
	MyScore  int32  `parquet:"my_score"`
	OppScore int32  `parquet:"opp_score"`

	PelletX     []int32 `parquet:"pellet_x"`
	PelletY     []int32 `parquet:"pellet_y"`
	PelletValue []int32 `parquet:"pellet_value"`

	Pacs []PacRow `parquet:"pacs"`

	Output    string `parquet:"output"`
	ElapsedUs int64  `parquet:"elapsed_us"`
}

type PacRow struct {
	ID              int32  `parquet:"id"`
	Mine            bool   `parquet:"mine"`
	Kind            string `parquet:"kind,dict"`
	X               int32  `parquet:"x"`
	Y               int32  `parquet:"y"`
	SpeedTurnsLeft  int32  `parquet:"speed_turns_left"`
	AbilityCooldown int32  `parquet:"ability_cooldown"`
	LastSeen        int32  `parquet:"last_seen"`
}

// NewTurnRow flattens a snapshot into a row.
func NewTurnRow(gameID string, grid *world.Grid, snap world.Snapshot, output string, elapsed time.Duration) TurnRow {
	row := TurnRow{
		GameID:      gameID,
		Turn:        snap.Turn,
		Width:       grid.Width,
		Height:      grid.Height,
		MyScore:     snap.MyScore,
		OppScore:    snap.OppScore,
		PelletX:     make([]int32, len(snap.Pellets)),
		PelletY:     make([]int32, len(snap.Pellets)),
		PelletValue: make([]int32, len(snap.Pellets)),
		Pacs:        make([]PacRow, len(snap.Pacs)),
		Output:      output,
		ElapsedUs:   elapsed.Microseconds(),
	}
	for i, p := range snap.Pellets {
		row.PelletX[i] = p.Pos.X
		row.PelletY[i] = p.Pos.Y
		row.PelletValue[i] = p.Value
	}
	for i, p := range snap.Pacs {
		row.Pacs[i] = PacRow{
			ID:              p.ID,
			Mine:            p.Team == world.TeamSelf,
			Kind:            p.Kind.String(),
			X:               p.Pos.X,
			Y:               p.Pos.Y,
			SpeedTurnsLeft:  p.SpeedTurnsLeft,
			AbilityCooldown: p.AbilityCooldown,
			LastSeen:        p.LastSeen,
		}
	}
	return row
}

// Pellets rebuilds the pellet list of a row.
func (r TurnRow) Pellets() []world.Pellet {
	out := make([]world.Pellet, 0, len(r.PelletX))
	for i := range r.PelletX {
		if i >= len(r.PelletY) || i >= len(r.PelletValue) {
			break
		}
		out = append(out, world.Pellet{Pos: world.Point{X: r.PelletX[i], Y: r.PelletY[i]}, Value: r.PelletValue[i]})
	}
	return out
}

// RecordWriter streams turn rows for one game. Rows go to outDir/tmp and
// the file is moved into outDir by Finalize.
type RecordWriter struct {
	gameID  string
	grid    *world.Grid
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[TurnRow]
	rows   int
}

func NewRecordWriter(outDir, gameID string, grid *world.Grid) (*RecordWriter, error) {
	if outDir == "" {
		return nil, errors.New("record dir is required")
	}
	if gameID == "" {
		return nil, errors.New("game id is required")
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("game_%s.parquet", gameID)
	tmpPath := filepath.Join(tmpDir, name)
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[TurnRow](f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata(metaSchema, RecordSchema),
		parquet.KeyValueMetadata(metaGameID, gameID),
		parquet.KeyValueMetadata(metaGrid, strings.Join(grid.Rows(), "\n")),
	)

	return &RecordWriter{
		gameID:  gameID,
		grid:    grid,
		tmpPath: tmpPath,
		outPath: filepath.Join(absOut, name),
		file:    f,
		writer:  w,
	}, nil
}

func (w *RecordWriter) OutPath() string { return w.outPath }
func (w *RecordWriter) Rows() int       { return w.rows }

// WriteTurn appends the state of the turn that was just decided.
func (w *RecordWriter) WriteTurn(snap world.Snapshot, output string, elapsed time.Duration) error {
	if w.writer == nil {
		return errors.New("record writer is closed")
	}
	row := NewTurnRow(w.gameID, w.grid, snap, output, elapsed)
	if _, err := w.writer.Write([]TurnRow{row}); err != nil {
		return fmt.Errorf("write turn %d: %w", snap.Turn, err)
	}
	w.rows++
	return nil
}

// Finalize closes the parquet file and moves it out of tmp/. A game with no
// turns leaves no file and returns an empty path.
func (w *RecordWriter) Finalize() (string, error) {
	if w.writer == nil {
		return "", nil
	}
	closeErr := w.writer.Close()
	w.writer = nil
	_ = w.file.Sync()
	fileErr := w.file.Close()
	w.file = nil

	if closeErr != nil {
		return "", fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", fmt.Errorf("close parquet file: %w", fileErr)
	}
	if w.rows == 0 {
		_ = os.Remove(w.tmpPath)
		return "", nil
	}
	if err := os.Rename(w.tmpPath, w.outPath); err != nil {
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return w.outPath, nil
}

// Recording is a game read back from disk.
type Recording struct {
	GameID string
	Grid   *world.Grid
	Turns  []TurnRow
}

// ReadRecording loads every turn of a game file along with its grid.
func ReadRecording(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat recording: %w", err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if schema, _ := pf.Lookup(metaSchema); schema != RecordSchema {
		return nil, fmt.Errorf("%s: unexpected schema %q", path, schema)
	}
	gameID, _ := pf.Lookup(metaGameID)
	gridText, ok := pf.Lookup(metaGrid)
	if !ok {
		return nil, fmt.Errorf("%s: missing grid metadata", path)
	}

	rows, err := parquet.Read[TurnRow](f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}

	gridRows := strings.Split(gridText, "\n")
	width := int32(0)
	if len(gridRows) > 0 {
		width = int32(len(gridRows[0]))
	}
	grid, err := world.ParseGrid(width, int32(len(gridRows)), gridRows)
	if err != nil {
		return nil, fmt.Errorf("%s: grid metadata: %w", path, err)
	}
	return &Recording{GameID: gameID, Grid: grid, Turns: rows}, nil
}
