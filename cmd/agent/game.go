package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brensch/pacpellet/agent"
	"github.com/brensch/pacpellet/config"
	"github.com/brensch/pacpellet/protocol"
	"github.com/brensch/pacpellet/store"
	"github.com/brensch/pacpellet/transport"
	"github.com/brensch/pacpellet/world"
)

// game is one read-decide-write loop from the grid block to end of input.
type game struct {
	id     string
	cfg    config.Config
	logger *slog.Logger
	in     protocol.LineReader
	out    protocol.LineWriter
	rec    *transport.Recorder
	now    func() time.Time

	records *store.RecordWriter
	index   *store.Index
}

func (g *game) play(ctx context.Context) error {
	readCtx, stopReads := context.WithCancel(ctx)
	defer stopReads()
	in := transport.NewContextReader(readCtx, g.in)
	grid, err := world.ReadGrid(in)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("load grid: %w", err)
	}
	logger := g.logger.With("game", g.id)
	logger.Info("grid loaded", "width", grid.Width, "height", grid.Height, "floor", grid.FloorCount())

	g.openRecording(ctx, grid, logger)
	defer g.closeRecording(ctx, logger)

	state := world.NewState(grid)
	a := agent.New(state, agent.Config{Annotate: g.cfg.Agent.Annotate}, logger)

	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("interrupted", "turns", state.Turn())
			return err
		}
		err := state.Update(in, g.now())
		if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
			logger.Warn("interrupted", "turns", state.Turn())
			return ctxErr
		}
		if err == io.EOF {
			mine, opp := state.Scores()
			logger.Info("input closed", "turns", state.Turn(), "my_score", mine, "opp_score", opp)
			return nil
		}
		if err != nil {
			return fmt.Errorf("turn %d: %w", state.Turn()+1, err)
		}

		directives := a.Decide()
		line := agent.FormatLine(directives)
		if err := g.out.WriteLine(line); err != nil {
			return fmt.Errorf("turn %d: write: %w", state.Turn(), err)
		}
		elapsed := g.now().Sub(state.TurnStart())

		mine, opp := state.Scores()
		logger.Info("turn",
			"turn", state.Turn(),
			"pacs", len(directives),
			"pellets", state.PelletCount(),
			"my_score", mine,
			"opp_score", opp,
			"elapsed", elapsed)

		g.recordTurn(ctx, state, line, elapsed, logger)
	}
}

// Recording problems are logged and never stop the game.
func (g *game) openRecording(ctx context.Context, grid *world.Grid, logger *slog.Logger) {
	if g.cfg.Record.Dir == "" {
		return
	}
	w, err := store.NewRecordWriter(g.cfg.Record.Dir, g.id, grid)
	if err != nil {
		logger.Warn("recording disabled", "err", err)
		return
	}
	g.records = w

	if g.cfg.Record.Index == "" {
		return
	}
	idx, err := store.OpenIndex(g.cfg.Record.Index)
	if err != nil {
		logger.Warn("index disabled", "err", err)
		return
	}
	entry := store.GameEntry{
		GameID:     g.id,
		StartedAt:  g.now(),
		Width:      grid.Width,
		Height:     grid.Height,
		RecordPath: w.OutPath(),
	}
	if err := idx.StartGame(ctx, entry); err != nil {
		logger.Warn("index disabled", "err", err)
		_ = idx.Close()
		return
	}
	g.index = idx
}

func (g *game) recordTurn(ctx context.Context, state *world.State, line string, elapsed time.Duration, logger *slog.Logger) {
	if g.rec != nil {
		if err := g.rec.Flush(); err != nil {
			logger.Warn("flush transcript", "err", err)
		}
	}
	if g.records != nil {
		if err := g.records.WriteTurn(state.Snapshot(), line, elapsed); err != nil {
			logger.Warn("record turn", "err", err)
		}
	}
	if g.index != nil {
		mine, opp := state.Scores()
		if err := g.index.RecordTurn(ctx, g.id, state.Turn(), mine, opp); err != nil {
			logger.Warn("index turn", "err", err)
		}
	}
}

func (g *game) closeRecording(ctx context.Context, logger *slog.Logger) {
	var path string
	if g.records != nil {
		var err error
		path, err = g.records.Finalize()
		if err != nil {
			logger.Warn("finalize record", "err", err)
		} else if path != "" {
			logger.Info("game recorded", "path", path, "turns", g.records.Rows())
		}
	}
	if g.index != nil {
		// The parent context may already be cancelled by a signal.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := g.index.FinishGame(ctx, g.id, path, g.now()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("index finish", "err", err)
		}
		if err := g.index.Close(); err != nil {
			logger.Warn("close index", "err", err)
		}
	}
}
