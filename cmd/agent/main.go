// Command agent plays the pellet game over a line protocol.
//
// By default it reads the referee from stdin and answers on stdout. All
// diagnostics go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/pacpellet/config"
	"github.com/brensch/pacpellet/logging"
	"github.com/brensch/pacpellet/protocol"
	"github.com/brensch/pacpellet/transport"
)

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath := fs.String("config", os.Getenv(config.EnvConfig), "YAML config file")
	fs.String("transport", "", "Input transport: stdio, websocket or transcript")
	fs.String("url", "", "Referee WebSocket URL")
	fs.String("input", "", "zstd transcript to replay as input")
	fs.String("record-dir", "", "Directory for per-game parquet records")
	fs.String("index", "", "sqlite index of recorded games")
	fs.String("transcript", "", "Capture raw input to this zstd file")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.Bool("annotate", false, "Append decision time to each command")
	return fs, configPath
}

func main() {
	fs, configPath := newFlagSet(os.Args[0])
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	cfg.ApplyEnv(os.Getenv)
	applyFlags(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := logging.New(os.Stderr, &logging.Options{Level: level, Indent: cfg.Log.Indent})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// A second signal gets the default behaviour and kills the process.
	context.AfterFunc(ctx, stop)

	if err := run(ctx, cfg, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		logger.Error("agent stopped", "err", err)
		os.Exit(1)
	}
}

// applyFlags copies explicitly set flags over the file and env values.
func applyFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "transport":
			cfg.Transport.Kind = v
		case "url":
			cfg.Transport.URL = v
		case "input":
			cfg.Transport.Transcript = v
		case "record-dir":
			cfg.Record.Dir = v
		case "index":
			cfg.Record.Index = v
		case "transcript":
			cfg.Record.Transcript = v
		case "log-level":
			cfg.Log.Level = v
		case "annotate":
			cfg.Agent.Annotate = v == "true"
		}
	})
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var (
		in     protocol.LineReader
		out    protocol.LineWriter
		closer io.Closer
	)
	switch cfg.Transport.Kind {
	case config.TransportWebSocket:
		conn, err := transport.DialWebSocket(ctx, cfg.Transport.URL, nil)
		if err != nil {
			return err
		}
		in, out, closer = conn, conn, conn
		logger.Info("connected", "url", cfg.Transport.URL)
		// Unblocks a pending frame read when the agent is interrupted.
		stopClose := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stopClose()
	case config.TransportTranscript:
		tr, err := transport.OpenTranscript(cfg.Transport.Transcript)
		if err != nil {
			return err
		}
		in, out, closer = tr, transport.NewStreamWriter(os.Stdout), tr
	default:
		in, out = transport.NewStreamReader(os.Stdin), transport.NewStreamWriter(os.Stdout)
	}
	if closer != nil {
		defer closer.Close()
	}

	var rec *transport.Recorder
	if cfg.Record.Transcript != "" {
		var err error
		rec, err = transport.NewRecorder(in, cfg.Record.Transcript)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Warn("close transcript", "err", err)
			}
		}()
		in = rec
	}

	g := &game{
		id:     uuid.NewString(),
		cfg:    cfg,
		logger: logger,
		in:     in,
		out:    out,
		rec:    rec,
		now:    time.Now,
	}
	return g.play(ctx)
}
