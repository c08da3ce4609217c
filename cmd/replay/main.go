// Command replay steps through recorded games in the terminal.
//
//	replay -file games/game_<id>.parquet
//	replay -index games/index.db -list
//	replay -index games/index.db -game <id>
//	replay -index games/index.db            (latest game)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/pacpellet/store"
	"github.com/brensch/pacpellet/viewer"
)

func main() {
	file := flag.String("file", "", "Parquet record of one game")
	indexPath := flag.String("index", os.Getenv("PAC_INDEX"), "sqlite index of recorded games")
	gameID := flag.String("game", "", "Game id to open from the index")
	list := flag.Bool("list", false, "List indexed games and exit")
	limit := flag.Int("limit", 20, "Number of games shown by -list")
	interval := flag.Duration("interval", 200*time.Millisecond, "Autoplay step interval")
	flag.Parse()

	path := *file
	if path == "" {
		if *indexPath == "" {
			log.Fatalf("either -file or -index is required")
		}
		idx, err := store.OpenIndex(*indexPath)
		if err != nil {
			log.Fatalf("Failed to open index: %v", err)
		}
		path, err = resolve(idx, *gameID, *list, *limit)
		_ = idx.Close()
		if err != nil {
			log.Fatalf("%v", err)
		}
		if path == "" {
			return
		}
	}

	rec, err := store.ReadRecording(path)
	if err != nil {
		log.Fatalf("Failed to read recording: %v", err)
	}

	p := tea.NewProgram(viewer.New(rec, *interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("viewer: %v", err)
	}
}

// resolve picks the record file to open, or prints the game list and
// returns an empty path.
func resolve(idx *store.Index, gameID string, list bool, limit int) (string, error) {
	ctx := context.Background()
	if list {
		games, err := idx.ListGames(ctx, limit)
		if err != nil {
			return "", err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "GAME\tSTARTED\tSIZE\tTURNS\tSCORE\tRECORD")
		for _, g := range games {
			fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%d:%d\t%s\n",
				g.GameID, g.StartedAt.Format(time.DateTime), g.Width, g.Height, g.Turns, g.MyScore, g.OppScore, g.RecordPath)
		}
		return "", tw.Flush()
	}

	if gameID != "" {
		g, err := idx.Game(ctx, gameID)
		if err != nil {
			return "", err
		}
		if g.RecordPath == "" {
			return "", fmt.Errorf("game %s has no record file", gameID)
		}
		return g.RecordPath, nil
	}

	games, err := idx.ListGames(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(games) == 0 {
		return "", fmt.Errorf("index has no games")
	}
	return games[0].RecordPath, nil
}
