// Package viewer is a terminal replay of recorded games.
package viewer

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/pacpellet/store"
	"github.com/brensch/pacpellet/world"
)

type Styles struct {
	Wall     lipgloss.Style
	Floor    lipgloss.Style
	Pellet   lipgloss.Style
	Super    lipgloss.Style
	Mine     lipgloss.Style
	Opponent lipgloss.Style
	Stale    lipgloss.Style
	Status   lipgloss.Style
	Help     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Wall:     lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		Floor:    lipgloss.NewStyle(),
		Pellet:   lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		Super:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Mine:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Opponent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Stale:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Status:   lipgloss.NewStyle().Bold(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// RenderBoard draws one turn. Own pacs show their id as a digit, opponents
// as a letter; pacs not seen this turn are dimmed.
func RenderBoard(grid *world.Grid, row store.TurnRow, st Styles) string {
	type cell struct {
		ch    string
		style lipgloss.Style
	}
	cells := make([][]cell, grid.Height)
	for y := int32(0); y < grid.Height; y++ {
		cells[y] = make([]cell, grid.Width)
		for x := int32(0); x < grid.Width; x++ {
			if grid.Kind(world.Point{X: x, Y: y}) == world.Wall {
				cells[y][x] = cell{"#", st.Wall}
			} else {
				cells[y][x] = cell{" ", st.Floor}
			}
		}
	}
	for _, p := range row.Pellets() {
		if !grid.InBounds(p.Pos) {
			continue
		}
		if p.Value > 1 {
			cells[p.Pos.Y][p.Pos.X] = cell{"o", st.Super}
		} else {
			cells[p.Pos.Y][p.Pos.X] = cell{".", st.Pellet}
		}
	}
	for _, p := range row.Pacs {
		pos := world.Point{X: p.X, Y: p.Y}
		if !grid.InBounds(pos) {
			continue
		}
		c := cell{style: st.Opponent}
		if p.Mine {
			c.ch = string(rune('0' + p.ID%10))
			c.style = st.Mine
		} else {
			c.ch = string(rune('a' + p.ID%26))
		}
		if p.LastSeen != row.Turn || p.Kind == world.KindDead.String() {
			c.style = st.Stale
		}
		cells[pos.Y][pos.X] = c
	}

	var b strings.Builder
	for y := range cells {
		for _, c := range cells[y] {
			b.WriteString(c.style.Render(c.ch))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

type tickMsg time.Time

// Model steps through the turns of one recording.
type Model struct {
	rec      *store.Recording
	styles   Styles
	cursor   int
	playing  bool
	interval time.Duration
}

func New(rec *store.Recording, interval time.Duration) Model {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return Model{rec: rec, styles: DefaultStyles(), interval: interval}
}

func (m Model) Cursor() int   { return m.cursor }
func (m Model) Playing() bool { return m.playing }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	last := len(m.rec.Turns) - 1
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "n":
			m.cursor = min(m.cursor+1, max(last, 0))
		case "left", "h", "p":
			m.cursor = max(m.cursor-1, 0)
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(last, 0)
		case " ":
			m.playing = !m.playing
			if m.playing {
				return m, m.tick()
			}
		}
	case tickMsg:
		if !m.playing {
			return m, nil
		}
		if m.cursor >= last {
			m.playing = false
			return m, nil
		}
		m.cursor++
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.rec.Turns) == 0 {
		return fmt.Sprintf("game %s has no recorded turns\n\nPress q to quit.\n", m.rec.GameID)
	}
	row := m.rec.Turns[m.cursor]

	var b strings.Builder
	b.WriteString(m.styles.Status.Render(fmt.Sprintf("Game %s  Turn %d (%d/%d)  Score %d : %d",
		m.rec.GameID, row.Turn, m.cursor+1, len(m.rec.Turns), row.MyScore, row.OppScore)))
	b.WriteString("\n\n")
	b.WriteString(RenderBoard(m.rec.Grid, row, m.styles))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Pellets: %d  Decide: %s\n", len(row.PelletX), time.Duration(row.ElapsedUs)*time.Microsecond)
	fmt.Fprintf(&b, "Output:  %s\n\n", row.Output)
	b.WriteString(m.styles.Help.Render("←/→ step  g/G first/last  space play/pause  q quit"))
	b.WriteString("\n")
	return b.String()
}
