// Explorer is a terminal browser for a ratings snapshot. The left pane
// lists gods, the right pane shows the selected god's item tables; tab
// flips between the god's own builds and the enemy items that beat it.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smitebuilds/recommender/internal/config"
	"github.com/smitebuilds/recommender/internal/models"
	"github.com/smitebuilds/recommender/internal/ratings"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	posStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	negStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	tabOnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215")).Underline(true)
	tabOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	paneStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

// godItem adapts models.GodRatings to list.Item.
type godItem struct {
	god *models.GodRatings
}

func (i godItem) Title() string { return i.god.GodName }
func (i godItem) Description() string {
	winRate := 0.0
	if i.god.Matches > 0 {
		winRate = 100 * float64(i.god.Wins) / float64(i.god.Matches)
	}
	return fmt.Sprintf("%d matches, %.1f%% win", i.god.Matches, winRate)
}
func (i godItem) FilterValue() string { return i.god.GodName }

type model struct {
	snap     *models.RatingsSnapshot
	list     list.Model
	viewport viewport.Model
	side     string // "with" or "against"
	selected int    // god ID shown in the viewport
	width    int
	height   int
	ready    bool
}

func newModel(snap *models.RatingsSnapshot) model {
	items := make([]list.Item, 0, len(snap.Gods))
	for i := range snap.Gods {
		items = append(items, godItem{god: &snap.Gods[i]})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Gods"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	vp := viewport.New(0, 0)
	vp.SetContent("Select a god.")

	return model{
		snap:     snap,
		list:     l,
		viewport: vp,
		side:     "with",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listWidth := msg.Width / 3
		frameW, frameH := paneStyle.GetFrameSize()
		m.list.SetSize(listWidth-frameW, msg.Height-frameH-2)
		m.viewport.Width = msg.Width - listWidth - frameW
		m.viewport.Height = msg.Height - frameH - 2
		m.ready = true
		m.selected = 0 // force re-render at the new width

	case tea.KeyMsg:
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "tab":
				if m.side == "with" {
					m.side = "against"
				} else {
					m.side = "with"
				}
				m.selected = 0
			case "pgup":
				m.viewport.HalfViewUp()
				return m, nil
			case "pgdown":
				m.viewport.HalfViewDown()
				return m, nil
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	if sel := m.list.SelectedItem(); sel != nil {
		god := sel.(godItem).god
		if god.GodID != m.selected {
			m.selected = god.GodID
			m.viewport.SetContent(m.renderGod(god))
			m.viewport.GotoTop()
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}
	left := paneStyle.Render(m.list.View())
	right := paneStyle.Render(m.viewport.View())
	help := helpStyle.Render("tab: with/against  ·  /: filter  ·  pgup/pgdn: scroll  ·  q: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		help,
	)
}

func (m model) renderGod(god *models.GodRatings) string {
	var b strings.Builder

	winRate := 0.0
	if god.Matches > 0 {
		winRate = 100 * float64(god.Wins) / float64(god.Matches)
	}
	b.WriteString(titleStyle.Render(god.GodName))
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %d matches, %.1f%% win rate", god.Matches, winRate)))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("fit: %d examples, %d features, AUC %.3f", god.Metrics.Examples, god.Metrics.Features, god.Metrics.AUC)))
	if god.Metrics.HoldoutExamples > 0 {
		b.WriteString(headerStyle.Render(fmt.Sprintf(", holdout AUC %.3f", god.Metrics.HoldoutAUC)))
	}
	b.WriteString("\n\n")

	withTab, againstTab := tabOffStyle, tabOnStyle
	if m.side == "with" {
		withTab, againstTab = tabOnStyle, tabOffStyle
	}
	b.WriteString(withTab.Render("[ builds ]"))
	b.WriteString("  ")
	b.WriteString(againstTab.Render("[ enemy items ]"))
	b.WriteString("\n\n")

	table := god.With
	if m.side == "against" {
		table = god.Against
	}
	if len(table) == 0 {
		b.WriteString(headerStyle.Render("no rated items"))
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-28s %8s %6s %6s", "#", "item", "weight", "odds", "seen")))
	b.WriteString("\n")
	for i, r := range table {
		row := fmt.Sprintf("%-4d %-28s %+8.3f %6.2f %6d", i+1, truncate(r.ItemName, 28), r.Coefficient, r.Odds, r.Appearances)
		if r.Coefficient >= 0 {
			b.WriteString(posStyle.Render(row))
		} else {
			b.WriteString(negStyle.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	path := cfg.ResultsPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	snap, err := ratings.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", path, err)
		os.Exit(1)
	}
	if len(snap.Gods) == 0 {
		fmt.Fprintf(os.Stderr, "%s holds no rated gods; collect more matches and retrain\n", path)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(snap), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "explorer: %v\n", err)
		os.Exit(1)
	}
}
