package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

// Dashboard panel indices.
const (
	panelEntries = iota
	panelLevels
	panelStats
	panelCount
)

// dashboardRecent is how many of the newest entries the entries panel shows.
const dashboardRecent = 12

// dashboardRefresh is the interval between automatic reloads.
const dashboardRefresh = 2 * time.Second

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	entries     []entrySnapshot
	levelCounts map[string]int
	buffered    int
	marks       []string
	statsData   *statsSnapshot

	// State.
	loading bool
	err     error
}

type entrySnapshot struct {
	time    string
	level   string
	message string
}

type statsSnapshot struct {
	entryCount   int
	measurements int
	averageMs    float64
	maxMs        float64
	slowestLabel string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	entries     []entrySnapshot
	levelCounts map[string]int
	buffered    int
	marks       []string
	stats       *statsSnapshot
	err         error
}

// tickMsg triggers an automatic reload.
type tickMsg time.Time

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	levelDebug   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	levelInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	levelSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	levelWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	levelError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelEntries,
		loading:     true,
		levelCounts: make(map[string]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(loadData, tick())
}

func tick() tea.Cmd {
	return tea.Tick(dashboardRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(loadData, tick())

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.entries = msg.entries
		m.levelCounts = msg.levelCounts
		m.buffered = msg.buffered
		m.marks = msg.marks
		m.statsData = msg.stats
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" SiteKit Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	entriesPanel := m.renderEntriesPanel()
	levelsPanel := m.renderLevelsPanel()
	statsPanel := m.renderStatsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: entries take half, the other panels a quarter each.
		half := availableWidth / 2
		quarter := availableWidth / 4
		entriesPanel = m.applyPanelStyle(panelEntries, entriesPanel, half-4)
		levelsPanel = m.applyPanelStyle(panelLevels, levelsPanel, quarter-4)
		statsPanel = m.applyPanelStyle(panelStats, statsPanel, quarter-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, entriesPanel, levelsPanel, statsPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		entriesPanel = m.applyPanelStyle(panelEntries, entriesPanel, panelWidth)
		levelsPanel = m.applyPanelStyle(panelLevels, levelsPanel, panelWidth)
		statsPanel = m.applyPanelStyle(panelStats, statsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, entriesPanel, levelsPanel, statsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderEntriesPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent entries"))
	b.WriteString("\n")

	if len(m.entries) == 0 {
		b.WriteString("  No entries buffered.")
		return b.String()
	}

	for _, e := range m.entries {
		lvl := styleForLevel(e.level).Render(fmt.Sprintf("%-7s", strings.ToUpper(e.level)))
		b.WriteString(fmt.Sprintf("  %s %s %s\n", e.time, lvl, e.message))
	}

	return b.String()
}

func (m dashboardModel) renderLevelsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Buffer"))
	b.WriteString("\n")

	for _, level := range models.AllLevels {
		label := fmt.Sprintf("  %-10s %d", level, m.levelCounts[string(level)])
		b.WriteString(styleForLevel(string(level)).Render(label))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", m.buffered))

	if len(m.marks) > 0 {
		b.WriteString(fmt.Sprintf("\n  Timing: %s", strings.Join(m.marks, ", ")))
	}

	return b.String()
}

func (m dashboardModel) renderStatsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("History (7d)"))
	b.WriteString("\n")

	if m.statsData == nil {
		b.WriteString("  No history available.")
		return b.String()
	}

	sd := m.statsData
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Entries", sd.entryCount))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Measurements", sd.measurements))
	if sd.measurements > 0 {
		b.WriteString(fmt.Sprintf("  %-14s %.2fms\n", "Average", sd.averageMs))
		b.WriteString(fmt.Sprintf("  %-14s %.2fms %s\n", "Slowest", sd.maxMs, sd.slowestLabel))
	}

	return b.String()
}

func styleForLevel(level string) lipgloss.Style {
	switch models.Level(level) {
	case models.LevelDebug:
		return levelDebug
	case models.LevelInfo:
		return levelInfo
	case models.LevelSuccess:
		return levelSuccess
	case models.LevelWarn:
		return levelWarn
	case models.LevelError:
		return levelError
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	result := dataLoadedMsg{
		levelCounts: make(map[string]int),
	}

	if Logger != nil {
		logs := Logger.GetLogs()
		result.buffered = len(logs)
		for _, e := range logs {
			result.levelCounts[string(e.Level)]++
		}

		recent := logs
		if len(recent) > dashboardRecent {
			recent = recent[len(recent)-dashboardRecent:]
		}
		// Newest first.
		result.entries = make([]entrySnapshot, 0, len(recent))
		for i := len(recent) - 1; i >= 0; i-- {
			e := recent[i]
			result.entries = append(result.entries, entrySnapshot{
				time:    shortTime(e.Timestamp),
				level:   string(e.Level),
				message: e.Message,
			})
		}
		result.marks = Logger.PendingMarks()
	}

	if StatsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		stats, err := StatsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading stats: %w", err)
			return result
		}
		result.stats = &statsSnapshot{
			entryCount:   stats.EntryCount,
			measurements: stats.Measurements,
			averageMs:    stats.AverageMs,
			maxMs:        stats.MaxMs,
			slowestLabel: stats.SlowestLabel,
		}
	}

	return result
}

// shortTime renders an entry timestamp as local HH:MM:SS, falling back to the
// raw value when it does not parse.
func shortTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04:05")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the diagnostic log",
	Long: `Launch an interactive terminal dashboard showing the newest buffered
entries, counts per level, pending timing marks and history statistics in a
live-updating view.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Logger == nil {
			return fmt.Errorf("logger not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
