// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for DraftDeck.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/draftdeck/draftdeck/internal/config"
	"github.com/draftdeck/draftdeck/internal/document"
	"github.com/draftdeck/draftdeck/internal/generate"
	"github.com/draftdeck/draftdeck/internal/logbook"
	"github.com/draftdeck/draftdeck/internal/store"
	"github.com/draftdeck/draftdeck/internal/suggest"
)

// appState represents which "screen" we're on
type appState int

const (
	stateDashboard  appState = iota // Section board with suggestions panel
	stateAddSection                 // Title prompt for a new section
)

const (
	dashboardRefreshInterval = 500 * time.Millisecond
	sessionSnapshotName      = "session"
)

type panelFocus int

const (
	focusSections panelFocus = iota
	focusSuggestions
)

type refreshMsg struct {
	snap document.Snapshot
}

type generationDoneMsg struct {
	id  string
	err error
}

type bulkDoneMsg struct {
	report generate.BulkReport
	err    error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state     appState
	cfg       *config.Config
	ledger    *document.Ledger
	orch      *generate.Orchestrator
	snapshots *store.Store
	exporter  *store.Exporter
	logbook   *logbook.Logbook

	// Cached ledger snapshot driving the view.
	snap document.Snapshot

	focus               panelFocus
	sectionSelection    int
	suggestionSelection int
	titleInput          textinput.Model

	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp wires the dashboard around an already-initialized ledger and
// orchestrator.
func NewApp(cfg *config.Config, ledger *document.Ledger, orch *generate.Orchestrator, lb *logbook.Logbook) *App {
	input := textinput.New()
	input.Placeholder = "Section title"
	input.CharLimit = 120

	app := &App{
		state:      stateDashboard,
		cfg:        cfg,
		ledger:     ledger,
		orch:       orch,
		snapshots:  store.New(cfg.StateDir()),
		exporter:   store.NewExporter(cfg.ExportsDir()),
		logbook:    lb,
		titleInput: input,
		statusMsg:  "Ready.",
	}
	app.snap = ledger.Snapshot()
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.scheduleRefresh()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case refreshMsg:
		a.applySnapshot(msg.snap)
		return a, a.scheduleRefresh()

	case generationDoneMsg:
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Generation failed: %v", msg.err)
		} else {
			a.statusMsg = "Section generated"
		}
		return a, a.refreshNow()

	case bulkDoneMsg:
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Bulk run stopped: %v", msg.err)
		} else if msg.report.Attempted == 0 {
			a.statusMsg = "All sections already have content"
		} else {
			a.statusMsg = fmt.Sprintf("Bulk run: %d generated, %d failed", msg.report.Succeeded, msg.report.Failed)
		}
		return a, a.refreshNow()

	case tea.KeyMsg:
		if a.state == stateAddSection {
			return a.updateAddSection(msg)
		}
		return a.updateDashboard(msg)
	}

	return a, nil
}

func (a *App) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		a.orch.Close()
		return a, tea.Quit
	case "tab":
		if a.focus == focusSections && len(a.snap.Suggestions) > 0 {
			a.focus = focusSuggestions
		} else {
			a.focus = focusSections
		}
	case "up", "k":
		a.moveSelection(-1)
	case "down", "j":
		a.moveSelection(1)
	case "K", "shift+up":
		return a, a.moveSection(-1)
	case "J", "shift+down":
		return a, a.moveSection(1)
	case "a":
		a.state = stateAddSection
		a.titleInput.SetValue("")
		a.titleInput.Focus()
		a.statusMsg = "Name the new section"
		return a, textinput.Blink
	case "d":
		return a, a.removeSelected()
	case "g":
		return a, a.generateSelected()
	case "G":
		return a, a.generateAll()
	case "x":
		return a, a.dismissSelected()
	case "s":
		return a, a.saveSession()
	case "e":
		return a, a.exportDocument()
	case "r":
		return a, a.refreshNow()
	}
	return a, nil
}

func (a *App) updateAddSection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.state = stateDashboard
		a.statusMsg = "Add cancelled"
		return a, nil
	case "enter":
		title := strings.TrimSpace(a.titleInput.Value())
		if title == "" {
			a.statusMsg = "Section title must not be empty"
			return a, nil
		}
		section := a.ledger.Add(document.Draft{Title: title})
		a.logInfo("Section added · %s (%s)", section.Title, section.ID)
		a.state = stateDashboard
		a.statusMsg = fmt.Sprintf("Added %q", title)
		return a, a.refreshNow()
	}
	var cmd tea.Cmd
	a.titleInput, cmd = a.titleInput.Update(msg)
	return a, cmd
}

func (a *App) moveSelection(delta int) {
	if a.focus == focusSuggestions {
		a.suggestionSelection = clamp(a.suggestionSelection+delta, 0, len(a.snap.Suggestions)-1)
		return
	}
	a.sectionSelection = clamp(a.sectionSelection+delta, 0, len(a.snap.Sections)-1)
}

// moveSection swaps the selected section with its neighbor. In assisted mode
// the orchestrator is told so it can queue a structure review once the user
// stops rearranging.
func (a *App) moveSection(delta int) tea.Cmd {
	if a.focus != focusSections || len(a.snap.Sections) == 0 {
		return nil
	}
	src := a.sectionSelection
	dst := src + delta
	if dst < 0 || dst >= len(a.snap.Sections) {
		return nil
	}
	if err := a.ledger.Reorder(src, dst); err != nil {
		a.statusMsg = fmt.Sprintf("Reorder failed: %v", err)
		return nil
	}
	a.sectionSelection = dst
	a.statusMsg = "Section moved"
	if a.cfg.Project.Assist.Enabled {
		a.orch.NoteReorder()
	}
	return a.refreshNow()
}

func (a *App) removeSelected() tea.Cmd {
	section, ok := a.selectedSection()
	if !ok {
		return nil
	}
	if a.ledger.Remove(section.ID) {
		a.logInfo("Section removed · %s (%s)", section.Title, section.ID)
		a.statusMsg = fmt.Sprintf("Removed %q", section.Title)
	}
	return a.refreshNow()
}

func (a *App) generateSelected() tea.Cmd {
	section, ok := a.selectedSection()
	if !ok {
		a.statusMsg = "No section selected"
		return nil
	}
	a.statusMsg = fmt.Sprintf("Generating %q...", section.Title)
	id := section.ID
	return tea.Batch(
		func() tea.Msg {
			return generationDoneMsg{id: id, err: a.orch.GenerateSection(context.Background(), id)}
		},
		a.refreshNow(),
	)
}

func (a *App) generateAll() tea.Cmd {
	a.statusMsg = "Generating all empty sections..."
	return tea.Batch(
		func() tea.Msg {
			report, err := a.orch.GenerateAll(context.Background())
			return bulkDoneMsg{report: report, err: err}
		},
		a.refreshNow(),
	)
}

func (a *App) dismissSelected() tea.Cmd {
	if a.focus != focusSuggestions || len(a.snap.Suggestions) == 0 {
		return nil
	}
	s := a.snap.Suggestions[a.suggestionSelection]
	if a.ledger.DismissSuggestion(s.ID) {
		a.statusMsg = fmt.Sprintf("Dismissed %q", s.Title)
	}
	return a.refreshNow()
}

func (a *App) saveSession() tea.Cmd {
	if err := a.snapshots.Save(sessionSnapshotName, a.ledger.Snapshot()); err != nil {
		a.statusMsg = fmt.Sprintf("Save failed: %v", err)
		a.logError("Snapshot save failed: %v", err)
		return nil
	}
	a.logInfo("Snapshot saved · %s", sessionSnapshotName)
	a.statusMsg = "Session saved"
	return nil
}

func (a *App) exportDocument() tea.Cmd {
	meta := store.ExportMeta{
		Title:    a.cfg.Project.Project.Title,
		Template: a.cfg.DefaultTemplate(),
		Audience: a.cfg.Project.Project.Audience,
	}
	path, err := a.exporter.Export(a.ledger.Snapshot(), meta)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Export failed: %v", err)
		a.logError("Export failed: %v", err)
		return nil
	}
	a.logInfo("Exported document · %s", path)
	a.statusMsg = fmt.Sprintf("Exported to %s", path)
	return nil
}

func (a *App) selectedSection() (document.Section, bool) {
	if a.sectionSelection < 0 || a.sectionSelection >= len(a.snap.Sections) {
		return document.Section{}, false
	}
	return a.snap.Sections[a.sectionSelection], true
}

func (a *App) applySnapshot(snap document.Snapshot) {
	a.snap = snap
	a.sectionSelection = clamp(a.sectionSelection, 0, len(snap.Sections)-1)
	a.suggestionSelection = clamp(a.suggestionSelection, 0, len(snap.Suggestions)-1)
	if a.focus == focusSuggestions && len(snap.Suggestions) == 0 {
		a.focus = focusSections
	}
}

func (a *App) refreshNow() tea.Cmd {
	return func() tea.Msg {
		return refreshMsg{snap: a.ledger.Snapshot()}
	}
}

func (a *App) scheduleRefresh() tea.Cmd {
	return tea.Tick(dashboardRefreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{snap: a.ledger.Snapshot()}
	})
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		MarginBottom(1).
		Render("◆ DRAFTDECK")

	left := a.renderSectionsPanel(leftWidth - 4)
	if a.state == stateAddSection {
		left = lipgloss.JoinVertical(lipgloss.Left, left, "", "New section: "+a.titleInput.View())
	}
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(left)

	var body string
	if rightWidth > 0 {
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(a.renderSuggestionsPanel(rightWidth - 4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = leftBox
	}

	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg + "\n" + a.renderKeyHints())
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderSectionsPanel(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("Sections (%d)", len(a.snap.Sections)))
	if len(a.snap.Sections) == 0 {
		note := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("No sections yet. Press a to add one.")
		return lipgloss.JoinVertical(lipgloss.Left, title, note)
	}
	var rows []string
	for i, section := range a.snap.Sections {
		selected := a.focus == focusSections && i == a.sectionSelection
		rows = append(rows, a.renderSectionRow(section, selected, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"))
}

func (a *App) renderSectionRow(section document.Section, selected bool, width int) string {
	marker, markerColor := sectionMarker(section, a.snap.Errors)
	line1 := fmt.Sprintf("%s %s", marker, section.Title)
	detail := fmt.Sprintf("%s · %s", section.ContentType, section.Strategy)
	switch {
	case section.Generating:
		detail += " · generating..."
	case a.snap.Errors[section.ID] != "":
		detail += fmt.Sprintf(" · error: %s", a.snap.Errors[section.ID])
	case section.Fallback:
		detail += " · fallback draft"
	case section.Content != "":
		detail += fmt.Sprintf(" · %d words · quality %.2f", section.WordCount, section.Quality)
	default:
		detail += " · empty"
	}
	content := line1 + "\n  " + detail
	style := lipgloss.NewStyle().Width(max(20, width)).Foreground(lipgloss.Color(markerColor))
	if selected {
		style = style.Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	}
	return style.Render(content)
}

// sectionMarker maps section state to the board glyph.
func sectionMarker(section document.Section, errors map[string]string) (string, string) {
	switch {
	case section.Generating:
		return "◌", "#E5C07B"
	case errors[section.ID] != "":
		return "✗", "#E06C75"
	case section.Fallback:
		return "△", "#E5C07B"
	case section.Content != "":
		return "✓", "#98C379"
	default:
		return "·", "#AAAAAA"
	}
}

func (a *App) renderSuggestionsPanel(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("Suggestions (%d)", len(a.snap.Suggestions)))
	if len(a.snap.Suggestions) == 0 {
		note := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("Nothing queued.")
		return lipgloss.JoinVertical(lipgloss.Left, title, note)
	}
	var rows []string
	for i, s := range a.snap.Suggestions {
		selected := a.focus == focusSuggestions && i == a.suggestionSelection
		rows = append(rows, renderSuggestionRow(s, selected, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"))
}

func renderSuggestionRow(s suggest.Suggestion, selected bool, width int) string {
	line := fmt.Sprintf("[%s] %s", s.Kind, s.Title)
	if s.Description != "" {
		line += "\n  " + s.Description
	}
	style := lipgloss.NewStyle().Width(max(20, width)).Foreground(lipgloss.Color("#AAAAAA"))
	if selected {
		style = style.Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	}
	return style.Render(line)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("LOG")
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderKeyHints() string {
	if a.state == stateAddSection {
		return "Enter → add    Esc → cancel"
	}
	hints := "a add · g generate · G generate all · J/K move · d delete · s save · e export · q quit"
	if a.focus == focusSuggestions {
		hints = "x dismiss · tab back to sections · q quit"
	}
	return hints
}

func clamp(value, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
