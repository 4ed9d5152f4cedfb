// Command arena runs an encounter script against a local simulation and
// renders it as a live terminal dashboard: an entity table on top, the
// combat event feed below. No server, no sockets; everything in-process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/internal/encounter"
	"rift-and-ruin/server/internal/sim"
	"rift-and-ruin/server/internal/world"
	"rift-and-ruin/server/logging"
	"rift-and-ruin/server/logging/sinks"
)

const (
	frameInterval = 50 * time.Millisecond
	maxTableRows  = 10
	eventBacklog  = 400
	minSpeed      = 0.25
	maxSpeed      = 8.0
)

var (
	styleTitleBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	styleHealthHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleHealthMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleHealthLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	styleStatuses = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	styleDead     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleFaint    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleError    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func main() {
	var (
		encounterPath string
		seed          string
		speed         float64
	)
	flag.StringVar(&encounterPath, "encounter", filepath.Join("config", "encounters", "goblin-ambush.lua"), "encounter script to run")
	flag.StringVar(&seed, "seed", world.DefaultSeed, "deterministic world seed")
	flag.Float64Var(&speed, "speed", 1.0, "simulation speed multiplier")
	flag.Parse()

	if err := run(encounterPath, seed, speed); err != nil {
		fmt.Fprintf(os.Stderr, "arena: %v\n", err)
		os.Exit(1)
	}
}

func run(encounterPath, seed string, speed float64) error {
	if speed < minSpeed {
		speed = minSpeed
	}
	if speed > maxSpeed {
		speed = maxSpeed
	}

	registry, err := tags.LoadRegistry(tags.ExistingDefaultPaths()...)
	if err != nil {
		return fmt.Errorf("load tag registry: %w", err)
	}

	script, err := encounter.LoadFile(encounterPath)
	if err != nil {
		return fmt.Errorf("load encounter: %w", err)
	}

	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(logging.SystemClock{}, logging.Config{
		MinimumSeverity: logging.SeverityDebug,
		BufferSize:      1024,
	}, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		return fmt.Errorf("build event router: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		router.Close(ctx)
	}()

	engine, err := sim.NewEngine(registry, world.Config{Seed: seed}, sim.Deps{Publisher: router})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	runner := encounter.NewRunner(script, engine)

	program := tea.NewProgram(newModel(engine, runner, memory, script, speed), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

// tickMsg drives the simulation clock inside the Update loop.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// model is the Bubble Tea model for the arena dashboard.
type model struct {
	engine *sim.Engine
	runner *encounter.Runner
	memory *sinks.MemorySink
	script *encounter.Script

	viewport viewport.Model

	snapshot sim.Snapshot
	lines    []string // styled feed lines retained for the viewport
	seen     int      // events already drained from the memory sink

	speed    float64
	paused   bool
	width    int
	height   int
	ready    bool
	quitting bool
}

func newModel(engine *sim.Engine, runner *encounter.Runner, memory *sinks.MemorySink, script *encounter.Script, speed float64) model {
	return model{
		engine: engine,
		runner: runner,
		memory: memory,
		script: script,
		speed:  speed,
	}
}

// Init arms the first simulation tick.
func (m model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles window sizing, key presses, and simulation ticks.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.width, 10)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		}
		m.layout()

	case tickMsg:
		if !m.paused {
			dt := frameInterval.Seconds() * m.speed
			m.runner.Advance(dt)
			m.engine.Step(dt)
		}
		m.snapshot = m.engine.Snapshot()
		m.pullEvents()
		m.layout()
		return m, tickCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case " ":
			m.paused = !m.paused
			return m, nil

		case "+", "=":
			if m.speed*2 <= maxSpeed {
				m.speed *= 2
			}
			return m, nil

		case "-":
			if m.speed/2 >= minSpeed {
				m.speed /= 2
			}
			return m, nil

		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}
	}

	return m, nil
}

// layout recomputes the viewport size from the terminal dimensions and
// the current table height.
func (m *model) layout() {
	if !m.ready {
		return
	}
	// Title bar, table, blank separator, help line.
	used := 3 + m.tableHeight()
	vpHeight := m.height - used
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
}

// pullEvents drains new events from the memory sink into the feed.
func (m *model) pullEvents() {
	if !m.ready {
		return
	}
	events := m.memory.Events()
	if len(events) <= m.seen {
		return
	}
	for _, event := range events[m.seen:] {
		m.lines = append(m.lines, renderEvent(event))
	}
	m.seen = len(events)
	if len(m.lines) > eventBacklog {
		m.lines = m.lines[len(m.lines)-eventBacklog:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// View renders title bar + entity table + event feed + help line.
func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	sections := []string{
		m.renderTitle(),
		m.renderTable(),
		m.viewport.View(),
		m.renderHelp(),
	}
	return strings.Join(sections, "\n")
}

func (m model) renderTitle() string {
	left := fmt.Sprintf(" arena | %s", m.script.Name)

	state := fmt.Sprintf("%.1fs t%05d x%.2g", m.runner.Elapsed(), m.snapshot.Tick, m.speed)
	if m.paused {
		state += " PAUSED"
	} else if m.runner.Done() {
		state += " script done"
	}
	right := state + " "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return styleTitleBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// tableHeight counts the lines renderTable will emit.
func (m model) tableHeight() int {
	rows := len(m.snapshot.Actors)
	if rows > maxTableRows {
		return maxTableRows + 2 // header + overflow line
	}
	return rows + 1
}

func (m model) renderTable() string {
	actors := append([]sim.ActorView(nil), m.snapshot.Actors...)
	sort.Slice(actors, func(i, j int) bool {
		if actors[i].Category != actors[j].Category {
			return actors[i].Category < actors[j].Category
		}
		return actors[i].ID < actors[j].ID
	})

	lines := []string{styleTableHeader.Render(fmt.Sprintf("  %-20s %-10s %-11s %-11s %s",
		"NAME", "CATEGORY", "HEALTH", "POSITION", "STATUSES"))}

	overflow := 0
	if len(actors) > maxTableRows {
		overflow = len(actors) - maxTableRows
		actors = actors[:maxTableRows]
	}
	for _, actor := range actors {
		lines = append(lines, renderActorRow(actor))
	}
	if overflow > 0 {
		lines = append(lines, styleFaint.Render(fmt.Sprintf("  ... and %d more", overflow)))
	}
	return strings.Join(lines, "\n")
}

// renderActorRow pads each cell before styling so ANSI codes never skew
// the column widths.
func renderActorRow(actor sim.ActorView) string {
	name := actor.Name
	if name == "" {
		name = actor.ID
	}
	nameCell := fmt.Sprintf("%-20s", truncate(name, 20))
	categoryCell := fmt.Sprintf("%-10s", truncate(actor.Category, 10))
	healthCell := fmt.Sprintf("%-11s", fmt.Sprintf("%.0f/%.0f", actor.Health, actor.MaxHealth))
	positionCell := fmt.Sprintf("%-11s", fmt.Sprintf("(%.0f,%.0f)", actor.X, actor.Y))
	statusCell := renderStatuses(actor.Statuses)

	if !actor.Alive {
		return styleDead.Render("  " + nameCell + " " + categoryCell + " " + healthCell + " " + positionCell + " dead")
	}

	frac := 0.0
	if actor.MaxHealth > 0 {
		frac = actor.Health / actor.MaxHealth
	}
	switch {
	case frac > 0.5:
		healthCell = styleHealthHigh.Render(healthCell)
	case frac > 0.2:
		healthCell = styleHealthMid.Render(healthCell)
	default:
		healthCell = styleHealthLow.Render(healthCell)
	}

	return "  " + nameCell + " " + categoryCell + " " + healthCell + " " + positionCell + " " + statusCell
}

func renderStatuses(statuses []sim.StatusView) string {
	if len(statuses) == 0 {
		return styleFaint.Render("-")
	}
	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		part := status.Tag
		if status.Stacks > 1 {
			part += fmt.Sprintf(" x%d", status.Stacks)
		}
		part += fmt.Sprintf(" %.1fs", status.Remaining)
		parts = append(parts, part)
	}
	return styleStatuses.Render(strings.Join(parts, ", "))
}

func (m model) renderHelp() string {
	return styleFaint.Render(" space pause   +/- speed   pgup/pgdn scroll   q quit")
}

// renderEvent formats one feed line: tick, event type, participants,
// compact payload.
func renderEvent(event logging.Event) string {
	line := fmt.Sprintf("t%05d %-26s %s", event.Tick, event.Type, describeEvent(event))
	switch event.Severity {
	case logging.SeverityWarn:
		return styleWarn.Render(line)
	case logging.SeverityError:
		return styleError.Render(line)
	case logging.SeverityDebug:
		return styleFaint.Render(line)
	default:
		return line
	}
}

func describeEvent(event logging.Event) string {
	var parts []string
	if event.Actor.ID != "" {
		parts = append(parts, event.Actor.ID)
	}
	if len(event.Targets) > 0 {
		ids := make([]string, 0, len(event.Targets))
		for _, target := range event.Targets {
			ids = append(ids, target.ID)
		}
		parts = append(parts, "-> "+strings.Join(ids, ","))
	}
	if event.Payload != nil {
		if data, err := json.Marshal(event.Payload); err == nil {
			parts = append(parts, truncate(string(data), 80))
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// viewportKeyMap keeps scrolling on the paging keys only; the rest of
// the keyboard belongs to the dashboard controls.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
