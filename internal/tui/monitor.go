// Package tui renders a live monitor for a relay run. The model is fed by
// the event bus; it holds no references into the scheduler.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hollis-m/relay/internal/endpoint"
	"github.com/hollis-m/relay/internal/engine"
	"github.com/hollis-m/relay/internal/event"
	"github.com/hollis-m/relay/internal/tui/styles"
)

// BusMsg wraps a bus event for the bubbletea update loop.
type BusMsg struct {
	Event event.Event
}

// DoneMsg signals that the engine run has finished.
type DoneMsg struct {
	Result *engine.Result
	Err    error
}

type taskRow struct {
	id       string
	status   string
	endpoint string
	err      string
	duration time.Duration
}

// Model is the bubbletea model for the run monitor.
type Model struct {
	request string
	planID  string
	wave    int

	rows  []taskRow
	index map[string]int // task ID -> rows index

	pool    *endpoint.Pool
	spinner spinner.Model

	attempts int // planning attempts so far
	rejected string

	done     bool
	fallback bool
	err      error
	result   *engine.Result

	width int
}

// NewModel creates a monitor model for a run of request.
func NewModel(request string, pool *endpoint.Pool) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Primary

	return Model{
		request: request,
		wave:    -1,
		index:   make(map[string]int),
		pool:    pool,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case BusMsg:
		m.apply(msg.Event)
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if msg.Result != nil {
			m.fallback = msg.Result.Fallback
		}
		return m, tea.Quit
	}

	return m, nil
}

// apply folds one bus event into the model.
func (m *Model) apply(ev event.Event) {
	switch ev := ev.(type) {
	case event.PlanValidatedEvent:
		m.planID = ev.PlanID
		m.attempts = ev.Attempt
		m.rejected = ""

	case event.PlanRejectedEvent:
		m.attempts = ev.Attempt
		m.rejected = ev.Reason

	case event.WaveStartedEvent:
		m.wave = ev.Index
		for _, id := range ev.TaskIDs {
			m.upsert(id, "pending", "", "", 0)
		}

	case event.TaskStartedEvent:
		m.upsert(ev.TaskID, "running", ev.Endpoint, "", 0)

	case event.TaskCompletedEvent:
		m.upsert(ev.TaskID, "completed", "", "", ev.Duration)

	case event.TaskFailedEvent:
		m.upsert(ev.TaskID, "failed", "", ev.Error, 0)

	case event.TaskBlockedEvent:
		m.upsert(ev.TaskID, "blocked", "", "", 0)

	case event.FallbackTriggeredEvent:
		m.fallback = true
		m.rejected = ev.Cause
	}
}

// upsert updates a task row, creating it on first sight. Zero values leave
// the existing field untouched.
func (m *Model) upsert(id, status, endpoint, errMsg string, d time.Duration) {
	i, ok := m.index[id]
	if !ok {
		i = len(m.rows)
		m.index[id] = i
		m.rows = append(m.rows, taskRow{id: id})
	}
	row := &m.rows[i]
	if status != "" {
		row.status = status
	}
	if endpoint != "" {
		row.endpoint = endpoint
	}
	if errMsg != "" {
		row.err = errMsg
	}
	if d > 0 {
		row.duration = d
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("relay"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(truncate(m.request, 76)))
	b.WriteString("\n\n")

	b.WriteString(m.headline())
	b.WriteString("\n\n")

	for _, row := range m.rows {
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
	}
	if len(m.rows) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(m.renderPool())
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("press q to quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) headline() string {
	switch {
	case m.done && m.err != nil:
		return styles.Red.Render("✗ run failed: " + truncate(m.err.Error(), 70))
	case m.done && m.fallback:
		return styles.Yellow.Render("⚠ delegated execution abandoned, answered by fallback")
	case m.done:
		return styles.Green.Render(fmt.Sprintf("✓ run complete (%d/%d tasks succeeded)",
			m.result.Completed, len(m.result.Tasks)))
	case m.rejected != "":
		return styles.Yellow.Render(fmt.Sprintf("plan rejected (attempt %d): %s",
			m.attempts, truncate(m.rejected, 50)))
	case m.planID == "":
		return m.spinner.View() + " planning..."
	case m.wave < 0:
		return m.spinner.View() + " plan " + m.planID + " accepted"
	default:
		return fmt.Sprintf("%s wave %d, plan %s", m.spinner.View(), m.wave+1, m.planID)
	}
}

func (m Model) renderRow(row taskRow) string {
	var marker, detail string
	switch row.status {
	case "completed":
		marker = styles.Green.Render("✓")
		detail = styles.Muted.Render(row.duration.Round(time.Millisecond).String())
	case "failed":
		marker = styles.Red.Render("✗")
		detail = styles.Red.Render(truncate(row.err, 50))
	case "blocked":
		marker = styles.Yellow.Render("⊘")
		detail = styles.Muted.Render("dependency failed")
	case "running":
		marker = m.spinner.View()
		detail = styles.Blue.Render(row.endpoint)
	default:
		marker = styles.Muted.Render("○")
	}
	return fmt.Sprintf("  %s %-14s %s", marker, row.id, detail)
}

func (m Model) renderPool() string {
	if m.pool == nil {
		return ""
	}
	snap := m.pool.Status()
	parts := make([]string, 0, len(snap.Endpoints))
	for _, ep := range snap.Endpoints {
		parts = append(parts, fmt.Sprintf("%s %d/%d", ep.Address, ep.Load, ep.Capacity))
	}
	return styles.Muted.Render("endpoints: " + strings.Join(parts, "  "))
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

// Monitor drives a bubbletea program fed by the event bus while the engine
// runs in the background.
type Monitor struct {
	bus     *event.Bus
	program *tea.Program
	subID   string
}

// NewMonitor creates a Monitor for a run of request.
func NewMonitor(request string, bus *event.Bus, pool *endpoint.Pool) *Monitor {
	return &Monitor{
		bus:     bus,
		program: tea.NewProgram(NewModel(request, pool)),
	}
}

// Run executes fn in the background while the monitor renders bus events.
// It blocks until the run finishes and the program exits, then returns the
// run's outcome. Quitting the monitor cancels the run's context.
func (m *Monitor) Run(ctx context.Context, fn func(context.Context) (*engine.Result, error)) (*engine.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.subID = m.bus.SubscribeAll(func(ev event.Event) {
		m.program.Send(BusMsg{Event: ev})
	})
	defer m.bus.Unsubscribe(m.subID)

	type outcome struct {
		result *engine.Result
		err    error
	}
	resCh := make(chan outcome, 1)
	go func() {
		result, err := fn(ctx)
		resCh <- outcome{result, err}
		m.program.Send(DoneMsg{Result: result, Err: err})
	}()

	if _, err := m.program.Run(); err != nil {
		cancel()
		out := <-resCh
		if out.err != nil {
			return out.result, out.err
		}
		return out.result, err
	}

	cancel()
	out := <-resCh
	return out.result, out.err
}
