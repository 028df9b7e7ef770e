package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/transdoc-go/internal/translate"
)

const pollInterval = 200 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the coordinator.
type tickMsg time.Time

// batchDoneMsg signals that the batch has drained.
type batchDoneMsg struct{}

// batchProgressModel is the bubbletea model for batch progress.
type batchProgressModel struct {
	coord    *translate.Coordinator
	cancel   func()
	progress progress.Model

	theme     Theme
	completed int
	total     int
	done      bool
	stopping  bool
}

func newBatchProgressModel(coord *translate.Coordinator, cancel func()) batchProgressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return batchProgressModel{
		coord:    coord,
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m batchProgressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m batchProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Cooperative stop: pending jobs are cancelled, in-flight
			// jobs finish. The batch still drains to batchDoneMsg.
			m.stopping = true
			m.cancel()
			return m, nil
		}

	case tickMsg:
		m.completed, m.total = m.coord.Progress()
		return m, tickCmd()

	case batchDoneMsg:
		m.completed, m.total = m.coord.Progress()
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m batchProgressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m batchProgressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.completed) / float64(m.total)
	}

	label := "translating"
	style := m.theme.statusStyle()
	switch {
	case m.coord.ShuttingDown():
		label = "stopping on backend failure"
		style = m.theme.errorStyle()
	case m.stopping:
		label = "stopping"
		style = m.theme.errorStyle()
	}
	status := style.Render(fmt.Sprintf("[%s]", label))

	bar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d documents", m.completed, m.total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop after in-flight jobs")

	return fmt.Sprintf("%s %s %s\n%s\n", status, bar, counts, hint)
}

func (m batchProgressModel) finalView() string {
	if cause := m.coord.ShutdownCause(); cause != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("✗ Stopped early: %s\n", cause))
	}
	return m.theme.completedStyle().Render(fmt.Sprintf("✓ %d/%d documents processed\n", m.completed, m.total))
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunBatchProgress runs the batch with an interactive progress bar.
// The run function executes on its own goroutine; the UI polls the
// coordinator until the batch drains.
func RunBatchProgress(coord *translate.Coordinator, cancel func(), run func() translate.Summary) (translate.Summary, error) {
	p := tea.NewProgram(newBatchProgressModel(coord, cancel))
	done := startBatch(run, func() { p.Send(batchDoneMsg{}) })

	if _, err := p.Run(); err != nil {
		// The batch may still be running; no summary is available yet.
		return translate.Summary{}, fmt.Errorf("progress UI error: %w", err)
	}
	return <-done, nil
}

// startBatch runs the batch on its own goroutine. The summary is
// delivered on the returned channel before notify fires.
func startBatch(run func() translate.Summary, notify func()) <-chan translate.Summary {
	done := make(chan translate.Summary, 1)
	go func() {
		done <- run()
		notify()
	}()
	return done
}
