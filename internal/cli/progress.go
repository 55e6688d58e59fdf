package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/serpent-os/ent/pkg/observability"
	"github.com/serpent-os/ent/pkg/report"
)

const progressBarWidth = 30

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// runStartMsg and the other messages below are sent from check hooks to
// the progress model.
type runStartMsg struct{ total int }

type checkDoneMsg struct {
	recipe  string
	outcome report.Kind
}

type runDoneMsg struct{}

type tickMsg time.Time

// progressModel renders a live view of a running update check.
type progressModel struct {
	total   int
	done    int
	updates int
	errors  int
	last    string

	frame     int
	start     time.Time
	finished  bool
	cancelled bool
}

func newProgressModel() progressModel {
	return progressModel{start: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m progressModel) Init() tea.Cmd {
	return tick()
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	case runStartMsg:
		m.total = msg.total
	case checkDoneMsg:
		m.done++
		m.last = msg.recipe
		switch msg.outcome {
		case report.KindUpdateAvailable:
			m.updates++
		case report.KindError:
			m.errors++
		}
	case runDoneMsg:
		m.finished = true
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished || m.cancelled {
		return ""
	}
	if m.total == 0 {
		return styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)]) + " " + StyleDim.Render("Walking recipe tree...") + "\n"
	}

	var b strings.Builder
	b.WriteString(styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)]))
	b.WriteString(" ")
	b.WriteString(renderBar(m.done, m.total, progressBarWidth))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%s/%s", humanize.Comma(int64(m.done)), humanize.Comma(int64(m.total)))))

	stats := []string{fmt.Sprintf("%d updates", m.updates)}
	if m.errors > 0 {
		stats = append(stats, StyleWarning.Render(fmt.Sprintf("%d errors", m.errors)))
	}
	stats = append(stats, time.Since(m.start).Round(time.Second).String())
	b.WriteString(StyleDim.Render("  " + strings.Join(stats, " · ")))

	if m.last != "" {
		b.WriteString("\n  ")
		b.WriteString(StyleDim.Render(iconArrow + " " + m.last))
	}
	b.WriteString("\n")
	return b.String()
}

func renderBar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(width, done*width/total)
	}
	bar := lipgloss.NewStyle().Foreground(colorCyan).Render(strings.Repeat("█", filled))
	return bar + StyleDim.Render(strings.Repeat("░", width-filled))
}

// progressHooks forwards check events to a running program.
type progressHooks struct {
	observability.NoopCheckHooks
	p *tea.Program
}

func (h progressHooks) OnRunStart(_ context.Context, checks int) {
	h.p.Send(runStartMsg{total: checks})
}

func (h progressHooks) OnCheckComplete(_ context.Context, recipe, outcome string, _ time.Duration, _ error) {
	h.p.Send(checkDoneMsg{recipe: recipe, outcome: report.Kind(outcome)})
}

// programWriter prints log lines above the live view.
type programWriter struct{ p *tea.Program }

func (w programWriter) Write(b []byte) (int, error) {
	w.p.Println(strings.TrimRight(string(b), "\n"))
	return len(b), nil
}

// runWithProgress runs fn while showing a progress view on stderr. Quitting
// the view cancels the run.
func runWithProgress(
	ctx context.Context,
	logger *log.Logger,
	fn func(context.Context, *log.Logger) (*report.Report, error),
) (*report.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(), tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	prev := observability.Check()
	observability.SetCheckHooks(progressHooks{p: p})
	defer observability.SetCheckHooks(prev)

	runLogger := logger.With()
	runLogger.SetOutput(programWriter{p: p})

	type result struct {
		rep *report.Report
		err error
	}
	var (
		res result
		wg  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		res.rep, res.err = fn(ctx, runLogger)
		p.Send(runDoneMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		logger.Debug("progress view stopped", "error", err)
	}
	pm, _ := final.(progressModel)
	if pm.cancelled {
		cancel()
	}
	wg.Wait()

	if pm.cancelled {
		return nil, context.Canceled
	}
	return res.rep, res.err
}
