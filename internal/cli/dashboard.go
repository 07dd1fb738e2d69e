package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/corvidlabs/corvid/pkg/middleware"
)

// tickInterval is how often the dashboard polls the engine's live counters.
const tickInterval = 150 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// dashboardModel is a bubbletea model rendering a Metric's live
// success/failure counters while an engine runs in the background. done is
// polled every tick; the model quits once it reports true.
type dashboardModel struct {
	runID   string
	metric  *middleware.Metric
	done    func() bool
	started time.Time
	count   int
	final   bool
}

func newDashboardModel(runID string, m *middleware.Metric, done func() bool) dashboardModel {
	return dashboardModel{runID: runID, metric: m, done: done, started: time.Now()}
}

func (m dashboardModel) Init() tea.Cmd {
	return tick()
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		m.count++
		if m.done() {
			m.final = true
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("corvid run %s", m.runID)))
	b.WriteString("\n")
	b.WriteString(styleLabel.Render(fmt.Sprintf("elapsed %s", time.Since(m.started).Round(time.Millisecond))))
	b.WriteString("\n\n")

	b.WriteString(styleLabel.Render("successes  "))
	b.WriteString(styleSuccess.Render(fmt.Sprintf("%d", m.metric.Successes())))
	b.WriteString("\n")
	b.WriteString(styleLabel.Render("failures   "))
	b.WriteString(styleFailure.Render(fmt.Sprintf("%d", m.metric.Failures())))
	b.WriteString("\n")
	b.WriteString(styleLabel.Render("load       "))
	load := m.metric.Load()
	loadStyle := styleSuccess
	if load < 0 {
		loadStyle = styleFailure
	}
	b.WriteString(loadStyle.Render(fmt.Sprintf("%d", load)))
	b.WriteString("\n\n")

	if m.final {
		b.WriteString(styleDeferred.Render("done"))
		b.WriteString("\n")
	} else {
		b.WriteString(styleLabel.Render("q to detach (the engine keeps running)"))
		b.WriteString("\n")
	}
	return b.String()
}
