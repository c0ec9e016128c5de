package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/autodrive/internal/automation"
	"github.com/san-kum/autodrive/internal/experiment"
	"github.com/san-kum/autodrive/internal/physics"
	"github.com/san-kum/autodrive/internal/sim"
)

const (
	fieldCols       = 48
	fieldRows       = 24
	historyCapacity = 300
	frameRate       = 30
)

type TickMsg time.Time

type doneMsg struct {
	result *experiment.Result
	err    error
}

// progress is written by the routine goroutine and read on every frame.
type progress struct {
	mu    sync.Mutex
	index int
	step  automation.Step
}

func (p *progress) set(i int, s automation.Step) {
	p.mu.Lock()
	p.index, p.step = i, s
	p.mu.Unlock()
}

func (p *progress) get() (int, automation.Step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index, p.step
}

// LiveModel runs an experiment in the background and draws the robot on
// the field as it moves.
type LiveModel struct {
	exp     *experiment.Experiment
	routine *automation.Routine
	field   physics.Field
	ctx     context.Context
	cancel  context.CancelFunc
	prog    *progress

	frame     int
	snap      sim.Snapshot
	trail     []physics.Point
	gyro      []float64
	showGraph bool
	showHelp  bool

	done   bool
	result *experiment.Result
	err    error
}

// NewLiveModel wraps an experiment that has been Setup with routine.
func NewLiveModel(ctx context.Context, exp *experiment.Experiment, routine *automation.Routine) LiveModel {
	ctx, cancel := context.WithCancel(ctx)
	prog := &progress{}
	exp.OnStep = prog.set
	return LiveModel{
		exp:       exp,
		routine:   routine,
		field:     exp.Robot().Field(),
		ctx:       ctx,
		cancel:    cancel,
		prog:      prog,
		trail:     make([]physics.Point, 0, historyCapacity),
		gyro:      make([]float64, 0, historyCapacity),
		showGraph: true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) run() tea.Msg {
	res, err := m.exp.Run(m.ctx)
	return doneMsg{result: res, err: err}
}

func (m LiveModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.run)
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		case "g":
			m.showGraph = !m.showGraph
		case "c":
			m.trail = m.trail[:0]
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.frame++
		m.sample()
		if m.done {
			return m, nil
		}
		return m, tick()
	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		m.sample()
	}
	return m, nil
}

func (m *LiveModel) sample() {
	m.snap = m.exp.Robot().Snapshot()
	p := physics.Point{X: m.snap.Pose.X, Y: m.snap.Pose.Y}
	if n := len(m.trail); n == 0 || m.trail[n-1].Dist(p) > 0.5 {
		m.trail = appendCapped(m.trail, p)
	}
	m.gyro = appendCapped(m.gyro, m.snap.Gyro)
}

func appendCapped[T any](s []T, v T) []T {
	if len(s) == historyCapacity {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

// Result is the finished run, or nil while it is still going.
func (m LiveModel) Result() (*experiment.Result, error) {
	return m.result, m.err
}

func (m LiveModel) View() string {
	view := NewFieldView(m.field, fieldCols, fieldRows)
	view.DrawField()
	view.DrawPath(m.trail)
	view.DrawRobot(m.snap.Pose)

	left := Panel.Render(view.String())
	right := Panel.Render(m.stats())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	var b strings.Builder
	b.WriteString(Title.Render("autodrive") + Subtle.Render(" · "+m.routine.Name) + "\n")
	b.WriteString(body + "\n")
	if m.showHelp {
		b.WriteString(KeyHint.Render("q quit · g toggle gyro graph · c clear trail · ? help") + "\n")
	} else {
		b.WriteString(KeyHint.Render("? help") + "\n")
	}
	return b.String()
}

func (m LiveModel) stats() string {
	var b strings.Builder

	index, step := m.prog.get()
	switch {
	case !m.done:
		b.WriteString(StatusRunning.Render(AnimatedSpinner(m.frame) + " running"))
	case m.err != nil:
		b.WriteString(StatusFailed.Render("✗ " + m.err.Error()))
	default:
		b.WriteString(StatusDone.Render("✓ done"))
	}
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("step", fmt.Sprintf("%d/%d %s", index+1, len(m.routine.Steps), step))
	row("time", fmt.Sprintf("%.2fs", m.snap.Elapsed.Seconds()))
	row("pose", fmt.Sprintf("(%.1f, %.1f) %.1f°", m.snap.Pose.X, m.snap.Pose.Y, m.snap.Pose.Heading*180/math.Pi))
	row("gyro", fmt.Sprintf("%.1f°", m.snap.Gyro))
	b.WriteString(MetricLabel.Render("left") + PowerBar(m.snap.Left, 20) + "\n")
	b.WriteString(MetricLabel.Render("right") + PowerBar(m.snap.Right, 20) + "\n")
	if m.snap.LeadingLit || m.snap.TrailingLit {
		row("light", fmt.Sprintf("leading %v trailing %v", m.snap.LeadingLit, m.snap.TrailingLit))
	}
	if m.snap.OffField {
		b.WriteString(StatusFailed.Render("off the field") + "\n")
	}

	if m.done && m.result != nil {
		b.WriteString("\n")
		row("pushes", fmt.Sprintf("%d", m.result.Pushes))
		row("ticks", fmt.Sprintf("%d", len(m.result.Samples)))
	}

	if m.showGraph && len(m.gyro) > 1 {
		b.WriteString("\n")
		b.WriteString(asciigraph.Plot(m.gyro, asciigraph.Height(6), asciigraph.Width(36), asciigraph.Caption("gyro")))
	}
	return b.String()
}

// RunLive runs the model full screen until the routine finishes and the
// user quits.
func RunLive(ctx context.Context, exp *experiment.Experiment, routine *automation.Routine) (*experiment.Result, error) {
	final, err := tea.NewProgram(NewLiveModel(ctx, exp, routine), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(LiveModel).Result()
}
