package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	width           = 60
	height          = 22
	historyCapacity = 600
	maxTrailBodies  = 64
	trailLength     = 40
	maxStepsPerTick = 1 << 12
)

type TickMsg time.Time

type point struct{ x, y int }

// LiveModel steps a simulator on every tick and draws the particles. The
// simulator is driven with Step, so the live view sees the same trajectory a
// batch run would.
type LiveModel struct {
	sim           *sim.Simulator
	cfg           sim.Config
	stepsPerTick  int
	step          int
	running       bool
	showHelp      bool
	canvas        *Canvas
	view          Viewport
	trails        [][]point
	energyHistory []float64
	last          dynamo.EnergyReport
	err           error
}

// NewLiveModel draws s. cfg.Steps bounds the run (0 means unbounded) and
// energy is sampled every cfg.OutputFreq steps when cfg.Diagnostics is set.
func NewLiveModel(s *sim.Simulator, cfg sim.Config, stepsPerTick int) LiveModel {
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}
	if cfg.OutputFreq < 1 {
		cfg.OutputFreq = 1
	}
	m := LiveModel{
		sim:           s,
		cfg:           cfg,
		stepsPerTick:  stepsPerTick,
		running:       true,
		canvas:        NewCanvas(width, height),
		view:          FitViewport(s.System().Snapshot(), 0.2),
		energyHistory: make([]float64, 0, historyCapacity),
	}
	if s.System().Len() <= maxTrailBodies {
		m.trails = make([][]point, s.System().Len())
	}
	m.sample()
	m.draw()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "f":
			m.view = FitViewport(m.sim.System().Snapshot(), 0.2)
			m.clearTrails()
		case "t":
			CurrentTheme = NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.Done() {
			m.advance()
		}
		m.draw()
		return m, tick()
	}
	return m, nil
}

// Done reports whether the configured step count was reached or the state
// became invalid.
func (m LiveModel) Done() bool {
	return m.err != nil || (m.cfg.Steps > 0 && m.step >= m.cfg.Steps)
}

func (m LiveModel) Steps() int { return m.step }

func (m LiveModel) Err() error { return m.err }

func (m *LiveModel) advance() {
	for i := 0; i < m.stepsPerTick; i++ {
		if m.cfg.Steps > 0 && m.step >= m.cfg.Steps {
			return
		}
		m.sim.Step(m.cfg.Dt)
		m.step++

		if m.cfg.ValidateState && !m.sim.System().IsValid() {
			m.err = &dynamo.SimulationError{Step: m.step, Time: m.time(), Wrapped: dynamo.ErrInvalidState}
			m.running = false
			return
		}
		if m.step%m.cfg.OutputFreq == 0 {
			m.sample()
		}
	}
}

func (m *LiveModel) sample() {
	if !m.cfg.Diagnostics {
		return
	}
	m.last = m.sim.Energy()
	if len(m.energyHistory) == historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
	m.energyHistory = append(m.energyHistory, m.last.Total())
}

func (m *LiveModel) time() float64 { return float64(m.step) * m.cfg.Dt }

func (m *LiveModel) clearTrails() {
	for i := range m.trails {
		m.trails[i] = m.trails[i][:0]
	}
}

func (m *LiveModel) draw() {
	m.canvas.Clear()
	sys := m.sim.System()
	for i := 0; i < sys.Len(); i++ {
		x, y, ok := m.canvas.Plot(m.view, sys.At(i).Pos)
		if m.trails == nil {
			continue
		}
		if !ok {
			m.trails[i] = m.trails[i][:0]
			continue
		}
		m.trails[i] = append(m.trails[i], point{x, y})
		if len(m.trails[i]) > trailLength {
			m.trails[i] = m.trails[i][1:]
		}
		tr := m.trails[i]
		for j := 1; j < len(tr); j++ {
			m.canvas.DrawLine(tr[j-1].x, tr[j-1].y, tr[j].x, tr[j].y)
		}
	}
}

// View renders the TUI interface.
func (m LiveModel) View() string {
	theme := CurrentTheme
	canvasView := canvasStyle.Render(theme.Particles().Render(m.canvas.String()))

	var s strings.Builder
	s.WriteString(theme.Title().Render(fmt.Sprintf("N-BODY  (%d particles)", m.sim.System().Len())) + "\n\n")

	switch {
	case m.err != nil:
		s.WriteString(StatusFailed.Render("FAILED") + "\n")
		s.WriteString(Subtle.Render(m.err.Error()) + "\n\n")
	case m.Done():
		s.WriteString(StatusPaused.Render("DONE") + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if m.cfg.Steps > 0 {
		s.WriteString(ProgressBar(float64(m.step)/float64(m.cfg.Steps), 30) + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("total energy"))
		s.WriteString(graphStyle.Foreground(theme.Accent).Render(chart) + "\n\n")
	}

	s.WriteString(Metric("Step", fmt.Sprintf("%d", m.step)) + "\n")
	s.WriteString(Metric("Time", fmt.Sprintf("%.2f s", m.time())) + "\n")
	s.WriteString(Metric("Steps/frame", fmt.Sprintf("%d", m.stepsPerTick)) + "\n")
	if m.cfg.Diagnostics {
		s.WriteString(Metric("KE", fmt.Sprintf("%.4e", m.last.Kinetic)) + "\n")
		s.WriteString(Metric("PE", fmt.Sprintf("%.4e", m.last.Potential)) + "\n")
		s.WriteString(Metric("Total", fmt.Sprintf("%.4e", m.last.Total())) + "\n")
	}
	s.WriteString(Metric("View", fmt.Sprintf("%.3g m", m.view.Side)) + "\n")

	s.WriteString(KeyHint.Foreground(theme.Muted).Render("\nSP:Pause  +/-:Speed  F:Fit\nT:Theme   ?:Help     Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  + / -    - Double/halve speed       ║
║  F        - Refit view to particles  ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
