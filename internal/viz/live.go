package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/vladimir-tri/multibody/internal/sim"
)

const (
	canvasWidth     = 70
	canvasHeight    = 22
	historyCapacity = 600
	stepsPerFrame   = 8
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).Width(42)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type tickMsg time.Time

// PointsFunc maps a state to a world-space polyline (x, z) in meters, base
// first. The live view draws segments between consecutive points.
type PointsFunc func(x sim.State) ([][2]float64, error)

// Live animates a running simulation in the terminal.
type Live struct {
	name       string
	sys        sim.System
	integrator sim.Integrator
	points     PointsFunc
	dt         float64
	scale      float64

	state   sim.State
	initial sim.State
	t       float64
	running bool
	err     error

	canvas *Canvas
	trail  [][2]int
	energy []float64
}

// NewLive sets up the view. scale is the world extent in meters mapped to
// the canvas half-height.
func NewLive(name string, sys sim.System, integrator sim.Integrator, points PointsFunc, x0 sim.State, dt, scale float64) *Live {
	return &Live{
		name:       name,
		sys:        sys,
		integrator: integrator,
		points:     points,
		dt:         dt,
		scale:      scale,
		state:      x0.Clone(),
		initial:    x0.Clone(),
		running:    true,
		canvas:     NewCanvas(canvasWidth, canvasHeight),
	}
}

func (m *Live) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		}
	case tickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Live) step() {
	for i := 0; i < stepsPerFrame; i++ {
		next, err := m.integrator.Step(m.sys, m.t, m.state, m.dt)
		if err != nil {
			m.err = err
			return
		}
		m.sys.Normalize(next)
		m.state = next
		m.t += m.dt
	}
	if er, ok := m.sys.(sim.EnergyReporter); ok {
		m.energy = append(m.energy, er.Energy(m.state))
		if len(m.energy) > historyCapacity {
			m.energy = m.energy[1:]
		}
	}
}

func (m *Live) reset() {
	m.state = m.initial.Clone()
	m.t = 0
	m.err = nil
	m.trail = m.trail[:0]
	m.energy = m.energy[:0]
}

// toScreen maps world (x, z) to sub-pixel canvas coordinates. The world
// origin sits at the top center; z points up.
func (m *Live) toScreen(p [2]float64) (int, int) {
	cw, ch := canvasWidth*2, canvasHeight*4
	ppm := float64(ch) / (2 * m.scale)
	return cw/2 + int(p[0]*ppm), ch/4 - int(p[1]*ppm)
}

func (m *Live) View() string {
	m.canvas.Clear()
	pts, err := m.points(m.state)
	if err != nil && m.err == nil {
		m.err = err
	}
	if m.err == nil {
		px, py := m.toScreen([2]float64{0, 0})
		m.canvas.Set(px, py)
		for _, p := range pts {
			nx, ny := m.toScreen(p)
			m.canvas.Line(px, py, nx, ny)
			px, py = nx, ny
		}
		m.trail = append(m.trail, [2]int{px, py})
		if len(m.trail) > 300 {
			m.trail = m.trail[1:]
		}
		for _, p := range m.trail {
			m.canvas.Set(p[0], p[1])
		}
		m.canvas.Dot(px, py)
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(strings.ToUpper(m.name)) + "\n\n")
	status := "RUNNING"
	if m.err != nil {
		status = "ERROR: " + m.err.Error()
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")
	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	if len(m.energy) > 0 {
		s.WriteString(labelStyle.Render("Energy") +
			valueStyle.Render(fmt.Sprintf("%.4f J", m.energy[len(m.energy)-1])) + "\n")
	}
	s.WriteString(helpStyle.Render("\nSP:Pause  R:Reset  Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(s.String()))
}
