// Package tui browses matrix trajectories in the terminal.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/matdyn/internal/trajectory"
	"github.com/san-kum/matdyn/internal/viz"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

const sparkSamples = 48

type model struct {
	f     *trajectory.MatrixCallable
	title string

	t, t0, t1 float64
	step      float64
	playing   bool

	selected int
	history  []float64

	theme viz.Theme
	width int
}

// NewViewer starts at the beginning of f's span, stepping through it in
// about a hundred frames.
func NewViewer(f *trajectory.MatrixCallable, title string) *model {
	t0, t1 := f.Span()
	m := &model{
		f:     f,
		title: title,
		t:     t0,
		t0:    t0,
		t1:    t1,
		step:  (t1 - t0) / 100,
		theme: viz.CurrentTheme,
		width: 80,
	}
	m.sample()
	return m
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		if !m.playing {
			return m, nil
		}
		m.seek(m.t + m.step)
		if m.t >= m.t1 {
			m.playing = false
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		m.seek(m.t - m.step)
	case "right", "l":
		m.seek(m.t + m.step)
	case "home", "0":
		m.seek(m.t0)
	case "end", "$":
		m.seek(m.t1)
	case "+", "=":
		m.step = math.Min(m.step*2, m.t1-m.t0)
	case "-", "_":
		m.step = math.Max(m.step/2, (m.t1-m.t0)/1e4)
	case " ", "p":
		m.playing = !m.playing
		if m.playing {
			if m.t >= m.t1 {
				m.t = m.t0
			}
			return m, tick()
		}
	case "tab":
		m.selected = (m.selected + 1) % len(m.f.Layout().Names)
		m.sample()
	case "shift+tab":
		n := len(m.f.Layout().Names)
		m.selected = (m.selected + n - 1) % n
		m.sample()
	}
	return m, nil
}

func (m *model) seek(t float64) {
	m.t = math.Max(m.t0, math.Min(t, m.t1))
}

// sample refreshes the sparkline of the selected entry over the whole span.
func (m *model) sample() {
	layout := m.f.Layout()
	pos := layout.Positions(m.selected)
	if len(pos) == 0 {
		m.history = nil
		return
	}
	i, j := pos[0][0], pos[0][1]
	m.history = make([]float64, sparkSamples)
	for k := range m.history {
		t := m.t0 + (m.t1-m.t0)*float64(k)/float64(sparkSamples-1)
		m.history[k] = m.f.At(t).At(i, j)
	}
}

func (m model) View() string {
	var b strings.Builder

	statusIcon := yellow.Render("○")
	statusText := yellow.Render("paused")
	if m.playing {
		statusIcon = green.Render("●")
		statusText = green.Render("playing")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(m.title), statusText))

	progress := 1.0
	if m.t1 > m.t0 {
		progress = (m.t - m.t0) / (m.t1 - m.t0)
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("t=%.3f [%.2f, %.2f]", m.t, m.t0, m.t1)
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", bar, dim.Render(timeStr), dim.Render(fmt.Sprintf("Δt=%.4g", m.step))))

	opts := viz.DefaultMatrixOptions()
	opts.Theme = m.theme
	for _, line := range strings.Split(viz.Matrix(m.f.At(m.t), opts), "\n") {
		b.WriteString("   " + line + "\n")
	}

	layout := m.f.Layout()
	if len(layout.Names) > 0 {
		name := layout.Names[m.selected]
		b.WriteString(fmt.Sprintf("\n   %s %s\n", white.Render(name), viz.Sparkline(m.history, sparkSamples)))
	}

	b.WriteString("\n" + viz.KeyHint.Render("   ←→ scrub  ±step  space play  tab entry  q quit") + "\n")

	return b.String()
}

// Run blocks until the viewer is closed.
func Run(f *trajectory.MatrixCallable, title string) error {
	_, err := tea.NewProgram(NewViewer(f, title), tea.WithAltScreen()).Run()
	return err
}
