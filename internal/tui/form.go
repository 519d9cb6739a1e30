// Package tui is the interactive parameter form: pick a signal, adjust the
// sliders, type the motor constants and simulate.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dcmotor/internal/config"
	"github.com/san-kum/dcmotor/internal/metrics"
	"github.com/san-kum/dcmotor/internal/motor"
	"github.com/san-kum/dcmotor/internal/viz"
	"github.com/san-kum/dcmotor/internal/waveform"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type rowKind int

const (
	rowSignal rowKind = iota
	rowSlider
	rowEntry
	rowSimulate
)

type row struct {
	kind  rowKind
	field string
}

type simulatedMsg struct {
	trace   *motor.Trace
	metrics map[string]float64
	err     error
}

type model struct {
	rows   []row
	cursor int

	signals []string
	signal  int
	values  map[string]string

	running bool
	status  string
	failed  bool
	trace   *motor.Trace
	metrics map[string]float64

	width int
}

// NewModel builds the form populated from cfg.
func NewModel(cfg *config.Config) model {
	rows := []row{{kind: rowSignal}}
	for _, f := range config.SliderFields {
		rows = append(rows, row{kind: rowSlider, field: f})
	}
	for _, f := range config.EntryFields {
		rows = append(rows, row{kind: rowEntry, field: f})
	}
	rows = append(rows, row{kind: rowSimulate})

	m := model{
		rows:    rows,
		signals: waveform.Kinds(),
		values:  cfg.Fields(),
		width:   80,
	}

	if kind, err := waveform.ParseKind(cfg.Signal.Type); err == nil {
		for i, name := range m.signals {
			if name == kind.String() {
				m.signal = i
			}
		}
	}

	return m
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case simulatedMsg:
		m.running = false
		if msg.err != nil {
			m.failed = true
			m.status = "simulation failed: " + msg.err.Error()
			return m, nil
		}
		m.failed = false
		m.trace = msg.trace
		m.metrics = msg.metrics
		m.status = fmt.Sprintf("simulated %d samples", msg.trace.Len())
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	current := m.rows[m.cursor]

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "tab":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.simulate()
	case "left", "right":
		delta := 1
		if msg.String() == "left" {
			delta = -1
		}
		switch current.kind {
		case rowSignal:
			m.signal = (m.signal + delta + len(m.signals)) % len(m.signals)
		case rowSlider:
			m.nudge(current.field, delta)
		}
		return m, nil
	}

	if current.kind == rowEntry {
		m.edit(current.field, msg)
		return m, nil
	}

	if msg.String() == "q" {
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) nudge(field string, delta int) {
	r := config.SliderRanges[field]
	v, err := strconv.ParseFloat(m.values[field], 64)
	if err != nil {
		v = r.Default
	}
	m.values[field] = strconv.FormatFloat(r.Nudge(v, delta), 'g', -1, 64)
}

func (m *model) edit(field string, msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyBackspace:
		if s := m.values[field]; len(s) > 0 {
			r := []rune(s)
			m.values[field] = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.values[field] += string(msg.Runes)
	}
}

// simulate parses the form. A malformed field is reported and nothing runs.
func (m model) simulate() (model, tea.Cmd) {
	if m.running {
		return m, nil
	}

	cfg, err := config.ParseFields(m.signals[m.signal], m.values)
	if err != nil {
		var fe *config.FieldError
		if errors.As(err, &fe) {
			m.status = "invalid field: " + fe.Field
		} else {
			m.status = err.Error()
		}
		m.failed = true
		return m, nil
	}

	params, err := cfg.Parameters()
	if err != nil {
		m.status = err.Error()
		m.failed = true
		return m, nil
	}

	m.running = true
	m.failed = false
	m.status = "simulating..."
	return m, func() tea.Msg {
		tr, values, err := motor.Simulate(context.Background(), params, metrics.Default()...)
		return simulatedMsg{trace: tr, metrics: values, err: err}
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render("d c m o t o r") + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, r := range m.rows {
		b.WriteString(m.viewRow(r, i == m.cursor))
		b.WriteString("\n")
		if r.kind == rowSignal || (r.kind == rowSlider && r.field == config.FieldTMax) || (r.kind == rowEntry && r.field == config.FieldDt) {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		style := viz.StatusOK
		if m.failed {
			style = viz.StatusError
		}
		b.WriteString("      " + style.Render(m.status) + "\n\n")
	}

	if m.trace != nil {
		width := m.width - 20
		if width < 30 {
			width = 30
		}
		b.WriteString(viz.PlotTrace(m.trace, viz.PlotOptions{Width: width, Height: 8}))
		b.WriteString("\n\n")
		b.WriteString(viz.MetricsTable(m.metrics))
	}

	b.WriteString("\n")
	b.WriteString(viz.KeyHint.Render("      ↑↓ select  ←→ adjust  type to edit  enter simulate  esc quit") + "\n")

	return b.String()
}

func (m model) viewRow(r row, selected bool) string {
	var label, value string

	switch r.kind {
	case rowSignal:
		label = "signal"
		parts := make([]string, len(m.signals))
		for i, s := range m.signals {
			if i == m.signal {
				parts[i] = magenta.Render("(•) " + s)
			} else {
				parts[i] = dim.Render("( ) " + s)
			}
		}
		value = strings.Join(parts, "  ")
	case rowSlider:
		label = r.field
		rng := config.SliderRanges[r.field]
		v, _ := strconv.ParseFloat(m.values[r.field], 64)
		frac := 0.0
		if rng.Max > rng.Min {
			frac = (v - rng.Min) / (rng.Max - rng.Min)
		}
		value = fmt.Sprintf("%-8s %s", m.values[r.field], viz.ProgressBar(frac, 20))
	case rowEntry:
		label = r.field
		value = m.values[r.field]
		if selected {
			value += "▋"
		}
	case rowSimulate:
		if selected {
			return "      " + viz.Selected.Render("[ Simulate ]")
		}
		return "        " + white.Render("[ Simulate ]")
	}

	if selected {
		return "      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", label)) + value
	}
	return "        " + dim.Render(fmt.Sprintf("%-10s", label)) + value
}

func Run(cfg *config.Config) error {
	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
