package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dbwsim/internal/config"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/experiment"
	"github.com/san-kum/dbwsim/internal/logging"
	"github.com/san-kum/dbwsim/internal/physics"
)

const (
	historyCapacity = 300
	pathCapacity    = 2000
	maxSpeedup      = 16
	trackWidth      = 36
	trackHeight     = 12
	gainStep        = 0.1
)

// gainKeys maps a key to the steering gain it changes and the direction.
var gainKeys = map[string]struct {
	name string
	sign float64
}{
	"k": {"Kp", -1},
	"K": {"Kp", 1},
	"j": {"Kd", -1},
	"J": {"Kd", 1},
}

type TickMsg time.Time

// Model runs the closed loop inside the bubbletea update cycle.
type Model struct {
	cfg      *config.Config
	scenario experiment.Scenario
	log      *logging.Logger

	plant  *physics.Vehicle
	integ  dynamo.Integrator
	driver *experiment.Driver
	x      dynamo.State
	t      float64

	running bool
	speedup int
	theme   Theme

	speedHist    []float64
	targetHist   []float64
	throttleHist []float64
	brakeHist    []float64
	steerHist    []float64
	path         [][2]float64
	canvas       *Canvas
}

// NewModel works on a copy of cfg; gain changes made from the keyboard
// survive a reset but never reach the caller.
func NewModel(cfg *config.Config, scenario experiment.Scenario, integ dynamo.Integrator, log *logging.Logger) (Model, error) {
	if log == nil {
		log = logging.Discard()
	}
	cfg = cfg.Clone()
	plant, err := experiment.NewPlant(cfg)
	if err != nil {
		return Model{}, err
	}
	m := Model{
		cfg:      cfg,
		scenario: scenario,
		log:      log,
		plant:    plant,
		integ:    integ,
		running:  true,
		speedup:  1,
		theme:    ThemeDash,
		canvas:   NewCanvas(trackWidth, trackHeight),
	}
	m.reset()
	return m, nil
}

func (m *Model) reset() {
	m.driver = experiment.NewDriver(experiment.NewController(m.cfg, m.log), m.scenario, m.cfg.Noise, m.cfg.Seed)
	speed := m.scenario.InitSpeed
	if m.cfg.InitState.Speed > 0 {
		speed = m.cfg.InitState.Speed
	}
	m.x = m.plant.InitialState(speed)
	m.x[physics.IdxHeading] = m.cfg.InitState.Heading
	m.t = 0
	m.speedHist = m.speedHist[:0]
	m.targetHist = m.targetHist[:0]
	m.throttleHist = m.throttleHist[:0]
	m.brakeHist = m.brakeHist[:0]
	m.steerHist = m.steerHist[:0]
	m.path = append(m.path[:0], [2]float64{m.x[physics.IdxX], m.x[physics.IdxY]})
}

func (m Model) tick() tea.Cmd {
	period := time.Duration(m.cfg.Dt * float64(time.Second))
	return tea.Tick(period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "d":
			m.driver.SetOverride(!m.driver.Override())
			m.log.Info("manual override %v at t=%.2f", m.driver.Override(), m.t)
		case "r":
			m.reset()
		case "+", "=":
			m.speedup = min(maxSpeedup, m.speedup*2)
		case "-", "_":
			m.speedup = max(1, m.speedup/2)
		case "t":
			m.theme = nextTheme(m.theme)
		default:
			if g, ok := gainKeys[msg.String()]; ok {
				m.adjustGain(g.name, g.sign*gainStep)
			}
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.speedup; i++ {
				m.step()
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// adjustGain changes a steering gain on the running controller. Gains do not
// go below zero.
func (m *Model) adjustGain(name string, delta float64) {
	ctrl := m.driver.Controller()
	var pid dynamo.Configurable = ctrl.SteeringPID()
	value := max(0, pid.GetParams()[name]+delta)
	if err := pid.SetParam(name, value); err != nil {
		m.log.Warn("steering gain: %v", err)
		return
	}
	m.cfg.Tuning = ctrl.Tuning()
	m.log.Info("steering %s set to %.2f at t=%.2f", name, value, m.t)
}

func (m *Model) step() {
	u := m.driver.Compute(m.x, m.t)
	next := m.integ.Step(m.plant, m.x, u, m.t, m.cfg.Dt)
	m.x = m.plant.Constrain(next)
	m.t += m.cfg.Dt

	in, out := m.driver.LastInputs(), m.driver.LastOutputs()
	m.speedHist = appendCapped(m.speedHist, m.x[physics.IdxSpeed], historyCapacity)
	m.targetHist = appendCapped(m.targetHist, in.LinearVel, historyCapacity)
	m.throttleHist = appendCapped(m.throttleHist, out.Throttle, historyCapacity)
	m.brakeHist = appendCapped(m.brakeHist, out.Brake, historyCapacity)
	m.steerHist = appendCapped(m.steerHist, out.Steering, historyCapacity)

	p := [2]float64{m.x[physics.IdxX], m.x[physics.IdxY]}
	if len(m.path) >= pathCapacity {
		m.path = m.path[1:]
	}
	m.path = append(m.path, p)
}

func appendCapped(s []float64, v float64, capacity int) []float64 {
	if len(s) >= capacity {
		s = s[1:]
	}
	return append(s, v)
}

func (m Model) View() string {
	st := newStyles(m.theme)
	in, out := m.driver.LastInputs(), m.driver.LastOutputs()
	ctrl := m.driver.Controller()
	v := ctrl.Params()
	maxBrake := -v.DecelLimit * v.VehicleMass * v.WheelRadius

	var status string
	switch {
	case !m.running:
		status = st.paused.Render("PAUSED")
	case m.driver.Override():
		status = st.manual.Render("MANUAL")
	default:
		status = st.engaged.Render("DBW ENGAGED")
	}

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.scenario.Name)) + "  " + status + "\n\n")
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs  x%d", m.t, m.speedup))
	row("Speed", fmt.Sprintf("%.2f m/s (target %.2f)", m.x[physics.IdxSpeed], in.LinearVel))
	row("Yaw rate", fmt.Sprintf("%+.3f rad/s (target %+.3f)", m.x[physics.IdxYawRate], in.AngularVel))
	s.WriteString("\n")
	row("THROTTLE", st.bar(out.Throttle, v.MaxThrottle, 20)+fmt.Sprintf(" %.3f", out.Throttle))
	row("BRAKE", st.bar(out.Brake, maxBrake, 20)+fmt.Sprintf(" %.0f N·m", out.Brake))
	row("STEERING", st.centeredBar(out.Steering, v.MaxSteerAngle, 20)+fmt.Sprintf(" %+.3f", out.Steering))

	diag := ctrl.Diagnostics()
	gains := ctrl.SteeringPID().GetParams()
	s.WriteString("\n")
	row("Filtered", fmt.Sprintf("%.3f m/s", diag.FilteredVel))
	row("PID corr", fmt.Sprintf("%+.4f", diag.PIDCorrection))
	row("Gains", fmt.Sprintf("Kp %.2f  Ki %.2f  Kd %.2f", gains["Kp"], gains["Ki"], gains["Kd"]))
	row("CTE", fmt.Sprintf("%+.3f m", in.CTE))

	s.WriteString(st.help.Render("\nSP:Pause D:Override R:Reset k/K:Kp j/J:Kd +/-:Speed T:Theme Q:Quit"))
	stats := st.panel.Render(s.String())

	m.canvas.Clear()
	m.canvas.DrawPath(m.path)
	track := st.panel.Render(st.header.Render("PATH") + "\n" + m.canvas.String())

	top := lipgloss.JoinHorizontal(lipgloss.Top, stats, track)
	return lipgloss.JoinVertical(lipgloss.Left, top, m.graphs(st))
}

func (m Model) graphs(st styles) string {
	if len(m.speedHist) < 2 {
		return ""
	}
	speed := asciigraph.PlotMany(
		[][]float64{m.targetHist, m.speedHist},
		asciigraph.Height(6),
		asciigraph.Width(60),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Green),
		asciigraph.SeriesLegends("target", "speed"),
		asciigraph.Caption("target / speed (m/s)"),
	)
	steer := asciigraph.Plot(m.steerHist,
		asciigraph.Height(4),
		asciigraph.Width(60),
		asciigraph.Caption("steering (rad)"),
	)
	return st.graph.Render(speed) + "\n\n" + st.graph.Render(steer)
}

// Time is the simulated time of the loop.
func (m Model) Time() float64 { return m.t }

func (m Model) State() dynamo.State { return m.x }

func (m Model) Driver() *experiment.Driver { return m.driver }

func (m Model) Running() bool { return m.running }
