package viz

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/parallelphysics/internal/physics"
	"github.com/san-kum/parallelphysics/internal/sim"
)

const (
	historyCapacity = 120
	tableRows       = 8
	sparkWidth      = 60
)

type TickMsg time.Time

// LiveModel advances a population through a processor on every tick and
// shows per-object state with running averages.
type LiveModel struct {
	proc    *sim.Processor
	objects []*physics.Quantum
	dt      float64
	fps     int
	limit   int

	running bool
	stats   sim.FrameStats
	lastErr error

	energy []float64
	height []float64
	width  int
}

// NewLiveModel builds the population described by cfg. Frames in cfg bounds
// the run; zero runs until the user quits.
func NewLiveModel(cfg sim.RunConfig, fps int) (*LiveModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fps < 1 {
		fps = 30
	}

	_, qs, err := sim.NewRunner(cfg, nil).Population()
	if err != nil {
		return nil, err
	}

	m := &LiveModel{
		objects: qs,
		dt:      cfg.Dt,
		fps:     fps,
		limit:   cfg.Frames,
		running: true,
		width:   80,
	}

	updaters := make([]sim.Updater, len(qs))
	for i, q := range qs {
		updaters[i] = q
	}
	m.proc, err = sim.New(updaters,
		sim.WithWorkers(cfg.Workers),
		sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		sim.WithObserver(sim.FrameObserverFunc(func(s sim.FrameStats) { m.stats = s })),
	)
	if err != nil {
		return nil, err
	}
	m.record()
	return m, nil
}

func (m *LiveModel) Init() tea.Cmd {
	return m.tick()
}

func (m *LiveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.proc.Close()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.dt *= 2
		case "-", "_":
			m.dt /= 2
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case TickMsg:
		if m.running && !m.done() {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) done() bool {
	return m.limit > 0 && m.proc.Frame() >= m.limit
}

// step runs one frame. Failed objects keep their previous state, so the view
// keeps going and shows the last error.
func (m *LiveModel) step() {
	if err := m.proc.ProcessAll(context.Background(), m.dt); err != nil {
		m.lastErr = err
	}
	m.record()
}

func (m *LiveModel) record() {
	var e, z float64
	for _, q := range m.objects {
		s := q.Snapshot()
		e += s.Energy
		z += s.Position[2]
	}
	n := float64(len(m.objects))
	m.energy = appendCapped(m.energy, e/n)
	m.height = appendCapped(m.height, z/n)
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[len(xs)-historyCapacity:]
	}
	return xs
}

func (m *LiveModel) View() string {
	var status string
	switch {
	case m.done():
		status = StatusPaused.Render("● DONE")
	case m.running:
		status = StatusRunning.Render("● RUNNING")
	default:
		status = StatusPaused.Render("◐ PAUSED")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		GradientTitle.Render("parallel physics"), "  ", status)

	info := Rows(
		[2]string{"frame", MetricValue.Render(fmt.Sprintf("%d", m.proc.Frame()))},
		[2]string{"time", MetricValue.Render(fmt.Sprintf("%.3f s", float64(m.proc.Frame())*m.dt))},
		[2]string{"dt", MetricValue.Render(fmt.Sprintf("%.4f", m.dt))},
		[2]string{"objects / workers", MetricValue.Render(fmt.Sprintf("%d / %d", m.proc.Len(), m.proc.Workers()))},
		[2]string{"frame time", MetricValue.Render(m.stats.Elapsed.String())},
		[2]string{"failed", MetricValue.Render(fmt.Sprintf("%d", m.stats.Failed))},
	)

	w := min(sparkWidth, max(m.width-24, 10))
	sparks := Rows(
		[2]string{"mean energy", Sparkline(m.energy, w)},
		[2]string{"mean z", Sparkline(m.height, w)},
	)

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString(GlassPanel.Render(info) + "\n")
	b.WriteString(GlassPanel.Render(m.table()) + "\n")
	b.WriteString(sparks + "\n")
	if m.lastErr != nil {
		b.WriteString(StatusError.Render(m.lastErr.Error()) + "\n")
	}
	b.WriteString(KeyHint.Render("space pause · +/- timestep · q quit"))
	return b.String()
}

func (m *LiveModel) table() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%-4s %12s %12s %12s %10s", "#", "mass", "energy", "z", "s0")))
	b.WriteString("\n")
	for i, q := range m.objects {
		if i == tableRows {
			b.WriteString(Subtle.Render(fmt.Sprintf("… %d more", len(m.objects)-tableRows)))
			break
		}
		s := q.Snapshot()
		b.WriteString(fmt.Sprintf("%-4d %12.5f %12.5f %12.5f %10.4f\n",
			i, s.Mass, s.Energy, s.Position[2], s.State[0]))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RunLive starts the live view and blocks until the user quits.
func RunLive(cfg sim.RunConfig, fps int) error {
	m, err := NewLiveModel(cfg, fps)
	if err != nil {
		return err
	}
	defer m.proc.Close()

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
