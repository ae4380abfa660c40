package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/carbonsim/internal/flow"
	"github.com/san-kum/carbonsim/internal/sim"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Snapshot is one spinup progress frame.
type Snapshot struct {
	Iteration int
	Finished  int
	Total     int
	MeanSlow  float64
	ByState   map[sim.SpinupState]int
	Done      bool
}

// Monitor implements sim.Observer and forwards progress frames to the watch
// view. The channel is buffered and frames are dropped rather than blocking
// the spinup loop.
type Monitor struct {
	slowPools []int
	frames    chan Snapshot
}

func NewMonitor(slowPools []int) *Monitor {
	return &Monitor{
		slowPools: slowPools,
		frames:    make(chan Snapshot, 64),
	}
}

func (m *Monitor) Frames() <-chan Snapshot { return m.frames }

// Close signals the watch view that the spinup is over. The view treats a
// closed channel as a done frame, so no sentinel send is needed; a send here
// would block if the viewer quit with the buffer full.
func (m *Monitor) Close() {
	close(m.frames)
}

func (m *Monitor) OnIteration(iteration int, pools *flow.Pools, state *sim.State) {
	snap := Snapshot{
		Iteration: iteration,
		Total:     state.N,
		ByState:   make(map[sim.SpinupState]int, 4),
	}
	var slow float64
	for s := 0; s < state.N; s++ {
		snap.ByState[state.Spinup[s]]++
		if state.Spinup[s] == sim.SpinupEnd {
			snap.Finished++
		}
		row := pools.Row(s)
		for _, p := range m.slowPools {
			slow += row[p]
		}
	}
	if state.N > 0 {
		snap.MeanSlow = slow / float64(state.N)
	}
	select {
	case m.frames <- snap:
	default: // drop the frame, the view will catch up
	}
}

type watchModel struct {
	frames  <-chan Snapshot
	current Snapshot
	history []float64
	done    bool

	width  int
	height int
}

// NewWatchApp builds the bubbletea program for watching a spinup.
func NewWatchApp(frames <-chan Snapshot) *tea.Program {
	return tea.NewProgram(watchModel{
		frames: frames,
		width:  80,
		height: 24,
	})
}

type frameMsg Snapshot

func waitFrame(frames <-chan Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-frames
		if !ok {
			return frameMsg(Snapshot{Done: true})
		}
		return frameMsg(snap)
	}
}

func (m watchModel) Init() tea.Cmd { return waitFrame(m.frames) }

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case frameMsg:
		if msg.Done {
			m.done = true
			return m, tea.Quit
		}
		m.current = Snapshot(msg)
		m.history = append(m.history, m.current.MeanSlow)
		if len(m.history) > 60 {
			m.history = m.history[1:]
		}
		return m, waitFrame(m.frames)
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	snap := m.current

	b.WriteString(cyan.Render("carbon spinup") + "\n\n")
	b.WriteString(fmt.Sprintf("  %s %s\n",
		dim.Render("iteration"), white.Render(fmt.Sprintf("%d", snap.Iteration))))
	b.WriteString(fmt.Sprintf("  %s %s\n",
		dim.Render("mean slow C"), white.Render(fmt.Sprintf("%.4f", snap.MeanSlow))))
	b.WriteString("\n")

	if snap.Total > 0 {
		b.WriteString("  " + m.bar(snap.Finished, snap.Total) + "\n\n")
		for _, st := range []sim.SpinupState{
			sim.SpinupAnnualProcesses, sim.SpinupHistoricalEvent,
			sim.SpinupLastPassEvent, sim.SpinupEnd,
		} {
			style := dim
			if st == sim.SpinupEnd {
				style = green
			}
			b.WriteString(fmt.Sprintf("  %-20s %s\n",
				style.Render(st.String()),
				white.Render(fmt.Sprintf("%d", snap.ByState[st]))))
		}
		b.WriteString("\n")
	}

	b.WriteString("  " + m.sparkline() + "\n\n")
	b.WriteString(dim.Render("  q to quit") + "\n")
	return b.String()
}

func (m watchModel) bar(finished, total int) string {
	barWidth := m.width - 20
	if barWidth < 10 {
		barWidth = 10
	}
	filled := barWidth * finished / total
	bar := green.Render(strings.Repeat("█", filled)) +
		dim.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %s", bar,
		yellow.Render(fmt.Sprintf("%d/%d", finished, total)))
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func (m watchModel) sparkline() string {
	if len(m.history) < 2 {
		return ""
	}
	lo, hi := m.history[0], m.history[0]
	for _, v := range m.history {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	var b strings.Builder
	for _, v := range m.history {
		i := 0
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[i])
	}
	return cyan.Render(b.String())
}
