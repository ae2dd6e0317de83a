// Package monitor is the live TUI dashboard: a gocui window onto the
// process table, sysinfo, and the UART scrollback, redrawn on a throttle.
package monitor

import (
	"fmt"
	"time"

	throttle "github.com/boz/go-throttle"
	"github.com/fatih/color"
	"github.com/jesseduffield/asciigraph"
	"github.com/jesseduffield/gocui"
	"github.com/jesseduffield/lazycore/pkg/boxlayout"
	"github.com/sirupsen/logrus"

	"github.com/riscvkern/riscvkern/pkg/i18n"
	"github.com/riscvkern/riscvkern/pkg/kernel"
	"github.com/riscvkern/riscvkern/pkg/proctable"
	"github.com/riscvkern/riscvkern/pkg/tasks"
	"github.com/riscvkern/riscvkern/pkg/utils"
)

// Monitor owns the gocui.Gui instance and the derived state (the
// ready-queue history sparkline) that the kernel itself has no reason to
// track.
type Monitor struct {
	g      *gocui.Gui
	kernel *kernel.Kernel
	Log    *logrus.Entry
	Tr     *i18n.TranslationSet

	// tasks drives the tick loop as a single supervised background task.
	tasks *tasks.TaskManager

	redrawInterval time.Duration
	historyLength  int
	readyHistory   []float64
}

// New constructs a Monitor over an already-booted Kernel.
func New(k *kernel.Kernel, log *logrus.Entry, tr *i18n.TranslationSet, redrawInterval time.Duration, historyLength int) *Monitor {
	return &Monitor{
		kernel:         k,
		Log:            log,
		Tr:             tr,
		tasks:          tasks.NewTaskManager(),
		redrawInterval: redrawInterval,
		historyLength:  historyLength,
	}
}

// Run opens the terminal UI and blocks until the user quits.
func (m *Monitor) Run() error {
	g, err := gocui.NewGui(gocui.NewGuiOpts{
		OutputMode:       gocui.OutputNormal,
		SupportOverlaps:  false,
		Headless:         false,
		RuneReplacements: map[rune]string{},
	})
	if err != nil {
		return err
	}
	defer g.Close()

	m.g = g
	g.SetManagerFunc(m.layout)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, m.quit); err != nil {
		return err
	}
	if err := g.SetKeybinding("", 'q', gocui.ModNone, m.quit); err != nil {
		return err
	}

	throttledRefresh := throttle.ThrottleFunc(m.redrawInterval, true, func() {
		g.Update(func(*gocui.Gui) error { return nil })
	})
	defer throttledRefresh.Stop()

	// The kernel is stepped once per configured scheduler tick interval,
	// recovered from the scheduler's tick count and the ticks-per-second rate.
	tickPeriod := time.Duration(float64(m.kernel.Scheduler.TickTicks) / float64(m.kernel.Lifecycle.TicksPerSecond) * float64(time.Second))
	if tickPeriod <= 0 {
		tickPeriod = time.Nanosecond
	}

	if err := m.tasks.NewTask(func(task *tasks.Task) {
		ticker := time.NewTicker(tickPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.kernel.Step()
				task.NoteTick()
				throttledRefresh.Trigger()
			case <-task.Stopped():
				return
			}
		}
	}); err != nil {
		return err
	}
	defer m.tasks.StopCurrentTask()

	err = g.MainLoop()
	if err == gocui.ErrQuit {
		return nil
	}
	return err
}

func (m *Monitor) quit(*gocui.Gui, *gocui.View) error {
	return gocui.ErrQuit
}

// getWindowDimensions arranges the four panels with boxlayout: the process
// table takes whatever height the two fixed-size bottom sections leave
// over, and the info row splits evenly between sysinfo and the ready graph.
func getWindowDimensions(width, height int) map[string]boxlayout.Dimensions {
	const (
		infoSectionHeight    = 6
		consoleSectionHeight = 6
	)

	root := &boxlayout.Box{
		Direction: boxlayout.ROW,
		Children: []*boxlayout.Box{
			{
				Window: "procs",
				Weight: 1,
			},
			{
				Direction: boxlayout.COLUMN,
				Size:      infoSectionHeight,
				Children: []*boxlayout.Box{
					{Window: "sysinfo", Weight: 1},
					{Window: "ready", Weight: 1},
				},
			},
			{
				Window: "console",
				Size:   consoleSectionHeight,
			},
		},
	}

	return boxlayout.ArrangeWindows(root, 0, 0, width, height)
}

func (m *Monitor) layout(g *gocui.Gui) error {
	width, height := g.Size()

	minimumHeight := 16
	minimumWidth := 20
	if height < minimumHeight || width < minimumWidth {
		v, err := g.SetView("limit", 0, 0, width-1, height-1, 0)
		if err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = m.Tr.NotEnoughSpace
			v.Wrap = true
			_, _ = g.SetViewOnTop("limit")
		}
		return nil
	}
	_, _ = g.SetViewOnBottom("limit")

	dimensions := getWindowDimensions(width, height)

	panels := []struct {
		window string
		title  string
		render func(*gocui.View)
	}{
		{"procs", m.Tr.ProcessTableTitle, m.renderProcs},
		{"sysinfo", m.Tr.SysInfoTitle, m.renderSysinfo},
		{"ready", m.Tr.ReadyGraphTitle, m.renderReadyGraph},
		{"console", m.Tr.ConsoleTitle, m.renderConsole},
	}

	for _, panel := range panels {
		dims, ok := dimensions[panel.window]
		if !ok {
			continue
		}
		v, err := g.SetView(panel.window, dims.X0, dims.Y0, dims.X1, dims.Y1, 0)
		if err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = panel.title
		} else {
			panel.render(v)
		}
	}

	return nil
}

// procRow is the per-slot snapshot renderProcs takes under the lock
// discipline, so rendering never holds a slot lock while writing to a view.
type procRow struct {
	pid       uint32
	state     proctable.ProcState
	name      string
	wakeup    uint64
	parentPID string
}

func (m *Monitor) renderProcs(v *gocui.View) {
	v.Clear()
	tr := m.Tr

	rows := [][]string{{tr.ColPID, tr.ColState, tr.ColName, tr.ColWakeup, tr.ColParent}}

	table := m.kernel.Table
	table.Lock.Lock()
	snapshot := make([]procRow, 0, len(table.Slots))
	for i := range table.Slots {
		slot := &table.Slots[i]
		slot.Lock.Lock()
		if slot.State != proctable.Available {
			parent := "-"
			if slot.Parent != nil {
				parent = fmt.Sprintf("%d", slot.Parent.PID)
			}
			snapshot = append(snapshot, procRow{
				pid:       slot.PID,
				state:     slot.State,
				name:      slot.Name,
				wakeup:    slot.WakeupTime,
				parentPID: parent,
			})
		}
		slot.Lock.Unlock()
	}
	table.Lock.Unlock()

	for _, s := range snapshot {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.pid),
			colorizeState(s.state),
			s.name,
			fmt.Sprintf("%d", s.wakeup),
			s.parentPID,
		})
	}

	rendered, err := utils.RenderTable(rows)
	if err != nil {
		if m.Log != nil {
			m.Log.WithError(err).Warn("monitor: render process table")
		}
		return
	}
	fmt.Fprintln(v, rendered)
}

func colorizeState(state proctable.ProcState) string {
	switch state {
	case proctable.Running:
		return color.New(color.FgGreen).Sprint(state.String())
	case proctable.Sleeping:
		return color.New(color.FgYellow).Sprint(state.String())
	case proctable.Ready:
		return color.New(color.FgCyan).Sprint(state.String())
	default:
		return state.String()
	}
}

func (m *Monitor) renderSysinfo(v *gocui.View) {
	v.Clear()
	total, free, procs := m.kernel.Lifecycle.Sysinfo()

	table := m.kernel.Table
	table.Lock.Lock()
	idle := table.IsIdle
	table.Lock.Unlock()

	fields := map[string]string{
		m.Tr.LabelTotalRAM: utils.FormatBinaryBytes(int(total)),
		m.Tr.LabelFreeRAM:  utils.FormatBinaryBytes(int(free)),
		m.Tr.LabelProcs:    fmt.Sprintf("%d", procs),
		m.Tr.LabelIdle:     fmt.Sprintf("%v", idle),
		m.Tr.LabelTicks:    fmt.Sprintf("%d", m.tasks.Ticks()),
	}
	fmt.Fprint(v, utils.FormatMap(0, fields))
}

// readyCount counts slots currently ready to run.
func readyCount(table *proctable.Table) int {
	table.Lock.Lock()
	defer table.Lock.Unlock()

	ready := 0
	for i := range table.Slots {
		table.Slots[i].Lock.Lock()
		if table.Slots[i].State == proctable.Ready {
			ready++
		}
		table.Slots[i].Lock.Unlock()
	}
	return ready
}

// pushHistory appends a sample and trims the slice to at most limit
// entries, keeping the most recent ones.
func pushHistory(history []float64, sample float64, limit int) []float64 {
	history = append(history, sample)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

// renderConsole renders the UART's retained scrollback: fork/exec/exit
// notices and getpid/sysinfo dumps, tagged by the pid that produced them.
func (m *Monitor) renderConsole(v *gocui.View) {
	v.Clear()

	lines := m.kernel.UART.Lines()
	start := 0
	if len(lines) > m.historyLength {
		start = len(lines) - m.historyLength
	}
	for _, line := range lines[start:] {
		fmt.Fprintf(v, "[%d] %s\n", line.PID, line.Text)
	}
}

func (m *Monitor) renderReadyGraph(v *gocui.View) {
	v.Clear()

	m.readyHistory = pushHistory(m.readyHistory, float64(readyCount(m.kernel.Table)), m.historyLength)
	if len(m.readyHistory) < 2 {
		return
	}

	width, _ := v.Size()
	graph := asciigraph.Plot(m.readyHistory, asciigraph.Height(4), asciigraph.Width(width-2))
	fmt.Fprintln(v, graph)
}
