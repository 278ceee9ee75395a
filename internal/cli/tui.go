package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/controller"
	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/store"
	"github.com/matzehuels/pipebuilder/pkg/submit"
)

// Canvas geometry of the terminal minimap: one cell covers cellW x cellH
// canvas units.
const (
	mapCols    = 60
	mapRows    = 16
	cellW      = 20.0
	cellH      = 40.0
	cursorStep = 20.0
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	mapBorderStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
)

type storeEventMsg store.Event

type noticeMsg submit.Notice

type editOpts struct {
	output  string
	kind    string
	catalog string
	session string
	offline bool
	noCache bool
}

func (c *CLI) editCommand() *cobra.Command {
	var opts editOpts

	cmd := &cobra.Command{
		Use:   "edit [snapshot]",
		Short: "Edit a pipeline in the terminal",
		Long: `Open the interactive pipeline editor. Nodes are placed at the cursor from the
palette and connect automatically to their nearest neighbour. Submissions and
remote deletions go to the validation service unless --offline is set.

An existing snapshot is loaded when given; w saves back to it (or to -o).`,
		Example: `  pipebuilder edit
  pipebuilder edit flow.json --kind llm`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runEdit(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "snapshot file written by w (default: the input or pipeline.json)")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "palette entry selected at start")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "extra template catalog (TOML)")
	cmd.Flags().StringVar(&opts.session, "session", "", `persist submissions under an editor session id ("new" starts one)`)
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "do not contact the validation service")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the validation cache")
	_ = cmd.RegisterFlagCompletionFunc("kind", completeKinds)

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, input string, opts editOpts) error {
	logger := loggerFromContext(ctx)

	reg, err := c.registry(opts.catalog)
	if err != nil {
		return err
	}
	s := store.New(reg, store.WithLogger(logger))
	if input != "" {
		snap, err := graph.ReadSnapshotFile(input)
		if err != nil {
			return err
		}
		if err := s.Restore(snap); err != nil {
			return err
		}
	}

	output := opts.output
	if output == "" {
		output = input
	}
	if output == "" {
		output = "pipeline.json"
	}

	msgs := make(chan tea.Msg, 64)
	unsubscribe := s.Subscribe(func(ev store.Event) { forward(msgs, storeEventMsg(ev)) })
	defer unsubscribe()
	notifier := submit.NewNotifier(c.cfg.NoticeDuration, func(n submit.Notice) { forward(msgs, noticeMsg(n)) })
	defer notifier.Stop()

	ctrlOpts := []controller.Option{
		controller.WithThreshold(c.cfg.AutoConnectThreshold),
		controller.WithLogger(logger),
	}
	var runner *submit.Runner
	if !opts.offline {
		r, cleanup, err := c.newRunner(ctx, opts.noCache)
		if err != nil {
			return err
		}
		defer cleanup()
		if r.Key, err = persistKey("", opts.session); err != nil {
			return err
		}
		runner = r
		ctrlOpts = append(ctrlOpts, controller.WithDeleteNotifier(func(res store.DeleteResult) {
			runner.NotifyDeleted(ctx, res)
		}))
	}

	m := newEditorModel(ctx, controller.New(s, ctrlOpts...), runner, notifier, msgs, output)
	if opts.kind != "" {
		idx := slices.Index(m.kinds, opts.kind)
		if idx < 0 {
			return fmt.Errorf("unknown kind %q", opts.kind)
		}
		m.palette = idx
	}

	// The logger writes to stderr; keep it quiet while the TUI owns the screen.
	level := c.Logger.GetLevel()
	c.Logger.SetLevel(log.FatalLevel)
	defer c.Logger.SetLevel(level)

	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
	return err
}

// editorModel is the bubbletea model of `pipebuilder edit`. All edits go
// through the controller; the view re-reads the store after every event.
type editorModel struct {
	ctx      context.Context
	ctrl     *controller.Controller
	store    *store.Store
	runner   *submit.Runner // nil when offline
	notifier *submit.Notifier
	msgs     chan tea.Msg
	output   string

	kinds     []string
	palette   int
	cursor    store.Position
	selected  string
	lastEvent string
	summary   string
}

func newEditorModel(ctx context.Context, ctrl *controller.Controller, runner *submit.Runner, notifier *submit.Notifier, msgs chan tea.Msg, output string) *editorModel {
	s := ctrl.Store()
	return &editorModel{
		ctx:      ctx,
		ctrl:     ctrl,
		store:    s,
		runner:   runner,
		notifier: notifier,
		msgs:     msgs,
		output:   output,
		kinds:    s.Registry().Kinds(),
		cursor:   store.Position{X: 100, Y: 100},
	}
}

// forward delivers a message to the program without blocking the sender.
// Observers run inside Update, so a blocking send could deadlock.
func forward(ch chan tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	default:
	}
}

func waitForMsg(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m *editorModel) Init() tea.Cmd {
	return waitForMsg(m.msgs)
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeEventMsg:
		m.lastEvent = fmt.Sprintf("%s %s", msg.Type, strings.Join(slices.Concat(msg.NodeIDs, msg.EdgeIDs), " "))
		if msg.Type == store.EventCleared || msg.Type == store.EventDeleted {
			if _, ok := m.store.Node(m.selected); !ok {
				m.selected = ""
			}
		}
		return m, waitForMsg(m.msgs)
	case noticeMsg:
		return m, waitForMsg(m.msgs)
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *editorModel) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "tab":
		m.palette = (m.palette + 1) % len(m.kinds)
	case "shift+tab":
		m.palette = (m.palette + len(m.kinds) - 1) % len(m.kinds)
	case "up", "k":
		m.cursor.Y -= cursorStep
	case "down", "j":
		m.cursor.Y += cursorStep
	case "left", "h":
		m.cursor.X -= cursorStep
	case "right", "l":
		m.cursor.X += cursorStep
	case "enter", " ":
		res := m.dispatch(controller.Drop{Payload: controller.Payload(m.kinds[m.palette]), Client: m.cursor})
		if res.Node != nil {
			m.selectNode(res.Node.ID)
		}
	case "n":
		m.cycleSelection(1)
	case "p":
		m.cycleSelection(-1)
	case "m":
		if m.selected != "" {
			m.dispatch(controller.DragStop{NodeID: m.selected, Position: m.cursor})
		}
	case "x", "delete", "backspace":
		m.dispatch(controller.DeleteSelection{})
	case "C":
		m.dispatch(controller.Clear{})
		m.summary = ""
	case "i":
		text, notice := submit.Summarize(m.store.Snapshot())
		m.summary = text
		m.notifier.Show(notice)
	case "s":
		m.submit()
	case "w":
		m.save()
	}
	return nil
}

func (m *editorModel) dispatch(in controller.Intent) controller.Result {
	res, err := m.ctrl.Dispatch(in)
	if err != nil {
		m.notifier.Show(submit.Notice{Text: errors.UserMessage(err), Tone: submit.ToneError})
	}
	return res
}

func (m *editorModel) selectNode(id string) {
	m.selected = id
	var nodes []string
	if id != "" {
		nodes = []string{id}
	}
	m.dispatch(controller.Select{Nodes: nodes})
}

func (m *editorModel) cycleSelection(dir int) {
	nodes := m.store.Nodes()
	if len(nodes) == 0 {
		return
	}
	idx := -1
	for i, n := range nodes {
		if n.ID == m.selected {
			idx = i
		}
	}
	idx = (idx + dir + len(nodes)) % len(nodes)
	m.selectNode(nodes[idx].ID)
	m.cursor = nodes[idx].Position
}

func (m *editorModel) submit() {
	if m.runner == nil {
		m.notifier.Show(submit.Notice{Text: "Offline: submission disabled.", Tone: submit.ToneWarn})
		return
	}
	m.notifier.Show(submit.Notice{Text: "Submitting...", Tone: submit.ToneInfo})
	m.runner.SubmitAsync(m.ctx, m.store.Snapshot(), func(out submit.Outcome, _ error) {
		m.notifier.Show(out.Notice)
	})
}

func (m *editorModel) save() {
	if err := graph.WriteSnapshotFile(m.store.Snapshot(), m.output); err != nil {
		m.notifier.Show(submit.Notice{Text: "Save failed: " + err.Error(), Tone: submit.ToneError})
		return
	}
	m.notifier.Show(submit.Notice{Text: "Saved " + m.output, Tone: submit.ToneSuccess})
}

func (m *editorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pipeline editor"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab palette  ←↑↓→ cursor  ⏎ place  n/p select  m move  x delete  C clear  i summary  s submit  w save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.viewPalette())
	b.WriteString("\n")
	b.WriteString(mapBorderStyle.Render(m.viewMap()))
	b.WriteString("\n")
	b.WriteString(m.viewLists())

	if m.summary != "" {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(m.summary))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if n := m.notifier.Current(); !n.IsZero() {
		b.WriteString(noticeStyle(n.Tone).Render(n.Text))
	} else if m.lastEvent != "" {
		b.WriteString(listDimStyle.Render(m.lastEvent))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *editorModel) viewPalette() string {
	parts := make([]string, len(m.kinds))
	for i, kind := range m.kinds {
		if i == m.palette {
			parts[i] = listSelectedStyle.Render("[" + kind + "]")
		} else {
			parts[i] = listDimStyle.Render(kind)
		}
	}
	return strings.Join(parts, " ")
}

// viewMap draws nodes by the first letter of their kind, the selected node
// as '@' and the cursor as '+'.
func (m *editorModel) viewMap() string {
	grid := make([][]rune, mapRows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat("·", mapCols))
	}
	plot := func(p store.Position, r rune) {
		col := int(math.Floor(p.X / cellW))
		row := int(math.Floor(p.Y / cellH))
		if row >= 0 && row < mapRows && col >= 0 && col < mapCols {
			grid[row][col] = r
		}
	}

	for _, n := range m.store.Nodes() {
		r := '?'
		if n.Kind != "" {
			r = []rune(n.Kind)[0]
		}
		if n.ID == m.selected {
			r = '@'
		}
		plot(n.Position, r)
	}
	plot(m.cursor, '+')

	lines := make([]string, mapRows)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func (m *editorModel) viewLists() string {
	var b strings.Builder
	nodes, edges := m.store.Nodes(), m.store.Edges()
	fmt.Fprintf(&b, "%s  cursor (%.0f, %.0f)\n", StyleValue.Render(fmt.Sprintf("Nodes (%d)", len(nodes))), m.cursor.X, m.cursor.Y)
	for _, n := range nodes {
		line := fmt.Sprintf("  %-18s (%.0f, %.0f)", n.ID, n.Position.X, n.Position.Y)
		if n.ID == m.selected {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(StyleValue.Render(fmt.Sprintf("Edges (%d)", len(edges))))
	b.WriteString("\n")
	for _, e := range edges {
		b.WriteString(listDimStyle.Render("  " + e.ID))
		b.WriteString("\n")
	}
	return b.String()
}
