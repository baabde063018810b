package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/worker"
)

var errNotTerminal = errors.New("interactive mode needs a terminal on stdin and stdout")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type queryMode int

const (
	modePredict queryMode = iota
	modeNeighbors
	modeAnalogies
	modeVector
	modeCount
)

func (m queryMode) String() string {
	switch m {
	case modeNeighbors:
		return "nearest neighbours"
	case modeAnalogies:
		return "analogies (a b c)"
	case modeVector:
		return "sentence vector"
	default:
		return "predict"
	}
}

type interactiveModel struct {
	ctx   context.Context
	w     *worker.Worker
	name  string
	k     int32
	mode  queryMode
	input textinput.Model
	lines []string
	err   error
	busy  bool
}

type queryResultMsg struct {
	lines []string
	err   error
}

func newInteractiveModel(ctx context.Context, w *worker.Worker, name string, k int32) *interactiveModel {
	in := textinput.New()
	in.Placeholder = "type text and press enter"
	in.CharLimit = 4096
	in.Width = 60
	in.Focus()
	return &interactiveModel{ctx: ctx, w: w, name: name, k: k, input: in}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.mode = (m.mode + 1) % modeCount
			m.lines, m.err = nil, nil
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.query(m.mode, text)
		}
	case queryResultMsg:
		m.busy = false
		m.lines, m.err = msg.lines, msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) query(mode queryMode, text string) tea.Cmd {
	return func() tea.Msg {
		lines, err := runQuery(m.ctx, m.w, mode, text, m.k)
		return queryResultMsg{lines: lines, err: err}
	}
}

func runQuery(ctx context.Context, w *worker.Worker, mode queryMode, text string, k int32) ([]string, error) {
	switch mode {
	case modeNeighbors:
		ns, err := w.NearestNeighbors(ctx, text, k)
		return neighborLines(ns), err
	case modeAnalogies:
		words := strings.Fields(text)
		if len(words) != 3 {
			return nil, fmt.Errorf("analogies need exactly three words, got %d", len(words))
		}
		ns, err := w.Analogies(ctx, words[0], words[1], words[2], k)
		return neighborLines(ns), err
	case modeVector:
		v, err := w.SentenceVector(ctx, text)
		if err != nil {
			return nil, err
		}
		fields := make([]string, len(v))
		for i, x := range v {
			fields[i] = formatFloat(x)
		}
		return []string{strings.Join(fields, " ")}, nil
	default:
		preds, err := w.Predict(ctx, text, k, 0)
		lines := make([]string, len(preds))
		for i, p := range preds {
			lines[i] = fmt.Sprintf("%-24s %s", p.Label, formatFloat(p.Probability))
		}
		return lines, err
	}
}

func neighborLines(ns []fasttext.Neighbor) []string {
	lines := make([]string, len(ns))
	for i, n := range ns {
		lines[i] = fmt.Sprintf("%-24s %s", n.Word, formatFloat(n.Similarity))
	}
	return lines
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fasttext-go: "+m.name) + "\n\n")
	b.WriteString("mode: " + modeStyle.Render(m.mode.String()) + "\n")
	b.WriteString(m.input.View() + "\n\n")
	switch {
	case m.busy:
		b.WriteString(helpStyle.Render("running...") + "\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	default:
		for _, line := range m.lines {
			b.WriteString(labelStyle.Render(line) + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("enter: run  tab: switch mode  esc/ctrl+c: quit") + "\n")
	return b.String()
}

func (e *env) interactive(ctx context.Context, args []string) error {
	q := e.queryFlags("interactive")
	if err := q.parse(args, 0); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}
	w, err := e.open(ctx, *q.model)
	if err != nil {
		return err
	}
	defer w.Close()

	p := tea.NewProgram(newInteractiveModel(ctx, w, *q.model, int32(*q.k)), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
