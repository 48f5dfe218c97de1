package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/term"

	"github.com/wippyai/ir-runtime/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("#666666")).
			PaddingRight(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// listWidth is the width of the function pane, border included.
const listWidth = 28

func newBrowseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <manifest.yaml>",
		Short: "Browse a built module interactively",
		Long: `Build a manifest and open a terminal view with the function list on the
left and the module's textual IR on the right. Selecting a function scrolls
to its declaration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("browse needs a terminal; use build to print the IR")
			}
			s, err := openSession(opts, args[0])
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, s.Close()) }()

			names, err := functionNames(s.mod)
			if err != nil {
				return err
			}
			text, err := s.mod.PrintToString()
			if err != nil {
				return err
			}

			p := tea.NewProgram(newBrowseModel(s.mod.Name(), names, text), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

type browseModel struct {
	title    string
	funcs    []string
	lines    []int // declaration line of each function, -1 if not found
	ir       string
	selected int
	viewport viewport.Model
	ready    bool
}

func newBrowseModel(title string, funcs []string, ir string) *browseModel {
	return &browseModel{
		title: title,
		funcs: funcs,
		lines: declarationLines(ir, funcs),
		ir:    ir,
	}
}

// declarationLines finds the line declaring each function, matching names
// the way the printer spells them.
func declarationLines(ir string, funcs []string) []int {
	text := strings.Split(ir, "\n")
	out := make([]int, len(funcs))
	for i, name := range funcs {
		out[i] = -1
		sym := engine.Symbol(name) + "("
		for n, line := range text {
			if !strings.HasPrefix(line, "declare ") {
				continue
			}
			if strings.Contains(line, sym) {
				out[i] = n
				break
			}
		}
	}
	return out
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Title and help take two lines each.
		height := msg.Height - 4
		if height < 1 {
			height = 1
		}
		width := msg.Width - listWidth
		if width < 1 {
			width = 1
		}
		if !m.ready {
			m.viewport = viewport.New(width, height)
			m.viewport.SetContent(m.ir)
			m.ready = true
		} else {
			m.viewport.Width = width
			m.viewport.Height = height
		}
		m.follow()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.follow()
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.funcs)-1 {
				m.selected++
				m.follow()
			}
			return m, nil
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// follow scrolls the IR pane to the selected function's declaration.
func (m *browseModel) follow() {
	if !m.ready || len(m.funcs) == 0 {
		return
	}
	if line := m.lines[m.selected]; line >= 0 {
		m.viewport.SetYOffset(line)
	}
}

func (m *browseModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var list strings.Builder
	if len(m.funcs) == 0 {
		list.WriteString(helpStyle.Render("no functions"))
	}
	for i, name := range m.funcs {
		label := truncate(name, listWidth-4)
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + label))
		} else {
			list.WriteString("  " + funcStyle.Render(label))
		}
		list.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("IR Browser"))
	b.WriteString(" ")
	b.WriteString(m.title)
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(listWidth-2).Height(m.viewport.Height).Render(list.String()),
		m.viewport.View(),
	))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ select • pgup/pgdn scroll • q quit"))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
