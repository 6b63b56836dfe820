package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qirsim/qerr"
	"qirsim/qir"
	"qirsim/sim"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusResults focus = iota
	focusEditor
	focusMenu
)

const defaultSavePath = "program.ll"

// Model is the `qirsim view` application state. The editor text is the
// single source of truth; the distribution is recomputed whenever it changes.
type Model struct {
	path      string
	qubits    int
	maxQubits int
	runOpts   []sim.Option

	editor     textarea.Model
	focus      focus
	lastSource string
	width      int
	height     int
	statusMsg  string // transient status message (e.g. save confirmation)

	prog   *qir.Program
	result *sim.Result
	err    error

	sortByProb  bool
	showDiagram bool

	// Menu state
	menuCat  int
	menuItem int
}

func newModel(path, source string, qubits, maxQubits int, sortByProb bool, opts []sim.Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Edit QIR here..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetWidth(60)
	ta.SetHeight(20)
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.SetValue(source)

	m := Model{
		path:       path,
		qubits:     qubits,
		maxQubits:  maxQubits,
		runOpts:    opts,
		editor:     ta,
		focus:      focusResults,
		sortByProb: sortByProb,
	}
	m.simulate()
	return m
}

// simulate parses and runs the editor text. Failures are kept for display.
func (m *Model) simulate() {
	src := m.editor.Value()
	m.lastSource = src
	m.result = nil

	prog, err := qir.Parse(src)
	if err != nil {
		m.prog, m.err = nil, err
		return
	}
	m.prog = prog
	m.result, m.err = sim.RunProgram(prog, m.qubits, m.runOpts...)
}

func (m *Model) resimulateIfChanged() {
	if m.editor.Value() != m.lastSource {
		m.simulate()
	}
}

func (m *Model) save() {
	path := m.path
	if path == "" {
		path = defaultSavePath
	}
	if err := os.WriteFile(path, []byte(m.editor.Value()), 0644); err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		return
	}
	m.statusMsg = "Saved " + path
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(max(msg.Width/2-6, 20))
		ctrlH := 6
		m.editor.SetHeight(max(msg.Height-ctrlH-8, 4))

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusResults:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusEditor
				cmds = append(cmds, m.editor.Focus())
			case "ctrl+s":
				m.save()
			case "ctrl+o", "o":
				m.sortByProb = !m.sortByProb
			case "d":
				m.showDiagram = !m.showDiagram
			case "+", "=":
				if m.qubits < m.maxQubits {
					m.qubits++
					m.simulate()
				}
			case "-":
				if m.qubits > 1 {
					m.qubits--
					m.simulate()
				}
			case "a":
				m.focus = focusMenu
				m.menuCat = 0
				m.menuItem = 0
			}

		case focusMenu:
			switch key {
			case "esc":
				m.focus = focusResults
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				if m.menuItem < len(intrinsicMenu[m.menuCat].items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(intrinsicMenu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			case "enter":
				item := intrinsicMenu[m.menuCat].items[m.menuItem]
				m.editor.InsertString("  " + item.template(0) + "\n")
				m.simulate()
				m.focus = focusEditor
				cmds = append(cmds, m.editor.Focus())
			}

		case focusEditor:
			switch key {
			case "tab", "esc":
				m.focus = focusResults
				m.editor.Blur()
			case "ctrl+s":
				m.save()
			case "ctrl+o":
				m.sortByProb = !m.sortByProb
			default:
				var cmd tea.Cmd
				m.editor, cmd = m.editor.Update(msg)
				cmds = append(cmds, cmd)
				m.resimulateIfChanged()
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	editorWidth := m.width / 2
	resultsWidth := m.width - editorWidth - 4
	controlsHeight := 6
	panelHeight := max(m.height-controlsHeight-2, 6)

	editorPanel := m.renderEditorPanel(editorWidth, panelHeight)
	resultsPanel := m.renderResultsPanel(resultsWidth, panelHeight)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, editorPanel, resultsPanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, controlsPanel)

	if m.focus == focusMenu {
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	}
	return frame
}

func (m Model) renderEditorPanel(width, height int) string {
	var sb strings.Builder

	title := "QIR Editor"
	if m.path != "" {
		title += "  " + dimStyle.Render(m.path)
	}
	if m.focus == focusEditor {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.editor.View())

	return editorStyle.Width(width).Height(height).Render(sb.String())
}

func (m Model) renderResultsPanel(width, height int) string {
	var sb strings.Builder

	order := "by state"
	if m.sortByProb {
		order = "by probability"
	}
	sb.WriteString(titleStyle.Render("Distribution"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %d qubits, %s", m.qubits, order)))
	sb.WriteString("\n\n")

	switch {
	case m.err != nil:
		sb.WriteString(errorStyle.Render(strings.ToUpper(qerr.KindOf(m.err).String())))
		sb.WriteString("\n")
		sb.WriteString(m.err.Error())
		if line := qerr.Line(m.err); line > 0 {
			fmt.Fprintf(&sb, "\n\n%s", dimStyle.Render(fmt.Sprintf("at line %d", line)))
		}
	case m.result != nil:
		m.writeDistribution(&sb, width)
	}

	if m.showDiagram && m.prog != nil {
		sb.WriteString("\n")
		sb.WriteString(renderDiagram(m.prog, min(m.qubits, max(m.prog.NumQubits, 1)), width-4))
	}

	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "\n%s", activeStyle.Render(m.statusMsg))
	}

	return resultsStyle.Width(width).Height(height).Render(sb.String())
}

func (m Model) writeDistribution(sb *strings.Builder, width int) {
	dist := m.result.Distribution
	keys := dist.Keys()
	if m.sortByProb {
		keys = dist.ByProbability()
	}

	keyW := m.qubits
	bar := max(min(barW, width-keyW-16), 4)
	for _, k := range keys {
		fmt.Fprintf(sb, "%s  %.6f  %s\n", qubitLabelStyle.Render(k), dist[k], probabilityBar(dist[k], bar))
	}

	if len(m.result.Classical) > 0 {
		sb.WriteString("\n")
		for _, q := range m.result.Measured {
			p1 := 0.0
			for _, c := range m.result.Classical {
				if c.Qubit == q {
					p1 = c.ProbOne
				}
			}
			fmt.Fprintf(sb, "%s %s\n", activeStyle.Render(fmt.Sprintf("M q[%d]", q)), dimStyle.Render(fmt.Sprintf("p(1)=%.4f", p1)))
		}
	}
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeStyle.Render("Results:  "))
	sb.WriteString("o Sort  d Diagram  +/- Qubits")
	sb.WriteString("    ")
	sb.WriteString(activeStyle.Render("a"))
	sb.WriteString(" Insert intrinsic\n")

	sb.WriteString(activeStyle.Render("Actions:  "))
	sb.WriteString("Tab Switch focus  ^O Sort  ^S Save  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}
