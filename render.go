package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"qirsim/qir"
	"qirsim/sim"
)

type stateEntry struct {
	State       string  `json:"state" yaml:"state"`
	Probability float64 `json:"probability" yaml:"probability"`
}

type classicalEntry struct {
	Result  int     `json:"result" yaml:"result"`
	Qubit   int     `json:"qubit" yaml:"qubit"`
	Outcome int     `json:"outcome" yaml:"outcome"`
	ProbOne float64 `json:"p1" yaml:"p1"`
}

// report is what `qirsim run` prints, in any format.
type report struct {
	File      string           `json:"file,omitempty" yaml:"file,omitempty"`
	RunID     string           `json:"run_id" yaml:"run_id"`
	Qubits    int              `json:"qubits" yaml:"qubits"`
	Mode      string           `json:"mode" yaml:"mode"`
	States    []stateEntry     `json:"states" yaml:"states"`
	Hidden    int              `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Classical []classicalEntry `json:"classical,omitempty" yaml:"classical,omitempty"`
}

func newReport(file string, qubits int, cfg *Config, res *sim.Result) report {
	rep := report{
		File:   file,
		RunID:  res.RunID,
		Qubits: qubits,
		Mode:   "analytic",
	}
	if cfg.Collapse {
		rep.Mode = "collapse"
	}

	shown := res.Distribution.Filter(cfg.MinDisplay)
	rep.Hidden = len(res.Distribution) - len(shown)
	keys := shown.Keys()
	if cfg.Sort == "prob" {
		keys = shown.ByProbability()
	}
	for _, k := range keys {
		rep.States = append(rep.States, stateEntry{State: k, Probability: shown[k]})
	}

	slots := make([]int, 0, len(res.Classical))
	for slot := range res.Classical {
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	for _, slot := range slots {
		m := res.Classical[slot]
		rep.Classical = append(rep.Classical, classicalEntry{
			Result:  slot,
			Qubit:   m.Qubit,
			Outcome: m.Outcome,
			ProbOne: m.ProbOne,
		})
	}
	return rep
}

func writeReport(w io.Writer, format string, rep report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(rep), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return errors.Wrap(enc.Close(), "encode yaml")
	default:
		_, err := fmt.Fprintln(w, renderReport(rep))
		return err
	}
}

// renderReport is the table format: a title line, one row per state with a
// probability bar, and the classical results when any were recorded.
func renderReport(rep report) string {
	var sb strings.Builder

	title := fmt.Sprintf("%d qubits, %s", rep.Qubits, rep.Mode)
	if rep.File != "" {
		title = rep.File + "  " + dimStyle.Render(title)
	}
	sb.WriteString(titleStyle.Render("Distribution") + "  " + title + "\n")

	rows := make([][]string, 0, len(rep.States))
	for _, st := range rep.States {
		rows = append(rows, []string{st.State, fmt.Sprintf("%.6f", st.Probability), probabilityBar(st.Probability, barW)})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers("STATE", "PROBABILITY", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	sb.WriteString(t.Render())

	if rep.Hidden > 0 {
		fmt.Fprintf(&sb, "\n%s", dimStyle.Render(fmt.Sprintf("%d states below the display floor not shown", rep.Hidden)))
	}
	if len(rep.Classical) > 0 {
		sb.WriteString("\n\n" + titleStyle.Render("Measurements") + "\n")
		for _, c := range rep.Classical {
			fmt.Fprintf(&sb, "  %s <- %s  outcome %d  p(1)=%.6f\n",
				activeStyle.Render(fmt.Sprintf("r[%d]", c.Result)),
				qubitLabelStyle.Render(fmt.Sprintf("q[%d]", c.Qubit)),
				c.Outcome, c.ProbOne)
		}
	}
	sb.WriteString("\n" + dimStyle.Render("run "+rep.RunID))
	return sb.String()
}

// probabilityBar draws p as a bar of up to width cells, with a half block
// for the remainder.
func probabilityBar(p float64, width int) string {
	cells := p * float64(width)
	full := int(cells)
	bar := strings.Repeat("█", full)
	if cells-float64(full) >= 0.5 && full < width {
		bar += "▌"
	}
	return barStyle.Render(bar)
}

// renderListing is the `qirsim inspect` summary and instruction listing.
func renderListing(path string, prog *qir.Program) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Program") + "  " + path + "\n\n")
	declared := "not declared"
	if prog.Declared >= 0 {
		declared = fmt.Sprintf("%d", prog.Declared)
	}
	fmt.Fprintf(&sb, "  %-14s @%s\n", "entry point", prog.EntryPoint)
	fmt.Fprintf(&sb, "  %-14s %d (declared: %s)\n", "qubits", prog.NumQubits, declared)
	fmt.Fprintf(&sb, "  %-14s %d\n", "results", prog.NumResults)
	fmt.Fprintf(&sb, "  %-14s %d of %d instructions\n", "gates", prog.Gates(), len(prog.Instructions))
	fmt.Fprintf(&sb, "  %-14s %d\n\n", "depth", prog.Depth())

	for _, in := range prog.Instructions {
		line := dimStyle.Render(fmt.Sprintf("%5d", in.Line))
		text := in.String()
		if in.Kind == qir.KindGate {
			text = gateStyle.Render(text)
		}
		fmt.Fprintf(&sb, "%s  %s\n", line, text)
	}

	usage := prog.QubitUsage()
	if len(usage) > 0 {
		sb.WriteString("\n" + titleStyle.Render("Qubit usage") + "\n")
		qubits := make([]int, 0, len(usage))
		for q := range usage {
			qubits = append(qubits, q)
		}
		slices.Sort(qubits)
		for _, q := range qubits {
			fmt.Fprintf(&sb, "  %s %d\n", qubitLabelStyle.Render(fmt.Sprintf("%-6s", fmt.Sprintf("q[%d]", q))), usage[q])
		}
	}
	return sb.String()
}

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// overlayAt composites the overlay string on top of the background at position (x, y).
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// spliceLineAt replaces visible columns starting at x in bgLine with overlay,
// copying ANSI escape sequences of the background through untouched.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix, suffix strings.Builder
	col, i := 0, 0
	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			n := escapeLen(runes[i:])
			prefix.WriteString(string(runes[i : i+n]))
			i += n
			continue
		}
		prefix.WriteRune(runes[i])
		col++
		i++
	}
	for col < x {
		prefix.WriteRune(' ')
		col++
	}

	skipped := 0
	for i < len(runes) && skipped < ovWidth {
		if runes[i] == '\x1b' {
			i += escapeLen(runes[i:])
			continue
		}
		skipped++
		i++
	}
	suffix.WriteString(string(runes[i:]))

	return prefix.String() + overlay + suffix.String()
}

// escapeLen is the length of the escape sequence at the start of rs: ESC,
// parameters, and the final letter.
func escapeLen(rs []rune) int {
	for j := 1; j < len(rs); j++ {
		if isLetter(rs[j]) {
			return j + 1
		}
	}
	return len(rs)
}

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if isLetter(r) {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
