package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// pane is one bordered column.
type pane struct {
	title   string
	content string
	active  bool
	dimmed  bool
}

func (p pane) render(width, height int) string {
	if width < 4 {
		width = 4
	}
	if height < 3 {
		height = 3
	}

	border := colorBorder
	if p.active {
		border = colorSuccess
	}
	borderStyle := lipgloss.NewStyle().Foreground(border)
	titleStyle := lipgloss.NewStyle().Foreground(colorText).Bold(true)
	contentStyle := lipgloss.NewStyle().Foreground(colorText)
	if p.dimmed {
		titleStyle = titleStyle.Foreground(colorMuted)
	}

	prefix := ""
	if p.active {
		prefix = "● "
	}

	innerWidth := width - 2
	contentWidth := innerWidth - 2
	titleText := " " + prefix + p.title + " "
	if ansi.StringWidth(titleText) > innerWidth {
		titleText = " " + ansi.Truncate(prefix+p.title, max(1, innerWidth-2), "…") + " "
	}
	dashes := max(0, innerWidth-ansi.StringWidth(titleText))
	leftDash := min(1, dashes)

	top := borderStyle.Render("╭"+strings.Repeat("─", leftDash)) +
		titleStyle.Render(titleText) +
		borderStyle.Render(strings.Repeat("─", dashes-leftDash)+"╮")

	v := borderStyle.Render("│")
	lines := strings.Split(p.content, "\n")
	rows := make([]string, 0, height)
	rows = append(rows, top)
	for i := 0; i < height-2; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, v+" "+padRight(contentStyle.Render(line), contentWidth)+" "+v)
	}
	rows = append(rows, borderStyle.Render("╰"+strings.Repeat("─", innerWidth)+"╯"))
	return strings.Join(rows, "\n")
}

// splitWidths divides total into n near-equal parts.
func splitWidths(total, n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = total / n
	}
	for i := 0; i < total%n; i++ {
		out[i]++
	}
	return out
}

func padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// overlayCenter draws card over the middle of base.
func overlayCenter(base, card string, width, height int) string {
	baseLines := strings.Split(base, "\n")
	for len(baseLines) < height {
		baseLines = append(baseLines, "")
	}
	cardLines := strings.Split(card, "\n")
	cardWidth := 0
	for _, l := range cardLines {
		cardWidth = max(cardWidth, ansi.StringWidth(l))
	}
	x := max(0, (width-cardWidth)/2)
	y := max(0, (height-len(cardLines))/2)
	for i, line := range cardLines {
		row := y + i
		if row >= len(baseLines) {
			break
		}
		target := padRight(baseLines[row], width)
		left := padRight(ansi.Truncate(target, x, ""), x)
		line = padRight(line, cardWidth)
		right := dropColumns(target, x+cardWidth)
		baseLines[row] = left + line + right
	}
	return strings.Join(baseLines, "\n")
}

func dropColumns(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return ansi.TruncateLeft(s, cols, "")
}
