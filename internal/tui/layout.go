package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// truncate cuts s to width columns (ANSI-aware), ending in an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return xansi.Cut(s, 0, 1)
	}
	return xansi.Cut(s, 0, width-1) + "…"
}

// padRight truncates or pads s to exactly width columns.
func padRight(s string, width int) string {
	s = truncate(s, width)
	if w := xansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// normalizePane forces s to be exactly width columns wide and height lines
// tall so panes join cleanly.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i := range lines {
		lines[i] = padRight(lines[i], width)
	}
	return strings.Join(lines, "\n")
}

func modalWidth(width int) int {
	w := width - 8
	if w > 72 {
		w = 72
	}
	if w < 30 {
		w = 30
	}
	return w
}

func modalBodyWidth(width int) int {
	return modalWidth(width) - 4
}

func renderModalBox(width int, title, content string) string {
	w := modalWidth(width)
	header := lipgloss.NewStyle().
		Bold(true).
		Width(w-4).
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Render(title)
	return lipgloss.NewStyle().
		Width(w).
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Render(header + "\n\n" + content)
}

// renderKV renders aligned "label: value" lines.
func renderKV(width int, rows [][2]string) string {
	labelW := 0
	for _, r := range rows {
		if w := xansi.StringWidth(r[0]); w > labelW {
			labelW = w
		}
	}
	label := styleMuted()
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		line := label.Render(padRight(r[0], labelW)) + "  " + r[1]
		out = append(out, truncate(line, width))
	}
	return strings.Join(out, "\n")
}
