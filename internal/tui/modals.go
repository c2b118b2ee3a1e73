package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

func (f confirmModalFocus) toggle() confirmModalFocus {
	if f == confirmFocusConfirm {
		return confirmFocusCancel
	}
	return confirmFocusConfirm
}

// modalButtons renders the accept/back pair. Destructive prompts paint the
// accept button with the error color once it has focus.
func modalButtons(accept, back string, focus confirmModalFocus, destructive bool) string {
	base := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	active := base.Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	if destructive {
		active = active.Foreground(colorAccentFg).Background(colorError)
	}

	a, b := base.Render(accept), base.Render(back)
	if focus == confirmFocusConfirm {
		a = active.Render(accept)
	} else {
		b = base.Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Render(back)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, a, "  ", b)
}

// renderDialog lays out a modal: body, optional controls, then key help.
func renderDialog(width int, title, body, controls, help string) string {
	bodyW := modalBodyWidth(width)
	parts := []string{lipgloss.NewStyle().Width(bodyW).Render(body)}
	if controls != "" {
		parts = append(parts, "", controls)
	}
	parts = append(parts, "", styleMuted().Width(bodyW).Render(help))
	return renderModalBox(width, title, strings.Join(parts, "\n"))
}
