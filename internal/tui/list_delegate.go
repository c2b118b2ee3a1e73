package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

// pickerItem is a one-line option with an optional right-hand detail.
type pickerItem interface {
	list.Item
	Title() string
	Detail() string
}

// pickerDelegate draws each option on a single line: the title on the left,
// the detail muted and flush right, the whole row highlighted when selected.
type pickerDelegate struct{}

func (pickerDelegate) Height() int                             { return 1 }
func (pickerDelegate) Spacing() int                            { return 0 }
func (pickerDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (pickerDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	width := m.Width()
	if width < 4 {
		return
	}
	title, detail := fmt.Sprint(item), ""
	if p, ok := item.(pickerItem); ok {
		title, detail = p.Title(), p.Detail()
	}

	if detail != "" {
		detailW := min(xansi.StringWidth(detail), width/3)
		detail = truncate(detail, detailW)
		title = padRight(title, width-detailW-1)
	} else {
		title = padRight(title, width)
	}

	if index == m.Index() {
		line := title
		if detail != "" {
			line += " " + detail
		}
		fmt.Fprint(w, styleSelected().Render(padRight(line, width)))
		return
	}
	if detail == "" {
		fmt.Fprint(w, title)
		return
	}
	fmt.Fprint(w, title+" "+styleMuted().Render(detail)+strings.Repeat(" ", max(width-xansi.StringWidth(title)-1-xansi.StringWidth(detail), 0)))
}
