package format

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

var (
	mdRendererMu sync.Mutex
	// Keyed by style and wrap width. WithAutoStyle is avoided: it queries the
	// terminal and can block.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// RenderMarkdown renders md for a terminal of the given width. Rendering
// errors fall back to the raw text.
func RenderMarkdown(md string, width int, dark bool) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := "light"
	if dark {
		style = "dark"
	}
	key := fmt.Sprintf("%s:%d", style, width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(style)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyleConfig(style string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if style == "light" {
		cfg = styles.LightStyleConfig
	}
	zero := uint(0)
	cfg.Document.Margin = &zero
	cfg.Paragraph.Margin = &zero
	cfg.List.Margin = &zero
	// Base text follows the terminal palette; no keyword colors on emphasis.
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	faint := false
	cfg.BlockQuote.Faint = &faint
	return cfg
}

// AnnexesMarkdown lists an order's protocol annexes. Numbering follows the
// task numbers the annexes belong to.
func AnnexesMarkdown(code int, annexes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Anexos orden %d\n\n", code)
	if len(annexes) == 0 {
		b.WriteString("_Sin anexos._\n")
		return b.String()
	}
	for i, a := range annexes {
		a = strings.TrimSpace(a)
		if a == "" {
			a = "N/A"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, a)
	}
	return b.String()
}
