package format

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestAnnexesMarkdown(t *testing.T) {
	md := AnnexesMarkdown(1234, []string{"Protocolo bombas", " "})
	if !strings.Contains(md, "## Anexos orden 1234") {
		t.Fatalf("missing heading: %q", md)
	}
	if !strings.Contains(md, "1. Protocolo bombas\n") || !strings.Contains(md, "2. N/A\n") {
		t.Fatalf("unexpected list: %q", md)
	}

	empty := AnnexesMarkdown(5, nil)
	if !strings.Contains(empty, "Sin anexos") {
		t.Fatalf("empty annexes: %q", empty)
	}
}

func TestRenderMarkdown(t *testing.T) {
	if got := RenderMarkdown("   ", 40, true); got != "" {
		t.Fatalf("blank input rendered %q", got)
	}
	out := xansi.Strip(RenderMarkdown(AnnexesMarkdown(7, []string{"Lubricación"}), 40, false))
	if !strings.Contains(out, "Lubricación") {
		t.Fatalf("rendered output lost content: %q", out)
	}
}
