package cli

import (
	"fmt"
	"strings"

	"pautas-cli/internal/docs"
	"pautas-cli/internal/format"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	var (
		raw   bool
		width int
		dark  bool
	)

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in help topics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": docs.Topics()}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `pautas docs` to list topics)", topic))
			}
			switch {
			case raw:
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			case strings.EqualFold(app.Format, "table"):
				_, err := fmt.Fprintln(cmd.OutOrStdout(), format.RenderMarkdown(body, width, dark))
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"topic": strings.ToLower(topic), "markdown": body}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --format table")
	cmd.Flags().BoolVar(&dark, "dark", false, "Use the dark palette for rendered output")
	return cmd
}
