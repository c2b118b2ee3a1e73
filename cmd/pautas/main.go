package main

import (
	"os"
	"strconv"
	"strings"

	"pautas-cli/internal/cli"

	"github.com/joho/godotenv"
)

func isOrderCode(s string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && n > 0
}

// rewriteOrderLookupArgs turns `pautas <code>` into `pautas orders show <code>`.
// Persistent flags may come first, so the first positional token decides.
func rewriteOrderLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":     true,
		"--profile": true,
		"--server":  true,
		"--format":  true,
	}

	rewrite := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "orders", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isOrderCode(argv[i+1]) {
				return rewrite(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isOrderCode(a) {
			return rewrite(i)
		}
		return argv
	}
	return argv
}

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	os.Args = rewriteOrderLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
