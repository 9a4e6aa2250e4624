package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"github.com/keymagic/kmsedit/internal/compiler"
)

// defaultOutput is the layout path next to a script: foo.kms -> foo.km2.
func defaultOutput(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".km2"
}

// runHeadless checks or compiles source without the TUI, writes the report
// to w and returns the process exit status.
func runHeadless(ctx context.Context, p *compiler.Pipeline, source, output string, check bool, w io.Writer, environ []string) int {
	abs, err := filepath.Abs(source)
	if err != nil {
		fmt.Fprintf(w, "kmsedit: %v\n", err)
		return 1
	}

	action := "Compile"
	var res compiler.Result
	if check {
		action = "Check"
		res = p.CheckSyntax(ctx, abs)
	} else {
		if output == "" {
			output = defaultOutput(abs)
		}
		res = p.Compile(ctx, abs, output)
	}

	// colorprofile downsamples to what w supports, down to plain text when
	// it is not a terminal.
	out := colorprofile.NewWriter(w, environ)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.DarkStyle),
		glamour.WithWordWrap(100),
	)
	md := reportMarkdown(action, res)
	if err == nil {
		if rendered, rerr := r.Render(md); rerr == nil {
			md = rendered
		}
	}
	io.WriteString(out, md)

	if !res.OK() {
		return 1
	}
	return 0
}
