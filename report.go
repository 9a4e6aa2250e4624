package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/keymagic/kmsedit/internal/compiler"
)

// outputText formats a compile result for the output log: the command
// line, the verdict, then whatever the tool printed.
func outputText(action string, res compiler.Result) string {
	var sb strings.Builder
	if res.Command != "" {
		fmt.Fprintf(&sb, "$ %s\n", res.Command)
	}
	fmt.Fprintf(&sb, "%s: %s", action, res.Outcome)
	switch {
	case res.Summary != "":
		fmt.Fprintf(&sb, " (%s)", res.Summary)
	case res.Message != "":
		fmt.Fprintf(&sb, " (%s)", res.Message)
	}
	sb.WriteString("\n")
	if s := strings.TrimRight(res.Stdout, "\r\n"); s != "" {
		sb.WriteString(s + "\n")
	}
	if s := strings.TrimRight(res.Stderr, "\r\n"); s != "" {
		sb.WriteString(s + "\n")
	}
	return sb.String()
}

// reportMarkdown formats a compile result as a markdown report.
func reportMarkdown(action string, res compiler.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s: %s\n\n", action, res.Outcome)
	if res.Command != "" {
		fmt.Fprintf(&sb, "`%s`\n\n", res.Command)
	}
	if res.Summary != "" {
		fmt.Fprintf(&sb, "**%s**\n\n", res.Summary)
	}
	if res.Message != "" {
		fmt.Fprintf(&sb, "%s\n\n", res.Message)
	}
	if res.ExitCode >= 0 && res.Outcome != compiler.Timeout {
		fmt.Fprintf(&sb, "Exit code %d after %s.\n\n", res.ExitCode, res.Duration.Round(time.Millisecond))
	}
	section(&sb, "Output", res.Stdout)
	section(&sb, "Errors", res.Stderr)
	return sb.String()
}

func section(sb *strings.Builder, title, body string) {
	body = strings.TrimRight(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if body == "" {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n```\n%s\n```\n\n", title, body)
}
