package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/corey/acmatch/internal/adapters/socket"
	"github.com/corey/acmatch/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

// useColor is resolved from --color/--no-color before any command runs.
var useColor = true

// colorEnabled decides color from --color (auto, always, never), --no-color
// and NO_COLOR. Auto colors only a terminal stdout.
func colorEnabled(mode string, off bool) bool {
	if off || os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// paint wraps s in an ANSI color when color output is enabled.
func paint(color, s string) string {
	if !useColor {
		return s
	}
	return color + s + colorReset
}

// formatMatches formats matches for terminal display.
//
//	⚡ 3 matches │ 12µs
//	  1:4  she
//	  2:4  he
func formatMatches(matches []ports.Match, elapsed string, countOnly, quiet bool) string {
	if quiet {
		return ""
	}
	header := fmt.Sprintf("⚡ %d %s", len(matches), plural(len(matches), "match", "matches"))
	if elapsed != "" {
		header += " │ " + elapsed
	}
	if countOnly {
		return paint(colorBold, header) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(paint(colorBold, header))
	sb.WriteString("\n")
	for _, m := range matches {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			paint(colorYellow, fmt.Sprintf("%d:%d", m.Index, m.Index+len([]rune(m.Word)))),
			paint(colorCyan, m.Word),
			paint(colorGray, fmt.Sprintf("bytes %d-%d", m.Start, m.End))))
	}
	return sb.String()
}

// formatBatch formats one block per input line, numbered from 1.
func formatBatch(texts []string, results [][]ports.Match, countOnly, quiet bool) string {
	if quiet {
		return ""
	}
	var sb strings.Builder
	total := 0
	for i, ms := range results {
		total += len(ms)
		if len(ms) == 0 {
			continue
		}
		if countOnly {
			sb.WriteString(fmt.Sprintf("  %s %d\n", paint(colorYellow, fmt.Sprintf("line %d:", i+1)), len(ms)))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", paint(colorYellow, fmt.Sprintf("line %d:", i+1)), paint(colorGray, truncate(texts[i], 60))))
		for _, m := range ms {
			sb.WriteString(fmt.Sprintf("    %d  %s\n", m.Index, paint(colorCyan, m.Word)))
		}
	}
	header := fmt.Sprintf("⚡ %d %s in %d lines", total, plural(total, "match", "matches"), len(texts))
	return paint(colorBold, header) + "\n" + sb.String()
}

// formatDictionary formats a single dictionary line.
func formatDictionary(d socket.DictionaryInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s  %s", paint(colorGray, shortKey(d.Key)), paint(colorCyan, d.Name)))
	sb.WriteString(fmt.Sprintf("  %d words", d.WordCount))
	sb.WriteString("  " + paint(colorMagenta, d.Comparer))
	if d.Strategy != "" {
		sb.WriteString("  " + d.Strategy)
	}
	if d.Resident {
		sb.WriteString("  " + paint(colorGreen, "●"))
	}
	if d.Source != "" {
		sb.WriteString("  " + paint(colorGray, d.Source))
	}
	sb.WriteString("\n")
	return sb.String()
}

// formatList formats a dictionary listing.
func formatList(result *socket.ListResult) string {
	var sb strings.Builder
	sb.WriteString(paint(colorBold, fmt.Sprintf("⚡ %d %s", result.Count, plural(result.Count, "dictionary", "dictionaries"))))
	sb.WriteString("\n")
	for _, d := range result.Dictionaries {
		sb.WriteString(formatDictionary(d))
	}
	return sb.String()
}

// formatHealth formats a HealthResult for terminal display.
func formatHealth(h *socket.HealthResult) string {
	var sb strings.Builder
	sb.WriteString(paint(colorBold, "⚡ acmatch daemon") + "\n")
	sb.WriteString(fmt.Sprintf("  Status:        %s\n", paint(colorGreen, h.Status)))
	sb.WriteString(fmt.Sprintf("  Dictionaries:  %d\n", h.Dictionaries))
	sb.WriteString(fmt.Sprintf("  Resident:      %d\n", h.Resident))
	sb.WriteString(fmt.Sprintf("  Uptime:        %s\n", h.Uptime))
	return sb.String()
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func elapsedSince(start time.Time) string {
	return time.Since(start).Round(time.Microsecond).String()
}
