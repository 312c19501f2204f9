package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	terminalWidthBackup = 80
	colorReset          = "\x1b[0m"
	colorHeading        = "\x1b[36m"
)

// ReportOptions controls analysis rendering.
type ReportOptions struct {
	Width    int
	UseColor bool
}

// DefaultReportOptions sizes the report to the terminal behind w.
func DefaultReportOptions(w io.Writer) ReportOptions {
	return ReportOptions{Width: terminalWidth(), UseColor: shouldUseColor(w)}
}

// RenderAnalysis prints an analysis as plain-text sections.
func RenderAnalysis(w io.Writer, a Analysis, opts ReportOptions) error {
	sections := []func(io.Writer, Analysis, ReportOptions) error{
		renderOverall,
		renderKeyTable,
		renderBigramTable,
		renderFingerTable,
		renderTrend,
		renderInsights,
	}
	for _, section := range sections {
		if err := section(w, a, opts); err != nil {
			return err
		}
	}
	return nil
}

func renderOverall(w io.Writer, a Analysis, opts ReportOptions) error {
	o := a.Overall
	lines := []string{
		heading("Overall", opts),
		fmt.Sprintf("Keystrokes: %d", o.TotalKeystrokes),
		fmt.Sprintf("Accuracy: %.2f%%", o.Accuracy*100),
		fmt.Sprintf("WPM: %.1f", o.WPM),
		fmt.Sprintf("Avg latency: %.1f ms", o.AvgLatencyMs),
		fmt.Sprintf("Longest error run: %d", o.MaxErrorStreak),
	}
	if len(o.ErrorPatterns) > 0 {
		patterns := make([]string, 0, len(o.ErrorPatterns))
		for _, p := range o.ErrorPatterns {
			patterns = append(patterns, fmt.Sprintf("%q x%d", p.Pattern, p.Count))
		}
		lines = append(lines, "Error contexts: "+strings.Join(patterns, ", "))
	}
	if a.Temporal != nil {
		lines = append(lines, fmt.Sprintf("Fatigue: %s", a.Temporal.Fatigue))
	}
	return writeLines(w, append(lines, ""))
}

func renderKeyTable(w io.Writer, a Analysis, opts ReportOptions) error {
	if len(a.Keys) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(a.Keys))
	for _, ks := range a.Keys {
		rows = append(rows, []string{
			keyLabel(ks.Key),
			fmt.Sprintf("%.2f%%", ks.Accuracy*100),
			fmt.Sprintf("%.1f", ks.AvgLatencyMs),
			fmt.Sprintf("%.1f", ks.StdLatencyMs),
			fmt.Sprintf("%d", ks.Samples),
		})
	}
	headers := []string{"Key", "Accuracy", "Avg (ms)", "Std (ms)", "Samples"}
	lines := formatTable(headers, rows)
	return writeLines(w, append(append([]string{heading("Keys by error rate", opts)}, lines...), ""))
}

func renderBigramTable(w io.Writer, a Analysis, opts ReportOptions) error {
	if len(a.Bigrams) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(a.Bigrams))
	for _, bs := range a.Bigrams {
		rows = append(rows, []string{
			keyLabel(bs.Bigram),
			fmt.Sprintf("%.1f", bs.AvgLatencyMs),
			fmt.Sprintf("%.1f", bs.P90LatencyMs),
			fmt.Sprintf("%d", bs.Samples),
		})
	}
	headers := []string{"Bigram", "Avg (ms)", "P90 (ms)", "Samples"}
	lines := formatTable(headers, rows)
	return writeLines(w, append(append([]string{heading("Slowest transitions", opts)}, lines...), ""))
}

func renderFingerTable(w io.Writer, a Analysis, opts ReportOptions) error {
	if len(a.Fingers) == 0 && len(a.Hands) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(a.Fingers)+len(a.Hands))
	for _, fs := range a.Fingers {
		rows = append(rows, []string{string(fs.Finger), fmt.Sprintf("%.2f%%", fs.Accuracy*100), fmt.Sprintf("%.1f", fs.AvgLatencyMs), fmt.Sprintf("%d", fs.Samples)})
	}
	for _, hs := range a.Hands {
		rows = append(rows, []string{string(hs.Hand) + " hand", fmt.Sprintf("%.2f%%", hs.Accuracy*100), fmt.Sprintf("%.1f", hs.AvgLatencyMs), fmt.Sprintf("%d", hs.Samples)})
	}
	headers := []string{"Finger", "Accuracy", "Avg (ms)", "Samples"}
	lines := formatTable(headers, rows)
	return writeLines(w, append(append([]string{heading("Fingers and hands", opts)}, lines...), ""))
}

func renderTrend(w io.Writer, a Analysis, opts ReportOptions) error {
	if a.Trend == nil {
		return nil
	}
	spark := Sparkline(fitSeries(a.Trend.WindowWPM, opts.Width))
	lines := []string{
		heading("Trend", opts),
		fmt.Sprintf("WPM %s", spark),
		fmt.Sprintf("Change per 100 keys: %+.2f WPM", a.Trend.SlopePer100),
		fmt.Sprintf("Projected: %.1f WPM (%s confidence)", a.Trend.PredictedWPM, a.Trend.Confidence),
		"",
	}
	return writeLines(w, lines)
}

func renderInsights(w io.Writer, a Analysis, opts ReportOptions) error {
	lines := []string{heading("Insights", opts)}
	for _, in := range a.Insights {
		lines = append(lines, "- "+in.Message)
	}
	for _, area := range a.FocusAreas {
		lines = append(lines, fmt.Sprintf("Focus (%s): %s", area.Kind, strings.Join(area.Items, " ")))
	}
	for _, item := range a.Mastered {
		lines = append(lines, fmt.Sprintf("Mastered (%s): %s", item.Kind, strings.Join(item.Items, " ")))
	}
	return writeLines(w, lines)
}

// fitSeries keeps the most recent values that fit in the given width.
func fitSeries(values []float64, width int) []float64 {
	limit := width - len("WPM ")
	if width <= 0 || limit <= 0 || len(values) <= limit {
		return values
	}
	return values[len(values)-limit:]
}

func keyLabel(s string) string {
	return strings.ReplaceAll(s, " ", "<space>")
}

func heading(title string, opts ReportOptions) string {
	if !opts.UseColor {
		return title
	}
	return colorHeading + title + colorReset
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
