package statsui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keycoach/internal/stats"
)

var (
	keyColumns = []table.Column{
		{Title: "Key", Width: 7},
		{Title: "Accuracy", Width: 9},
		{Title: "Error rate", Width: 10},
		{Title: "Avg (ms)", Width: 9},
		{Title: "Std (ms)", Width: 9},
		{Title: "Samples", Width: 7},
	}
	bigramColumns = []table.Column{
		{Title: "Bigram", Width: 8},
		{Title: "Avg (ms)", Width: 9},
		{Title: "P90 (ms)", Width: 9},
		{Title: "Samples", Width: 7},
	}
	fingerColumns = []table.Column{
		{Title: "Finger", Width: 8},
		{Title: "Accuracy", Width: 9},
		{Title: "Avg (ms)", Width: 9},
		{Title: "Samples", Width: 7},
	}
)

func setTable(t *table.Model, columns []table.Column, rows []table.Row) {
	t.SetRows(nil)
	t.SetColumns(columns)
	t.SetRows(rows)
	t.GotoTop()
}

func keyRows(a stats.Analysis) []table.Row {
	rows := make([]table.Row, 0, len(a.Keys))
	for _, ks := range a.Keys {
		rows = append(rows, table.Row{
			keyLabel(ks.Key),
			fmt.Sprintf("%.1f%%", ks.Accuracy*100),
			fmt.Sprintf("%.1f%%", ks.ErrorRate*100),
			fmt.Sprintf("%.1f", ks.AvgLatencyMs),
			fmt.Sprintf("%.1f", ks.StdLatencyMs),
			fmt.Sprintf("%d", ks.Samples),
		})
	}
	return rows
}

func bigramRows(a stats.Analysis) []table.Row {
	rows := make([]table.Row, 0, len(a.Bigrams))
	for _, bs := range a.Bigrams {
		rows = append(rows, table.Row{
			keyLabel(bs.Bigram),
			fmt.Sprintf("%.1f", bs.AvgLatencyMs),
			fmt.Sprintf("%.1f", bs.P90LatencyMs),
			fmt.Sprintf("%d", bs.Samples),
		})
	}
	return rows
}

func fingerRows(a stats.Analysis) []table.Row {
	rows := make([]table.Row, 0, len(a.Fingers)+len(a.Hands))
	for _, fs := range a.Fingers {
		rows = append(rows, table.Row{
			string(fs.Finger),
			fmt.Sprintf("%.1f%%", fs.Accuracy*100),
			fmt.Sprintf("%.1f", fs.AvgLatencyMs),
			fmt.Sprintf("%d", fs.Samples),
		})
	}
	for _, hs := range a.Hands {
		rows = append(rows, table.Row{
			string(hs.Hand) + " hand",
			fmt.Sprintf("%.1f%%", hs.Accuracy*100),
			fmt.Sprintf("%.1f", hs.AvgLatencyMs),
			fmt.Sprintf("%d", hs.Samples),
		})
	}
	return rows
}

func keyLabel(s string) string {
	return strings.ReplaceAll(s, " ", "<space>")
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
