package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// PlotSeries renders one labelled series as an ASCII chart.
func PlotSeries(label string, values []float64, width, height int) string {
	if len(values) < 2 {
		return captionStyle.Render(label + ": not enough samples")
	}
	chart := asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(label),
	)
	return graphStyle.Render(chart)
}

// PlotRun renders the joint angles of a recorded trajectory, one chart per
// joint, plus a header line with run statistics.
func PlotRun(model string, times []float64, states [][]float64, nq int, width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(model)) + "\n")
	if len(times) > 1 {
		b.WriteString(captionStyle.Render(
			fmt.Sprintf("%d samples over %.2fs", len(times), times[len(times)-1]-times[0])) + "\n")
	}
	for j := 0; j < nq; j++ {
		series := make([]float64, 0, len(states))
		for _, s := range states {
			if j < len(s) {
				series = append(series, s[j])
			}
		}
		b.WriteString(PlotSeries(fmt.Sprintf("q%d [rad]", j), series, width, height))
		b.WriteByte('\n')
	}
	return b.String()
}
