package render

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"strings"
)

// Bar is one labelled value in a bar chart.
type Bar struct {
	Label string
	Value float64
}

const (
	chartWidth   = 600
	barHeight    = 28
	barGap       = 10
	labelWidth   = 160
	valueWidth   = 48
	chartPadding = 8
)

// BarChart draws horizontal bars scaled to the largest value (at least 100,
// so percentages keep their proportions).
func BarChart(bars []Bar) template.HTML {
	if len(bars) == 0 {
		return ""
	}
	scale := 100.0
	for _, b := range bars {
		if b.Value > scale {
			scale = b.Value
		}
	}
	track := float64(chartWidth - labelWidth - valueWidth - 2*chartPadding)
	height := chartPadding*2 + len(bars)*(barHeight+barGap) - barGap

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg class="bar-chart" role="img" aria-label="Contribution distribution" viewBox="0 0 %d %d" width="100%%" xmlns="http://www.w3.org/2000/svg">`, chartWidth, height)
	for i, b := range bars {
		y := chartPadding + i*(barHeight+barGap)
		w := 0.0
		if b.Value > 0 {
			w = track * b.Value / scale
		}
		label := html.EscapeString(b.Label)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="13" dominant-baseline="middle">%s</text>`,
			chartPadding, y+barHeight/2, label)
		fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%.1f" height="%d" rx="3" fill="#8884d8"><title>%s: %g</title></rect>`,
			chartPadding+labelWidth, y, w, barHeight, label, b.Value)
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="12" dominant-baseline="middle">%g</text>`,
			float64(chartPadding+labelWidth)+w+6, y+barHeight/2, b.Value)
	}
	sb.WriteString(`</svg>`)
	return template.HTML(sb.String())
}

// Percent clamps v into [0, 100] and rounds it for progress bars.
func Percent(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
