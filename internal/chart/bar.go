// Package chart renders the report summary as a standalone SVG bar chart.
// Rendering is stateless: every call builds the full document from the
// values passed in.
package chart

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

const (
	defaultWidth   = 640
	defaultHeight  = 360
	defaultPadding = 48.0
	tickCount      = 4
)

// Summary holds the four report figures the chart displays, in minor units.
type Summary struct {
	RevenueCents     int64
	GrossProfitCents int64
	ExpenseCents     int64
	NetProfitCents   int64
}

var barLabels = [4]string{"Omzet", "Laba Kotor", "Pengeluaran", "Laba Bersih"}
var barColors = [4]string{"#0ea5e9", "#22c55e", "#f97316", "#6366f1"}

// Render draws one bar per summary figure. Negative values (a net loss)
// extend below the zero baseline.
func Render(width, height int, summary Summary) (template.HTML, error) {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	chartWidth := float64(width) - 2*defaultPadding
	chartHeight := float64(height) - 2*defaultPadding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("chart: viewport too small")
	}

	values := [4]float64{
		float64(summary.RevenueCents) / 100,
		float64(summary.GrossProfitCents) / 100,
		float64(summary.ExpenseCents) / 100,
		float64(summary.NetProfitCents) / 100,
	}

	minVal, maxVal := 0.0, 0.0
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}
	scale := chartHeight / (maxVal - minVal)
	zeroY := defaultPadding + chartHeight - (0-minVal)*scale

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"summary-title\">", width, height))
	b.WriteString("<title id=\"summary-title\">Ringkasan Keuangan</title>")

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		value := minVal + (maxVal-minVal)*ratio
		y := defaultPadding + chartHeight - ratio*chartHeight
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"#cbd5f5\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", defaultPadding, y, defaultPadding+chartWidth, y))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"#475569\" font-size=\"10\" text-anchor=\"end\">%s</text>", defaultPadding-6, y+4, template.HTMLEscapeString(formatTick(value))))
	}

	// Zero baseline.
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"#475569\" stroke-width=\"1\"></line>", defaultPadding, zeroY, defaultPadding+chartWidth, zeroY))

	groupWidth := chartWidth / float64(len(values))
	barWidth := groupWidth / 2
	chartBottom := defaultPadding + chartHeight

	for i, v := range values {
		baseX := defaultPadding + float64(i)*groupWidth
		y, h := barPosition(v, scale, zeroY, defaultPadding, chartBottom)
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></rect>", baseX+barWidth/2, y, barWidth, h, barColors[i], template.HTMLEscapeString(barLabels[i])))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"#475569\" font-size=\"10\" text-anchor=\"middle\">%s</text>", baseX+groupWidth/2, chartBottom+14, template.HTMLEscapeString(barLabels[i])))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, top, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < top {
			height -= top - y
			y = top
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	if zeroY+height > bottom {
		height = bottom - zeroY
	}
	if height < 0 {
		height = 0
	}
	return zeroY, height
}

func formatTick(value float64) string {
	abs := math.Abs(value)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fjt", value/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.0frb", value/1_000)
	default:
		return fmt.Sprintf("%.0f", value)
	}
}
