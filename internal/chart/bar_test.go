package chart

import (
	"strings"
	"testing"
)

func TestRenderProducesFourBars(t *testing.T) {
	svg, err := Render(0, 0, Summary{
		RevenueCents:     810000,
		GrossProfitCents: 270000,
		ExpenseCents:     150000,
		NetProfitCents:   120000,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	doc := string(svg)
	if !strings.HasPrefix(doc, "<svg") || !strings.HasSuffix(doc, "</svg>") {
		t.Fatalf("expected complete SVG document, got %q", doc[:40])
	}
	if got := strings.Count(doc, "<rect"); got != 4 {
		t.Fatalf("expected 4 bars, got %d", got)
	}
	for _, label := range barLabels {
		if !strings.Contains(doc, label) {
			t.Fatalf("expected label %q in output", label)
		}
	}
	if !strings.Contains(doc, `viewBox="0 0 640 360"`) {
		t.Fatalf("expected default viewport, got %q", doc[:120])
	}
}

func TestRenderHandlesNetLoss(t *testing.T) {
	svg, err := Render(640, 360, Summary{
		RevenueCents:     140000,
		GrossProfitCents: 20000,
		ExpenseCents:     500000,
		NetProfitCents:   -480000,
	})
	if err != nil {
		t.Fatalf("render with loss: %v", err)
	}
	if got := strings.Count(string(svg), "<rect"); got != 4 {
		t.Fatalf("expected 4 bars with a negative figure, got %d", got)
	}
}

func TestRenderAllZeroValues(t *testing.T) {
	svg, err := Render(640, 360, Summary{})
	if err != nil {
		t.Fatalf("render empty summary: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Fatalf("expected SVG document for zeroed summary")
	}
}

func TestRenderRejectsTinyViewport(t *testing.T) {
	if _, err := Render(40, 40, Summary{}); err == nil {
		t.Fatalf("expected error for viewport smaller than padding")
	}
}

func TestBarPositionNegativeValueStartsAtBaseline(t *testing.T) {
	y, h := barPosition(-50, 1, 100, 10, 200)
	if y != 100 {
		t.Fatalf("expected negative bar to start at baseline 100, got %.2f", y)
	}
	if h != 50 {
		t.Fatalf("expected height 50, got %.2f", h)
	}
}

func TestFormatTickSuffixes(t *testing.T) {
	cases := map[float64]string{
		500:       "500",
		2000:      "2rb",
		1_500_000: "1.5jt",
	}
	for value, want := range cases {
		if got := formatTick(value); got != want {
			t.Fatalf("formatTick(%v) = %q, want %q", value, got, want)
		}
	}
}
