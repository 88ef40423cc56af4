package cli

import (
	"strings"
	"testing"

	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/present"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45200, "-45,200"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	if got := FormatVolume(12345.6); got != "12,346" {
		t.Errorf("FormatVolume = %q", got)
	}
}

func TestViewTable(t *testing.T) {
	var monthly model.Series
	monthly[10], monthly[11] = 1.25, 1.5
	v := present.View{
		Title:        "General",
		FutureMonths: []int{10, 11},
		Rows: []present.Row{
			{Label: "Spoilage (%)", Unit: model.PercentageRate, Annual: 1.375, Monthly: monthly, KeptPlan: true},
			{Label: "Metal Can (kg/000)", Blocked: true},
			{Label: "Scrap (kg/000)", Suppressed: true},
		},
	}

	tbl := ViewTable(v)

	wantHeaders := []string{"KPI", "FY", "Nov", "Dec", "Trend"}
	if strings.Join(tbl.Headers, "|") != strings.Join(wantHeaders, "|") {
		t.Fatalf("headers = %v", tbl.Headers)
	}
	if got := tbl.Rows[0]; got[0] != "Spoilage (%) *" || got[1] != "1.38%" || got[2] != "1.25%" || got[3] != "1.50%" {
		t.Errorf("row 0 = %v", got)
	}
	if got := tbl.Rows[1]; got[1] != CellBlocked || got[3] != CellBlocked || got[4] != "" {
		t.Errorf("row 1 = %v", got)
	}
	if got := tbl.Rows[2]; got[2] != CellSuppressed {
		t.Errorf("row 2 = %v", got)
	}
}

func TestRenderTable_AlignsUnicode(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"KPI", "FY"},
		Rows:    [][]string{{"Water (m³/000)", "1.000"}, {"Gas", "2.000"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	width := len([]rune(stripANSI(lines[0])))
	for _, l := range lines[1:] {
		if w := len([]rune(stripANSI(l))); w != width {
			t.Errorf("line %q has width %d, want %d", stripANSI(l), w, width)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 5, 10}); got != "▁▄█" {
		t.Errorf("sparkline = %q, want %q", got, "▁▄█")
	}
	if got := RenderSparkline([]float64{0, 0}); got != "▁▁" {
		t.Errorf("flat sparkline = %q", got)
	}
}

func TestRenderNotices(t *testing.T) {
	out := RenderNotices([]present.NoticeGroup{
		{Kind: model.NoticeKeptPlan, Scope: "F1", KPIs: []string{"Scrap"}},
		{Kind: model.NoticeBlocked, Scope: "F2", KPIs: []string{"Spoilage (%)"}},
	})
	plain := stripANSI(out)
	blocked := strings.Index(plain, "F2")
	kept := strings.Index(plain, "F1")
	if blocked < 0 || kept < 0 || blocked > kept {
		t.Errorf("severe notices should come first:\n%s", plain)
	}

	if got := stripANSI(RenderNotices(nil)); !strings.Contains(got, "No notices") {
		t.Errorf("empty notices = %q", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
