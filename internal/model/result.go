package model

// Allocation is the raw engine output for one (format, KPI) pair.
type Allocation struct {
	KPI                string  `json:"kpi"`
	Blocked            bool    `json:"blocked"`
	RealizedYTD        float64 `json:"realized_ytd"`
	TotalBudget        float64 `json:"total_budget"`
	RemainingBudget    float64 `json:"remaining_budget"`
	FutureVolume       float64 `json:"future_volume"`
	RequiredAnnualRate float64 `json:"required_annual_rate"`
	MonthlyFutureRate  Series  `json:"monthly_future_rate"`
}

// Displayed is an Allocation after the display override rules.
type Displayed struct {
	Allocation
	DisplayedAnnualRate float64 `json:"displayed_annual_rate"`
	Monthly             Series  `json:"monthly"`
	KeptPlan            bool    `json:"kept_plan,omitempty"`
	Infeasible          bool    `json:"infeasible,omitempty"`
}

// FormatResult is the post-override output for one format, in KPI order.
type FormatResult struct {
	Format string      `json:"format"`
	KPIs   []Displayed `json:"kpis"`
}

// Consolidated is the plant-wide ("General") figure for one KPI.
type Consolidated struct {
	KPI                 string   `json:"kpi"`
	Suppressed          bool     `json:"suppressed"`
	BlockedFormats      []string `json:"blocked_formats,omitempty"`
	RealizedYTD         float64  `json:"realized_ytd"`
	TotalBudget         float64  `json:"total_budget"`
	RemainingBudget     float64  `json:"remaining_budget"`
	FutureVolume        float64  `json:"future_volume"`
	RequiredAnnualRate  float64  `json:"required_annual_rate"`
	DisplayedAnnualRate float64  `json:"displayed_annual_rate"`
	Monthly             Series   `json:"monthly"`
}

// NoticeKind classifies operator-visible notices.
type NoticeKind string

const (
	NoticeBlocked    NoticeKind = "blocked"
	NoticeKeptPlan   NoticeKind = "kept_plan"
	NoticeInfeasible NoticeKind = "infeasible"
	NoticeSuppressed NoticeKind = "suppressed"
)

// Notice is one entry of the side channel that accompanies a report.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Format  string     `json:"format,omitempty"`
	KPI     string     `json:"kpi"`
	Formats []string   `json:"formats,omitempty"`
}

// Report is the full output of one reforecast invocation.
type Report struct {
	PlantID         string         `json:"plant"`
	ReforecastMonth int            `json:"reforecast_month"`
	YTDMonths       []int          `json:"ytd_months"`
	FutureMonths    []int          `json:"future_months"`
	Formats         []FormatResult `json:"formats"`
	General         []Consolidated `json:"general"`
	Notices         []Notice       `json:"notices"`
}

// NoticesOf returns the notices of one kind, in emission order.
func (r Report) NoticesOf(kind NoticeKind) []Notice {
	var out []Notice
	for _, n := range r.Notices {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
