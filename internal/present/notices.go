package present

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/rfcst/internal/model"
)

// NoticeGroup collects the KPIs one notice kind affects within one scope.
// Scope is a format name, or empty for consolidated notices.
type NoticeGroup struct {
	Kind  model.NoticeKind
	Scope string
	KPIs  []string
}

var noticeOrder = []model.NoticeKind{
	model.NoticeBlocked,
	model.NoticeSuppressed,
	model.NoticeInfeasible,
	model.NoticeKeptPlan,
}

// GroupNotices folds notices into one group per (kind, format), in a fixed
// kind order and first-seen format order.
func GroupNotices(notices []model.Notice) []NoticeGroup {
	var groups []NoticeGroup
	for _, kind := range noticeOrder {
		index := map[string]int{}
		for _, n := range notices {
			if n.Kind != kind {
				continue
			}
			i, ok := index[n.Format]
			if !ok {
				i = len(groups)
				index[n.Format] = i
				groups = append(groups, NoticeGroup{Kind: kind, Scope: n.Format})
			}
			groups[i].KPIs = append(groups[i].KPIs, n.KPI)
		}
	}
	return groups
}

// Message renders a group as one human sentence.
func (g NoticeGroup) Message() string {
	kpis := strings.Join(g.KPIs, ", ")
	switch g.Kind {
	case model.NoticeBlocked:
		return fmt.Sprintf("%s: realized already exceeds the annual budget for %s; no targets computed.", g.Scope, kpis)
	case model.NoticeSuppressed:
		return fmt.Sprintf("%s: blocked in at least one format; consolidated figures withheld.", kpis)
	case model.NoticeInfeasible:
		return fmt.Sprintf("%s: required rate exceeds FY for %s; showing plan and FY.", g.Scope, kpis)
	case model.NoticeKeptPlan:
		return fmt.Sprintf("%s: plan already beats the computed target for %s; plan kept.", g.Scope, kpis)
	default:
		return fmt.Sprintf("%s: %s", g.Scope, kpis)
	}
}

// Severe reports whether the group describes withheld figures.
func (g NoticeGroup) Severe() bool {
	return g.Kind == model.NoticeBlocked || g.Kind == model.NoticeSuppressed
}
