package sheet

import (
	"fmt"
	"io"

	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/present"

	"github.com/xuri/excelize/v2"
)

// NoticesSheet is the title of the notices sheet in a result workbook.
const NoticesSheet = "Notices"

// WriteReport exports a display document: the consolidated view, one sheet
// per format and a notices sheet.
func WriteReport(w io.Writer, doc present.Document) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	pct := `0.00"%"`
	pctStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &pct})
	if err != nil {
		return err
	}
	abs := "0.000"
	absStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &abs})
	if err != nil {
		return err
	}
	styles := valueStyles{percent: pctStyle, absolute: absStyle}

	tabs := doc.Tabs()
	titles := make([]string, len(tabs))
	for i, v := range tabs {
		titles[i] = v.Title
	}
	names := sheetNames(append(titles, NoticesSheet))

	for i, v := range tabs {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", names[0]); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(names[i]); err != nil {
			return err
		}
		if err := writeView(f, names[i], header, styles, doc, v); err != nil {
			return fmt.Errorf("writing sheet %q: %w", names[i], err)
		}
	}

	notices := names[len(names)-1]
	if _, err := f.NewSheet(notices); err != nil {
		return err
	}
	if err := writeNotices(f, notices, header, doc.Notices); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

type valueStyles struct {
	percent  int
	absolute int
}

func (s valueStyles) of(u model.UnitKind) int {
	if u == model.PercentageRate {
		return s.percent
	}
	return s.absolute
}

func writeView(f *excelize.File, sheet string, header int, styles valueStyles, doc present.Document, v present.View) error {
	meta := [][]any{
		{tagPlant, doc.PlantID},
		{tagMonth, doc.Month},
		{"View", v.Title},
	}
	for i, row := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	head := []any{"KPI", "FY"}
	for _, c := range v.Columns() {
		head = append(head, c)
	}
	head = append(head, "Status")
	if err := f.SetSheetRow(sheet, "A5", &head); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 5, 5, header); err != nil {
		return err
	}

	for i, row := range v.Rows {
		r := 6 + i
		line := []any{row.Label}
		status := rowStatus(row)
		if row.Blocked || row.Suppressed {
			line = append(line, nil)
			for range v.FutureMonths {
				line = append(line, nil)
			}
		} else {
			line = append(line, model.Finite(row.Annual))
			for _, m := range v.FutureMonths {
				line = append(line, model.Finite(row.Monthly[m]))
			}
		}
		line = append(line, status)

		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return err
		}
		from, _ := excelize.CoordinatesToCellName(2, r)
		to, _ := excelize.CoordinatesToCellName(2+len(v.FutureMonths), r)
		if err := f.SetCellStyle(sheet, from, to, styles.of(row.Unit)); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheet, "A", "A", 36)
}

func rowStatus(r present.Row) string {
	switch {
	case r.Suppressed:
		return "suppressed"
	case r.Blocked:
		return "blocked"
	case r.KeptPlan && r.Infeasible:
		return "plan kept, FY cap"
	case r.KeptPlan:
		return "plan kept"
	case r.Infeasible:
		return "FY cap"
	default:
		return ""
	}
}

func writeNotices(f *excelize.File, sheet string, header int, groups []present.NoticeGroup) error {
	head := []any{"Kind", "Format", "KPIs", "Message"}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return err
	}
	for i, g := range groups {
		line := []any{string(g.Kind), g.Scope, len(g.KPIs), g.Message()}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "D", "D", 90)
}
