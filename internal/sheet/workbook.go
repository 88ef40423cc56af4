package sheet

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/theirongolddev/rfcst/internal/model"

	"github.com/xuri/excelize/v2"
)

// Row tags in column A of an input sheet.
const (
	tagPlant       = "Plant"
	tagMonth       = "Month"
	tagFormat      = "Format"
	tagHeader      = "Table"
	tagVolume      = "Volume"
	tagCoefficient = "Coefficient"
	tagOverride    = "Override"
)

// First data column (C) and FY column (O), 0-based.
const (
	firstMonthCol = 2
	fyCol         = firstMonthCol + model.MonthsPerYear
)

// ErrNoFormats is returned when a workbook holds no input sheet.
var ErrNoFormats = errors.New("workbook has no format sheets")

// WriteWorkbook writes one sheet per format: metadata rows, a header, the
// volume row, one coefficient row per KPI and one override row per KPI.
// KPI rows follow the plant's catalogue order; labels it doesn't know come
// last, sorted.
func WriteWorkbook(w io.Writer, plant model.Plant, in model.PlantInputs) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	names := sheetNames(formatNames(in.Formats))
	for i, fi := range in.Formats {
		sheet := names[i]
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := writeFormatSheet(f, sheet, header, plant, in, fi); err != nil {
			return fmt.Errorf("writing sheet %q: %w", sheet, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteTemplate writes a blank workbook for a plant.
func WriteTemplate(w io.Writer, plant model.Plant, month, formats int) error {
	in := model.DefaultInputs(plant, formats)
	in.ReforecastMonth = month
	return WriteWorkbook(w, plant, in)
}

func writeFormatSheet(f *excelize.File, sheet string, header int, plant model.Plant, in model.PlantInputs, fi model.FormatInputs) error {
	rows := [][]any{
		{tagPlant, in.PlantID},
		{tagMonth, in.MonthLabel()},
		{tagFormat, fi.Name},
		{},
		headerRow(),
		seriesRow(tagVolume, "", fi.Volume, nil),
	}
	for _, kpi := range kpiOrder(fi.Coefficients, plant) {
		c := fi.Coefficients[kpi]
		fy := c.Annual
		rows = append(rows, seriesRow(tagCoefficient, kpi, c.Monthly, &fy))
	}
	for _, kpi := range kpiOrder(fi.Overrides, plant) {
		rows = append(rows, seriesRow(tagOverride, kpi, fi.Overrides[kpi], nil))
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(sheet, 5, 5, header); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 36); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "O", 10)
}

func headerRow() []any {
	row := []any{tagHeader, "KPI"}
	for _, m := range model.Months {
		row = append(row, m)
	}
	return append(row, "FY")
}

func seriesRow(tag, kpi string, s model.Series, fy *float64) []any {
	row := []any{tag, kpi}
	for _, v := range s {
		row = append(row, model.Finite(v))
	}
	if fy != nil {
		row = append(row, model.Finite(*fy))
	}
	return row
}

// ReadWorkbook parses a workbook written by WriteWorkbook or filled in from
// a template. Sheets without a Format row are ignored.
func ReadWorkbook(r io.Reader) (model.PlantInputs, error) {
	in := model.PlantInputs{ReforecastMonth: model.DefaultReforecastMonth}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return in, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return in, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		fi, meta, ok, err := parseFormatSheet(rows)
		if err != nil {
			return in, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		if !ok {
			continue
		}
		if in.PlantID == "" && meta.plant != "" {
			in.PlantID = strings.ToUpper(meta.plant)
		}
		if len(in.Formats) == 0 && meta.month != "" {
			m, err := model.MonthIndex(meta.month)
			if err != nil {
				return in, fmt.Errorf("sheet %q: %w", sheet, err)
			}
			in.ReforecastMonth = m
		}
		in.Formats = append(in.Formats, fi)
	}

	if len(in.Formats) == 0 {
		return in, ErrNoFormats
	}
	return in, nil
}

type sheetMeta struct {
	plant string
	month string
}

func parseFormatSheet(rows [][]string) (model.FormatInputs, sheetMeta, bool, error) {
	fi := model.FormatInputs{
		Coefficients: make(map[string]model.Coefficients),
		Overrides:    make(map[string]model.Series),
	}
	var meta sheetMeta
	found := false

	for r, row := range rows {
		if len(row) == 0 {
			continue
		}
		switch strings.TrimSpace(row[0]) {
		case tagPlant:
			meta.plant = strings.TrimSpace(cellAt(row, 1))
		case tagMonth:
			meta.month = strings.TrimSpace(cellAt(row, 1))
		case tagFormat:
			fi.Name = strings.TrimSpace(cellAt(row, 1))
			found = true
		case tagVolume:
			s, _, err := parseSeries(row, r, false)
			if err != nil {
				return fi, meta, false, err
			}
			fi.Volume = s
		case tagCoefficient:
			kpi := strings.TrimSpace(cellAt(row, 1))
			if kpi == "" {
				return fi, meta, false, fmt.Errorf("row %d: coefficient row without KPI name", r+1)
			}
			s, fy, err := parseSeries(row, r, true)
			if err != nil {
				return fi, meta, false, err
			}
			fi.Coefficients[kpi] = model.Coefficients{Monthly: s, Annual: fy}
		case tagOverride:
			kpi := strings.TrimSpace(cellAt(row, 1))
			if kpi == "" {
				return fi, meta, false, fmt.Errorf("row %d: override row without KPI name", r+1)
			}
			s, _, err := parseSeries(row, r, false)
			if err != nil {
				return fi, meta, false, err
			}
			fi.Overrides[kpi] = s
		}
	}
	if found && fi.Name == "" {
		return fi, meta, false, errors.New("format row without a name")
	}
	return fi, meta, found, nil
}

func parseSeries(row []string, r int, withFY bool) (model.Series, float64, error) {
	var s model.Series
	for m := range s {
		v, err := parseCell(row, firstMonthCol+m, r)
		if err != nil {
			return s, 0, err
		}
		s[m] = v
	}
	if !withFY {
		return s, 0, nil
	}
	fy, err := parseCell(row, fyCol, r)
	return s, fy, err
}

func parseCell(row []string, col, r int) (float64, error) {
	raw := strings.TrimSpace(cellAt(row, col))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		cell, _ := excelize.CoordinatesToCellName(col+1, r+1)
		return 0, fmt.Errorf("cell %s: %q is not a number", cell, raw)
	}
	return v, nil
}

func cellAt(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func formatNames(formats []model.FormatInputs) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return names
}

// sheetNames makes names valid, unique sheet titles.
func sheetNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		base := sanitizeSheetName(n)
		if base == "" {
			base = fmt.Sprintf("Format_%d", i+1)
		}
		name := base
		for k := 2; seen[strings.ToLower(name)]; k++ {
			suffix := fmt.Sprintf(" (%d)", k)
			name = truncate(base, 31-len(suffix)) + suffix
		}
		seen[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func sanitizeSheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, "'")
	return truncate(s, 31)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func kpiOrder[V any](m map[string]V, plant model.Plant) []string {
	keys := make([]string, 0, len(m))
	listed := make(map[string]bool, len(plant.KPIs))
	for _, k := range plant.KPIs {
		if _, ok := m[k.Name]; ok && !listed[k.Name] {
			keys = append(keys, k.Name)
			listed[k.Name] = true
		}
	}
	var rest []string
	for k := range m {
		if !listed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
