package sheet

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/rfcst/internal/config"
	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/present"
	"github.com/theirongolddev/rfcst/internal/reforecast"
)

var testPlant = model.Plant{
	ID: "TEST",
	KPIs: []model.KPI{
		{Name: "Spoilage (%)", Unit: model.PercentageRate},
		{Name: "Metal Can (kg/000)"},
	},
}

func sample() model.PlantInputs {
	in := model.DefaultInputs(testPlant, 2)
	in.ReforecastMonth = 8
	in.Formats[0].Name = "350ml / Std"
	for m := range in.Formats[0].Volume {
		in.Formats[0].Volume[m] = float64(1000 + 10*m)
	}
	in.Formats[0].Coefficients["Spoilage (%)"] = model.Coefficients{
		Monthly: model.Series{1.5, 1.25, 2, 1.75, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5},
		Annual:  1.6,
	}
	in.Formats[1].Overrides["Metal Can (kg/000)"] = model.Series{9: 10.125}
	return in
}

func TestYAML_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sample()))
	assert.Contains(t, buf.String(), "month: Sep")

	got, err := ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestReadYAML_AcceptsMonthLabels(t *testing.T) {
	doc := `
plant: brpa
month: set
formats:
  - name: F1
    volume: [1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12]
    coefficients:
      "Spoilage (%)":
        monthly: [1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1]
        fy: 1.2
`
	in, err := ReadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "BRPA", in.PlantID)
	assert.Equal(t, 8, in.ReforecastMonth)
	require.Len(t, in.Formats, 1)
	assert.Equal(t, 12.0, in.Formats[0].Volume[11])
	assert.Equal(t, 1.2, in.Formats[0].Coefficient("Spoilage (%)").Annual)
}

func TestReadYAML_WorkbookLabelsReachTheEngine(t *testing.T) {
	doc := `
plant: brbr
month: jun
formats:
  - name: F1
    volume: [100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100]
    coefficients:
      "Spoilage(%)":
        monthly: [3, 3, 3, 3, 3, 3, 2, 2, 2, 2, 2, 2]
        fy: 2
`
	in, err := ReadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	plant, err := config.LookupPlant(config.DefaultConfig(), in.PlantID)
	require.NoError(t, err)
	require.NoError(t, reforecast.Validate(plant, in))

	report := reforecast.Run(plant, in, reforecast.Options{})
	got := report.Formats[0].KPIs[1]
	assert.Equal(t, config.KPISpoilage, got.KPI)
	assert.InDelta(t, 18.0, got.RealizedYTD, 1e-9)
	assert.InDelta(t, 24.0, got.TotalBudget, 1e-9)
	assert.InDelta(t, 1.0, got.RequiredAnnualRate, 1e-9)
}

func TestReadYAML_RejectsUnknownFields(t *testing.T) {
	_, err := ReadYAML(strings.NewReader("plant: X\nmonths: Jan\n"))
	assert.Error(t, err)
}

func TestWorkbook_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, testPlant, sample()))

	got, err := ReadWorkbook(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestWorkbook_SanitizesSheetNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, testPlant, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"350ml _ Std", "Format_2"}, f.GetSheetList())
}

func TestWorkbook_RowsFollowCatalogue(t *testing.T) {
	in := sample()
	in.Formats[0].Coefficients["Extra (kg/000)"] = model.Coefficients{}
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, testPlant, in))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("350ml _ Std")
	require.NoError(t, err)

	var coefs, overrides []string
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		switch row[0] {
		case tagCoefficient:
			coefs = append(coefs, row[1])
		case tagOverride:
			overrides = append(overrides, row[1])
		}
	}
	assert.Equal(t, []string{"Spoilage (%)", "Metal Can (kg/000)", "Extra (kg/000)"}, coefs)
	assert.Equal(t, []string{"Spoilage (%)", "Metal Can (kg/000)"}, overrides)
}

func TestReadWorkbook_ReportsBadCell(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Format", "F1"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Volume", "", 1, "lots"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	_, err = ReadWorkbook(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "D2")
}

func TestReadWorkbook_NoFormats(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	_, err = ReadWorkbook(&buf)
	assert.ErrorIs(t, err, ErrNoFormats)
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, testPlant, 2, 3))

	in, err := ReadWorkbook(&buf)
	require.NoError(t, err)
	assert.Equal(t, "TEST", in.PlantID)
	assert.Equal(t, 2, in.ReforecastMonth)
	require.Len(t, in.Formats, 3)
	assert.Len(t, in.Formats[2].Coefficients, 2)
}

func TestFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plant.yaml", "plant.xlsx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, testPlant, sample()))
		got, err := ReadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, sample(), got, name)
	}

	_, err := KindOf("plant.csv")
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	var monthly model.Series
	monthly[11] = 1.5
	doc := present.Document{
		PlantID: "TEST",
		Month:   "Nov",
		Future:  []string{"Dec"},
		General: present.View{
			Title:        present.GeneralTab,
			FutureMonths: []int{11},
			Rows: []present.Row{
				{KPI: "Spoilage (%)", Label: "Spoilage (%)", Unit: model.PercentageRate, Suppressed: true},
				{KPI: "Metal Can (kg/000)", Label: "Metal Can (kg/000)", Annual: 1.5, Monthly: monthly},
			},
		},
		Formats: []present.View{{Title: "F1", FutureMonths: []int{11}}},
		Notices: []present.NoticeGroup{{Kind: model.NoticeSuppressed, KPIs: []string{"Spoilage (%)"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, doc))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"General", "F1", "Notices"}, f.GetSheetList())

	status, err := f.GetCellValue("General", "D6")
	require.NoError(t, err)
	assert.Equal(t, "suppressed", status)

	v, err := f.GetCellValue("General", "C7", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1.5", v)

	kind, err := f.GetCellValue(NoticesSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "suppressed", kind)
}
