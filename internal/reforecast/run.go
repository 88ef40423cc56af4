package reforecast

import (
	"runtime"
	"sync"

	"github.com/theirongolddev/rfcst/internal/logging"
	"github.com/theirongolddev/rfcst/internal/model"
)

// Options tunes a plant run.
type Options struct {
	// Logger receives one entry per notice. Nil discards.
	Logger *logging.Logger
	// Workers bounds the per-format worker pool; 0 means GOMAXPROCS.
	Workers int
}

type formatOutput struct {
	result  model.FormatResult
	notices []model.Notice
}

// Run computes every (format, KPI) pair of a plant, applies the plan
// overrides and consolidates. It holds no state between calls: identical
// inputs give identical reports. Table labels are matched to catalogue KPIs
// with Plant.Lookup first.
func Run(plant model.Plant, in model.PlantInputs, opts Options) model.Report {
	in = in.Canonical(plant)
	split := SplitAt(in.ReforecastMonth)

	report := model.Report{
		PlantID:         plant.ID,
		ReforecastMonth: split.Month,
		YTDMonths:       split.YTD,
		FutureMonths:    split.Future,
		Formats:         make([]model.FormatResult, len(in.Formats)),
	}

	outputs := runFormats(plant, in.Formats, split, opts.Workers)
	for i, o := range outputs {
		report.Formats[i] = o.result
		report.Notices = append(report.Notices, o.notices...)
	}

	general, suppressed := Consolidate(plant, in.Formats, report.Formats, split)
	report.General = general
	report.Notices = append(report.Notices, suppressed...)

	if opts.Logger != nil {
		log := opts.Logger.WithPlant(plant.ID)
		for _, n := range report.Notices {
			log.LogNotice(n)
		}
	}
	return report
}

// RunFormat computes one format, returning its displayed results and notices.
func RunFormat(plant model.Plant, f model.FormatInputs, split Split) (model.FormatResult, []model.Notice) {
	res := model.FormatResult{
		Format: f.Name,
		KPIs:   make([]model.Displayed, len(plant.KPIs)),
	}

	var notices []model.Notice
	for i, kpi := range plant.KPIs {
		coef := f.Coefficient(kpi.Name)
		a := Allocate(kpi, f.Volume, coef, split)
		d := ApplyOverrides(a, coef.Annual, f.Override(kpi.Name), split)
		res.KPIs[i] = d

		switch {
		case d.Blocked:
			notices = append(notices, model.Notice{Kind: model.NoticeBlocked, Format: f.Name, KPI: kpi.Name})
		default:
			if d.KeptPlan {
				notices = append(notices, model.Notice{Kind: model.NoticeKeptPlan, Format: f.Name, KPI: kpi.Name})
			}
			if d.Infeasible {
				notices = append(notices, model.Notice{Kind: model.NoticeInfeasible, Format: f.Name, KPI: kpi.Name})
			}
		}
	}
	return res, notices
}

// runFormats evaluates formats through a bounded worker pool. Results are
// written by index so their order never depends on scheduling.
func runFormats(plant model.Plant, formats []model.FormatInputs, split Split, workers int) []formatOutput {
	outputs := make([]formatOutput, len(formats))
	if len(formats) == 0 {
		return outputs
	}

	numWorkers := workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(formats) {
		numWorkers = len(formats)
	}

	work := make(chan int, len(formats))
	for i := range formats {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				res, notices := RunFormat(plant, formats[idx], split)
				outputs[idx] = formatOutput{result: res, notices: notices}
			}
		}()
	}
	wg.Wait()

	return outputs
}
