// Package report renders a stored session as an HTML chart page
// (go-echarts) and an optional PNG trend image (gonum/plot).
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gait.report/internal/sessiondb"
)

// WriteHTML renders the session's gait and posture time series as an
// HTML page of line charts.
func WriteHTML(w io.Writer, db *sessiondb.DB, sessionID string) error {
	gaitSeries, err := db.GaitFrames(sessionID)
	if err != nil {
		return fmt.Errorf("failed to load gait series: %w", err)
	}
	postureSeries, err := db.PostureFrames(sessionID)
	if err != nil {
		return fmt.Errorf("failed to load posture series: %w", err)
	}
	summary, err := db.SessionSummary(sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session summary: %w", err)
	}

	subtitle := fmt.Sprintf(
		"session=%s frames=%d strikes=%d avg cadence=%.1f spm avg speed=%.2f m/s",
		sessionID, summary.FrameCount, summary.StrikeCount,
		summary.AvgCadenceSpm, summary.AvgSpeedMps,
	)

	page := components.NewPage()
	page.AddCharts(
		lineChart("Cadence", subtitle, "steps/min", gaitSeries.TS, gaitSeries.Cadence),
		lineChart("Walking Speed", "", "m/s", gaitSeries.TS, gaitSeries.Speed),
		lineChart("Average Stride Length", "", "m", gaitSeries.TS, gaitSeries.Stride),
		lineChart("Composite Posture Score", "", "score", postureSeries.TS, postureSeries.Composite),
		lineChart("Craniovertebral Angle", "", "deg", postureSeries.TS, postureSeries.CVA),
		lineChart("Sagittal Trunk Lean", "", "deg", postureSeries.TS, postureSeries.Sagittal),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// lineChart builds one time-series line chart.
func lineChart(title, subtitle, unit string, ts, values []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "350px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)

	x := make([]string, len(ts))
	data := make([]opts.LineData, len(values))
	for i := range ts {
		x[i] = fmt.Sprintf("%.2f", ts[i])
		data[i] = opts.LineData{Value: values[i]}
	}
	line.SetXAxis(x).AddSeries(title, data)
	return line
}

// SavePNG writes cadence and speed trends for a session as one PNG.
func SavePNG(db *sessiondb.DB, sessionID, path string) error {
	series, err := db.GaitFrames(sessionID)
	if err != nil {
		return fmt.Errorf("failed to load gait series: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s - Gait Trends", sessionID)
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "cadence (spm) / speed (m/s)"

	cadencePts := make(plotter.XYs, len(series.TS))
	speedPts := make(plotter.XYs, len(series.TS))
	for i := range series.TS {
		cadencePts[i].X = series.TS[i]
		cadencePts[i].Y = series.Cadence[i]
		speedPts[i].X = series.TS[i]
		speedPts[i].Y = series.Speed[i]
	}

	cadenceLine, err := plotter.NewLine(cadencePts)
	if err != nil {
		return fmt.Errorf("failed to build cadence line: %w", err)
	}
	cadenceLine.Width = vg.Points(1)

	speedLine, err := plotter.NewLine(speedPts)
	if err != nil {
		return fmt.Errorf("failed to build speed line: %w", err)
	}
	speedLine.Width = vg.Points(1)

	p.Add(cadenceLine, speedLine)
	p.Legend.Add("cadence", cadenceLine)
	p.Legend.Add("speed", speedLine)

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save PNG: %w", err)
	}
	return nil
}
