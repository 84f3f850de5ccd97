package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/courtcam/internal/vision/storage/sqlite"
)

// WriteSessionReport renders an HTML report for one session: camera command
// timelines, per-frame track counts, and the learned court occupancy grid.
func WriteSessionReport(w io.Writer, sessionID string, rows []sqlite.CommandRow, cells []float64, gridRows, gridCols int) error {
	if len(rows) == 0 {
		return fmt.Errorf("no command rows for session %s", sessionID)
	}

	t0 := rows[0].TS
	times := make([]string, len(rows))
	panX := make([]opts.LineData, len(rows))
	panY := make([]opts.LineData, len(rows))
	zoom := make([]opts.LineData, len(rows))
	trackCounts := make([]opts.LineData, len(rows))
	playerCounts := make([]opts.LineData, len(rows))
	refereeCounts := make([]opts.LineData, len(rows))
	for i, r := range rows {
		times[i] = fmt.Sprintf("%.2f", r.TS.Sub(t0).Seconds())
		panX[i] = opts.LineData{Value: r.Pan.X}
		panY[i] = opts.LineData{Value: r.Pan.Y}
		zoom[i] = opts.LineData{Value: r.Zoom}
		trackCounts[i] = opts.LineData{Value: r.TrackCount}
		playerCounts[i] = opts.LineData{Value: r.PlayerCount}
		refereeCounts[i] = opts.LineData{Value: r.RefereeCount}
	}

	camera := charts.NewLine()
	camera.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Camera commands",
			Subtitle: fmt.Sprintf("session=%s frames=%d", sessionID, len(rows)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	camera.SetXAxis(times).
		AddSeries("pan_x", panX).
		AddSeries("pan_y", panY).
		AddSeries("zoom", zoom)

	counts := charts.NewLine()
	counts.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Confirmed tracks"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	counts.SetXAxis(times).
		AddSeries("tracks", trackCounts).
		AddSeries("players", playerCounts).
		AddSeries("referees", refereeCounts)

	page := components.NewPage()
	page.AddCharts(camera, counts)

	if grid := occupancyChart(cells, gridRows, gridCols); grid != nil {
		page.AddCharts(grid)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render session report: %w", err)
	}
	return nil
}

// occupancyChart renders the court learner's grid as a scatter with a
// visual-map color ramp, one point per cell. Returns nil when the grid is
// absent or empty.
func occupancyChart(cells []float64, gridRows, gridCols int) *charts.Scatter {
	if gridRows <= 0 || gridCols <= 0 || len(cells) != gridRows*gridCols {
		return nil
	}

	var max float64
	for _, v := range cells {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return nil
	}

	data := make([]opts.ScatterData, 0, len(cells))
	for row := 0; row < gridRows; row++ {
		for col := 0; col < gridCols; col++ {
			v := cells[row*gridCols+col]
			if v == 0 {
				continue
			}
			x := (float64(col) + 0.5) / float64(gridCols)
			// Flip so the chart matches image coordinates (y down).
			y := 1 - (float64(row)+0.5)/float64(gridRows)
			data = append(data, opts.ScatterData{Value: []interface{}{x, y, v}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Court occupancy grid"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 1, Name: "x"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "y"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(max),
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("occupancy", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))
	return scatter
}
