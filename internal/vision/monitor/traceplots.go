// Package monitor produces after-run debug artifacts for a recorded
// session: PNG trace plots of the camera commands and an HTML report. None
// of this runs on the frame path.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/courtcam/internal/vision/storage/sqlite"
)

// PlotCameraTraces writes pan.png and zoom.png time-series plots for the
// given command rows into outputDir.
func PlotCameraTraces(rows []sqlite.CommandRow, outputDir string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no command rows to plot")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	t0 := rows[0].TS
	panX := make(plotter.XYs, 0, len(rows))
	panY := make(plotter.XYs, 0, len(rows))
	zoom := make(plotter.XYs, 0, len(rows))
	for _, r := range rows {
		t := r.TS.Sub(t0).Seconds()
		panX = append(panX, plotter.XY{X: t, Y: r.Pan.X})
		panY = append(panY, plotter.XY{X: t, Y: r.Pan.Y})
		zoom = append(zoom, plotter.XY{X: t, Y: r.Zoom})
	}

	pPan := plot.New()
	pPan.Title.Text = "Pan target"
	pPan.X.Label.Text = "Time (s)"
	pPan.Y.Label.Text = "Normalized position"
	pPan.Y.Min, pPan.Y.Max = 0, 1

	xLine, err := plotter.NewLine(panX)
	if err != nil {
		return fmt.Errorf("pan x line: %w", err)
	}
	xLine.Color = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	xLine.Width = vg.Points(1)
	pPan.Add(xLine)
	pPan.Legend.Add("pan_x", xLine)

	yLine, err := plotter.NewLine(panY)
	if err != nil {
		return fmt.Errorf("pan y line: %w", err)
	}
	yLine.Color = color.RGBA{R: 60, G: 60, B: 220, A: 255}
	yLine.Width = vg.Points(1)
	pPan.Add(yLine)
	pPan.Legend.Add("pan_y", yLine)

	panFile := filepath.Join(outputDir, "pan.png")
	if err := pPan.Save(14*vg.Inch, 6*vg.Inch, panFile); err != nil {
		return fmt.Errorf("save pan plot: %w", err)
	}

	pZoom := plot.New()
	pZoom.Title.Text = "Zoom target"
	pZoom.X.Label.Text = "Time (s)"
	pZoom.Y.Label.Text = "Zoom factor"

	zLine, err := plotter.NewLine(zoom)
	if err != nil {
		return fmt.Errorf("zoom line: %w", err)
	}
	zLine.Color = color.RGBA{R: 30, G: 140, B: 80, A: 255}
	zLine.Width = vg.Points(1)
	pZoom.Add(zLine)
	pZoom.Legend.Add("zoom", zLine)

	zoomFile := filepath.Join(outputDir, "zoom.png")
	if err := pZoom.Save(14*vg.Inch, 6*vg.Inch, zoomFile); err != nil {
		return fmt.Errorf("save zoom plot: %w", err)
	}

	return nil
}
