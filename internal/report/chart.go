// Package report renders diagnostic charts of classifier pixel counts.
package report

import (
	"fmt"
	"image/color"

	"traffic-signal/internal/signal"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var barKeys = []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen}

// CountsPlot builds a bar chart of per-color mask counts with the
// acceptance threshold drawn as a horizontal line.
func CountsPlot(title string, counts signal.Counts, minPixels int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Pixels after opening"

	values := []int{counts.Red, counts.Yellow, counts.Green}
	for i, key := range barKeys {
		bar, err := plotter.NewBarChart(plotter.Values{float64(values[i])}, vg.Points(40))
		if err != nil {
			return nil, fmt.Errorf("failed to build %s bar: %w", key, err)
		}
		bar.XMin = float64(i)
		bar.Color = key.DisplayColor()
		bar.LineStyle.Color = color.Black
		bar.LineStyle.Width = vg.Points(0.5)
		p.Add(bar)
	}

	threshold, err := plotter.NewLine(plotter.XYs{
		{X: -0.5, Y: float64(minPixels)},
		{X: float64(len(barKeys)) - 0.5, Y: float64(minPixels)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build threshold line: %w", err)
	}
	threshold.Width = vg.Points(1)
	threshold.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(threshold)
	p.Legend.Add(fmt.Sprintf("min pixels (%d)", minPixels), threshold)
	p.Legend.Top = true

	p.NominalX("red", "yellow", "green")
	p.Y.Min = 0
	return p, nil
}

// SaveCountsChart renders CountsPlot to path. The format follows the file
// extension (png, svg, pdf, ...).
func SaveCountsChart(path, title string, counts signal.Counts, minPixels int) error {
	p, err := CountsPlot(title, counts, minPixels)
	if err != nil {
		return err
	}
	if err := p.Save(4*vg.Inch, 3*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}
