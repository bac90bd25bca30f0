package stats

import (
	"errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"symreg/internal/model"
)

// PlotFitnessHistory renders best and mean fitness per generation to a
// PNG file. The mean line is drawn only when diagnostics are available.
func PlotFitnessHistory(outPath string, bestByGeneration []float64, diagnostics []model.GenerationDiagnostics) error {
	if len(bestByGeneration) == 0 {
		return errors.New("fitness history is empty")
	}

	p := plot.New()
	p.Title.Text = "Fitness over generations"
	p.X.Label.Text = "generation"
	p.Y.Label.Text = "fitness"

	bestPts := make(plotter.XYs, len(bestByGeneration))
	for i, best := range bestByGeneration {
		bestPts[i].X = float64(i + 1)
		bestPts[i].Y = best
	}
	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	p.Add(bestLine)
	p.Legend.Add("best", bestLine)

	if len(diagnostics) > 0 {
		meanPts := make(plotter.XYs, len(diagnostics))
		for i, d := range diagnostics {
			meanPts[i].X = float64(d.Generation)
			meanPts[i].Y = d.MeanFitness
		}
		meanLine, err := plotter.NewLine(meanPts)
		if err != nil {
			return err
		}
		meanLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(meanLine)
		p.Legend.Add("mean", meanLine)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, outPath)
}
