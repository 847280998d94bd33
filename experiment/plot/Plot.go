// Package plot draws learning curves of training runs
package plot

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/samuelfneumann/trafficrl/experiment"
)

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// Series is a single named curve, with one value per episode
type Series struct {
	Name   string
	Values []float64
}

// LearningCurve plots each series against the episode number and saves
// the plot to filename. The file format is determined by the extension
// of filename. If window > 1, a moving average over window episodes is
// drawn alongside each series.
func LearningCurve(filename, title, yLabel string, window int,
	series ...Series) error {
	if len(series) == 0 {
		return fmt.Errorf("learningCurve: no series to plot")
	}

	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	colour := 0
	for _, s := range series {
		if len(s.Values) == 0 {
			return fmt.Errorf("learningCurve: series %q is empty", s.Name)
		}

		line, err := plotter.NewLine(points(s.Values, 0))
		if err != nil {
			return fmt.Errorf("learningCurve: %w", err)
		}
		line.Color = plotutil.Color(colour)
		colour++
		p.Add(line)
		p.Legend.Add(s.Name, line)

		if window <= 1 || len(s.Values) < window {
			continue
		}
		smoothed, err := plotter.NewLine(points(MovingAverage(s.Values,
			window), window-1))
		if err != nil {
			return fmt.Errorf("learningCurve: %w", err)
		}
		smoothed.Color = plotutil.Color(colour)
		smoothed.Width = vg.Points(2)
		colour++
		p.Add(smoothed)
		p.Legend.Add(fmt.Sprintf("%v (%v-episode average)", s.Name, window),
			smoothed)
	}

	if err := p.Save(width, height, filename); err != nil {
		return fmt.Errorf("learningCurve: could not save plot: %w", err)
	}
	return nil
}

// TrainingCurves saves the reward and total queue length curves of a
// training run as rewards.png and queue.png in dir
func TrainingCurves(dir string, stats []experiment.EpisodeStats,
	window int) error {
	rewards := make([]float64, len(stats))
	queues := make([]float64, len(stats))
	for i, s := range stats {
		rewards[i] = s.Reward
		queues[i] = s.TotalQueue
	}

	err := LearningCurve(filepath.Join(dir, "rewards.png"), "Training Reward",
		"Reward", window, Series{Name: "Reward", Values: rewards})
	if err != nil {
		return fmt.Errorf("trainingCurves: %w", err)
	}

	err = LearningCurve(filepath.Join(dir, "queue.png"), "Total Queue Length",
		"Vehicles", window, Series{Name: "Total queue", Values: queues})
	if err != nil {
		return fmt.Errorf("trainingCurves: %w", err)
	}
	return nil
}

// MovingAverage returns the trailing averages of values over window
// elements. The i-th average covers values[i : i+window], so the
// returned slice has len(values)-window+1 elements.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 || len(values) < window {
		return nil
	}

	averages := make([]float64, len(values)-window+1)
	for i := range averages {
		averages[i] = floats.Sum(values[i:i+window]) / float64(window)
	}
	return averages
}

// points returns the points of values against episode numbers starting
// from offset+1
func points(values []float64, offset int) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i + offset + 1)
		pts[i].Y = v
	}
	return pts
}
