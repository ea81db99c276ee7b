// Package plot renders detection results as a scatter chart.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
)

// DefaultPath is where the dashboard expects the chart.
const DefaultPath = "static/plot.png"

// Title of every chart.
const Title = "Outlier Detection"

var (
	inlierColor  = color.NRGBA{R: 0, G: 0, B: 255, A: 153}
	outlierColor = color.NRGBA{R: 255, G: 0, B: 0, A: 204}
)

// Scatter draws yCol against xCol with inliers in blue and outliers in red,
// and saves an 8x6 inch image to path. The format follows the file
// extension. Detection must have run on ds.
func Scatter(ds *dataset.Dataset, xCol, yCol, path string) (string, error) {
	schema := ds.Schema()
	if !schema.Detected {
		return "", common.NewUserError(common.MsgOutliersMissing, common.ErrNotAnalyzed)
	}
	if err := schema.RequireNumeric(xCol, yCol); err != nil {
		return "", err
	}

	xs, err := ds.Numeric(xCol)
	if err != nil {
		return "", err
	}
	ys, err := ds.Numeric(yCol)
	if err != nil {
		return "", err
	}
	labels, err := ds.Categorical(dataset.LabelColumn)
	if err != nil {
		return "", err
	}

	var inliers, outliers plotter.XYs
	for i, l := range labels {
		pt := plotter.XY{X: xs[i], Y: ys[i]}
		if dataset.Label(l) == dataset.LabelOutlier {
			outliers = append(outliers, pt)
		} else {
			inliers = append(inliers, pt)
		}
	}

	p := plot.New()
	p.Title.Text = Title
	p.X.Label.Text = xCol
	p.Y.Label.Text = yCol
	p.Legend.Top = true

	if err := addSeries(p, "Inlier", inliers, inlierColor); err != nil {
		return "", err
	}
	if err := addSeries(p, "Outlier", outliers, outlierColor); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create plot directory: %w", err)
	}
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("failed to save plot: %w", err)
	}
	return path, nil
}

// addSeries adds a scatter layer. Empty series are skipped since they carry
// no data range.
func addSeries(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build %s series: %w", name, err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	p.Legend.Add(name, s)
	return nil
}
