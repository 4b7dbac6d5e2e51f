// Package render draws evaluation artifacts as PNG files. It is a
// pure consumer: every curve and grid is computed elsewhere and
// passed in fully materialized.
package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/bgplens/bgplens/evaluate"
	"github.com/bgplens/bgplens/metrics"
	"github.com/bgplens/bgplens/pkg/errors"
)

const plotSize = 6 * vg.Inch

var (
	normalColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	anomalyColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// ROCCurve writes the ROC curve with its AUC in the title.
func ROCCurve(curve *metrics.Curve, auc float64, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC curve (AUC = %.3f)", auc)
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	line, err := plotter.NewLine(curveXYs(curve))
	if err != nil {
		return errors.NewPersistenceError("render.ROCCurve", path, err)
	}
	line.Color = anomalyColor
	p.Add(line)

	// Chance diagonal for reference.
	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.NewPersistenceError("render.ROCCurve", path, err)
	}
	diag.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)

	return save(p, "render.ROCCurve", path)
}

// PRCurve writes the precision-recall curve with its average
// precision in the title.
func PRCurve(curve *metrics.Curve, averagePrecision float64, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Precision-recall curve (AP = %.3f)", averagePrecision)
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	line, err := plotter.NewLine(curveXYs(curve))
	if err != nil {
		return errors.NewPersistenceError("render.PRCurve", path, err)
	}
	line.Color = normalColor
	p.Add(line)

	return save(p, "render.PRCurve", path)
}

// DecisionBoundary writes the 2-D projected samples over the class
// prediction mesh.
func DecisionBoundary(b *evaluate.Boundary, path string) error {
	p := plot.New()
	p.Title.Text = "Decision boundary (2-D principal components)"
	p.X.Label.Text = axisLabel("PC1", b.ExplainedVarianceRatio, 0)
	p.Y.Label.Text = axisLabel("PC2", b.ExplainedVarianceRatio, 1)

	heat := plotter.NewHeatMap(boundaryGrid{b}, boundaryPalette{})
	p.Add(heat)

	normal, anomaly := splitByLabel(b)
	normalScatter, err := plotter.NewScatter(normal)
	if err != nil {
		return errors.NewPersistenceError("render.DecisionBoundary", path, err)
	}
	normalScatter.GlyphStyle.Color = normalColor
	anomalyScatter, err := plotter.NewScatter(anomaly)
	if err != nil {
		return errors.NewPersistenceError("render.DecisionBoundary", path, err)
	}
	anomalyScatter.GlyphStyle.Color = anomalyColor

	p.Add(normalScatter, anomalyScatter)
	p.Legend.Add("normal", normalScatter)
	p.Legend.Add("anomaly", anomalyScatter)

	return save(p, "render.DecisionBoundary", path)
}

func save(p *plot.Plot, op, path string) error {
	if err := p.Save(plotSize, plotSize, path); err != nil {
		return errors.NewPersistenceError(op, path, err)
	}
	return nil
}

func curveXYs(curve *metrics.Curve) plotter.XYs {
	xys := make(plotter.XYs, len(curve.X))
	for i := range curve.X {
		xys[i].X = curve.X[i]
		xys[i].Y = curve.Y[i]
	}
	return xys
}

func axisLabel(name string, ratios []float64, i int) string {
	if i < len(ratios) {
		return fmt.Sprintf("%s (%.1f%% variance)", name, ratios[i]*100)
	}
	return name
}

func splitByLabel(b *evaluate.Boundary) (normal, anomaly plotter.XYs) {
	rows, _ := b.Points.Dims()
	for i := 0; i < rows; i++ {
		pt := plotter.XY{X: b.Points.At(i, 0), Y: b.Points.At(i, 1)}
		if b.Labels.AtVec(i) == 1 {
			anomaly = append(anomaly, pt)
		} else {
			normal = append(normal, pt)
		}
	}
	return normal, anomaly
}

// boundaryGrid adapts the prediction mesh to plotter.GridXYZ.
type boundaryGrid struct {
	b *evaluate.Boundary
}

func (g boundaryGrid) Dims() (c, r int)   { return len(g.b.GridX), len(g.b.GridY) }
func (g boundaryGrid) X(c int) float64    { return g.b.GridX[c] }
func (g boundaryGrid) Y(r int) float64    { return g.b.GridY[r] }
func (g boundaryGrid) Z(c, r int) float64 { return g.b.GridZ[r][c] }

// boundaryPalette shades the two predicted regions.
type boundaryPalette struct{}

func (boundaryPalette) Colors() []color.Color {
	return []color.Color{
		color.RGBA{R: 0xc6, G: 0xdb, B: 0xef, A: 0xff},
		color.RGBA{R: 0xfc, G: 0xbb, B: 0xa1, A: 0xff},
	}
}
