/*
Copyright © 2018 the transect authors.
This file is part of transect.

transect is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

transect is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with transect.  If not, see <http://www.gnu.org/licenses/>.
*/

package transectutil

import (
	"fmt"
	"image/color"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/transect"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotSize is the width and height of plots created by Plot.
const PlotSize = 6 * vg.Inch

var (
	roadColor     = color.Gray{Y: 128}
	transectColor = color.RGBA{R: 204, G: 51, B: 85, A: 255}
)

// xys converts l to plot coordinates.
func xys(l geom.LineString) plotter.XYs {
	o := make(plotter.XYs, len(l))
	for i, p := range l {
		o[i].X, o[i].Y = p.X, p.Y
	}
	return o
}

// Plot returns a function that draws the input features and the
// transects to an image file at p. The image format is chosen from the
// extension of p. Nothing is drawn unless the output dataset was
// written, which also means there are transects to draw.
func Plot(p string) transect.Step {
	return func(t *transect.Transector) error {
		if t.Output == "" || t.Result.Empty() {
			logger(t).Info("transectutil: no output dataset was written; no plot drawn")
			return nil
		}
		pl, err := plot.New()
		if err != nil {
			return fmt.Errorf("transectutil: creating plot: %v", err)
		}
		pl.Title.Text = fmt.Sprintf("%d transects", len(t.Result.Transects))
		pl.X.Label.Text = "X"
		pl.Y.Label.Text = "Y"

		for _, f := range t.Features {
			l, err := plotter.NewLine(xys(f.LineString))
			if err != nil {
				return fmt.Errorf("transectutil: plotting feature %d: %v", f.ID, err)
			}
			l.LineStyle.Color = roadColor
			pl.Add(l)
		}
		for i, tr := range t.Result.Transects {
			l, err := plotter.NewLine(xys(tr.LineString))
			if err != nil {
				return fmt.Errorf("transectutil: plotting transect %d: %v", i, err)
			}
			l.LineStyle.Color = transectColor
			l.LineStyle.Width = vg.Points(1.5)
			pl.Add(l)
		}
		if err := pl.Save(PlotSize, PlotSize, p); err != nil {
			return fmt.Errorf("transectutil: saving plot: %v", err)
		}
		logger(t).WithField("path", p).Info("transectutil: saved plot")
		return nil
	}
}
