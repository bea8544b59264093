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

package transect

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Frame is the spatial reference attached to a set of features.
// It is carried from the input dataset to the output dataset
// without being interpreted.
type Frame struct {
	// Def is the projection definition as it was read from the
	// input, typically the contents of a shapefile's .prj file.
	Def string

	// SR is the parsed form of Def. It is nil if Def is empty
	// or is not a WKT or PROJ4 definition.
	SR *proj.SR
}

// NewFrame returns a Frame holding the projection definition def.
// Parsing is best-effort: an unparseable definition is kept verbatim
// with a nil SR.
func NewFrame(def string) *Frame {
	trimmed := strings.TrimSpace(def)
	if trimmed == "" {
		return &Frame{}
	}
	f := &Frame{Def: def}
	if sr, err := proj.Parse(trimmed); err == nil {
		f.SR = sr
	}
	return f
}

// Known returns whether f carries a projection definition.
func (f *Frame) Known() bool { return f != nil && f.Def != "" }

// String returns a short description of the frame for logging.
func (f *Frame) String() string {
	switch {
	case !f.Known():
		return "unknown"
	case f.SR == nil:
		return "unparsed"
	case f.SR.Units != "":
		return fmt.Sprintf("%s (%s)", f.SR.Name, f.SR.Units)
	default:
		return f.SR.Name
	}
}

// Feature is a single linear input feature.
type Feature struct {
	geom.LineString

	// ID is the zero-based position of the feature in the
	// input dataset.
	ID int
}

// validate checks that f is a well-formed polyline.
func (f Feature) validate() error {
	if len(f.LineString) < 2 {
		return fmt.Errorf("transect: feature %d has %d vertices but a line needs at least 2",
			f.ID, len(f.LineString))
	}
	for i, p := range f.LineString {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("transect: feature %d vertex %d has invalid coordinates (%g, %g)",
				f.ID, i, p.X, p.Y)
		}
	}
	return nil
}

// PointAlong returns the point at arc length d along l, measured
// from its first vertex. d is clamped to [0, l.Length()].
func PointAlong(l geom.LineString, d float64) geom.Point {
	if len(l) == 0 {
		return geom.Point{X: math.NaN(), Y: math.NaN()}
	}
	if d <= 0 {
		return l[0]
	}
	travelled := 0.
	for i := 0; i < len(l)-1; i++ {
		p1, p2 := l[i], l[i+1]
		length := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
		if length > 0 && travelled+length >= d {
			f := (d - travelled) / length
			return geom.Point{
				X: p1.X + f*(p2.X-p1.X),
				Y: p1.Y + f*(p2.Y-p1.Y),
			}
		}
		travelled += length
	}
	return l[len(l)-1]
}

// midpoint returns the point halfway between a and b.
func midpoint(a, b geom.Point) geom.Point {
	return geom.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
