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

	"github.com/ctessum/geom"
)

// SlopeMethod specifies how the direction of a segment is calculated.
type SlopeMethod int

const (
	// Atan2 calculates the segment angle with a two-argument
	// arctangent. It handles vertical segments exactly.
	Atan2 SlopeMethod = iota

	// LegacySlope divides rise by run after adding legacyRunEpsilon
	// to run, and takes the arctangent of the result. Vertical
	// segments are tilted by a negligible amount. It is kept for
	// numerical parity with transects created by earlier tools.
	LegacySlope
)

// legacyRunEpsilon is added to the run of a segment by LegacySlope.
const legacyRunEpsilon = 1e-19

func (m SlopeMethod) String() string {
	switch m {
	case Atan2:
		return "atan2"
	case LegacySlope:
		return "legacy"
	default:
		return fmt.Sprintf("SlopeMethod(%d)", int(m))
	}
}

// angle returns the angle in radians of the line from fr to to.
func (m SlopeMethod) angle(fr, to geom.Point) float64 {
	rise := to.Y - fr.Y
	run := to.X - fr.X
	if m == LegacySlope {
		return math.Atan(rise / (run + legacyRunEpsilon))
	}
	return math.Atan2(rise, run)
}

// Transect is a line drawn across a feature at its cross point.
type Transect struct {
	geom.LineString // origin and destination

	Feature int        // ID of the source feature
	Segment int        // pool index of the segment the transect crosses
	Cross   geom.Point // center of the transect

	Frame *Frame
}

// Construct returns a line of the given width that is centered on
// cross and perpendicular to seg.
func Construct(cross geom.Point, seg *Segment, width float64, m SlopeMethod) geom.LineString {
	a := m.angle(seg.From(), seg.To())

	// Vector of half the width along the segment.
	h := width / 2
	dx := h * math.Cos(a)
	dy := h * math.Sin(a)

	// Rotate by -90° and +90° about the cross point.
	return geom.LineString{
		{X: cross.X + dy, Y: cross.Y - dx},
		{X: cross.X - dy, Y: cross.Y + dx},
	}
}

// Center returns the midpoint of t.
func (t *Transect) Center() geom.Point {
	return midpoint(t.LineString[0], t.LineString[1])
}
