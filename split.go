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
	"math"

	"github.com/ctessum/geom"
)

// Segment is a single straight piece of an input feature,
// running between two consecutive vertices.
type Segment struct {
	geom.LineString // exactly two points

	Feature int // ID of the source feature
	Vertex  int // index of the first vertex within the source feature
	Index   int // position in the segment pool

	Frame *Frame
}

// From returns the first vertex of s.
func (s *Segment) From() geom.Point { return s.LineString[0] }

// To returns the last vertex of s.
func (s *Segment) To() geom.Point { return s.LineString[1] }

// Touches returns whether p lies on s or touches one of its ends,
// where "on" means within tolerance of the line through s and with
// a projection that falls between the two end points.
// Zero-length segments have no direction and never touch anything.
func (s *Segment) Touches(p geom.Point, tolerance float64) bool {
	return s.touches(p, tolerance, true)
}

// touches implements Touches. If closedEnd is false, points at the
// last vertex of s are excluded.
func (s *Segment) touches(p geom.Point, tolerance float64, closedEnd bool) bool {
	fr, to := s.From(), s.To()
	vx, vy := to.X-fr.X, to.Y-fr.Y
	l2 := vx*vx + vy*vy
	if l2 == 0 {
		return false
	}
	l := math.Sqrt(l2)
	wx, wy := p.X-fr.X, p.Y-fr.Y

	// Perpendicular distance from p to the supporting line.
	if math.Abs(wx*vy-wy*vx)/l > tolerance {
		return false
	}

	t := (wx*vx + wy*vy) / l2
	tt := tolerance / l
	if t < -tt {
		return false
	}
	if closedEnd {
		return t <= 1+tt
	}
	return t < 1-tt
}

// Split breaks f into one Segment per pair of consecutive vertices,
// in vertex order. Each segment carries frame. Features with fewer
// than two vertices produce no segments.
func Split(f Feature, frame *Frame) []*Segment {
	return split(f, frame, 0)
}

// split is Split with pool indices starting at offset.
func split(f Feature, frame *Frame, offset int) []*Segment {
	if len(f.LineString) < 2 {
		return nil
	}
	o := make([]*Segment, len(f.LineString)-1)
	for i := range o {
		o[i] = &Segment{
			LineString: geom.LineString{f.LineString[i], f.LineString[i+1]},
			Feature:    f.ID,
			Vertex:     i,
			Index:      offset + i,
			Frame:      frame,
		}
	}
	return o
}

// NewSegmentPool splits every feature and concatenates the results
// in input order. The order of the returned pool is the order in
// which segments are searched.
func NewSegmentPool(features []Feature, frame *Frame) []*Segment {
	var pool []*Segment
	for _, f := range features {
		pool = append(pool, split(f, frame, len(pool))...)
	}
	return pool
}
