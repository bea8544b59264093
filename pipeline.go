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

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// DefaultWidth is the default transect width, in the units of the
// input coordinate system.
const DefaultWidth = 50.

// DefaultTolerance is the default distance within which a cross
// point is considered to lie on a segment.
const DefaultTolerance = 1e-8

// Options holds the settings for a transect calculation.
type Options struct {
	// Width is the total length of each transect. It must be > 0.
	Width float64

	// Tolerance is the distance within which a cross point is
	// considered to lie on a segment.
	Tolerance float64

	// ScopeToFeature restricts the segment search for each cross
	// point to the segments of its own feature. By default all
	// segments of all features are searched, so a cross point may
	// be matched to an overlapping segment of a different feature.
	ScopeToFeature bool

	// ForwardJunctions specifies that a cross point at a vertex
	// shared by two segments is matched to the segment that starts
	// at the vertex rather than the one that ends there.
	ForwardJunctions bool

	// Slope specifies how segment directions are calculated.
	Slope SlopeMethod

	// Indexed specifies whether to search segments using a spatial
	// index. Results are the same either way.
	Indexed bool
}

// DefaultOptions returns the default calculation settings.
func DefaultOptions() Options {
	return Options{
		Width:     DefaultWidth,
		Tolerance: DefaultTolerance,
		Indexed:   true,
	}
}

// Validate checks that o can be used for a calculation.
func (o Options) Validate() error {
	if !(o.Width > 0) || math.IsInf(o.Width, 0) {
		return fmt.Errorf("transect: width must be a positive number but is %g", o.Width)
	}
	if !(o.Tolerance >= 0) || math.IsInf(o.Tolerance, 0) {
		return fmt.Errorf("transect: tolerance must be a non-negative number but is %g", o.Tolerance)
	}
	if o.Slope != Atan2 && o.Slope != LegacySlope {
		return fmt.Errorf("transect: invalid slope method %v", o.Slope)
	}
	return nil
}

// Result holds the output of a transect calculation.
type Result struct {
	Transects []*Transect

	Features   int // number of input features
	Degenerate int // features skipped because they have zero length
	Unmatched  int // cross points for which no segment was found

	// NetworkLength is the combined length of all input features.
	NetworkLength float64

	// MinLength, MaxLength and MeanLength summarize the lengths of
	// the input features. They are zero if there are no features.
	MinLength, MaxLength, MeanLength float64
}

// Empty returns whether no transects were created, in which case no
// output dataset should be written.
func (r *Result) Empty() bool { return r == nil || len(r.Transects) == 0 }

// Compute creates one transect through the midpoint of each feature.
// Zero-length features and cross points that cannot be matched
// to a segment are skipped. An error is returned if any feature is
// malformed, in which case no transects are returned.
func Compute(features []Feature, frame *Frame, o Options) (*Result, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	lengths := make([]float64, len(features))
	for i, f := range features {
		if err := f.validate(); err != nil {
			return nil, err
		}
		lengths[i] = f.Length()
	}

	// The pool must be complete before the first lookup.
	pool := NewSegmentPool(features, frame)
	var finder segmentFinder = segmentList(pool)
	if o.Indexed {
		finder = NewSegmentIndex(pool)
	}
	m := matcher{
		finder:    finder,
		tolerance: o.Tolerance,
		scope:     o.ScopeToFeature,
		forward:   o.ForwardJunctions,
	}

	r := &Result{
		Features:      len(features),
		NetworkLength: floats.Sum(lengths),
	}
	if len(lengths) > 0 {
		r.MinLength = stats.StatsMin(lengths)
		r.MaxLength = stats.StatsMax(lengths)
		r.MeanLength = stats.StatsMean(lengths)
	}
	for _, f := range features {
		cp, ok := LocateCrossPoint(f)
		if !ok {
			r.Degenerate++
			continue
		}
		seg := m.find(cp)
		if seg == nil {
			r.Unmatched++
			continue
		}
		r.Transects = append(r.Transects, &Transect{
			LineString: Construct(cp.Point, seg, o.Width, o.Slope),
			Feature:    f.ID,
			Segment:    seg.Index,
			Cross:      cp.Point,
			Frame:      frame,
		})
	}
	return r, nil
}

// Lines creates transects of the given width through the midpoints
// of lines using the default options, with feature IDs assigned
// in input order.
func Lines(lines []geom.LineString, width float64) ([]*Transect, error) {
	features := make([]Feature, len(lines))
	for i, l := range lines {
		features[i] = Feature{LineString: l, ID: i}
	}
	o := DefaultOptions()
	o.Width = width
	r, err := Compute(features, nil, o)
	if err != nil {
		return nil, err
	}
	return r.Transects, nil
}
