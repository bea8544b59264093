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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// FindSegment returns the first segment in pool that touches p
// within tolerance, or nil if there is none. When p lies on the
// junction between two segments, the one that comes first in pool wins.
func FindSegment(p geom.Point, pool []*Segment, tolerance float64) *Segment {
	m := matcher{tolerance: tolerance, finder: segmentList(pool)}
	return m.find(&CrossPoint{Point: p, Feature: -1})
}

// segmentFinder returns, in pool order, a superset of the segments
// that may touch p within tolerance.
type segmentFinder interface {
	candidates(p geom.Point, tolerance float64) []*Segment
}

// segmentList is a segmentFinder that returns every segment.
type segmentList []*Segment

func (l segmentList) candidates(geom.Point, float64) []*Segment { return l }

// SegmentIndex is a spatial index over a segment pool. Lookups
// return the same segment FindSegment would, for any tolerance.
type SegmentIndex struct {
	tree *rtree.Rtree
}

// minPad keeps search boxes from collapsing to a point when the
// tolerance is zero.
const minPad = 1e-9

type indexedSegment struct {
	*Segment
	b *geom.Bounds
}

func (s indexedSegment) Bounds() *geom.Bounds { return s.b }

// NewSegmentIndex creates an index of pool.
func NewSegmentIndex(pool []*Segment) *SegmentIndex {
	idx := &SegmentIndex{tree: rtree.NewTree(25, 50)}
	for _, s := range pool {
		idx.tree.Insert(indexedSegment{Segment: s, b: s.Bounds()})
	}
	return idx
}

// candidates searches a box around p that contains every point
// touching a segment within tolerance. Touches allows tolerance both
// across and along the segment, so the corners of that region can be
// up to tolerance*sqrt(2) away from an end point on either axis.
func (idx *SegmentIndex) candidates(p geom.Point, tolerance float64) []*Segment {
	r := math.Sqrt2*tolerance + minPad
	hits := idx.tree.SearchIntersect(&geom.Bounds{
		Min: geom.Point{X: p.X - r, Y: p.Y - r},
		Max: geom.Point{X: p.X + r, Y: p.Y + r},
	})
	o := make([]*Segment, len(hits))
	for i, h := range hits {
		o[i] = h.(indexedSegment).Segment
	}
	sort.Slice(o, func(i, j int) bool { return o[i].Index < o[j].Index })
	return o
}

// Find returns the first segment in pool order that touches p within
// tolerance, or nil if there is none.
func (idx *SegmentIndex) Find(p geom.Point, tolerance float64) *Segment {
	m := matcher{tolerance: tolerance, finder: idx}
	return m.find(&CrossPoint{Point: p, Feature: -1})
}

// matcher applies the first-match policy to the candidates from
// a segmentFinder.
type matcher struct {
	finder    segmentFinder
	tolerance float64

	// scope restricts matches to segments of the cross point's
	// own feature.
	scope bool

	// forward prefers, at a vertex shared by two segments, the
	// segment that starts there.
	forward bool
}

func (m matcher) find(cp *CrossPoint) *Segment {
	candidates := m.finder.candidates(cp.Point, m.tolerance)
	if m.forward {
		if s := m.first(cp, candidates, false); s != nil {
			return s
		}
	}
	return m.first(cp, candidates, true)
}

func (m matcher) first(cp *CrossPoint, candidates []*Segment, closedEnd bool) *Segment {
	for _, s := range candidates {
		if m.scope && s.Feature != cp.Feature {
			continue
		}
		if s.touches(cp.Point, m.tolerance, closedEnd) {
			return s
		}
	}
	return nil
}
