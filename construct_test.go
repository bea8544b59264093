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
	"math/rand"
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

func segment(x1, y1, x2, y2 float64) *Segment {
	return &Segment{LineString: geom.LineString{{X: x1, Y: y1}, {X: x2, Y: y2}}}
}

func TestConstruct(t *testing.T) {
	tests := []struct {
		name  string
		cross geom.Point
		seg   *Segment
		width float64
		m     SlopeMethod
		want  geom.LineString
	}{
		{
			name:  "horizontal",
			cross: geom.Point{X: 5, Y: 0}, seg: segment(0, 0, 10, 0), width: 4,
			want: geom.LineString{{X: 5, Y: -2}, {X: 5, Y: 2}},
		},
		{
			name:  "vertical",
			cross: geom.Point{X: 0, Y: 5}, seg: segment(0, 0, 0, 10), width: 2,
			want: geom.LineString{{X: 1, Y: 5}, {X: -1, Y: 5}},
		},
		{
			name:  "vertical legacy",
			cross: geom.Point{X: 0, Y: 5}, seg: segment(0, 0, 0, 10), width: 2, m: LegacySlope,
			want: geom.LineString{{X: 1, Y: 5}, {X: -1, Y: 5}},
		},
		{
			name:  "leftward",
			cross: geom.Point{X: 5, Y: 0}, seg: segment(10, 0, 0, 0), width: 4,
			want: geom.LineString{{X: 5, Y: 2}, {X: 5, Y: -2}},
		},
		{
			name:  "leftward legacy",
			cross: geom.Point{X: 5, Y: 0}, seg: segment(10, 0, 0, 0), width: 4, m: LegacySlope,
			want: geom.LineString{{X: 5, Y: -2}, {X: 5, Y: 2}},
		},
		{
			name:  "diagonal",
			cross: geom.Point{X: 3, Y: 4}, seg: segment(0, 0, 6, 8), width: 10,
			want: geom.LineString{{X: 7, Y: 1}, {X: -1, Y: 7}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Construct(test.cross, test.seg, test.width, test.m)
			if len(got) != 2 {
				t.Fatalf("want 2 points, got %d", len(got))
			}
			for i := range got {
				if !samePoint(got[i], test.want[i], testTolerance) {
					t.Errorf("point %d: want %v, got %v", i, test.want[i], got[i])
				}
			}
		})
	}
}

// Transects have the requested length, are perpendicular to the
// segment they cross and are centered on the cross point.
func TestConstructProperties(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		seg := segment(r.NormFloat64()*100, r.NormFloat64()*100, r.NormFloat64()*100, r.NormFloat64()*100)
		if seg.Length() == 0 {
			continue
		}
		cross := PointAlong(seg.LineString, r.Float64()*seg.Length())
		width := 0.1 + r.Float64()*100
		for _, m := range []SlopeMethod{Atan2, LegacySlope} {
			tr := &Transect{LineString: Construct(cross, seg, width, m)}
			if l := tr.Length(); !floats.EqualWithinAbsOrRel(l, width, 1e-9, 1e-9) {
				t.Errorf("%d %v: length %g, want %g", i, m, l, width)
			}
			sx, sy := seg.To().X-seg.From().X, seg.To().Y-seg.From().Y
			tx, ty := tr.LineString[1].X-tr.LineString[0].X, tr.LineString[1].Y-tr.LineString[0].Y
			if c := (sx*tx + sy*ty) / (seg.Length() * width); math.Abs(c) > 1e-9 {
				t.Errorf("%d %v: not perpendicular, cosine %g", i, m, c)
			}
			if c := tr.Center(); !samePoint(c, cross, 1e-9*math.Max(1, width)) {
				t.Errorf("%d %v: center %v, want %v", i, m, c, cross)
			}
		}
	}
}

func TestSlopeMethodString(t *testing.T) {
	for m, want := range map[SlopeMethod]string{Atan2: "atan2", LegacySlope: "legacy", 7: "SlopeMethod(7)"} {
		if got := m.String(); got != want {
			t.Errorf("want %s, got %s", want, got)
		}
	}
}
