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

import "github.com/ctessum/geom"

// CrossPoint is the point on a feature where a transect is drawn.
type CrossPoint struct {
	geom.Point

	Feature  int     // ID of the source feature
	Distance float64 // arc length from the first vertex of the feature
}

// LocateCrossPoint returns the point at half the length of f.
// It returns false if f has zero length.
func LocateCrossPoint(f Feature) (*CrossPoint, bool) {
	length := f.Length()
	if !(length > 0) {
		return nil, false
	}
	d := length / 2
	return &CrossPoint{
		Point:    PointAlong(f.LineString, d),
		Feature:  f.ID,
		Distance: d,
	}, true
}
