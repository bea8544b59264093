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
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// OutputSuffix is appended to the base name of the output path to
// get the name of the transect dataset.
const OutputSuffix = "_transects"

// OutputPath returns the location of the transect dataset for the
// given output path: the same directory and extension, with
// OutputSuffix added to the base name.
func OutputPath(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path), base+OutputSuffix+ext)
}

// isGeoJSON returns whether path has a GeoJSON file extension.
func isGeoJSON(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return true
	}
	return false
}

// ReadFeatures reads all of the linear features in the shapefile or
// GeoJSON file at path, along with their spatial reference.
func ReadFeatures(path string) ([]Feature, *Frame, error) {
	if isGeoJSON(path) {
		return readGeoJSON(path)
	}
	return readShapefile(path)
}

// toFeature converts g to a Feature. Only single lines are accepted.
func toFeature(id int, g geom.Geom) (Feature, error) {
	switch t := g.(type) {
	case geom.LineString:
		return Feature{LineString: t, ID: id}, nil
	case geom.MultiLineString:
		if len(t) != 1 {
			return Feature{}, fmt.Errorf("transect: feature %d has %d parts but only single-part lines are supported", id, len(t))
		}
		return Feature{LineString: t[0], ID: id}, nil
	case nil:
		return Feature{}, fmt.Errorf("transect: feature %d has no geometry", id)
	default:
		return Feature{}, fmt.Errorf("transect: feature %d has geometry type %T but must be a line", id, g)
	}
}

func readShapefile(path string) ([]Feature, *Frame, error) {
	fname := strings.TrimSuffix(path, ".shp")
	d, err := shp.NewDecoder(fname + ".shp")
	if err != nil {
		return nil, nil, fmt.Errorf("transect: opening shapefile '%s': %v", path, err)
	}
	defer d.Close()

	var features []Feature
	for {
		g, _, more := d.DecodeRowFields()
		if err := d.Error(); err != nil {
			return nil, nil, fmt.Errorf("transect: reading shapefile '%s': %v", path, err)
		}
		if !more {
			break
		}
		f, err := toFeature(len(features), g)
		if err != nil {
			return nil, nil, fmt.Errorf("%v in '%s'", err, path)
		}
		features = append(features, f)
	}
	prj, err := ioutil.ReadFile(fname + ".prj")
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("transect: reading projection of '%s': %v", path, err)
	}
	return features, NewFrame(string(prj)), nil
}

type geoJSONCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	CRS      *geoJSONCRS      `json:"crs,omitempty"`
	Features []geoJSONFeature `json:"features"`
}

func readGeoJSON(path string) ([]Feature, *Frame, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("transect: reading GeoJSON file '%s': %v", path, err)
	}
	var c geoJSONCollection
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, nil, fmt.Errorf("transect: decoding GeoJSON file '%s': %v", path, err)
	}
	var geoms []*geojson.Geometry
	switch c.Type {
	case "FeatureCollection":
		for _, f := range c.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		var f geoJSONFeature
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, nil, fmt.Errorf("transect: decoding GeoJSON file '%s': %v", path, err)
		}
		geoms = append(geoms, f.Geometry)
	default:
		var g geojson.Geometry
		if err := json.Unmarshal(b, &g); err != nil {
			return nil, nil, fmt.Errorf("transect: decoding GeoJSON file '%s': %v", path, err)
		}
		geoms = append(geoms, &g)
	}

	features := make([]Feature, len(geoms))
	for i, gj := range geoms {
		var g geom.Geom
		if gj != nil {
			if g, err = geojson.FromGeoJSON(gj); err != nil {
				return nil, nil, fmt.Errorf("transect: feature %d in '%s': %v", i, path, err)
			}
		}
		if features[i], err = toFeature(i, g); err != nil {
			return nil, nil, fmt.Errorf("%v in '%s'", err, path)
		}
	}

	frame := NewFrame("")
	if c.CRS != nil {
		frame = NewFrame(c.CRS.Properties.Name)
	}
	return features, frame, nil
}

// WriteTransects writes transects to a new shapefile or GeoJSON file at
// path, replacing any existing dataset there. Each record holds the ID
// of the source feature, the pool index of the crossed segment, and the
// transect length. The spatial reference is taken from frame.
func WriteTransects(path string, transects []*Transect, frame *Frame) error {
	if isGeoJSON(path) {
		return writeGeoJSON(path, transects, frame)
	}
	return writeShapefile(path, transects, frame)
}

// shapefileParts are the files making up a shapefile written by
// writeShapefile.
var shapefileParts = []string{".shp", ".prj", ".dbf", ".shx"}

func removeShapefile(fileBase string) {
	for _, ext := range shapefileParts {
		os.Remove(fileBase + ext)
	}
}

// writeShapefile writes the transects to the shapefile at path. If
// writing fails, the partly written files are removed.
func writeShapefile(path string, transects []*Transect, frame *Frame) (err error) {
	fileBase := strings.TrimSuffix(path, filepath.Ext(path))
	removeShapefile(fileBase)
	defer func() {
		if err != nil {
			removeShapefile(fileBase)
		}
	}()
	fields := []goshp.Field{
		goshp.NumberField("FID", 10),
		goshp.NumberField("SEGMENT", 10),
		goshp.FloatField("LENGTH", 18, 6),
	}
	e, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYLINE, fields...)
	if err != nil {
		return fmt.Errorf("transect: creating output shapefile: %v", err)
	}
	for _, t := range transects {
		if err := e.EncodeFields(geom.MultiLineString{t.LineString}, t.Feature, t.Segment, t.Length()); err != nil {
			e.Close()
			return fmt.Errorf("transect: writing output shapefile: %v", err)
		}
	}
	e.Close()

	if !frame.Known() {
		return nil
	}
	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("transect: creating output prj file: %v", err)
	}
	if _, err := fmt.Fprint(f, frame.Def); err != nil {
		f.Close()
		return fmt.Errorf("transect: writing output prj file: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("transect: writing output prj file: %v", err)
	}
	return nil
}

func writeGeoJSON(path string, transects []*Transect, frame *Frame) error {
	c := geoJSONCollection{
		Type:     "FeatureCollection",
		Features: make([]geoJSONFeature, len(transects)),
	}
	if frame.Known() {
		c.CRS = &geoJSONCRS{Type: "name"}
		c.CRS.Properties.Name = frame.Def
	}
	for i, t := range transects {
		g, err := geojson.ToGeoJSON(t.LineString)
		if err != nil {
			return fmt.Errorf("transect: encoding transect %d: %v", i, err)
		}
		c.Features[i] = geoJSONFeature{
			Type:     "Feature",
			Geometry: g,
			Properties: map[string]interface{}{
				"FID":     t.Feature,
				"SEGMENT": t.Segment,
				"LENGTH":  t.Length(),
			},
		}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("transect: encoding GeoJSON: %v", err)
	}
	if err := ioutil.WriteFile(path, b, 0644); err != nil {
		os.Remove(path)
		return fmt.Errorf("transect: writing GeoJSON file '%s': %v", path, err)
	}
	return nil
}
