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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestTransector(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "roads.shp")
	writeRoads(t, in, testPrj, geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}})
	out := OutputPath(in)

	features, frame, err := ReadFeatures(in)
	if err != nil {
		t.Fatal(err)
	}

	logger, hook := test.NewNullLogger()
	o := DefaultOptions()
	o.Width = 4
	tr := &Transector{
		Options:      o,
		Log:          logger,
		InitFuncs:    []Step{AcquireWorkspace(), SetInput(in, features, frame)},
		RunFuncs:     []Step{Calculate()},
		CleanupFuncs: []Step{WriteOutput(out), ReleaseWorkspace()},
	}
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	if tr.Input != in {
		t.Errorf("want input %s, got %s", in, tr.Input)
	}
	ws := tr.Workspace.Dir
	if _, err := os.Stat(ws); err != nil {
		t.Errorf("workspace not created: %v", err)
	}
	if err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if tr.Output != out {
		t.Errorf("want output %s, got %s", out, tr.Output)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if _, err := os.Stat(ws); !os.IsNotExist(err) {
		t.Errorf("workspace not released: %v", err)
	}
	if tr.Workspace != nil {
		t.Error("workspace should be nil after release")
	}
	if len(tr.Result.Transects) != 1 {
		t.Errorf("want 1 transect, got %d", len(tr.Result.Transects))
	}

	var sawWrite bool
	for _, e := range hook.AllEntries() {
		if e.Message == "transect: wrote output" {
			sawWrite = true
			if e.Data["path"] != out {
				t.Errorf("logged path %v", e.Data["path"])
			}
		}
	}
	if !sawWrite {
		t.Error("output was not logged")
	}
}

func TestTransectorEmpty(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "empty_transects.shp")
	logger, hook := test.NewNullLogger()
	tr := &Transector{
		Options:      DefaultOptions(),
		Log:          logger,
		InitFuncs:    []Step{SetInput("", nil, nil)},
		RunFuncs:     []Step{Calculate()},
		CleanupFuncs: []Step{WriteOutput(out)},
	}
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if tr.Output != "" {
		t.Errorf("want no output, got %s", tr.Output)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("no file should be written: %v", err)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.InfoLevel {
		t.Errorf("want info message about missing output, got %+v", e)
	}
}

func TestTransectorErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	var ran []string
	step := func(name string, err error) Step {
		return func(*Transector) error {
			ran = append(ran, name)
			return err
		}
	}
	tr := &Transector{
		InitFuncs:    []Step{step("i1", errA), step("i2", nil)},
		CleanupFuncs: []Step{step("c1", errB), step("c2", errA)},
	}
	if err := tr.Init(); err != errA {
		t.Errorf("Init: want %v, got %v", errA, err)
	}
	// Cleanup runs every step and returns the first error.
	if err := tr.Cleanup(); err != errB {
		t.Errorf("Cleanup: want %v, got %v", errB, err)
	}
	want := []string{"i1", "c1", "c2"}
	if len(ran) != len(want) {
		t.Fatalf("want steps %v, got %v", want, ran)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Errorf("want steps %v, got %v", want, ran)
			break
		}
	}
}

// A workspace supplied by the caller outlives the calculation.
func TestTransectorSuppliedWorkspace(t *testing.T) {
	w, err := NewWorkspace()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Release()
	tr := &Transector{
		Log:          logrus.New(),
		Workspace:    w,
		InitFuncs:    []Step{AcquireWorkspace()},
		CleanupFuncs: []Step{ReleaseWorkspace()},
	}
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	if tr.Workspace != w {
		t.Error("supplied workspace was replaced")
	}
	if err := tr.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(w.Dir); err != nil {
		t.Errorf("supplied workspace was deleted: %v", err)
	}
}

func TestSetInputUnparsedFrame(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tr := &Transector{Log: logger}
	frame := NewFrame("urn:ogc:def:crs:EPSG::27700")
	if err := SetInput("roads.geojson", nil, frame)(tr); err != nil {
		t.Fatal(err)
	}
	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	if !warned {
		t.Error("want a warning about the spatial reference")
	}
	if tr.Frame != frame || tr.Input != "roads.geojson" {
		t.Errorf("input not set: %+v", tr)
	}
}

func TestWorkspace(t *testing.T) {
	w, err := NewWorkspace()
	if err != nil {
		t.Fatal(err)
	}
	p := w.Path("x.txt")
	if filepath.Dir(p) != w.Dir {
		t.Errorf("path %s not in workspace %s", p, w.Dir)
	}
	dir := w.Dir
	if err := w.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace not deleted: %v", err)
	}
	// Releasing twice is allowed.
	if err := w.Release(); err != nil {
		t.Error(err)
	}
}
