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
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/transect"
)

func TestMaybeUpload(t *testing.T) {
	u := &uploader{dir: "/tmp/out"}
	if p := u.maybeUpload("roads.shp"); p != "roads.shp" || len(u.files) != 0 {
		t.Errorf("local file should not be uploaded: %s, %v", p, u.files)
	}
	p := u.maybeUpload("gs://bucket/out/roads.shp")
	if p != filepath.Join("/tmp/out", "roads.shp") {
		t.Errorf("local path: %s", p)
	}
	want := [][2]string{
		{filepath.Join("/tmp/out", "roads.shp"), "gs://bucket/out/roads.shp"},
		{filepath.Join("/tmp/out", "roads.dbf"), "gs://bucket/out/roads.dbf"},
		{filepath.Join("/tmp/out", "roads.shx"), "gs://bucket/out/roads.shx"},
		{filepath.Join("/tmp/out", "roads.prj"), "gs://bucket/out/roads.prj"},
	}
	if len(u.files) != len(want) {
		t.Fatalf("want %d files, got %v", len(want), u.files)
	}
	for i := range want {
		if u.files[i] != want[i] {
			t.Errorf("file %d: want %v, got %v", i, want[i], u.files[i])
		}
	}
}

func TestUpload(t *testing.T) {
	defer testBucket(t, "testbucket_up")()
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	u := &uploader{dir: dir}
	local := u.maybeUpload("file://testbucket_up/roads.shp")
	writeRoads(t, local, testPrj, testLines...)
	// Missing local files, such as a plot that was never drawn, are skipped.
	u.maybeUpload("file://testbucket_up/roads.png")

	log, hook := test.NewNullLogger()
	tr := &transect.Transector{Log: log}
	// Nothing is uploaded until the output dataset has been written.
	if err := u.Upload(context.Background())(tr); err != nil {
		t.Fatal(err)
	}
	if files, err := ioutil.ReadDir("testbucket_up"); err != nil || len(files) != 0 {
		t.Fatalf("want empty bucket, got %v, %v", files, err)
	}

	tr.Output = local
	if err := u.Upload(context.Background())(tr); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"roads.shp", "roads.dbf", "roads.shx", "roads.prj"} {
		if _, err := os.Stat(filepath.Join("testbucket_up", name)); err != nil {
			t.Errorf("%s not uploaded: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join("testbucket_up", "roads.png")); !os.IsNotExist(err) {
		t.Errorf("missing file should be skipped: %v", err)
	}
	for _, e := range hook.AllEntries() {
		if e.Message != "transectutil: uploaded file" {
			t.Errorf("unexpected log message: %s", e.Message)
		}
	}

	// The uploaded dataset can be downloaded and read.
	down := tempDir(t)
	defer os.RemoveAll(down)
	k, err := maybeDownload(context.Background(), "file://testbucket_up/roads.shp", down)
	if err != nil {
		t.Fatal(err)
	}
	features, frame, err := transect.ReadFeatures(k)
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != len(testLines) || frame.Def != testPrj {
		t.Errorf("bad round trip: %d features, frame %q", len(features), frame.Def)
	}
}

func TestUploadCanceled(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "x.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	u := &uploader{files: [][2]string{{path, "ftp://nowhere/x.txt"}}}
	log, _ := test.NewNullLogger()
	// Retrying stops once the context is done.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := u.upload(ctx, log); err == nil {
		t.Error("want error for invalid bucket")
	}
}
