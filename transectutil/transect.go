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
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/transect"
)

// Job specifies a single transect calculation.
type Job struct {
	// InputFile is the location of the road network: a shapefile or
	// GeoJSON file, optionally in a zip archive, as a local path, an
	// http(s) URL, or a blob storage URL.
	InputFile string

	// OutputFile is the location that the name of the transect dataset
	// is derived from. If it is empty, InputFile is used.
	OutputFile string

	// TransectWidth overrides the configured transect width
	// if it is not zero.
	TransectWidth float64

	// PlotFile, if not empty, is the location of an image showing the
	// road network and the transects.
	PlotFile string
}

type input struct {
	// local is the downloaded or extracted dataset.
	local    string
	features []transect.Feature
	frame    *transect.Frame
}

// inputRequest asks for the dataset at path to be downloaded into dir
// if needed.
type inputRequest struct {
	path, dir string
}

// inputCache downloads and reads input datasets, keeping them in
// memory so that jobs sharing an input only read it once.
type inputCache struct {
	cache *requestcache.Cache
}

func newInputCache(size int) *inputCache {
	return &inputCache{
		cache: requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			req := request.(inputRequest)
			d, err := ioutil.TempDir(req.dir, "input")
			if err != nil {
				return nil, fmt.Errorf("transectutil: creating download directory: %v", err)
			}
			local, err := maybeDownload(ctx, req.path, d)
			if err != nil {
				return nil, err
			}
			features, frame, err := transect.ReadFeatures(local)
			if err != nil {
				return nil, err
			}
			return &input{local: local, features: features, frame: frame}, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(size)),
	}
}

// Read returns a function that sets the input of a calculation to the
// contents of the dataset at p. Downloads go into the calculation's
// workspace.
func (c *inputCache) Read(ctx context.Context, p string) transect.Step {
	return func(t *transect.Transector) error {
		if t.Workspace == nil {
			return fmt.Errorf("transectutil: reading '%s': no workspace", p)
		}
		r, err := c.cache.NewRequest(ctx, inputRequest{path: p, dir: t.Workspace.Dir}, p).Result()
		if err != nil {
			return err
		}
		in := r.(*input)
		if in.local != p {
			logger(t).WithFields(logrus.Fields{"path": p, "local": in.local}).Debug("transectutil: using local copy of input")
		}
		return transect.SetInput(in.local, in.features, in.frame)(t)
	}
}

func logger(t *transect.Transector) logrus.FieldLogger {
	if t.Log == nil {
		return logrus.StandardLogger()
	}
	return t.Log
}

// outputFormat makes the extension of the output location f match the
// format that will be written: GeoJSON if f names a GeoJSON file, or
// if f has no dataset extension and the input was GeoJSON; a
// shapefile otherwise. This matters when the input is a zip archive.
func outputFormat(f, input string) string {
	ext := path.Ext(f)
	switch strings.ToLower(ext) {
	case ".shp", ".geojson", ".json":
		return f
	}
	switch in := path.Ext(filepath.ToSlash(input)); strings.ToLower(in) {
	case ".geojson", ".json":
		return strings.TrimSuffix(f, ext) + in
	}
	return strings.TrimSuffix(f, ext) + ".shp"
}

// Run creates transects for job using options o, and returns the
// location of the output dataset. If no transects are created, no
// output is written and the returned location is empty.
func Run(ctx context.Context, job Job, o transect.Options, log logrus.FieldLogger) (string, error) {
	return run(ctx, job, o, log, nil, newInputCache(1))
}

// run carries out job. If ws is nil, a workspace is created for the
// job and deleted when it finishes.
func run(ctx context.Context, job Job, o transect.Options, log logrus.FieldLogger, ws *transect.Workspace, inputs *inputCache) (string, error) {
	inputFile, err := checkInputFile(job.InputFile)
	if err != nil {
		return "", err
	}
	output, err := checkOutputFile(ctx, job.OutputFile, inputFile)
	if err != nil {
		return "", err
	}
	if job.TransectWidth != 0 {
		if o.Width, err = checkWidth(job.TransectWidth); err != nil {
			return "", err
		}
	}

	t := &transect.Transector{
		Options:      o,
		Log:          log,
		Workspace:    ws,
		InitFuncs:    []transect.Step{transect.AcquireWorkspace(), inputs.Read(ctx, inputFile)},
		RunFuncs:     []transect.Step{transect.Calculate()},
		CleanupFuncs: []transect.Step{transect.ReleaseWorkspace()},
	}
	err = t.Init()
	if err == nil {
		err = t.Run()
	}
	if err == nil {
		// The output format is known once the input has been read.
		output = outputFormat(output, t.Input)
		err = addOutputSteps(ctx, t, output, os.ExpandEnv(job.PlotFile))
	}
	if cerr := t.Cleanup(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if t.Output == "" {
		return "", nil
	}
	return output, nil
}

// addOutputSteps puts the steps that write, plot, and upload the
// output ahead of the existing cleanup steps.
func addOutputSteps(ctx context.Context, t *transect.Transector, output, plotFile string) error {
	dir, err := ioutil.TempDir(t.Workspace.Dir, "output")
	if err != nil {
		return fmt.Errorf("transectutil: creating output directory: %v", err)
	}
	up := &uploader{dir: dir}
	steps := []transect.Step{transect.WriteOutput(up.maybeUpload(output))}
	if plotFile != "" {
		steps = append(steps, Plot(up.maybeUpload(plotFile)))
	}
	steps = append(steps, up.Upload(ctx))
	t.CleanupFuncs = append(steps, t.CleanupFuncs...)
	return nil
}

// batch is the format of a batch job file.
type batch struct {
	Job []Job
}

// Batch runs the jobs listed in the TOML file read from r, in order,
// using options o for settings the jobs do not specify. It returns
// the output location of each job.
func Batch(ctx context.Context, r io.Reader, o transect.Options, log logrus.FieldLogger) ([]string, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var b batch
	if _, err := toml.DecodeReader(r, &b); err != nil {
		return nil, fmt.Errorf("transectutil: reading batch file: %v", err)
	}
	if len(b.Job) == 0 {
		return nil, fmt.Errorf("transectutil: the batch file does not contain any [[Job]] entries")
	}
	ws, err := transect.NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	inputs := newInputCache(len(b.Job))
	outputs := make([]string, len(b.Job))
	for i, job := range b.Job {
		out, err := run(ctx, job, o, log.WithField("job", i), ws, inputs)
		if err != nil {
			return outputs, fmt.Errorf("transectutil: job %d: %v", i, err)
		}
		outputs[i] = out
	}
	return outputs, nil
}
