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

// Package transect creates transects: straight lines of a fixed width
// drawn perpendicular to a road network through the midpoint of each
// road feature, for sampling road widths and corridor profiles.
package transect

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "1.0.0"

// Step is a function that carries out one stage of a transect
// calculation.
type Step func(t *Transector) error

// Transector holds the state of a transect calculation.
type Transector struct {
	// InitFuncs are run by Init, typically to acquire resources
	// and read input data.
	InitFuncs []Step

	// RunFuncs are run by Run to do the calculation.
	RunFuncs []Step

	// CleanupFuncs are run by Cleanup to write output and release
	// resources.
	CleanupFuncs []Step

	Options Options

	// Log receives status messages. If it is nil, the logrus
	// standard logger is used.
	Log logrus.FieldLogger

	// Workspace holds intermediate files. A workspace created by
	// AcquireWorkspace is deleted by ReleaseWorkspace; one supplied
	// by the caller is left for the caller to release.
	Workspace *Workspace
	acquired  bool

	// Input is the location of the dataset that Features and Frame
	// were read from.
	Input    string
	Features []Feature
	Frame    *Frame
	Result   *Result

	// Output is the path of the dataset written by WriteOutput,
	// or "" if nothing was written.
	Output string
}

func (t *Transector) log() logrus.FieldLogger {
	if t.Log == nil {
		return logrus.StandardLogger()
	}
	return t.Log
}

// Init runs the InitFuncs, stopping at the first error.
func (t *Transector) Init() error {
	for _, f := range t.InitFuncs {
		if err := f(t); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the RunFuncs, stopping at the first error.
func (t *Transector) Run() error {
	for _, f := range t.RunFuncs {
		if err := f(t); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup runs all of the CleanupFuncs, even if some of them fail,
// and returns the first error.
func (t *Transector) Cleanup() error {
	var first error
	for _, f := range t.CleanupFuncs {
		if err := f(t); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Workspace is a temporary directory for intermediate files.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a new temporary directory.
func NewWorkspace() (*Workspace, error) {
	dir, err := ioutil.TempDir("", "transect")
	if err != nil {
		return nil, fmt.Errorf("transect: creating workspace: %v", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path returns the location of the named file in w.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Release deletes w and everything in it.
func (w *Workspace) Release() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	err := os.RemoveAll(w.Dir)
	w.Dir = ""
	return err
}

// AcquireWorkspace returns a function that creates a workspace
// for the calculation.
func AcquireWorkspace() Step {
	return func(t *Transector) error {
		if t.Workspace != nil {
			return nil
		}
		w, err := NewWorkspace()
		if err != nil {
			return err
		}
		t.Workspace, t.acquired = w, true
		t.log().WithField("dir", w.Dir).Debug("transect: acquired workspace")
		return nil
	}
}

// ReleaseWorkspace returns a function that deletes the workspace
// created by AcquireWorkspace.
func ReleaseWorkspace() Step {
	return func(t *Transector) error {
		if t.Workspace == nil || !t.acquired {
			return nil
		}
		dir := t.Workspace.Dir
		if err := t.Workspace.Release(); err != nil {
			return fmt.Errorf("transect: releasing workspace: %v", err)
		}
		t.Workspace, t.acquired = nil, false
		t.log().WithField("dir", dir).Debug("transect: released workspace")
		return nil
	}
}

// SetInput returns a function that uses features and frame, read
// from the dataset at path, as the input of the calculation.
func SetInput(path string, features []Feature, frame *Frame) Step {
	return func(t *Transector) error {
		t.Input, t.Features, t.Frame = path, features, frame
		log := t.log().WithFields(logrus.Fields{
			"path":     path,
			"features": len(features),
			"frame":    frame.String(),
		})
		if frame.Known() && frame.SR == nil {
			log.Warn("transect: spatial reference could not be parsed; it will be copied to the output as is")
		}
		log.Info("transect: read input")
		return nil
	}
}

// Calculate returns a function that creates the transects.
func Calculate() Step {
	return func(t *Transector) error {
		r, err := Compute(t.Features, t.Frame, t.Options)
		if err != nil {
			return err
		}
		t.Result = r
		t.log().WithFields(logrus.Fields{
			"features":   r.Features,
			"degenerate": r.Degenerate,
			"unmatched":  r.Unmatched,
			"transects":  len(r.Transects),
			"length":     r.NetworkLength,
			"meanLength": r.MeanLength,
			"width":      t.Options.Width,
		}).Info("transect: calculated transects")
		if r.Unmatched > 0 {
			t.log().WithField("unmatched", r.Unmatched).Warn("transect: some midpoints did not lie on any segment; try a larger Tolerance")
		}
		return nil
	}
}

// WriteOutput returns a function that writes the transects to path.
// If there are no transects, nothing is written and t.Output is
// left empty.
func WriteOutput(path string) Step {
	return func(t *Transector) error {
		if t.Result.Empty() {
			t.log().Info("transect: no transects were created; no output dataset written")
			return nil
		}
		if err := WriteTransects(path, t.Result.Transects, t.Frame); err != nil {
			return err
		}
		t.Output = path
		t.log().WithFields(logrus.Fields{
			"path":      path,
			"transects": len(t.Result.Transects),
		}).Info("transect: wrote output")
		return nil
	}
}
