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
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/transect"
	"github.com/spf13/cast"
)

// checkInputFile expands any environment variables in the input file
// path and makes sure that it is specified.
func checkInputFile(f string) (string, error) {
	f = strings.TrimSpace(os.ExpandEnv(f))
	if f == "" {
		return "", fmt.Errorf(`you need to specify an input file configuration variable (for example: InputFile="roads.shp")`)
	}
	return f, nil
}

// checkWidth makes sure that the transect width is a positive number.
func checkWidth(v interface{}) (float64, error) {
	w, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("transectutil: TransectWidth must be a number: %v", err)
	}
	if !(w > 0) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("transectutil: TransectWidth must be a positive number but is %v", v)
	}
	return w, nil
}

// checkTolerance makes sure that the matching tolerance is a
// non-negative number.
func checkTolerance(v interface{}) (float64, error) {
	tol, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("transectutil: Tolerance must be a number: %v", err)
	}
	if !(tol >= 0) || math.IsInf(tol, 0) {
		return 0, fmt.Errorf("transectutil: Tolerance must be a non-negative number but is %v", v)
	}
	return tol, nil
}

// checkOutputFile returns the location where the transects should be
// written: the output file, or the input file if no output file is
// specified, with "_transects" added to its base name. Local output
// directories and blob storage buckets must already exist. Output for
// an input downloaded over http is written to the working directory.
func checkOutputFile(ctx context.Context, f, inputFile string) (string, error) {
	f = strings.TrimSpace(os.ExpandEnv(f))
	if f == "" {
		f = inputFile
	}
	switch {
	case IsBlob(f):
		o, err := blobOutputPath(f)
		if err != nil {
			return "", err
		}
		bucketName, _, err := splitBlob(o)
		if err != nil {
			return "", err
		}
		if _, err := OpenBucket(ctx, bucketName); err != nil {
			return "", fmt.Errorf("transectutil: error when checking OutputFile location: %v", err)
		}
		return o, nil
	case isHTTP(f):
		u, err := url.Parse(f)
		if err != nil {
			return "", fmt.Errorf("transectutil: parsing OutputFile: %v", err)
		}
		return transect.OutputPath(path.Base(u.Path)), nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return "", fmt.Errorf("transectutil: the OutputFile directory doesn't exist: %v", err)
	}
	return transect.OutputPath(f), nil
}

// blobOutputPath adds the output suffix to the base name in the blob
// URL f.
func blobOutputPath(f string) (string, error) {
	u, err := url.Parse(f)
	if err != nil {
		return "", fmt.Errorf("transectutil: parsing OutputFile: %v", err)
	}
	ext := path.Ext(u.Path)
	u.Path = strings.TrimSuffix(u.Path, ext) + transect.OutputSuffix + ext
	return u.String(), nil
}

// checkOptions creates calculation options from the configuration
// in cfg.
func checkOptions(cfg *viper.Viper) (transect.Options, error) {
	o := transect.DefaultOptions()
	var err error
	if o.Width, err = checkWidth(cfg.Get("TransectWidth")); err != nil {
		return o, err
	}
	if o.Tolerance, err = checkTolerance(cfg.Get("Tolerance")); err != nil {
		return o, err
	}
	o.ScopeToFeature = cfg.GetBool("ScopeToFeature")
	o.ForwardJunctions = cfg.GetBool("ForwardJunctions")
	o.Indexed = cfg.GetBool("Indexed")
	if cfg.GetBool("LegacySlope") {
		o.Slope = transect.LegacySlope
	}
	return o, o.Validate()
}

// newLogger returns a logger at the given level that writes to w and,
// if logFile is not empty, to logFile. The returned function closes
// the log file.
func newLogger(w io.Writer, logFile, level string) (*logrus.Logger, func() error, error) {
	lvl, err := logrus.ParseLevel(os.ExpandEnv(level))
	if err != nil {
		return nil, nil, fmt.Errorf("transectutil: invalid LogLevel: %v", err)
	}
	log := logrus.New()
	log.Level = lvl
	log.Out = w
	closer := func() error { return nil }
	if logFile = os.ExpandEnv(logFile); logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("transectutil: problem creating log file: %v", err)
		}
		log.Out = io.MultiWriter(w, f)
		closer = f.Close
	}
	return log, closer, nil
}
