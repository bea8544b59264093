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
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/transect"
)

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	dir   string
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a location in the
// uploader's directory is returned, and the file there will be
// uploaded to blob storage when upload is run.
func (u *uploader) maybeUpload(p string) string {
	if !IsBlob(p) {
		return p
	}
	files := expandShp(p)
	for _, f := range files {
		u.files = append(u.files, [2]string{
			filepath.Join(u.dir, path.Base(f)),
			f,
		})
	}
	return filepath.Join(u.dir, path.Base(files[0]))
}

// upload copies the local files to blob storage. Local files that
// do not exist, for example because no output was created, are
// skipped. Failed uploads are retried with exponential backoff.
func (u *uploader) upload(ctx context.Context, log logrus.FieldLogger) error {
	for _, files := range u.files {
		local, remote := files[0], files[1]
		if _, err := os.Stat(local); os.IsNotExist(err) {
			continue
		}
		err := backoff.RetryNotify(
			func() error { return uploadFile(ctx, local, remote) },
			backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx),
			func(err error, d time.Duration) {
				log.WithField("path", remote).Warnf("transectutil: %v: retrying in %v", err, d)
			},
		)
		if err != nil {
			return err
		}
		log.WithField("path", remote).Debug("transectutil: uploaded file")
	}
	return nil
}

// Upload returns a function that uploads the output files to
// blob storage. Nothing is uploaded unless the output dataset was
// written completely.
func (u *uploader) Upload(ctx context.Context) transect.Step {
	return func(t *transect.Transector) error {
		if t.Output == "" {
			if len(u.files) > 0 {
				logger(t).Debug("transectutil: no output dataset was written; nothing uploaded")
			}
			return nil
		}
		return u.upload(ctx, logger(t))
	}
}

func uploadFile(ctx context.Context, local, remote string) error {
	r, err := os.Open(local)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("transectutil: opening file '%s' for upload: %v", local, err))
	}
	defer r.Close()
	bucketName, key, err := splitBlob(remote)
	if err != nil {
		return backoff.Permanent(err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("transectutil: opening bucket to upload file '%s': %v", remote, err)
	}
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("transectutil: opening writer to upload file '%s': %v", remote, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("transectutil: uploading file '%s' to '%s': %v", local, remote, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("transectutil: uploading file '%s' to '%s': %v", local, remote, err)
	}
	return nil
}
