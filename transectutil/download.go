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
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
)

// maybeDownload checks whether p is an existing local file. If it is
// not, and p is an http(s) or blob storage URL, the file is downloaded
// into dir and the location of the local copy is returned. Shapefiles
// are downloaded along with their .dbf, .shx, and .prj files. Zip
// archives are extracted and the location of the first dataset inside
// is returned.
func maybeDownload(ctx context.Context, p, dir string) (string, error) {
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		return maybeUnzip(p, dir)
	}
	var local string
	var err error
	switch {
	case isHTTP(p):
		local, err = downloadHTTP(ctx, p, dir)
	case IsBlob(p):
		local, err = downloadBlob(ctx, p, dir)
	default:
		return p, nil
	}
	if err != nil {
		return "", err
	}
	return maybeUnzip(local, dir)
}

func isHTTP(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// optional returns whether a missing file can be ignored.
// Shapefiles without a projection are allowed.
func optional(name string) bool { return path.Ext(name) == ".prj" }

var errNotFound = errors.New("not found")

// downloadHTTP downloads the file at the URL p and any shapefile
// support files into dir.
func downloadHTTP(ctx context.Context, p, dir string) (string, error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("transectutil: parsing download URL: %v", err)
	}
	files := expandShp(u.Path)
	for _, f := range files {
		fu := *u
		fu.Path = f
		err := getHTTP(ctx, fu.String(), filepath.Join(dir, path.Base(f)))
		if err == errNotFound && optional(f) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("transectutil: downloading '%s': %v", fu.String(), err)
		}
	}
	return filepath.Join(dir, path.Base(files[0])), nil
}

func getHTTP(ctx context.Context, u, local string) error {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("server responded %s", resp.Status)
	}
	return save(resp.Body, local)
}

// save copies r to a new file at local.
func save(r io.Reader, local string) error {
	w, err := os.Create(local)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// IsBlob returns whether the given filename represents a blob
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(p string) bool {
	return strings.HasPrefix(p, "gs://") || strings.HasPrefix(p, "s3://") || strings.HasPrefix(p, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// Even if name contains subdirectories, only the base directory name will be
// used when opening the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("transectutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Host)
	case "gs":
		return gsBucket(ctx, u.Host)
	case "s3":
		return s3Bucket(ctx, u.Host)
	default:
		return nil, fmt.Errorf("transectutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// splitBlob returns the bucket name and the key of the blob URL p.
func splitBlob(p string) (bucket, key string, err error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", "", fmt.Errorf("transectutil: parsing blob URL: %v", err)
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, p, dir string) (string, error) {
	bucketName, key, err := splitBlob(p)
	if err != nil {
		return "", err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return "", err
	}
	files := expandShp(key)
	for _, f := range files {
		r, err := bucket.NewReader(ctx, f)
		if err != nil {
			if optional(f) {
				continue
			}
			return "", fmt.Errorf("transectutil: opening blob '%s': %v", f, err)
		}
		err = save(r, filepath.Join(dir, path.Base(f)))
		r.Close()
		if err != nil {
			return "", fmt.Errorf("transectutil: downloading blob '%s': %v", f, err)
		}
	}
	return filepath.Join(dir, path.Base(files[0])), nil
}

// expandShp returns the given file + associated [.dbf, .shx, .prj]
// files if the given file has the .shp extension, and returns the given
// file otherwise.
func expandShp(filename string) []string {
	o := []string{filename}
	if path.Ext(filename) != ".shp" {
		return o
	}
	base := strings.TrimSuffix(filename, ".shp")
	for _, ext := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, base+ext)
	}
	return o
}

// maybeUnzip extracts the zip archive at p into a new directory in dir
// and returns the location of the first shapefile or GeoJSON file in it.
// Other files are returned unchanged.
func maybeUnzip(p, dir string) (string, error) {
	if strings.ToLower(filepath.Ext(p)) != ".zip" {
		return p, nil
	}
	r, err := zip.OpenReader(p)
	if err != nil {
		return "", fmt.Errorf("transectutil: opening zip archive: %v", err)
	}
	defer r.Close()

	out := filepath.Join(dir, strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)))
	var found string
	for _, f := range r.File {
		name := filepath.Join(out, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(name, out+string(filepath.Separator)) {
			return "", fmt.Errorf("transectutil: zip archive entry '%s' is outside of the archive", f.Name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
			return "", err
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("transectutil: reading zip archive: %v", err)
		}
		err = save(rc, name)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("transectutil: extracting zip archive: %v", err)
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".shp", ".geojson", ".json":
			if found == "" {
				found = name
			}
		}
	}
	if found == "" {
		return "", fmt.Errorf("transectutil: zip archive '%s' does not contain a shapefile or GeoJSON file", p)
	}
	return found, nil
}
