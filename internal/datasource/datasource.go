// Package datasource abstracts where input bytes come from. The loader only
// sees a Source; the location string decides whether that is a local file
// or an HTTP(S) download.
package datasource

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"greenroute/internal/datasource/file"
	"greenroute/internal/datasource/httpds"
)

// Source opens a fresh reader over the input. Callers must close it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// IsRemote reports whether location is an HTTP(S) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Resolve returns the Source for location. HTTP(S) URLs are fetched with
// client; "file://" prefixes are stripped; relative paths are joined to dir.
func Resolve(location, dir string, client *httpds.Client) Source {
	if IsRemote(location) {
		return httpds.NewSource(client, location)
	}
	path := strings.TrimPrefix(location, "file://")
	if dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return file.NewLocal(path)
}
