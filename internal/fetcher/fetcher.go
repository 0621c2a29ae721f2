// Package fetcher reads tabular datasets from local CSV/XLSX files or from
// open-data URLs, and unpacks zipped shapefiles.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher defines the interface for downloading remote datasets.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// IsRemote reports whether src names an http(s) URL rather than a local path.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Localize returns a local path for src. Local paths are checked for
// existence and returned as is; URLs are downloaded into tempDir under the
// URL's base name.
func Localize(ctx context.Context, f Fetcher, src, tempDir string) (string, error) {
	if !IsRemote(src) {
		if _, err := os.Stat(src); err != nil {
			return "", eris.Wrapf(err, "fetcher: stat %s", src)
		}
		return src, nil
	}

	u, err := url.Parse(src)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: parse url %s", src)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "download"
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create temp dir")
	}
	dest := filepath.Join(tempDir, name)

	n, err := f.DownloadToFile(ctx, src, dest)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", src)
	}
	zap.L().Info("fetcher: downloaded dataset",
		zap.String("url", src),
		zap.String("path", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}
