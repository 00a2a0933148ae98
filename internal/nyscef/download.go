package nyscef

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Downloader streams a document body to local storage. Files are
// write-once: an existing destination is never overwritten, and partial
// writes land in a temp name so a crash can't leave a truncated file that
// later runs would treat as present.
type Downloader struct {
	client   *http.Client
	minBytes int64
}

// NewDownloader creates a Downloader. Bodies smaller than minBytes are
// rejected as corrupt; the court serves error pages with a 200 status.
func NewDownloader(client *http.Client, minBytes int64) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{client: client, minBytes: minBytes}
}

// Fetch downloads url to dest, sending the session's cookies. A dest that
// already exists is left untouched and reported as success.
func (d *Downloader) Fetch(ctx context.Context, url string, cookies []*http.Cookie, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return eris.Wrapf(err, "download: mkdir for %s", dest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrapf(err, "download: request %s", url)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "download: fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download: %s returned status %d", url, resp.StatusCode)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "download: create %s", tmp)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return eris.Wrapf(err, "download: write %s", tmp)
	}
	if n < d.minBytes {
		os.Remove(tmp)
		return eris.Wrapf(ErrDocumentTooSmall, "%d bytes from %s", n, url)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return eris.Wrapf(err, "download: rename into %s", dest)
	}
	return nil
}
