package nyscef

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloaderFetch(t *testing.T) {
	body := strings.Repeat("x", 2048)
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("JSESSIONID"); err == nil {
			gotCookie = c.Value
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "saledocs", "noticeofsale", "850123-2024.pdf")
	dl := NewDownloader(srv.Client(), 1000)

	cookies := []*http.Cookie{{Name: "JSESSIONID", Value: "abc123"}}
	require.NoError(t, dl.Fetch(context.Background(), srv.URL, cookies, dest))

	assert.Equal(t, "abc123", gotCookie, "session cookies forwarded")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Len(t, data, 2048)

	_, err = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(err), "no partial file left behind")
}

func TestDownloaderFetchWriteOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("existing file must not be re-fetched")
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(dest, []byte("original"), 0o644))

	dl := NewDownloader(srv.Client(), 1000)
	require.NoError(t, dl.Fetch(context.Background(), srv.URL, nil, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestDownloaderFetchTooSmall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>error</html>"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "doc.pdf")
	dl := NewDownloader(srv.Client(), 1000)

	err := dl.Fetch(context.Background(), srv.URL, nil, dest)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDocumentTooSmall))

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err), "undersized body not persisted")
	_, err = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestDownloaderFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "doc.pdf")
	dl := NewDownloader(srv.Client(), 1000)

	assert.Error(t, dl.Fetch(context.Background(), srv.URL, nil, dest))
	_, err := os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestAsTimeout(t *testing.T) {
	err := asTimeout(context.DeadlineExceeded)
	assert.True(t, eris.Is(err, ErrNetworkTimeout))

	plain := eris.New("boom")
	assert.Equal(t, plain, asTimeout(plain))
	assert.NoError(t, asTimeout(nil))
}

func TestDiscontinuedError(t *testing.T) {
	err := &DiscontinuedError{IndexNumber: "850123/2024"}
	assert.Contains(t, err.Error(), "850123/2024")
}
