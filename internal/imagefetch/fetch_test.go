package imagefetch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetcherGet(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 4, 6)

	t.Run("empty reference is blank without I/O", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(time.Second, "", quietLogger())
		cell := f.Get(context.Background(), "")
		if cell.Filled() {
			t.Error("expected blank cell")
		}
		if cell.Reason == "" {
			t.Error("expected a reason for the blank cell")
		}
		if f.Fetches() != 0 {
			t.Errorf("expected no fetches, got %d", f.Fetches())
		}
	})

	t.Run("downloads once and serves from cache", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		}))
		defer srv.Close()

		f := NewFetcher(time.Second, "", quietLogger())
		for i := 0; i < 3; i++ {
			cell := f.Get(context.Background(), srv.URL+"/card.png")
			if !cell.Filled() {
				t.Fatalf("expected filled cell, got blank: %s", cell.Reason)
			}
			if b := cell.Image.Bounds(); b.Dx() != 4 || b.Dy() != 6 {
				t.Errorf("unexpected image size %v", b)
			}
		}
		if hits.Load() != 1 {
			t.Errorf("expected 1 request, got %d", hits.Load())
		}
		if f.Fetches() != 1 {
			t.Errorf("expected 1 fetch, got %d", f.Fetches())
		}
	})

	t.Run("http error is blank and memoized", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewFetcher(time.Second, "", quietLogger())
		for i := 0; i < 2; i++ {
			if cell := f.Get(context.Background(), srv.URL+"/missing.png"); cell.Filled() {
				t.Fatal("expected blank cell")
			}
		}
		if hits.Load() != 1 {
			t.Errorf("expected 1 request, got %d", hits.Load())
		}
	})

	t.Run("undecodable body is blank", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not an image</html>"))
		}))
		defer srv.Close()

		f := NewFetcher(time.Second, "", quietLogger())
		if cell := f.Get(context.Background(), srv.URL); cell.Filled() {
			t.Error("expected blank cell")
		}
	})

	t.Run("reads local files", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "card.png")
		if err := os.WriteFile(path, data, 0600); err != nil {
			t.Fatal(err)
		}

		f := NewFetcher(time.Second, "", quietLogger())
		if cell := f.Get(context.Background(), path); !cell.Filled() {
			t.Errorf("expected filled cell, got blank: %s", cell.Reason)
		}
		if cell := f.Get(context.Background(), "file://"+path); !cell.Filled() {
			t.Errorf("expected filled cell for file URL, got blank: %s", cell.Reason)
		}
	})

	t.Run("missing local file is blank", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(time.Second, "", quietLogger())
		if cell := f.Get(context.Background(), filepath.Join(t.TempDir(), "nope.png")); cell.Filled() {
			t.Error("expected blank cell")
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("short", 60); got != "short" {
		t.Errorf("unexpected %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("unexpected %q", got)
	}
}
