package proxier

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arcanaland/proxier/internal/deck"
	"github.com/arcanaland/proxier/internal/layout"
	"github.com/arcanaland/proxier/internal/source"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newDeckServer serves one card image and a save file that references it.
func newDeckServer(t *testing.T) *httptest.Server {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 5, 7))
	img.Set(2, 2, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/face.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("/deck.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ObjectStates":[{"Nickname":"Remote",
			"CustomDeck":{"1":{"FaceURL":"`+srv.URL+`/face.png"}},
			"ContainedObjects":[
				{"Nickname":"Twin","CardID":100},
				{"Nickname":"Twin","CardID":100},
				{"Nickname":"Solo","CardID":101},
				{"Nickname":"Lost","CardID":9999}
			]}]}`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenerateRemoteSaveFile(t *testing.T) {
	t.Parallel()

	srv := newDeckServer(t)
	dir := t.TempDir()
	opts := Options{
		Source:       srv.URL + "/deck.json",
		Output:       filepath.Join(dir, "out", "cards.pdf"),
		ExportPath:   filepath.Join(dir, "out", "deck.json"),
		DeckListPath: filepath.Join(dir, "out", "list.pdf"),
		Grid:         layout.DefaultGrid(),
		FetchTimeout: 2 * time.Second,
	}

	result, err := Generate(context.Background(), opts, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Empty {
		t.Fatal("expected a non-empty result")
	}
	if result.Deck.Unique() != 3 || result.Deck.TotalQuantity() != 4 {
		t.Errorf("unexpected deck %+v", result.Deck.Cards)
	}
	if result.Stats.Pages != 1 || result.Stats.Cells != 4 {
		t.Errorf("unexpected stats %+v", result.Stats)
	}
	if result.Stats.Filled != 3 || result.Stats.Blank != 1 {
		t.Errorf("expected 3 filled and 1 blank cell, got %+v", result.Stats)
	}

	for _, path := range []string{opts.Output, opts.ExportPath, opts.DeckListPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}

	exported, err := os.ReadFile(opts.ExportPath)
	if err != nil {
		t.Fatal(err)
	}
	back, err := deck.Normalize(exported)
	if err != nil {
		t.Fatalf("exported deck does not normalize: %v", err)
	}
	if back.TotalQuantity() != 4 || back.Name != "Remote" {
		t.Errorf("unexpected exported deck %+v", back)
	}
}

func TestGenerateEmptyDeck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "empty.json", `{"deck_name":"Nothing","cards":[{"name":"Zero","quantity":0}]}`)
	out := filepath.Join(dir, "cards.pdf")

	result, err := Generate(context.Background(), Options{
		Source: src,
		Output: out,
		Grid:   layout.DefaultGrid(),
	}, quietLogger())
	if err != nil {
		t.Fatalf("expected no error for an empty deck, got %v", err)
	}
	if !result.Empty {
		t.Error("expected Empty to be set")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("expected no document for an empty deck")
	}
}

func TestGenerateAggregateWithoutImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "list.json",
		`{"cards": {"main": [{"name":"A","quantity":2}], "sideboard": [{"name":"A","quantity":1}]}}`)

	result, err := Generate(context.Background(), Options{
		Source: src,
		Output: filepath.Join(dir, "cards.pdf"),
		Grid:   layout.DefaultGrid(),
	}, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stats.Pages != 1 || result.Stats.Cells != 3 || result.Stats.Blank != 3 {
		t.Errorf("unexpected stats %+v", result.Stats)
	}
}

func TestGenerateFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	malformed := writeFile(t, dir, "bad.json", `{"cards": [`)
	huge := writeFile(t, dir, "huge.json", `{"cards":[{"name":"Big","quantity":1e12}]}`)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"missing file", Options{Source: filepath.Join(dir, "missing.json")}, source.ErrRead},
		{"malformed JSON", Options{Source: malformed}, deck.ErrMalformed},
		{"remote not found", Options{Source: srv.URL + "/deck"}, source.ErrFetch},
		{"too many copies", Options{Source: huge}, deck.ErrTooManyCopies},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Output = filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-")+".pdf")
			tt.opts.Grid = layout.DefaultGrid()
			tt.opts.FetchTimeout = time.Second

			_, err := Generate(context.Background(), tt.opts, quietLogger())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if _, statErr := os.Stat(tt.opts.Output); !os.IsNotExist(statErr) {
				t.Error("expected no document to be written")
			}
		})
	}

	t.Run("invalid grid", func(t *testing.T) {
		_, err := Generate(context.Background(), Options{Source: malformed, Output: "x.pdf"}, quietLogger())
		if !errors.Is(err, layout.ErrInvalidGrid) {
			t.Errorf("expected ErrInvalidGrid, got %v", err)
		}
	})
}
