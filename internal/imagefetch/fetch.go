// Package imagefetch resolves card image references to decoded rasters.
//
// A Fetcher lives for exactly one generation run: every reference is
// fetched at most once and the outcome, success or failure, is memoized
// until the Fetcher is dropped.
package imagefetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultTimeout bounds each image request.
const DefaultTimeout = 10 * time.Second

// maxImageSize caps the bytes read for one image.
const maxImageSize = 32 * 1024 * 1024

// logRefLength is how much of a reference is kept in log lines.
const logRefLength = 60

// Cell is the outcome of resolving one image reference: either a decoded
// raster to fill a grid cell with, or the reason the cell stays blank.
type Cell struct {
	Image  image.Image
	Reason string
}

// Filled reports whether the cell carries an image
func (c Cell) Filled() bool {
	return c.Image != nil
}

// Filled returns a cell holding img
func Filled(img image.Image) Cell {
	return Cell{Image: img}
}

// Blank returns an empty cell with a diagnostic reason
func Blank(reason string) Cell {
	return Cell{Reason: reason}
}

// Fetcher downloads or reads card images and caches the result per reference
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
	cache     map[string]Cell

	// fetches counts real I/O attempts, for diagnostics.
	fetches int
}

// NewFetcher creates a Fetcher with its own empty cache
func NewFetcher(timeout time.Duration, userAgent string, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		userAgent: userAgent,
		logger:    logger,
		cache:     make(map[string]Cell),
	}
}

// Get resolves ref. It never fails: problems are logged and reported as a
// blank cell.
func (f *Fetcher) Get(ctx context.Context, ref string) Cell {
	if ref == "" {
		return Blank("no image reference")
	}
	if cell, ok := f.cache[ref]; ok {
		return cell
	}

	f.fetches++
	img, err := f.load(ctx, ref)
	var cell Cell
	if err != nil {
		f.logger.Warn("could not load card image", "ref", Truncate(ref, logRefLength), "error", err)
		cell = Blank(err.Error())
	} else {
		f.logger.Info("loaded card image", "ref", Truncate(ref, logRefLength),
			"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
		cell = Filled(img)
	}
	f.cache[ref] = cell
	return cell
}

// Fetches returns the number of references that needed I/O
func (f *Fetcher) Fetches() int {
	return f.fetches
}

func (f *Fetcher) load(ctx context.Context, ref string) (image.Image, error) {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		data, err := f.download(ctx, ref)
		if err != nil {
			return nil, err
		}
		return decode(data)
	}

	data, err := os.ReadFile(strings.TrimPrefix(ref, "file://")) //nolint:gosec // card image path from the deck
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return decode(data)
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
}

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// Truncate shortens s to n characters for log output
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
