// Package proxier runs one generation: load a deck source, normalize it,
// and render the printable sheet.
//
// The pipeline is synchronous and single-threaded. Every setting it needs
// arrives in Options; nothing is read from process-wide state.
package proxier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcanaland/proxier/internal/deck"
	"github.com/arcanaland/proxier/internal/imagefetch"
	"github.com/arcanaland/proxier/internal/layout"
	"github.com/arcanaland/proxier/internal/render"
	"github.com/arcanaland/proxier/internal/source"
)

// Options configures one run
type Options struct {
	Source string // local path or URL of the deck
	Output string // path of the printable PDF

	// ExportPath, when set, receives the uniform deck (JSON, YAML or Markdown
	// by extension) before rendering.
	ExportPath string

	// DeckListPath, when set, receives a deck list table PDF.
	DeckListPath string

	Grid         layout.Grid
	FetchTimeout time.Duration
	UserAgent    string
}

// Result describes a finished run
type Result struct {
	Deck   *deck.Deck
	Stats  render.Stats
	Output string

	// Empty is set when the deck had no copies to print; no document was
	// written and the run is not a failure.
	Empty bool
}

// Load reads and normalizes a deck source. Read, fetch and parse failures
// are returned as run-level errors.
func Load(ctx context.Context, src string, timeout time.Duration, userAgent string, logger *slog.Logger) (*deck.Deck, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loader := source.NewLoader(timeout, userAgent, logger)
	data, err := loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	d, err := deck.ParseSource(src, data)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded deck", "name", d.Name, "shape", d.Shape.String(),
		"unique", d.Unique(), "cards", d.TotalQuantity())
	return d, nil
}

// Generate runs the whole pipeline. A deck with zero copies returns a
// Result with Empty set and a nil error.
func Generate(ctx context.Context, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Output == "" {
		return nil, errors.New("no output path given")
	}
	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}

	d, err := Load(ctx, opts.Source, opts.FetchTimeout, opts.UserAgent, logger)
	if err != nil {
		return nil, err
	}

	result := &Result{Deck: d}
	if err := d.CheckNotEmpty(); err != nil {
		logger.Warn("nothing to print", "source", imagefetch.Truncate(opts.Source, 60))
		result.Empty = true
		return result, nil
	}
	if err := d.CheckCopyLimit(); err != nil {
		return nil, err
	}

	if opts.ExportPath != "" {
		if err := d.SaveFile(opts.ExportPath); err != nil {
			return nil, fmt.Errorf("error exporting deck: %w", err)
		}
		logger.Info("deck exported", "path", opts.ExportPath)
	}

	if opts.DeckListPath != "" {
		listOpts := render.DeckListOptions{Page: opts.Grid.Page}
		if source.IsRemote(opts.Source) {
			listOpts.SourceURL = source.RewriteURL(opts.Source)
		}
		if err := render.WriteDeckList(d, opts.DeckListPath, listOpts); err != nil {
			return nil, err
		}
		logger.Info("deck list created", "path", opts.DeckListPath)
	}

	fetcher := imagefetch.NewFetcher(opts.FetchTimeout, opts.UserAgent, logger)
	renderer := render.NewRenderer(opts.Grid, fetcher, logger)
	stats, err := renderer.Render(ctx, d, opts.Output)
	if err != nil {
		return nil, err
	}

	result.Stats = stats
	result.Output = opts.Output
	return result, nil
}
