package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds the single deck fetch.
const DefaultTimeout = 15 * time.Second

// DefaultMaxBodySize limits how much of a deck endpoint response is read.
const DefaultMaxBodySize = 16 * 1024 * 1024

var (
	// ErrRead is returned when a local deck file cannot be read.
	ErrRead = errors.New("cannot read deck file")

	// ErrFetch is returned when a remote deck cannot be fetched.
	ErrFetch = errors.New("cannot fetch deck")
)

// Loader reads deck sources from disk or over HTTP
type Loader struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// NewLoader creates a Loader with its own HTTP client
func NewLoader(timeout time.Duration, userAgent string, logger *slog.Logger) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Client:    &http.Client{Timeout: timeout},
		Timeout:   timeout,
		UserAgent: userAgent,
		Logger:    logger,
	}
}

// Load returns the raw bytes of src. Existing local files win over URL
// interpretation; remote sources are rewritten and fetched exactly once.
func (l *Loader) Load(ctx context.Context, src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrRead)
	}

	path := strings.TrimPrefix(src, "file://")
	if _, err := os.Stat(path); err == nil || !IsRemote(src) {
		data, err := os.ReadFile(path) //nolint:gosec // user-provided deck path
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRead, err)
		}
		l.Logger.Debug("read deck file", "path", path, "bytes", len(data))
		return data, nil
	}

	return l.fetch(ctx, RewriteURL(src))
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}

	l.Logger.Info("fetching deck", "url", rawURL)
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrFetch, rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetch, err)
	}
	return data, nil
}
