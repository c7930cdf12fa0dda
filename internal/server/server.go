// Package server hosts generations over HTTP. Each request starts one run
// of the pipeline on its own goroutine; clients poll the job for its state.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/arcanaland/proxier/internal/proxier"
)

// Job states
const (
	StateRunning = "running"
	StateDone    = "done"
	StateEmpty   = "empty"
	StateFailed  = "failed"
)

// RunFunc runs one generation
type RunFunc func(ctx context.Context, opts proxier.Options, logger *slog.Logger) (*proxier.Result, error)

// Job is the externally visible record of one generation
type Job struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Source string `json:"source"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
	Pages  int    `json:"pages"`
	Cards  int    `json:"cards"`
}

var (
	// ErrOutputPath is returned for output paths outside the output directory.
	ErrOutputPath = errors.New("output path must be relative and stay inside the output directory")

	// ErrOutputBusy is returned when a running job already writes the path.
	ErrOutputBusy = errors.New("output path is in use by a running job")
)

type generateRequest struct {
	Source string `json:"source" binding:"required"`
	Output string `json:"output"`
}

// Server keeps the job table. Defaults supplies every option a request
// does not set except the output, which always lives under OutputDir: a
// request may name a relative path there, otherwise the job writes
// job-<id>.pdf.
type Server struct {
	Defaults  proxier.Options
	OutputDir string
	Run       RunFunc

	logger  *slog.Logger
	mu      sync.Mutex
	jobs    map[string]*Job
	writing map[string]string // output path -> id of the running job
	seq     int
	wg      sync.WaitGroup
}

// New returns a server running proxier.Generate with defaults, writing
// documents under outputDir
func New(defaults proxier.Options, outputDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if outputDir == "" {
		outputDir = "."
	}
	return &Server{
		Defaults:  defaults,
		OutputDir: outputDir,
		Run:       proxier.Generate,
		logger:    logger,
		jobs:      make(map[string]*Job),
		writing:   make(map[string]string),
	}
}

// Engine builds a gin engine with the API routes registered
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API under /api on r
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/generate", s.generate)
		api.GET("/jobs/:id", s.job)
		api.GET("/qr", s.qr)
	}
}

// Wait blocks until every started job has finished
func (s *Server) Wait() {
	s.wg.Wait()
}

// Job returns a copy of the job with id
func (s *Server) Job(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	output, err := s.resolveOutput(req.Output)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := s.Defaults
	opts.Source = req.Source
	opts.Output = output

	job, err := s.start(opts)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": job.ID})
}

// resolveOutput joins a requested path onto OutputDir. An empty request
// resolves to "" and start picks the per-job default.
func (s *Server) resolveOutput(requested string) (string, error) {
	if requested == "" {
		return "", nil
	}
	if !filepath.IsLocal(requested) {
		return "", fmt.Errorf("%w: %q", ErrOutputPath, requested)
	}
	return filepath.Join(s.OutputDir, filepath.Clean(requested)), nil
}

func (s *Server) job(c *gin.Context) {
	job, ok := s.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// qr returns a PNG QR code for the text query parameter
func (s *Server) qr(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	size := 256
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 && v <= 2048 {
		size = v
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// start records a new job and runs it in the background. The run is never
// cancelled once started. Only one running job may write a given path.
func (s *Server) start(opts proxier.Options) (Job, error) {
	s.mu.Lock()
	id := strconv.Itoa(s.seq + 1)
	if opts.Output == "" {
		opts.Output = filepath.Join(s.OutputDir, "job-"+id+".pdf")
	}
	if other, busy := s.writing[opts.Output]; busy {
		s.mu.Unlock()
		return Job{}, fmt.Errorf("%w: job %s", ErrOutputBusy, other)
	}
	s.seq++
	job := &Job{
		ID:     id,
		State:  StateRunning,
		Source: opts.Source,
		Output: opts.Output,
	}
	s.jobs[id] = job
	s.writing[opts.Output] = id
	snapshot := *job
	s.mu.Unlock()

	logger := s.logger.With("job", job.ID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.runSafely(opts, logger)
		s.finish(job.ID, result, err)
	}()

	return snapshot, nil
}

func (s *Server) runSafely(opts proxier.Options, logger *slog.Logger) (result *proxier.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()
	return s.Run(context.Background(), opts, logger)
}

func (s *Server) finish(id string, result *proxier.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.jobs[id]
	delete(s.writing, job.Output)
	switch {
	case err != nil:
		job.State = StateFailed
		job.Error = err.Error()
		s.logger.Warn("generation failed", "job", id, "error", err)
	case result == nil || result.Empty:
		job.State = StateEmpty
	default:
		job.State = StateDone
		job.Pages = result.Stats.Pages
		job.Cards = result.Stats.Cells
		s.logger.Info("generation finished", "job", id, "pages", job.Pages)
	}
}
