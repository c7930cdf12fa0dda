package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/arcanaland/proxier/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run generations from an HTTP API",
	Long: `Serve starts an HTTP server that runs generations in the background.

  POST /api/generate   {"source": "...", "output": "..."}  -> 202 {"id": "..."}
  GET  /api/jobs/:id   job state: running, done, empty or failed
  GET  /api/qr?text=   PNG QR code
  GET  /api/health

Documents are written under the output directory. A request may name a
relative path inside it; otherwise the job writes job-<id>.pdf. A path that a
running job is still writing is rejected with 409.

Layout and download settings come from the config file and the layout flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := commandLogger(cmd)
		addr, _ := cmd.Flags().GetString("addr")
		verbose, _ := cmd.Flags().GetBool("verbose")

		defaults, err := buildOptions(cmd, "")
		if err != nil {
			return err
		}
		outputDir, _ := cmd.Flags().GetString("output-dir")
		if outputDir == "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			outputDir = cfg.OutputDir
		}

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(defaults, outputDir, logger)
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Engine(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- httpServer.ListenAndServe()
		}()
		fmt.Printf("Listening on http://%s\n", addr)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down, waiting for running jobs")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down: %w", err)
		}
		srv.Wait()
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "localhost:8080", "Address to listen on")
	serveCmd.Flags().StringP("output-dir", "o", "", "Directory job documents are written to (default <output_dir> from the config)")
	addLayoutFlags(serveCmd)
}
