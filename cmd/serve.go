package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"patchimport/config"
	"patchimport/preflight"
	"patchimport/storage"
	"patchimport/web"
)

var serveOpen bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload web UI and JSON API",
	Long: `Start an HTTP server with the upload page and the JSON API.

Uploaded CSV/XLSX files are stored under the upload directory, named after their
upload time, and their normalized records are kept in the SQLite database.`,
	Example: `
  # Start server on the configured port
  patchimport serve

  # Start on a custom port and open the browser
  patchimport serve --port 9090 --open
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
			return fmt.Errorf("create upload directory: %w", err)
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		projectRoot, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		handler := newServeHandler(cfg, store, projectRoot)

		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		server := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		listenURL := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		logger.Info("listening",
			zap.String("url", listenURL),
			zap.String("upload_dir", cfg.Storage.UploadDir),
			zap.String("db_path", cfg.Storage.DBPath),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", listenURL)
		if serveOpen {
			if openErr := openURLInBrowser(listenURL); openErr != nil {
				logger.Warn("failed to open browser", zap.Error(openErr))
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", config.DefaultServerPort, "HTTP port (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the browser after the server started")

	_ = viper.BindPFlag(config.KeyServerPort, serveCmd.Flags().Lookup("port"))
}

// newServeHandler wires the upload service and readiness checks into the web
// server.
func newServeHandler(cfg *config.Config, store *storage.SQLiteStore, projectRoot string) http.Handler {
	checks := func() preflight.Report {
		return preflight.Run(preflight.Options{
			UploadDir:   cfg.Storage.UploadDir,
			DBPath:      cfg.Storage.DBPath,
			DB:          store,
			ProjectRoot: projectRoot,
		})
	}
	return web.NewServer(newUploadService(cfg, store), checks, web.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		Logger:         logger,
	})
}

func openURLInBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	return cmd.Start()
}
