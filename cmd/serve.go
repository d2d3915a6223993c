package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tocsync/internal/config"
	"github.com/ziadkadry99/tocsync/internal/db"
	"github.com/ziadkadry99/tocsync/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built site with a live table of contents",
	Long: `Serves site_dir over HTTP. Pages connect back over a websocket, and the
server keeps each page's table of contents in sync with the reader's clicks,
scroll position and URL fragment. The site index is exposed under /api.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			cfg.SiteDir = dir
		}
		open, _ := cmd.Flags().GetBool("open")
		return serveSite(cmd.Context(), cfg, log, open)
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (defaults to server.port)")
	serveCmd.Flags().String("dir", "", "override site_dir")
	serveCmd.Flags().Bool("open", false, "open the browser")
	rootCmd.AddCommand(serveCmd)
}

// serveSite runs the server until ctx is done.
func serveSite(ctx context.Context, cfg *config.Config, log *zap.Logger, open bool) error {
	if _, err := os.Stat(cfg.SiteDir); err != nil {
		return fmt.Errorf("site directory %s: %w\nRun `tocsync build` first", cfg.SiteDir, err)
	}
	schema, err := cfg.Schema()
	if err != nil {
		return err
	}

	var index *db.DB
	indexPath := filepath.Join(cfg.SiteDir, db.FileName)
	if _, err := os.Stat(indexPath); err == nil {
		index, err = db.Open(indexPath)
		if err != nil {
			return fmt.Errorf("opening site index: %w", err)
		}
		defer index.Close()
	} else {
		log.Warn("no site index found, index endpoints are disabled", zap.String("path", indexPath))
	}

	srv := server.New(server.Config{
		Port:     cfg.Server.Port,
		SiteDir:  cfg.SiteDir,
		AllowAll: cfg.Server.AllowAllOrigins,
		Schema:   schema,
	}, index, log)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	fmt.Printf("Serving %s at %s, press Ctrl+C to stop\n", cfg.SiteDir, url)
	if open {
		if err := server.OpenBrowser(url); err != nil {
			log.Warn("could not open browser", zap.Error(err))
		}
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info("server stopped")
	return nil
}
