package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tocsync/internal/config"
	"github.com/ziadkadry99/tocsync/internal/progress"
	"github.com/ziadkadry99/tocsync/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the static documentation site",
	Long: `Converts the markdown in docs_dir into a static HTML site in site_dir.
Each page's table of contents is prerendered with depth attributes, and the
page structure is recorded in the site index used by serve.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "override site_dir")
	buildCmd.Flags().Bool("minify", false, "minify pages and assets (overrides config)")
	buildCmd.Flags().Bool("no-prerender", false, "leave depth attributes to the live client")
	buildCmd.Flags().Bool("serve", false, "serve the site after building")
	buildCmd.Flags().Int("port", 0, "port for --serve (defaults to server.port)")
	buildCmd.Flags().Bool("open", false, "open the browser when serving")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.SiteDir = out
	}
	if cmd.Flags().Changed("minify") {
		cfg.Minify, _ = cmd.Flags().GetBool("minify")
	}
	if noPre, _ := cmd.Flags().GetBool("no-prerender"); noPre {
		cfg.Prerender = false
	}

	res, err := build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	fmt.Printf("Static site generated: %s (%d pages, %d assets)\n", cfg.SiteDir, res.Pages, res.Assets)

	if serve, _ := cmd.Flags().GetBool("serve"); serve {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		open, _ := cmd.Flags().GetBool("open")
		return serveSite(cmd.Context(), cfg, log, open)
	}
	return nil
}

func build(ctx context.Context, cfg *config.Config, log *zap.Logger) (site.Result, error) {
	schema, err := cfg.Schema()
	if err != nil {
		return site.Result{}, err
	}

	var reporter progress.Reporter = progress.Nop{}
	if cfg.Log.Level != config.LogNone {
		reporter = progress.NewReporter("Building pages")
	}

	g, err := site.NewSiteGenerator(site.Options{
		DocsDir:   cfg.DocsDir,
		OutputDir: cfg.SiteDir,
		SiteName:  cfg.SiteName,
		Include:   cfg.Include,
		Exclude:   cfg.Exclude,
		Minify:    cfg.Minify,
		Prerender: cfg.Prerender,
		Schema:    schema,
	}, log, reporter)
	if err != nil {
		return site.Result{}, err
	}
	res, err := g.Generate(ctx)
	if err != nil {
		return res, fmt.Errorf("generating site: %w", err)
	}
	return res, nil
}
