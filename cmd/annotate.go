package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tocsync/internal/site"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate IN",
	Short: "Add depth and expansion attributes to a rendered HTML page",
	Long: `Reads an HTML page rendered by any Material-style theme, writes the depth
attribute on every table of contents entry and expands the branch leading
to --fragment. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().StringP("output", "o", "", "output file (defaults to stdout)")
	annotateCmd.Flags().String("fragment", "", "fragment whose branch is expanded")
	annotateCmd.Flags().Bool("minify", false, "minify the output")
	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	schema, err := cfg.Schema()
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		in = bytes.NewReader(data)
	}

	fragment, _ := cmd.Flags().GetString("fragment")
	if fragment != "" && fragment[0] != '#' {
		fragment = "#" + fragment
	}
	minified, _ := cmd.Flags().GetBool("minify")

	var out bytes.Buffer
	var n int
	if minified {
		n, err = site.AnnotateHTML(in, &out, schema, fragment, site.NewMinifier())
	} else {
		n, err = site.AnnotateHTML(in, &out, schema, fragment, nil)
	}
	if err != nil {
		return err
	}
	if n < 0 {
		log.Warn("page has no table of contents, written unchanged", zap.String("input", args[0]))
	} else {
		log.Debug("annotated", zap.String("input", args[0]), zap.Int("items", n))
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(out.Bytes())
	return err
}
