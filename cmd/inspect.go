package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tocsync/internal/toc"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect PAGE",
	Short: "Print the table of contents state of a built page",
	Long: `Loads PAGE from site_dir, binds its table of contents and prints every
entry with its depth and expansion state. --highlight and --click replay
what a reader would do before the state is printed.`,
	Example: `  tocsync inspect guide/install.html --fragment debian
  tocsync inspect guide/install.html --highlight '#usage' --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("fragment", "", "URL fragment the page is opened with")
	inspectCmd.Flags().String("highlight", "", "href the theme highlights, as a scroll-spy would")
	inspectCmd.Flags().String("click", "", "href of a TOC link to click")
	inspectCmd.Flags().Bool("json", false, "print the state as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ref := args[0]
	if f, _ := cmd.Flags().GetString("fragment"); f != "" {
		ref += "#" + strings.TrimPrefix(f, "#")
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cfg, log, ref)
	if err != nil {
		return err
	}
	defer sess.Close()

	if href, _ := cmd.Flags().GetString("click"); href != "" {
		if err := sess.Click(ctx, href); err != nil {
			return fmt.Errorf("clicking %s: %w", href, err)
		}
	}
	if href, _ := cmd.Flags().GetString("highlight"); href != "" {
		if err := sess.Highlight(ctx, href); err != nil {
			return fmt.Errorf("highlighting %s: %w", href, err)
		}
	}

	st, err := sess.State(ctx)
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	printState(cmd.OutOrStdout(), st)
	return nil
}

// printState writes the state as an indented outline. Collapsed branches
// show [+], expanded ones [-], and the active entry is starred.
func printState(w io.Writer, st toc.State) {
	fmt.Fprintf(w, "%s", st.Page)
	if st.Fragment != "" {
		fmt.Fprintf(w, " (%s)", st.Fragment)
	}
	fmt.Fprintln(w)
	if !st.Bound {
		fmt.Fprintln(w, "  no table of contents")
		return
	}

	parents := make(map[int]bool, len(st.Items))
	for _, it := range st.Items {
		if it.Parent >= 0 {
			parents[it.Parent] = true
		}
	}
	for i, it := range st.Items {
		marker := "   "
		if parents[i] {
			marker = "[+]"
			if it.Expanded {
				marker = "[-]"
			}
		}
		active := " "
		if it.Active {
			active = "*"
		}
		hidden := ""
		if !st.Visible(i) {
			hidden = " (hidden)"
		}
		fmt.Fprintf(w, "%s %s%s %s %s  level=%d%s\n",
			active, strings.Repeat("  ", it.Depth-1), marker, it.Title, it.Target, it.Depth, hidden)
	}
}
