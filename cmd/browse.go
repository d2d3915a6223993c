package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tocsync/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [PAGE]",
	Short: "Explore a page's table of contents in the terminal",
	Long: `Opens PAGE (the site index page by default) from site_dir and shows its
table of contents. Enter clicks an entry; n and p move the highlight the
way scrolling would, and c clears it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		sess, err := openSession(cmd.Context(), cfg, log, ref)
		if err != nil {
			return err
		}
		defer sess.Close()
		return tui.Run(cmd.Context(), sess)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
