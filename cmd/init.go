package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tocsync/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tocsync configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure tocsync for your project and generates a .tocsync.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
