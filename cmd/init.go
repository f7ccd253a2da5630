package cmd

import (
	"github.com/spf13/cobra"

	"github.com/localbrain/brain/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a configuration file",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	_, err := config.RunWizard(cfgFile)
	return err
}
