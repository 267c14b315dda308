package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/maksimowich/fake-data-generator/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter fakegen configuration",
	Long:  `Write ` + config.FileName + ` with default settings and one example entity, and create the profiles directory.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitializeProject(); err != nil {
			return fmt.Errorf("failed to initialize project: %w", err)
		}
		color.Green("✅ Created %s", config.FileName)
		color.Cyan("💡 Set DATABASE_URL and edit the entities list, then run: fakegen generate")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
