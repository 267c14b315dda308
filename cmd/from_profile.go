package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var fromProfileEntity string

var fromProfileCmd = &cobra.Command{
	Use:   "from-profile",
	Short: "Generate rows from a stored profile without sampling",
	Long: `Load the stored profile of --entity, apply the column overrides from the config
and write output_size rows to the destination. The source is never read.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fromProfileEntity == "" {
			return fmt.Errorf("--entity is required")
		}

		ctx := cmd.Context()
		r, err := newRunner(ctx, cmd)
		if err != nil {
			return err
		}
		defer r.Close()

		entities, err := r.entities(fromProfileEntity)
		if err != nil {
			return err
		}

		res, err := r.seeder.SeedFromProfile(ctx, entities[0])
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", fromProfileEntity, err)
		}
		color.Green("✅ %s: %d rows", res.Entity, res.Rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fromProfileCmd)
	fromProfileCmd.Flags().StringVar(&fromProfileEntity, "entity", "", "Destination whose stored profile is used")
	addGenerationFlags(fromProfileCmd)
}
