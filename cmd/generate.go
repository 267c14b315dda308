package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/maksimowich/fake-data-generator/internal/export"
	"github.com/spf13/cobra"
)

var (
	dryRun       bool
	exportDir    string
	exportFormat string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic rows for every configured entity",
	Long: `Sample each configured source, profile its columns and write output_size synthetic
rows to the destination. Entities are generated in foreign key dependency order;
entities with a profile and no source are generated from the stored profile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRunner(ctx, cmd)
		if err != nil {
			return err
		}
		defer r.Close()

		entities, err := r.entities("")
		if err != nil {
			return err
		}

		var capture *export.Capture
		if dryRun {
			capture = export.NewCapture(r.adapter)
			r.seeder.Adapter = capture
			color.Cyan("🧪 Dry run: destinations are written to %s instead", exportDir)
		}

		results, err := r.seeder.Seed(ctx, entities)
		if err != nil {
			return err
		}

		if capture != nil {
			path, err := capture.Write(ctx, exportDir, exportFormat)
			if err != nil {
				return fmt.Errorf("failed to export generated data: %w", err)
			}
			color.Green("📦 Exported to %s", path)
		}

		fmt.Println()
		for _, res := range results {
			if len(res.ColumnErrors) > 0 {
				color.Yellow("⚠️  %s: %d rows, %d columns emitted as nulls", res.Entity, res.Rows, len(res.ColumnErrors))
			} else {
				color.Green("✅ %s: %d rows", res.Entity, res.Rows)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addGenerationFlags(generateCmd)
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write generated rows to export files instead of the destinations")
	generateCmd.Flags().StringVar(&exportDir, "out", "export", "Directory for --dry-run output")
	generateCmd.Flags().StringVar(&exportFormat, "format", "json", "Format for --dry-run output (json, csv, sqlite)")
}
