package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var profileEntity string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Sample sources and store their column profiles",
	Long: `Sample each configured source (or only --entity), profile its columns and save
the profile under the destination name in the configured profile store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRunner(ctx, cmd)
		if err != nil {
			return err
		}
		defer r.Close()

		entities, err := r.entities(profileEntity)
		if err != nil {
			return err
		}

		for _, e := range entities {
			if e.Source == "" {
				color.Yellow("⚠️  Skipping %s: no source to sample", e.Destination)
				continue
			}
			color.Cyan("🔍 Profiling %s...", e.Source)
			doc, err := r.seeder.SaveProfile(ctx, e)
			if err != nil {
				return err
			}
			color.Green("✅ Saved profile %s (%d columns)", doc.Entity, len(doc.Columns))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVar(&profileEntity, "entity", "", "Profile only this destination")
}
