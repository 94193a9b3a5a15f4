package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gugo-beep/bazi-backend/config"
	"github.com/gugo-beep/bazi-backend/upgrade"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade the legacy pillar database",
	Long: `Copy every row of the legacy Pillars table into a freshly created database,
decomposing gregorian_datetime and lunar_date_str into integer columns, then
build the lunar and pillar lookup indexes.

  - An existing target is deleted and rebuilt (disable with --overwrite=false).
  - Rows whose lunar date cannot be parsed are skipped and logged.
  - A malformed gregorian_datetime aborts the run; rerun after fixing the source.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(v)
		if err := cfg.ValidateUpgrade(); err != nil {
			return err
		}

		m := upgrade.New(logger, upgrade.WithOverwrite(cfg.Overwrite))
		report, err := m.Run(cmd.Context(), cfg.Source, cfg.Target)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "migrated %d of %d records (%d skipped) into %s\n",
			report.Succeeded, report.Total, report.Skipped, cfg.Target)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringP("source", "s", "./data/bazi_data.db", "legacy database path")
	migrateCmd.Flags().StringP("target", "t", "./data/bazi_data_v2.db", "upgraded database path")
	migrateCmd.Flags().Bool("overwrite", true, "replace an existing target")
	bindFlags(migrateCmd.Flags(), map[string]string{
		config.KeySource:    "source",
		config.KeyTarget:    "target",
		config.KeyOverwrite: "overwrite",
	})
}
