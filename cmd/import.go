package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/democracyclub/pollingstations-cli/internal/importer"
)

var (
	importNoClean     bool
	importBatchSize   int
	importDefinitions string
)

var importCmd = &cobra.Command{
	Use:   "import <council_id>",
	Short: "Import one council's polling station data",
	Long:  "Runs the full import for a council: teardown, fetch, transform, persist, postcode reconciliation and data quality report.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		councilID := args[0]

		if importBatchSize <= 0 {
			return eris.Errorf("batch size must be positive, got %d", importBatchSize)
		}

		definitionsPath := importDefinitions
		if definitionsPath == "" {
			definitionsPath = cfg.Data.Definitions
		}
		defs, err := importer.LoadDefinitions(definitionsPath)
		if err != nil {
			return err
		}
		def, err := importer.FindDefinition(defs, councilID)
		if err != nil {
			return err
		}

		st, closeStore, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		resolver, closeRefdata, err := initResolver(ctx)
		if err != nil {
			return err
		}
		defer closeRefdata()

		imp, err := def.Build(pointLocator(resolver))
		if err != nil {
			return err
		}

		engine := &importer.Engine{
			Store:     st,
			DataPath:  cfg.Data.PrivatePath,
			TempDir:   cfg.Data.TempDir,
			BatchSize: importBatchSize,
			NoClean:   importNoClean,
		}
		report, err := engine.Run(ctx, imp)
		if err != nil {
			return eris.Wrapf(err, "import %s", councilID)
		}

		zap.L().Info("import finished",
			zap.String("council_id", councilID),
			zap.String("run_id", report.RunID),
		)
		cmd.Print(report.String())
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importNoClean, "noclean", false, "skip post-import postcode reconciliation")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", importer.DefaultBatchSize, "address rows per transaction")
	importCmd.Flags().StringVar(&importDefinitions, "definitions", "", "override path to council definitions YAML")
	rootCmd.AddCommand(importCmd)
}
