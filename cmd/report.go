package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/threatlens-cli/internal/engine"
	"github.com/xkilldash9x/threatlens-cli/internal/observability"
)

var (
	reportOutput   string
	reportDedup    bool
	reportParallel bool
)

var reportCmd = &cobra.Command{
	Use:   "report <dfd.json>",
	Short: "Generate a threat model and synthesize its executive report",
	Long: `Report runs the full chain: validation, threat generation, and report
synthesis. The output contains the executive summary, per-subject analyses,
the STRIDE breakdown, and prioritized recommendations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dfd, err := loadDFD(args[0])
		if err != nil {
			return err
		}

		eng := engine.New(observability.GetLogger())
		model, err := eng.Generate(cmd.Context(), dfd, engine.Options{
			Dedup:    reportDedup || cfg.Engine.Dedup,
			Parallel: reportParallel || cfg.Engine.Parallel,
		})
		if err != nil {
			return err
		}

		return writeArtifact(reportOutput, eng.Report(model, dfd))
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output path (default stdout)")
	reportCmd.Flags().BoolVar(&reportDedup, "dedup", false, "collapse findings sharing (subject, category, STRIDE set)")
	reportCmd.Flags().BoolVar(&reportParallel, "parallel", false, "analyze subjects concurrently")
	rootCmd.AddCommand(reportCmd)
}
