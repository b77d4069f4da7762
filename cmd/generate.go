package cmd

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
	"github.com/xkilldash9x/threatlens-cli/internal/engine"
	"github.com/xkilldash9x/threatlens-cli/internal/observability"
	"github.com/xkilldash9x/threatlens-cli/internal/publish"
	"github.com/xkilldash9x/threatlens-cli/internal/store"
)

var (
	generateOutput      string
	generateOverlayFile string
	generateDedup       bool
	generateParallel    bool
	generateArchive     bool
	generatePublish     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <dfd.json>",
	Short: "Generate a threat model from a validated DFD",
	Long: `Generate validates the DFD and, if it passes, runs the threat inference
engine over it: pattern matching per element and dataflow, supplementary
role-flag findings, trust-sensitive severity escalation, and severity-ordered
assembly.

An --overlay file appends extra mitigations to findings addressed by
"<subject id>/<pattern id>" keys, the second phase of the generate-inspect-
regenerate workflow.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		dfd, err := loadDFD(args[0])
		if err != nil {
			return err
		}

		eng := engine.New(logger)
		opts := engine.Options{
			Dedup:    generateDedup || cfg.Engine.Dedup,
			Parallel: generateParallel || cfg.Engine.Parallel,
		}

		ctx := cmd.Context()
		var model *schemas.ThreatModel
		if generateOverlayFile != "" {
			overlay, err := loadOverlay(generateOverlayFile)
			if err != nil {
				return err
			}
			model, err = eng.Regenerate(ctx, dfd, overlay, opts)
			if err != nil {
				return err
			}
		} else {
			model, err = eng.Generate(ctx, dfd, opts)
			if err != nil {
				return err
			}
		}

		if generateArchive && cfg.Store.Enabled {
			pool, err := pgxpool.New(ctx, cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()
			st, err := store.New(ctx, pool, logger)
			if err != nil {
				return err
			}
			if err := st.ArchiveThreatModel(ctx, model); err != nil {
				return err
			}
		}

		if generatePublish {
			pub, err := publish.NewGitHubPublisher(cfg.Publisher, logger)
			if err != nil {
				return err
			}
			if _, err := pub.Publish(ctx, model.DFDID, model); err != nil {
				return err
			}
		}

		return writeArtifact(generateOutput, model)
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "output path (default stdout)")
	generateCmd.Flags().StringVar(&generateOverlayFile, "overlay", "", "mitigation overlay file keyed by <subject id>/<pattern id>")
	generateCmd.Flags().BoolVar(&generateDedup, "dedup", false, "collapse findings sharing (subject, category, STRIDE set)")
	generateCmd.Flags().BoolVar(&generateParallel, "parallel", false, "analyze subjects concurrently")
	generateCmd.Flags().BoolVar(&generateArchive, "archive", false, "archive the model in the configured store")
	generateCmd.Flags().BoolVar(&generatePublish, "publish", false, "publish the model to the configured repository")
	rootCmd.AddCommand(generateCmd)
}
