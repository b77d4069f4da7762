package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/threatlens-cli/internal/engine"
	"github.com/xkilldash9x/threatlens-cli/internal/observability"
)

var (
	validateOutput  string
	validateSummary bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <dfd.json>",
	Short: "Check a DFD's structural integrity and security hygiene",
	Long: `Validate runs structural checks (blocking errors) and security-hygiene
checks (advisory warnings) over a DFD file. With --summary it also includes
the security-issue lens and a completeness checklist.

The command exits non-zero when the DFD is structurally invalid; warnings
alone never fail the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dfd, err := loadDFD(args[0])
		if err != nil {
			return err
		}

		eng := engine.New(observability.GetLogger())

		if validateSummary {
			summary := eng.Summary(dfd)
			if err := writeArtifact(validateOutput, summary); err != nil {
				return err
			}
			if !summary.Validation.Valid {
				return &engine.ValidationError{Result: summary.Validation}
			}
			return nil
		}

		result := eng.Validate(dfd)
		if err := writeArtifact(validateOutput, result); err != nil {
			return err
		}
		if !result.Valid {
			return &engine.ValidationError{Result: result}
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "", "output path (default stdout)")
	validateCmd.Flags().BoolVar(&validateSummary, "summary", false, "include security issues and completeness checklist")
	rootCmd.AddCommand(validateCmd)
}
