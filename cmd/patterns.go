package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/threatlens-cli/internal/patterns"
)

var (
	patternsType     string
	patternsSearch   string
	patternsCategory string
	patternsOutput   string
)

var patternsCmd = &cobra.Command{
	Use:   "patterns [pattern id]",
	Short: "Inspect the built-in threat pattern catalog",
	Long: `Patterns lists catalog metadata by default. With a pattern id argument it
prints that pattern; --type, --search, and --category filter the catalog.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib := patterns.Default()

		var artifact any
		switch {
		case len(args) == 1:
			p, ok := lib.ByID(args[0])
			if !ok {
				return fmt.Errorf("no pattern with id %q", args[0])
			}
			artifact = p
		case patternsType != "":
			artifact = lib.ForType(patternsType)
		case patternsSearch != "":
			artifact = lib.Search(patternsSearch)
		case patternsCategory != "":
			artifact = lib.ByCategory(patternsCategory)
		default:
			artifact = lib.Metadata()
		}

		return writeArtifact(patternsOutput, artifact)
	},
}

func init() {
	patternsCmd.Flags().StringVar(&patternsType, "type", "", "list patterns for a subject type (actor, process, datastore, external_entity, dataflow)")
	patternsCmd.Flags().StringVar(&patternsSearch, "search", "", "case-insensitive substring search over title, description, category")
	patternsCmd.Flags().StringVar(&patternsCategory, "category", "", "list patterns in a category")
	patternsCmd.Flags().StringVarP(&patternsOutput, "output", "o", "", "output path (default stdout)")
	rootCmd.AddCommand(patternsCmd)
}
