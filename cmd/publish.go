package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/threatlens-cli/internal/observability"
	"github.com/xkilldash9x/threatlens-cli/internal/publish"
)

var publishName string

var publishCmd = &cobra.Command{
	Use:   "publish <artifact.json>",
	Short: "Push a DFD or threat model artifact to the configured repository",
	Long: `Publish uploads a serialized artifact (DFD, threat model, or report) to the
configured source-control repository as a pretty JSON file under
threat-models/. The artifact is treated as opaque; no validation happens
here.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read artifact %s: %w", args[0], err)
		}
		var artifact json.RawMessage
		if err := json.Unmarshal(data, &artifact); err != nil {
			return fmt.Errorf("artifact %s is not valid JSON: %w", args[0], err)
		}

		name := publishName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		pub, err := publish.NewGitHubPublisher(cfg.Publisher, observability.GetLogger())
		if err != nil {
			return err
		}
		path, err := pub.Publish(cmd.Context(), name, artifact)
		if err != nil {
			return err
		}
		cmd.Printf("published %s\n", path)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishName, "name", "", "artifact name in the repository (default: file basename)")
	rootCmd.AddCommand(publishCmd)
}
