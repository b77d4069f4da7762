package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/threatlens-cli/internal/observability"
	"github.com/xkilldash9x/threatlens-cli/internal/recognition"
)

var extractOutput string

// mime types by image file extension. The recognition service needs an
// explicit type; sniffing is not worth the dependency.
var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

var extractCmd = &cobra.Command{
	Use:   "extract <diagram image>",
	Short: "Extract a DFD from an architecture diagram image",
	Long: `Extract sends a diagram image to the configured recognition service and
prints the extracted DFD as JSON. The result has already passed structural
validation and can be fed directly to generate or report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mimeType, ok := imageMIMETypes[strings.ToLower(filepath.Ext(args[0]))]
		if !ok {
			return fmt.Errorf("unsupported image type %q (want png, jpeg, or webp)", filepath.Ext(args[0]))
		}
		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image %s: %w", args[0], err)
		}

		ctx := cmd.Context()
		recognizer, err := recognition.NewGeminiRecognizer(ctx, cfg.Recognition, observability.GetLogger())
		if err != nil {
			return err
		}

		dfd, err := recognizer.Recognize(ctx, image, mimeType)
		if err != nil {
			return err
		}
		return writeArtifact(extractOutput, dfd)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output path (default stdout)")
	rootCmd.AddCommand(extractCmd)
}
