package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
	"github.com/xkilldash9x/threatlens-cli/internal/generate"
	"github.com/xkilldash9x/threatlens-cli/internal/reporting"
)

// loadDFD reads and decodes a DFD JSON file. Decode errors are reported as
// such; structural problems are the validator's job, not this loader's.
func loadDFD(path string) (*schemas.DFDModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read DFD file %s: %w", path, err)
	}
	var dfd schemas.DFDModel
	if err := json.Unmarshal(data, &dfd); err != nil {
		return nil, fmt.Errorf("failed to decode DFD file %s: %w", path, err)
	}
	return &dfd, nil
}

// loadOverlay reads a mitigation overlay file: a JSON object keyed by
// "<subject id>/<pattern id>" with string-list values.
func loadOverlay(path string) (map[generate.OverlayKey][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay file %s: %w", path, err)
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode overlay file %s: %w", path, err)
	}

	overlay := make(map[generate.OverlayKey][]string, len(raw))
	for key, mitigations := range raw {
		subjectID, patternID, ok := splitOverlayKey(key)
		if !ok {
			return nil, fmt.Errorf("overlay key %q is not of the form <subject id>/<pattern id>", key)
		}
		overlay[generate.OverlayKey{SubjectID: subjectID, PatternID: patternID}] = mitigations
	}
	return overlay, nil
}

func splitOverlayKey(key string) (subjectID, patternID string, ok bool) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[:i], key[i+1:], key[:i] != "" && key[i+1:] != ""
		}
	}
	return "", "", false
}

// writeArtifact serializes one artifact to the output path (stdout when
// empty).
func writeArtifact(outputPath string, artifact any) error {
	writer, err := reporting.NewWriter(outputPath)
	if err != nil {
		return err
	}
	defer writer.Close()
	return writer.Write(artifact)
}
