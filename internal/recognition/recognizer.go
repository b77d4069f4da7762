// Package recognition adapts the external diagram-recognition collaborator: a
// vision model that turns an architecture diagram image into a DFD-shaped
// JSON object. The engine consumes only the Recognizer interface; everything
// the collaborator returns must still pass structural validation before use.
package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
)

// Recognizer extracts a DFD from an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (*schemas.DFDModel, error)
}

// extractionPrompt instructs the model to emit exactly the DFD shape the
// engine's validator expects.
const extractionPrompt = `You are given an architecture or data-flow diagram.
Extract it as a JSON object with this exact shape and nothing else:
{
  "id": "<short-slug>",
  "name": "<diagram title>",
  "description": "<one sentence>",
  "elements": [{"id": "...", "name": "...", "type": "actor|process|datastore|external_entity", "trustLevel": "trusted|partially-trusted|untrusted"}],
  "dataflows": [{"id": "...", "name": "...", "from": "<element id>", "to": "<element id>", "protocol": "...", "hasSensitiveData": false, "isEncrypted": false, "isCrossNetwork": false}],
  "trustBoundaries": [{"id": "...", "name": "...", "elements": ["<element id>"]}]
}
Every dataflow's "from" and "to" must reference an element id you emitted.
Respond with the JSON object only, no markdown fencing.`

// parseDFD decodes a model response into a DFDModel, tolerating markdown
// fencing some models insist on adding.
func parseDFD(raw string) (*schemas.DFDModel, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var dfd schemas.DFDModel
	if err := json.Unmarshal([]byte(raw), &dfd); err != nil {
		return nil, fmt.Errorf("recognition response is not a DFD object: %w", err)
	}
	// Normalize loose type names once at ingestion.
	for i := range dfd.Elements {
		if t, ok := schemas.NormalizeElementType(string(dfd.Elements[i].Type)); ok {
			dfd.Elements[i].Type = t
		}
	}
	return &dfd, nil
}
