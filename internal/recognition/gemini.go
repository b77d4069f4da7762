package recognition

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
	"github.com/xkilldash9x/threatlens-cli/internal/config"
	"github.com/xkilldash9x/threatlens-cli/internal/validate"
)

// GeminiRecognizer implements Recognizer on top of the Gemini API.
type GeminiRecognizer struct {
	client    *genai.Client
	model     string
	validator *validate.Validator
	// limiter keeps us polite toward the upstream quota.
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewGeminiRecognizer creates the collaborator client. The API key comes from
// configuration (usually the THREATLENS_RECOGNITION_API_KEY environment
// variable).
func NewGeminiRecognizer(ctx context.Context, cfg config.RecognitionConfig, logger *zap.Logger) (*GeminiRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("recognition API key is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recognition client: %w", err)
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1.0
	}

	return &GeminiRecognizer{
		client:    client,
		model:     cfg.Model,
		validator: validate.New(logger),
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		log:       logger.Named("recognition"),
	}, nil
}

// Recognize sends the diagram image to the vision model and returns the
// extracted DFD. The result is structurally validated before it is returned;
// a response that fails validation is an error, never a partial DFD.
func (r *GeminiRecognizer) Recognize(ctx context.Context, image []byte, mimeType string) (*schemas.DFDModel, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(extractionPrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := r.client.Models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("diagram recognition request failed: %w", err)
	}

	dfd, err := parseDFD(resp.Text())
	if err != nil {
		return nil, err
	}

	if result := r.validator.Validate(dfd); !result.Valid {
		r.log.Warn("Recognition produced a structurally invalid DFD",
			zap.Strings("errors", result.Errors))
		return nil, fmt.Errorf("recognized DFD failed validation: %v", result.Errors)
	}

	r.log.Info("Diagram recognized",
		zap.String("dfd_id", dfd.ID),
		zap.Int("elements", len(dfd.Elements)),
		zap.Int("dataflows", len(dfd.Dataflows)))
	return dfd, nil
}
