// Package engine composes the validator, generator, and report synthesizer
// behind one facade that enforces the validate-before-generate precondition.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
	"github.com/xkilldash9x/threatlens-cli/internal/generate"
	"github.com/xkilldash9x/threatlens-cli/internal/patterns"
	"github.com/xkilldash9x/threatlens-cli/internal/reporting"
	"github.com/xkilldash9x/threatlens-cli/internal/validate"
)

// ErrValidationFailed marks generation attempts against a structurally
// invalid DFD. The engine never produces fallback output in that case.
var ErrValidationFailed = errors.New("DFD failed structural validation")

// ValidationError carries the validator's blocking errors alongside the
// sentinel.
type ValidationError struct {
	Result schemas.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("DFD failed structural validation: %s", strings.Join(e.Result.Errors, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Engine is the caller-facing surface over the threat inference core. It is
// stateless across calls and safe for concurrent use.
type Engine struct {
	validator   *validate.Validator
	generator   *generate.Generator
	synthesizer *reporting.Synthesizer
	lib         *patterns.Library
	log         *zap.Logger
}

// Options tunes generation runs made through the engine.
type Options struct {
	// Dedup enables the opt-in duplicate-collapsing pass.
	Dedup bool
	// Parallel analyzes subjects concurrently; output is unchanged.
	Parallel bool
}

// New wires an Engine over the compiled-in pattern catalog.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib := patterns.Default()
	return &Engine{
		validator:   validate.New(logger),
		generator:   generate.New(lib, logger),
		synthesizer: reporting.NewSynthesizer(logger),
		lib:         lib,
		log:         logger.Named("engine"),
	}
}

// Validate runs structural validation. It never fails; blocking problems come
// back as error strings in the result.
func (e *Engine) Validate(dfd *schemas.DFDModel) schemas.ValidationResult {
	return e.validator.Validate(dfd)
}

// ValidateSecurity runs the security-only lens over the DFD.
func (e *Engine) ValidateSecurity(dfd *schemas.DFDModel) []schemas.SecurityIssue {
	return e.validator.ValidateSecurity(dfd)
}

// Summary merges structural validation, security issues, and the
// completeness checklist.
func (e *Engine) Summary(dfd *schemas.DFDModel) schemas.DFDSummary {
	return e.validator.Summary(dfd)
}

// Generate validates the DFD and, only if it passes, runs threat generation.
// An invalid DFD returns a *ValidationError and no model.
func (e *Engine) Generate(ctx context.Context, dfd *schemas.DFDModel, opts Options) (*schemas.ThreatModel, error) {
	return e.generate(ctx, dfd, generate.Options{
		Dedup:    opts.Dedup,
		Parallel: opts.Parallel,
	})
}

// Regenerate is the second phase of the overlay workflow: after inspecting a
// model from Generate, callers re-run generation with extra mitigations keyed
// by (subject id, pattern id). Those keys are stable across runs on the same
// DFD, unlike finding ids.
func (e *Engine) Regenerate(ctx context.Context, dfd *schemas.DFDModel, overlay map[generate.OverlayKey][]string, opts Options) (*schemas.ThreatModel, error) {
	return e.generate(ctx, dfd, generate.Options{
		Overlay:  overlay,
		Dedup:    opts.Dedup,
		Parallel: opts.Parallel,
	})
}

func (e *Engine) generate(ctx context.Context, dfd *schemas.DFDModel, opts generate.Options) (*schemas.ThreatModel, error) {
	result := e.validator.Validate(dfd)
	if !result.Valid {
		e.log.Warn("Refusing to generate threat model for invalid DFD",
			zap.Int("errors", len(result.Errors)))
		return nil, &ValidationError{Result: result}
	}
	return e.generator.GenerateThreatModel(ctx, dfd, opts)
}

// Report synthesizes the reader-facing report for an existing threat model.
func (e *Engine) Report(model *schemas.ThreatModel, dfd *schemas.DFDModel) *schemas.Report {
	return e.synthesizer.Synthesize(model, dfd)
}

// Patterns exposes the read-only pattern library.
func (e *Engine) Patterns() *patterns.Library {
	return e.lib
}
