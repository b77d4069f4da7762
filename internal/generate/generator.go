// Package generate implements the threat inference core: it matches a
// validated DFD against the pattern library, synthesizes supplementary
// findings from derived role flags, escalates severity by trust context, and
// assembles the result into an ordered threat model.
//
// The generator assumes its input already passed structural validation
// (internal/validate). It fails fast with a typed precondition error when the
// input is not even iterable, but it does not re-run structural checks.
package generate

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
	"github.com/xkilldash9x/threatlens-cli/internal/patterns"
)

// Pseudo pattern ids for the synthesized (non-catalog) findings. They give
// overlay keys something stable to reference across regenerations.
const (
	SynthExternalActor = "TL-SYN-EXT"
	SynthDataAccess    = "TL-SYN-DST"
	SynthPrivEsc       = "TL-SYN-PRC"
	SynthMITM          = "TL-SYN-MITM"
	SynthDataExposure  = "TL-SYN-EXPOSURE"
)

// OverlayKey addresses a finding by its subject and originating pattern.
// Unlike finding ids, both parts are stable across regenerations of the same
// DFD, which is what makes the two-phase overlay workflow possible.
type OverlayKey struct {
	SubjectID string
	PatternID string
}

// Options tunes a single generation run.
type Options struct {
	// Overlay appends extra mitigations (no dedup) to every finding whose
	// subject and pattern match a key.
	Overlay map[OverlayKey][]string

	// Dedup enables the opt-in post-processing pass that collapses findings
	// sharing (subject, category, STRIDE set). Off by default: overlapping
	// findings from pattern matching and flag synthesis are a deliberate
	// breadth-over-precision choice.
	Dedup bool

	// Parallel analyzes subjects concurrently. Per-subject analysis is
	// independent; results are joined before the sort barrier, so output is
	// identical to the sequential path.
	Parallel bool
}

// Generator derives threat models from validated DFDs. It is stateless
// across calls and safe for concurrent use.
type Generator struct {
	lib *patterns.Library
	log *zap.Logger
	now func() time.Time
}

// New creates a Generator over the given library. A nil library uses the
// compiled-in catalog; a nil logger is replaced with a no-op one.
func New(lib *patterns.Library, logger *zap.Logger) *Generator {
	if lib == nil {
		lib = patterns.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		lib: lib,
		log: logger.Named("generator"),
		now: time.Now,
	}
}

// GenerateThreatModel runs the full inference pass over a validated DFD.
//
// Precondition: dfd must have passed validate.Validate. Inputs that are not
// iterable at all (nil model, nil element sequence) fail fast with an error
// wrapping ErrMalformedDFD; structurally invalid-but-iterable DFDs produce
// unspecified findings.
func (g *Generator) GenerateThreatModel(ctx context.Context, dfd *schemas.DFDModel, opts Options) (*schemas.ThreatModel, error) {
	if dfd == nil {
		return nil, &PreconditionError{Reason: "dfd is nil"}
	}
	if dfd.Elements == nil {
		return nil, &PreconditionError{Reason: "dfd has no element sequence"}
	}

	subjects := collectSubjects(dfd)

	var findings []schemas.ThreatFinding
	var err error
	if opts.Parallel {
		findings, err = g.analyzeParallel(ctx, subjects)
	} else {
		findings, err = g.analyzeSequential(ctx, subjects)
	}
	if err != nil {
		return nil, err
	}

	// Global barrier: every per-subject analysis is joined before ordering.
	// The sort is stable, so ties keep discovery order (elements before
	// dataflows, each in input order).
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() < findings[j].Severity.Rank()
	})

	if opts.Dedup {
		findings = dedupFindings(findings)
	}
	g.applyOverlay(findings, opts.Overlay)

	model := &schemas.ThreatModel{
		ID:        uuid.NewString(),
		DFDID:     dfd.ID,
		DFDName:   dfd.Name,
		Findings:  findings,
		CreatedAt: g.now().UTC(),
	}
	for i := range findings {
		model.RiskSummary.Add(findings[i].Severity)
	}
	model.TotalThreats = len(findings)

	g.log.Info("Threat model generated",
		zap.String("dfd_id", dfd.ID),
		zap.Int("findings", model.TotalThreats),
		zap.Int("critical", model.RiskSummary.Critical))
	return model, nil
}

// subject is one unit of analysis: exactly one of element/dataflow is set.
type subject struct {
	element  *schemas.Element
	dataflow *schemas.Dataflow
}

func collectSubjects(dfd *schemas.DFDModel) []subject {
	subjects := make([]subject, 0, len(dfd.Elements)+len(dfd.Dataflows))
	for i := range dfd.Elements {
		subjects = append(subjects, subject{element: &dfd.Elements[i]})
	}
	for i := range dfd.Dataflows {
		subjects = append(subjects, subject{dataflow: &dfd.Dataflows[i]})
	}
	return subjects
}

func (g *Generator) analyzeSequential(ctx context.Context, subjects []subject) ([]schemas.ThreatFinding, error) {
	var findings []schemas.ThreatFinding
	for _, s := range subjects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		findings = append(findings, g.analyzeSubject(s)...)
	}
	return findings, nil
}

// analyzeParallel fans out per-subject work and reassembles results in
// subject order, so the stable sort sees the same discovery order as the
// sequential path.
func (g *Generator) analyzeParallel(ctx context.Context, subjects []subject) ([]schemas.ThreatFinding, error) {
	perSubject := make([][]schemas.ThreatFinding, len(subjects))
	eg, ctx := errgroup.WithContext(ctx)
	for i, s := range subjects {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perSubject[i] = g.analyzeSubject(s)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var findings []schemas.ThreatFinding
	for _, fs := range perSubject {
		findings = append(findings, fs...)
	}
	return findings, nil
}

func (g *Generator) analyzeSubject(s subject) []schemas.ThreatFinding {
	if s.element != nil {
		return g.analyzeElement(s.element)
	}
	return g.analyzeDataflow(s.dataflow)
}

// analyzeElement produces pattern-derived findings plus the fixed role-flag
// findings. The two sources are deliberately not deduplicated against each
// other.
func (g *Generator) analyzeElement(el *schemas.Element) []schemas.ThreatFinding {
	var findings []schemas.ThreatFinding
	ref := elementRef(el)

	elType, _ := schemas.NormalizeElementType(string(el.Type))
	for _, p := range g.lib.ForType(string(el.Type)) {
		if !patternAppliesToElement(p, elType) {
			continue
		}
		severity := escalateElementSeverity(p.Severity, el.TrustLevel)
		findings = append(findings, newFinding(p, severity, ref))
	}

	if el.IsExternalEntity() {
		findings = append(findings, synthesized(SynthExternalActor, ref, schemas.ThreatFinding{
			Title:       "Malicious External Actor",
			Description: "This external entity operates outside the design's control; a hostile or compromised counterpart can impersonate it or deny its interactions.",
			Category:    "Trust Boundary",
			Stride:      []schemas.StrideCategory{schemas.StrideSpoofing, schemas.StrideRepudiation},
			Severity:    schemas.SeverityHigh,
			Impact:      "Hostile input enters the system carrying the external entity's implicit trust.",
			Mitigations: []string{
				"Authenticate every interaction with this entity",
				"Treat all data it supplies as untrusted input",
				"Log cross-boundary exchanges for later reconstruction",
			},
			OWASPCategory: "A07:2021 Identification and Authentication Failures",
		}))
	}
	if el.IsDatastore() {
		findings = append(findings, synthesized(SynthDataAccess, ref, schemas.ThreatFinding{
			Title:       "Unauthorized Data Access",
			Description: "An attacker who bypasses or subverts access controls reads or alters records held in this datastore.",
			Category:    "Data Protection",
			Stride:      []schemas.StrideCategory{schemas.StrideInformationDisclosure, schemas.StrideTampering},
			Severity:    schemas.SeverityCritical,
			Impact:      "Direct disclosure or corruption of everything the store holds.",
			Mitigations: []string{
				"Require authenticated, authorized access for every read and write",
				"Encrypt stored data and audit access paths",
				"Alert on anomalous query volumes",
			},
			OWASPCategory: "A01:2021 Broken Access Control",
		}))
	}
	if el.IsProcess() {
		findings = append(findings, synthesized(SynthPrivEsc, ref, schemas.ThreatFinding{
			Title:       "Privilege Escalation",
			Description: "A flaw in this process lets a caller perform operations beyond the privileges it was granted.",
			Category:    "Authorization",
			Stride:      []schemas.StrideCategory{schemas.StrideElevationOfPrivilege},
			Severity:    schemas.SeverityHigh,
			Impact:      "The attacker gains the process's authority over downstream systems.",
			Mitigations: []string{
				"Run the process with least privilege",
				"Re-check authorization on every privileged operation",
				"Keep privilege boundaries inside the process small and explicit",
			},
			OWASPCategory: "A01:2021 Broken Access Control",
		}))
	}

	return findings
}

func (g *Generator) analyzeDataflow(df *schemas.Dataflow) []schemas.ThreatFinding {
	var findings []schemas.ThreatFinding
	ref := dataflowRef(df)

	for _, p := range g.lib.ForType(patterns.SubjectTypeDataflow) {
		if !p.AppliesToDataflow || !protocolAllowed(p, df.Protocol) {
			continue
		}
		severity := escalateDataflowSeverity(p.Severity, df)
		findings = append(findings, newFinding(p, severity, ref))
	}

	if strings.EqualFold(df.Protocol, "http") {
		findings = append(findings, synthesized(SynthMITM, ref, schemas.ThreatFinding{
			Title:       "Man-in-the-Middle Attack",
			Description: "This flow runs over plaintext HTTP; an on-path attacker can read and rewrite every message.",
			Category:    "Transport Security",
			Stride:      []schemas.StrideCategory{schemas.StrideTampering, schemas.StrideInformationDisclosure},
			Severity:    schemas.SeverityCritical,
			Impact:      "Complete loss of confidentiality and integrity for traffic on this flow.",
			Mitigations: []string{
				"Serve this flow exclusively over HTTPS",
				"Enable HSTS so clients refuse plaintext downgrade",
			},
			OWASPCategory: "A02:2021 Cryptographic Failures",
		}))
	}
	if df.HasSensitiveData {
		findings = append(findings, synthesized(SynthDataExposure, ref, schemas.ThreatFinding{
			Title:       "Sensitive Data Exposure in Transit",
			Description: "Sensitive data travels on this flow; interception anywhere along the path discloses it.",
			Category:    "Data Protection",
			Stride:      []schemas.StrideCategory{schemas.StrideInformationDisclosure},
			Severity:    schemas.SeverityCritical,
			Impact:      "Exposure of regulated or confidential data in transit.",
			Mitigations: []string{
				"Encrypt the channel end to end",
				"Minimize the sensitive fields the flow carries",
			},
			OWASPCategory: "A02:2021 Cryptographic Failures",
		}))
	}

	return findings
}

// escalateElementSeverity applies the trust-level ladder to a pattern's
// baseline: untrusted forces Critical, partially-trusted floors at Medium,
// anything else keeps the baseline.
func escalateElementSeverity(baseline schemas.Severity, trust schemas.TrustLevel) schemas.Severity {
	switch trust {
	case schemas.TrustLevelUntrusted:
		return schemas.SeverityCritical
	case schemas.TrustLevelPartiallyTrusted:
		if baseline == schemas.SeverityLow {
			return schemas.SeverityMedium
		}
	}
	return baseline
}

// escalateDataflowSeverity: sensitive data forces Critical; otherwise a
// cross-network flow raises Low to Medium and anything else to at least High.
func escalateDataflowSeverity(baseline schemas.Severity, df *schemas.Dataflow) schemas.Severity {
	if df.HasSensitiveData {
		return schemas.SeverityCritical
	}
	if df.IsCrossNetwork {
		switch baseline {
		case schemas.SeverityLow:
			return schemas.SeverityMedium
		case schemas.SeverityMedium:
			return schemas.SeverityHigh
		}
	}
	return baseline
}

func patternAppliesToElement(p schemas.ThreatPattern, elType schemas.ElementType) bool {
	if len(p.AppliesTo) == 0 {
		return true
	}
	for _, t := range p.AppliesTo {
		if t == elType {
			return true
		}
	}
	return false
}

func protocolAllowed(p schemas.ThreatPattern, protocol string) bool {
	if len(p.Protocols) == 0 {
		return true
	}
	for _, allowed := range p.Protocols {
		if strings.EqualFold(allowed, protocol) {
			return true
		}
	}
	return false
}

func newFinding(p schemas.ThreatPattern, severity schemas.Severity, ref schemas.SubjectRef) schemas.ThreatFinding {
	return schemas.ThreatFinding{
		ID:            uuid.NewString(),
		PatternID:     p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Category:      p.Category,
		Stride:        append([]schemas.StrideCategory(nil), p.Stride...),
		Severity:      severity,
		Likelihood:    likelihoodFor(severity),
		Impact:        p.Impact,
		Mitigations:   append([]string(nil), p.Mitigations...),
		OWASPCategory: p.OWASPCategory,
		Subject:       ref,
	}
}

func synthesized(patternID string, ref schemas.SubjectRef, f schemas.ThreatFinding) schemas.ThreatFinding {
	f.ID = uuid.NewString()
	f.PatternID = patternID
	f.Likelihood = likelihoodFor(f.Severity)
	f.Subject = ref
	return f
}

// likelihoodFor mirrors the severity class: the escalation ladder already
// folds trust context into severity, so likelihood tracks it.
func likelihoodFor(s schemas.Severity) string {
	switch s {
	case schemas.SeverityCritical, schemas.SeverityHigh:
		return "High"
	case schemas.SeverityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

func elementRef(el *schemas.Element) schemas.SubjectRef {
	return schemas.SubjectRef{
		Kind: schemas.SubjectElement,
		ID:   el.ID,
		Name: el.Name,
		Type: string(el.Type),
	}
}

func dataflowRef(df *schemas.Dataflow) schemas.SubjectRef {
	return schemas.SubjectRef{
		Kind: schemas.SubjectDataflow,
		ID:   df.ID,
		Name: df.Name,
		Type: patterns.SubjectTypeDataflow,
	}
}

// applyOverlay appends extra mitigations to findings addressed by
// (subject, pattern) keys. Append only, no dedup.
func (g *Generator) applyOverlay(findings []schemas.ThreatFinding, overlay map[OverlayKey][]string) {
	if len(overlay) == 0 {
		return
	}
	for i := range findings {
		key := OverlayKey{SubjectID: findings[i].Subject.ID, PatternID: findings[i].PatternID}
		if extra, ok := overlay[key]; ok {
			findings[i].Mitigations = append(findings[i].Mitigations, extra...)
		}
	}
}

// dedupFindings collapses findings sharing (subject id, category, STRIDE
// set). Findings are already severity-sorted, so the survivor of each group
// is its highest-severity representative.
func dedupFindings(findings []schemas.ThreatFinding) []schemas.ThreatFinding {
	type dedupKey struct {
		subjectID string
		category  string
		strideSet string
	}
	seen := make(map[dedupKey]struct{}, len(findings))
	out := findings[:0]
	for _, f := range findings {
		strides := make([]string, len(f.Stride))
		for i, s := range f.Stride {
			strides[i] = string(s)
		}
		sort.Strings(strides)
		key := dedupKey{
			subjectID: f.Subject.ID,
			category:  f.Category,
			strideSet: strings.Join(strides, "|"),
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
