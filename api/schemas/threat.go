package schemas

import "time"

// -- Threat Schemas --

// Severity represents the severity level of a threat finding.
type Severity string

// Constants defining the standard severity levels for findings.
const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// severityRanks is the total order used for sorting and escalation. Lower
// rank sorts first.
var severityRanks = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the sort rank of the severity (Critical 0 .. Low 3). Unknown
// severities rank last.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return len(severityRanks)
}

// Valid reports whether s is one of the four defined levels.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// StrideCategory is one of the six STRIDE threat classes.
type StrideCategory string

// The six fixed STRIDE categories.
const (
	StrideSpoofing              StrideCategory = "Spoofing"
	StrideTampering             StrideCategory = "Tampering"
	StrideRepudiation           StrideCategory = "Repudiation"
	StrideInformationDisclosure StrideCategory = "Information Disclosure"
	StrideDenialOfService       StrideCategory = "Denial of Service"
	StrideElevationOfPrivilege  StrideCategory = "Elevation of Privilege"
)

// AllStrideCategories lists the six categories in canonical order.
var AllStrideCategories = []StrideCategory{
	StrideSpoofing,
	StrideTampering,
	StrideRepudiation,
	StrideInformationDisclosure,
	StrideDenialOfService,
	StrideElevationOfPrivilege,
}

// SubjectKind distinguishes what a finding is attached to.
type SubjectKind string

// Subject kinds for findings.
const (
	SubjectElement  SubjectKind = "element"
	SubjectDataflow SubjectKind = "dataflow"
)

// ThreatPattern is a reusable threat template from the static library. The
// catalog is fixed at build time and never mutated at runtime.
type ThreatPattern struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Stride      []StrideCategory `json:"stride"`
	Severity    Severity         `json:"severity"` // Baseline, before trust escalation.
	Impact      string           `json:"impact"`

	// Applicability: a pattern either targets a set of element types, or
	// targets dataflows (optionally restricted to certain protocols).
	AppliesTo         []ElementType `json:"appliesTo,omitempty"`
	AppliesToDataflow bool          `json:"appliesToDataflow,omitempty"`
	Protocols         []string      `json:"protocols,omitempty"` // Allow-list; empty means any protocol.

	Mitigations   []string `json:"mitigations"`
	OWASPCategory string   `json:"owaspCategory"`
}

// SubjectRef identifies the element or dataflow a finding is attached to.
// For dataflows, ElementType carries the literal "dataflow" marker.
type SubjectRef struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type string      `json:"type"`
}

// ThreatFinding is one inferred threat instance tied to one subject. IDs are
// generated per occurrence and are not stable across regenerations.
type ThreatFinding struct {
	ID          string           `json:"id"`
	PatternID   string           `json:"patternId,omitempty"` // Empty for synthesized (non-pattern) findings.
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Stride      []StrideCategory `json:"stride"`
	Severity    Severity         `json:"severity"`
	Likelihood  string           `json:"likelihood"`
	Impact      string           `json:"impact"`

	Mitigations   []string `json:"mitigations"`
	OWASPCategory string   `json:"owaspCategory"`

	Subject SubjectRef `json:"subject"`
}

// HasStride reports whether the finding carries the given STRIDE tag.
func (f *ThreatFinding) HasStride(c StrideCategory) bool {
	for _, s := range f.Stride {
		if s == c {
			return true
		}
	}
	return false
}

// RiskSummary tallies findings per severity level.
type RiskSummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the sum of all severity buckets.
func (r RiskSummary) Total() int {
	return r.Critical + r.High + r.Medium + r.Low
}

// Add increments the bucket for the given severity.
func (r *RiskSummary) Add(s Severity) {
	switch s {
	case SeverityCritical:
		r.Critical++
	case SeverityHigh:
		r.High++
	case SeverityMedium:
		r.Medium++
	case SeverityLow:
		r.Low++
	}
}

// ThreatModel is the output of one generation run: findings sorted by
// severity rank (stable on ties), plus aggregate counts. Produced fresh on
// every invocation; never persisted or reused by the engine itself.
type ThreatModel struct {
	ID           string          `json:"id"`
	DFDID        string          `json:"dfdId"`
	DFDName      string          `json:"dfdName"`
	Findings     []ThreatFinding `json:"findings"`
	TotalThreats int             `json:"totalThreats"`
	RiskSummary  RiskSummary     `json:"riskSummary"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// LibraryMetadata is the aggregate introspection view over the pattern
// catalog.
type LibraryMetadata struct {
	Version               string           `json:"version"`
	Source                string           `json:"source"`
	TotalPatterns         int              `json:"totalPatterns"`
	Categories            []string         `json:"categories"`
	StrideCoverage        []StrideCategory `json:"strideCoverage"`
	SupportedSubjectTypes []string         `json:"supportedSubjectTypes"`
}
