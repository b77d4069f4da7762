package schemas

// -- Validation & Report Schemas --

// ValidationResult is the outcome of structural validation. Errors block
// downstream use of the DFD; warnings are advisory and never block.
type ValidationResult struct {
	Valid              bool     `json:"valid"`
	Errors             []string `json:"errors"`
	Warnings           []string `json:"warnings"`
	ElementCount       int      `json:"elementCount"`
	DataflowCount      int      `json:"dataflowCount"`
	TrustBoundaryCount int      `json:"trustBoundaryCount"`
}

// SecurityIssue is a single severity-tagged issue from the security-only
// validation lens.
type SecurityIssue struct {
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	SubjectID string   `json:"subjectId,omitempty"`
}

// CompletenessChecklist records which hygiene boxes a DFD ticks. It feeds the
// validation summary, not the pass/fail decision.
type CompletenessChecklist struct {
	HasDescription       bool `json:"hasDescription"`
	HasTrustBoundaries   bool `json:"hasTrustBoundaries"`
	AllElementsConnected bool `json:"allElementsConnected"`
	AllDataflowsSecured  bool `json:"allDataflowsSecured"`
}

// DFDSummary merges structural validation, security issues, and the
// completeness checklist into one view.
type DFDSummary struct {
	Validation     ValidationResult      `json:"validation"`
	SecurityIssues []SecurityIssue       `json:"securityIssues"`
	Completeness   CompletenessChecklist `json:"completeness"`
}

// ExecutiveSummary heads the synthesized report.
type ExecutiveSummary struct {
	TotalThreats int         `json:"totalThreats"`
	RiskSummary  RiskSummary `json:"riskSummary"`
	OverallRisk  Severity    `json:"overallRisk"`
	DFDName      string      `json:"dfdName"`
}

// SubjectAnalysis groups the findings attached to one element or dataflow.
// Subjects with zero findings never appear in a report.
type SubjectAnalysis struct {
	SubjectID   string          `json:"subjectId"`
	SubjectName string          `json:"subjectName"`
	SubjectType string          `json:"subjectType,omitempty"` // Elements only.
	From        string          `json:"from,omitempty"`        // Dataflows only.
	To          string          `json:"to,omitempty"`          // Dataflows only.
	ThreatCount int             `json:"threatCount"`
	Threats     []ThreatFinding `json:"threats"`
}

// Recommendation is one prioritized action item in the report.
type Recommendation struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
}

// Report is the synthesized, reader-facing aggregation of a threat model.
type Report struct {
	Summary          ExecutiveSummary                   `json:"executiveSummary"`
	ElementsAnalysis []SubjectAnalysis                  `json:"elementsAnalysis"`
	DataflowAnalysis []SubjectAnalysis                  `json:"dataflowAnalysis"`
	StrideBreakdown  map[StrideCategory][]ThreatFinding `json:"strideBreakdown"`
	Recommendations  []Recommendation                   `json:"recommendations"`
}
