// Package validate checks the structural integrity and security hygiene of a
// candidate DFD before it is handed to the threat generator. Validation never
// returns a Go error: blocking problems come back as error strings in the
// result, advisory problems as warnings.
package validate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
)

// insecureProtocols is the known-cleartext protocol set. Matched
// case-insensitively.
var insecureProtocols = map[string]struct{}{
	"http":   {},
	"ftp":    {},
	"telnet": {},
	"smtp":   {},
}

// Validator runs structural and security validation over DFDs. It holds no
// per-call state and is safe for concurrent use.
type Validator struct {
	log *zap.Logger
}

// New creates a Validator. A nil logger falls back to a no-op logger.
func New(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{log: logger.Named("validator")}
}

// Validate performs the full structural check. Errors block downstream use;
// warnings never do. A nil DFD is reported as a single error, not a panic.
func (v *Validator) Validate(dfd *schemas.DFDModel) schemas.ValidationResult {
	res := schemas.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	if dfd == nil {
		res.Errors = append(res.Errors, "no DFD provided")
		return res
	}

	res.ElementCount = len(dfd.Elements)
	res.DataflowCount = len(dfd.Dataflows)
	res.TrustBoundaryCount = len(dfd.TrustBoundaries)

	if dfd.ID == "" {
		res.Errors = append(res.Errors, "DFD is missing an id")
	}
	if dfd.Name == "" {
		res.Errors = append(res.Errors, "DFD is missing a name")
	}
	if len(dfd.Elements) == 0 {
		res.Errors = append(res.Errors, "DFD has no elements")
	}

	knownIDs := v.checkElements(dfd, &res)
	v.checkDataflows(dfd, knownIDs, &res)
	v.checkHygiene(dfd, &res)

	res.Valid = len(res.Errors) == 0
	v.log.Debug("Structural validation complete",
		zap.String("dfd_id", dfd.ID),
		zap.Bool("valid", res.Valid),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)))
	return res
}

// checkElements validates per-element invariants and returns the set of ids
// usable as dataflow endpoints. Duplicated ids still count as known so a
// duplicate does not cascade into bogus endpoint errors.
func (v *Validator) checkElements(dfd *schemas.DFDModel, res *schemas.ValidationResult) map[string]struct{} {
	known := make(map[string]struct{}, len(dfd.Elements))
	for i := range dfd.Elements {
		el := &dfd.Elements[i]
		if el.ID == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("element at position %d is missing an id", i))
		}
		if el.Name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("element %q is missing a name", elementLabel(el, i)))
		}
		if el.Type == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("element %q is missing a type", elementLabel(el, i)))
		} else if _, ok := schemas.NormalizeElementType(string(el.Type)); !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("element %q has unrecognized type %q", elementLabel(el, i), el.Type))
		}
		if el.ID != "" {
			if _, dup := known[el.ID]; dup {
				res.Errors = append(res.Errors, fmt.Sprintf("duplicate element id %q", el.ID))
			}
			known[el.ID] = struct{}{}
		}
	}
	return known
}

func (v *Validator) checkDataflows(dfd *schemas.DFDModel, known map[string]struct{}, res *schemas.ValidationResult) {
	seen := make(map[string]struct{}, len(dfd.Dataflows))
	for i := range dfd.Dataflows {
		df := &dfd.Dataflows[i]
		if df.ID == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("dataflow at position %d is missing an id", i))
		} else {
			if _, dup := seen[df.ID]; dup {
				res.Errors = append(res.Errors, fmt.Sprintf("duplicate dataflow id %q", df.ID))
			}
			seen[df.ID] = struct{}{}
		}
		if df.Name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("dataflow %q is missing a name", dataflowLabel(df, i)))
		}
		switch {
		case df.From == "":
			res.Errors = append(res.Errors, fmt.Sprintf("dataflow %q is missing a 'from' endpoint", dataflowLabel(df, i)))
		default:
			if _, ok := known[df.From]; !ok {
				res.Errors = append(res.Errors, fmt.Sprintf("dataflow %q references unknown 'from' element %q", dataflowLabel(df, i), df.From))
			}
		}
		switch {
		case df.To == "":
			res.Errors = append(res.Errors, fmt.Sprintf("dataflow %q is missing a 'to' endpoint", dataflowLabel(df, i)))
		default:
			if _, ok := known[df.To]; !ok {
				res.Errors = append(res.Errors, fmt.Sprintf("dataflow %q references unknown 'to' element %q", dataflowLabel(df, i), df.To))
			}
		}
	}
}

// checkHygiene emits the advisory warnings. None of these affect validity.
func (v *Validator) checkHygiene(dfd *schemas.DFDModel, res *schemas.ValidationResult) {
	for i := range dfd.Elements {
		el := &dfd.Elements[i]
		if el.IsDatastore() && el.Description == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("datastore %q has no description", elementLabel(el, i)))
		}
	}

	referenced := make(map[string]struct{}, len(dfd.Elements))
	for i := range dfd.Dataflows {
		df := &dfd.Dataflows[i]
		referenced[df.From] = struct{}{}
		referenced[df.To] = struct{}{}

		if df.HasSensitiveData && !df.IsEncrypted {
			res.Warnings = append(res.Warnings, fmt.Sprintf("dataflow %q carries sensitive data without encryption", dataflowLabel(df, i)))
		}
		if isInsecureProtocol(df.Protocol) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("dataflow %q uses insecure protocol %q", dataflowLabel(df, i), df.Protocol))
		}
		if df.IsCrossNetwork && df.Authentication == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("cross-network dataflow %q has no authentication", dataflowLabel(df, i)))
		}
	}

	for i := range dfd.Elements {
		el := &dfd.Elements[i]
		if el.ID == "" {
			continue
		}
		if _, ok := referenced[el.ID]; !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("element %q is not connected to any dataflow", el.Name))
		}
	}

	if len(dfd.TrustBoundaries) == 0 {
		res.Warnings = append(res.Warnings, "DFD defines no trust boundaries")
	}
}

// ValidateSecurity re-scans the DFD through a security-only lens, independent
// of structural validity. Issues are severity-tagged and never block.
func (v *Validator) ValidateSecurity(dfd *schemas.DFDModel) []schemas.SecurityIssue {
	issues := []schemas.SecurityIssue{}
	if dfd == nil {
		return issues
	}

	for i := range dfd.Dataflows {
		df := &dfd.Dataflows[i]
		if df.HasSensitiveData && !df.IsEncrypted {
			issues = append(issues, schemas.SecurityIssue{
				Severity:  schemas.SeverityHigh,
				Message:   fmt.Sprintf("sensitive dataflow %q is not encrypted", df.Name),
				SubjectID: df.ID,
			})
		}
		if strings.EqualFold(df.Protocol, "http") {
			issues = append(issues, schemas.SecurityIssue{
				Severity:  schemas.SeverityHigh,
				Message:   fmt.Sprintf("dataflow %q uses plaintext HTTP", df.Name),
				SubjectID: df.ID,
			})
		}
	}

	for i := range dfd.Elements {
		el := &dfd.Elements[i]
		if el.IsDatastore() && el.TrustLevel == "" {
			issues = append(issues, schemas.SecurityIssue{
				Severity:  schemas.SeverityMedium,
				Message:   fmt.Sprintf("datastore %q has no trust level assigned", el.Name),
				SubjectID: el.ID,
			})
		}
		if el.IsExternalEntity() && el.TrustLevel == schemas.TrustLevelTrusted {
			issues = append(issues, schemas.SecurityIssue{
				Severity:  schemas.SeverityMedium,
				Message:   fmt.Sprintf("external entity %q is marked trusted", el.Name),
				SubjectID: el.ID,
			})
		}
	}

	return issues
}

// Summary merges structural validation, the security lens, and a completeness
// checklist into one view of the DFD's readiness.
func (v *Validator) Summary(dfd *schemas.DFDModel) schemas.DFDSummary {
	summary := schemas.DFDSummary{
		Validation:     v.Validate(dfd),
		SecurityIssues: v.ValidateSecurity(dfd),
	}
	if dfd == nil {
		return summary
	}

	summary.Completeness = schemas.CompletenessChecklist{
		HasDescription:       dfd.Description != "",
		HasTrustBoundaries:   len(dfd.TrustBoundaries) > 0,
		AllElementsConnected: allConnected(dfd),
		AllDataflowsSecured:  allSecured(dfd),
	}
	return summary
}

func allConnected(dfd *schemas.DFDModel) bool {
	if len(dfd.Elements) == 0 {
		return false
	}
	referenced := make(map[string]struct{}, len(dfd.Elements))
	for _, df := range dfd.Dataflows {
		referenced[df.From] = struct{}{}
		referenced[df.To] = struct{}{}
	}
	for _, el := range dfd.Elements {
		if _, ok := referenced[el.ID]; !ok {
			return false
		}
	}
	return true
}

// allSecured holds when no dataflow is flagged by the security lens: nothing
// sensitive travels unencrypted and nothing rides a cleartext protocol.
func allSecured(dfd *schemas.DFDModel) bool {
	for _, df := range dfd.Dataflows {
		if df.HasSensitiveData && !df.IsEncrypted {
			return false
		}
		if isInsecureProtocol(df.Protocol) {
			return false
		}
	}
	return true
}

func isInsecureProtocol(protocol string) bool {
	if protocol == "" {
		return false
	}
	_, ok := insecureProtocols[strings.ToLower(protocol)]
	return ok
}

// elementLabel prefers the id for messages, falling back to a positional
// label so every message names something actionable.
func elementLabel(el *schemas.Element, idx int) string {
	if el.ID != "" {
		return el.ID
	}
	if el.Name != "" {
		return el.Name
	}
	return fmt.Sprintf("#%d", idx)
}

func dataflowLabel(df *schemas.Dataflow, idx int) string {
	if df.ID != "" {
		return df.ID
	}
	if df.Name != "" {
		return df.Name
	}
	return fmt.Sprintf("#%d", idx)
}
