// Package reporting turns a threat model into a reader-facing report:
// executive summary, per-subject groupings, STRIDE breakdown, and prioritized
// recommendations.
package reporting

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
)

// Synthesizer aggregates threat models into reports. Stateless and safe for
// concurrent use.
type Synthesizer struct {
	log *zap.Logger
}

// NewSynthesizer creates a Synthesizer. A nil logger falls back to no-op.
func NewSynthesizer(logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{log: logger.Named("report_synthesizer")}
}

// Synthesize builds the full report for a threat model against the DFD it was
// generated from.
func (s *Synthesizer) Synthesize(model *schemas.ThreatModel, dfd *schemas.DFDModel) *schemas.Report {
	report := &schemas.Report{
		Summary: schemas.ExecutiveSummary{
			TotalThreats: model.TotalThreats,
			RiskSummary:  model.RiskSummary,
			OverallRisk:  overallRisk(model.RiskSummary),
			DFDName:      model.DFDName,
		},
		ElementsAnalysis: s.groupElements(model, dfd),
		DataflowAnalysis: s.groupDataflows(model, dfd),
		StrideBreakdown:  strideBreakdown(model.Findings),
		Recommendations:  recommendations(model.RiskSummary),
	}

	s.log.Debug("Report synthesized",
		zap.String("dfd_id", model.DFDID),
		zap.String("overall_risk", string(report.Summary.OverallRisk)))
	return report
}

// overallRisk is the fixed ladder: any Critical makes the whole model
// Critical, any High makes it High, otherwise Medium.
func overallRisk(summary schemas.RiskSummary) schemas.Severity {
	switch {
	case summary.Critical > 0:
		return schemas.SeverityCritical
	case summary.High > 0:
		return schemas.SeverityHigh
	default:
		return schemas.SeverityMedium
	}
}

// groupElements emits one analysis block per element that attracted at least
// one finding. Elements with zero findings are omitted entirely.
func (s *Synthesizer) groupElements(model *schemas.ThreatModel, dfd *schemas.DFDModel) []schemas.SubjectAnalysis {
	byID := make(map[string][]schemas.ThreatFinding)
	for _, f := range model.Findings {
		if f.Subject.Kind == schemas.SubjectElement {
			byID[f.Subject.ID] = append(byID[f.Subject.ID], f)
		}
	}

	analyses := []schemas.SubjectAnalysis{}
	for _, el := range dfd.Elements {
		threats, ok := byID[el.ID]
		if !ok {
			continue
		}
		analyses = append(analyses, schemas.SubjectAnalysis{
			SubjectID:   el.ID,
			SubjectName: el.Name,
			SubjectType: string(el.Type),
			ThreatCount: len(threats),
			Threats:     threats,
		})
	}
	return analyses
}

func (s *Synthesizer) groupDataflows(model *schemas.ThreatModel, dfd *schemas.DFDModel) []schemas.SubjectAnalysis {
	byID := make(map[string][]schemas.ThreatFinding)
	for _, f := range model.Findings {
		if f.Subject.Kind == schemas.SubjectDataflow {
			byID[f.Subject.ID] = append(byID[f.Subject.ID], f)
		}
	}

	analyses := []schemas.SubjectAnalysis{}
	for _, df := range dfd.Dataflows {
		threats, ok := byID[df.ID]
		if !ok {
			continue
		}
		analyses = append(analyses, schemas.SubjectAnalysis{
			SubjectID:   df.ID,
			SubjectName: df.Name,
			From:        df.From,
			To:          df.To,
			ThreatCount: len(threats),
			Threats:     threats,
		})
	}
	return analyses
}

// strideBreakdown partitions findings into the six STRIDE buckets. A finding
// with multiple tags lands in each applicable bucket; buckets that end up
// empty are dropped.
func strideBreakdown(findings []schemas.ThreatFinding) map[schemas.StrideCategory][]schemas.ThreatFinding {
	breakdown := make(map[schemas.StrideCategory][]schemas.ThreatFinding)
	for _, category := range schemas.AllStrideCategories {
		for _, f := range findings {
			if f.HasStride(category) {
				breakdown[category] = append(breakdown[category], f)
			}
		}
	}
	return breakdown
}

// recommendations builds the fixed-priority ladder, always ending with the
// two standing entries.
func recommendations(summary schemas.RiskSummary) []schemas.Recommendation {
	recs := []schemas.Recommendation{}
	if summary.Critical > 0 {
		recs = append(recs, schemas.Recommendation{
			Priority: "Critical",
			Action:   fmt.Sprintf("Address the %d critical finding(s) immediately before any release", summary.Critical),
		})
	}
	if summary.High > 0 {
		recs = append(recs, schemas.Recommendation{
			Priority: "High",
			Action:   fmt.Sprintf("Plan remediation of the %d high-severity finding(s) in the next development cycle", summary.High),
		})
	}
	recs = append(recs,
		schemas.Recommendation{
			Priority: "Standing",
			Action:   "Apply general security best practices: least privilege, defense in depth, and secure defaults",
		},
		schemas.Recommendation{
			Priority: "Standing",
			Action:   "Run periodic security training for everyone contributing to this system",
		},
	)
	return recs
}
