package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
	"github.com/xkilldash9x/threatlens-cli/internal/patterns"
)

func newTestGenerator() *Generator {
	return New(patterns.Default(), zap.NewNop())
}

// checkoutDFD is the canonical scenario fixture: an untrusted actor talking
// to a process over plaintext HTTP carrying sensitive data.
func checkoutDFD() *schemas.DFDModel {
	return &schemas.DFDModel{
		ID:   "dfd-checkout",
		Name: "Checkout",
		Elements: []schemas.Element{
			{ID: "u1", Name: "Shopper", Type: schemas.ElementTypeActor, TrustLevel: schemas.TrustLevelUntrusted},
			{ID: "p1", Name: "Cart Service", Type: schemas.ElementTypeProcess},
		},
		Dataflows: []schemas.Dataflow{
			{ID: "f1", Name: "Submit card", From: "u1", To: "p1", Protocol: "http", HasSensitiveData: true},
		},
	}
}

func TestGenerateThreatModel_Accounting(t *testing.T) {
	t.Parallel()
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), checkoutDFD(), Options{})
	require.NoError(t, err)

	// The three counts must always agree.
	assert.Equal(t, len(model.Findings), model.TotalThreats)
	assert.Equal(t, model.TotalThreats, model.RiskSummary.Total())
	assert.Equal(t, "dfd-checkout", model.DFDID)
	assert.Equal(t, "Checkout", model.DFDName)
	assert.NotEmpty(t, model.ID)
	assert.False(t, model.CreatedAt.IsZero())
}

func TestGenerateThreatModel_SortedBySeverityRank(t *testing.T) {
	t.Parallel()
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), checkoutDFD(), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, model.Findings)

	for i := 1; i < len(model.Findings); i++ {
		assert.LessOrEqual(t,
			model.Findings[i-1].Severity.Rank(),
			model.Findings[i].Severity.Rank(),
			"findings must be in non-decreasing severity rank order")
	}
}

func TestGenerateThreatModel_CheckoutScenario(t *testing.T) {
	t.Parallel()
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), checkoutDFD(), Options{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, model.TotalThreats, 3)
	assert.GreaterOrEqual(t, model.RiskSummary.Critical, 2)

	var mitm, exposure *schemas.ThreatFinding
	for i := range model.Findings {
		f := &model.Findings[i]
		switch f.PatternID {
		case SynthMITM:
			mitm = f
		case SynthDataExposure:
			exposure = f
		}
	}
	require.NotNil(t, mitm, "plaintext HTTP must synthesize a MITM finding")
	require.NotNil(t, exposure, "sensitive data must synthesize an exposure finding")

	for _, f := range []*schemas.ThreatFinding{mitm, exposure} {
		assert.Equal(t, schemas.SeverityCritical, f.Severity)
		assert.Equal(t, schemas.SubjectDataflow, f.Subject.Kind)
		assert.Equal(t, "f1", f.Subject.ID)
	}
}

func TestGenerateThreatModel_UntrustedElementEscalation(t *testing.T) {
	t.Parallel()
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), checkoutDFD(), Options{})
	require.NoError(t, err)

	// Every pattern-derived finding for the untrusted actor is forced to
	// Critical. Synthesized findings keep their fixed severity.
	var patternDerived int
	for _, f := range model.Findings {
		if f.Subject.ID != "u1" {
			continue
		}
		if _, ok := patterns.Default().ByID(f.PatternID); !ok {
			continue
		}
		patternDerived++
		assert.Equal(t, schemas.SeverityCritical, f.Severity,
			"pattern finding %s for untrusted element must be Critical", f.PatternID)
	}
	assert.NotZero(t, patternDerived)
}

func TestEscalateElementSeverity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		baseline schemas.Severity
		trust    schemas.TrustLevel
		expected schemas.Severity
	}{
		{"untrusted forces critical", schemas.SeverityLow, schemas.TrustLevelUntrusted, schemas.SeverityCritical},
		{"untrusted forces critical from high", schemas.SeverityHigh, schemas.TrustLevelUntrusted, schemas.SeverityCritical},
		{"partial floors low to medium", schemas.SeverityLow, schemas.TrustLevelPartiallyTrusted, schemas.SeverityMedium},
		{"partial leaves high alone", schemas.SeverityHigh, schemas.TrustLevelPartiallyTrusted, schemas.SeverityHigh},
		{"partial leaves medium alone", schemas.SeverityMedium, schemas.TrustLevelPartiallyTrusted, schemas.SeverityMedium},
		{"trusted keeps baseline", schemas.SeverityLow, schemas.TrustLevelTrusted, schemas.SeverityLow},
		{"absent keeps baseline", schemas.SeverityMedium, "", schemas.SeverityMedium},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, escalateElementSeverity(tc.baseline, tc.trust))
		})
	}
}

func TestEscalateDataflowSeverity(t *testing.T) {
	t.Parallel()
	sensitive := &schemas.Dataflow{HasSensitiveData: true}
	crossNet := &schemas.Dataflow{IsCrossNetwork: true}
	plain := &schemas.Dataflow{}

	assert.Equal(t, schemas.SeverityCritical, escalateDataflowSeverity(schemas.SeverityLow, sensitive))
	assert.Equal(t, schemas.SeverityMedium, escalateDataflowSeverity(schemas.SeverityLow, crossNet))
	assert.Equal(t, schemas.SeverityHigh, escalateDataflowSeverity(schemas.SeverityMedium, crossNet))
	assert.Equal(t, schemas.SeverityHigh, escalateDataflowSeverity(schemas.SeverityHigh, crossNet))
	assert.Equal(t, schemas.SeverityCritical, escalateDataflowSeverity(schemas.SeverityCritical, crossNet))
	assert.Equal(t, schemas.SeverityLow, escalateDataflowSeverity(schemas.SeverityLow, plain))
}

func TestGenerateThreatModel_RoleFlagFindings(t *testing.T) {
	t.Parallel()
	dfd := &schemas.DFDModel{
		ID:   "dfd-roles",
		Name: "Roles",
		Elements: []schemas.Element{
			{ID: "e1", Name: "Partner", Type: schemas.ElementTypeExternalEntity},
			{ID: "d1", Name: "Vault", Type: "database"}, // alias still gets the datastore finding
			{ID: "p1", Name: "Worker", Type: schemas.ElementTypeProcess},
		},
		Dataflows: []schemas.Dataflow{},
	}
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), dfd, Options{})
	require.NoError(t, err)

	bySubject := make(map[string][]string)
	for _, f := range model.Findings {
		bySubject[f.Subject.ID] = append(bySubject[f.Subject.ID], f.PatternID)
	}
	assert.Contains(t, bySubject["e1"], SynthExternalActor)
	assert.Contains(t, bySubject["d1"], SynthDataAccess)
	assert.Contains(t, bySubject["p1"], SynthPrivEsc)
}

func TestGenerateThreatModel_DualSourcingKeepsOverlap(t *testing.T) {
	t.Parallel()
	// A datastore attracts both the catalog's data-protection pattern and
	// the synthesized unauthorized-access finding; no pass collapses them
	// unless dedup is requested.
	dfd := &schemas.DFDModel{
		ID:        "dfd-ds",
		Name:      "Datastore only",
		Elements:  []schemas.Element{{ID: "d1", Name: "Ledger", Type: schemas.ElementTypeDatastore}},
		Dataflows: []schemas.Dataflow{},
	}
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), dfd, Options{})
	require.NoError(t, err)

	catalogCount := len(patterns.Default().ForType("datastore"))
	assert.Equal(t, catalogCount+1, model.TotalThreats)
}

func TestGenerateThreatModel_ProtocolAllowList(t *testing.T) {
	t.Parallel()
	dfd := &schemas.DFDModel{
		ID:   "dfd-proto",
		Name: "Protocols",
		Elements: []schemas.Element{
			{ID: "a", Name: "A", Type: schemas.ElementTypeProcess},
			{ID: "b", Name: "B", Type: schemas.ElementTypeProcess},
		},
		Dataflows: []schemas.Dataflow{
			{ID: "grpc-flow", Name: "RPC", From: "a", To: "b", Protocol: "grpc", IsEncrypted: true},
			{ID: "ftp-flow", Name: "Drop", From: "a", To: "b", Protocol: "FTP"},
		},
	}
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), dfd, Options{})
	require.NoError(t, err)

	flowPatterns := func(flowID string) map[string]bool {
		out := make(map[string]bool)
		for _, f := range model.Findings {
			if f.Subject.ID == flowID {
				out[f.PatternID] = true
			}
		}
		return out
	}

	// TL-FLW-03 (cleartext protocol) is allow-listed; it must hit the FTP
	// flow (case-insensitively) and skip the grpc flow.
	assert.True(t, flowPatterns("ftp-flow")["TL-FLW-03"])
	assert.False(t, flowPatterns("grpc-flow")["TL-FLW-03"])
	// Unrestricted dataflow patterns hit both.
	assert.True(t, flowPatterns("grpc-flow")["TL-FLW-01"])
	assert.True(t, flowPatterns("ftp-flow")["TL-FLW-01"])
}

func TestGenerateThreatModel_Preconditions(t *testing.T) {
	t.Parallel()
	g := newTestGenerator()

	_, err := g.GenerateThreatModel(context.Background(), nil, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDFD)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Contains(t, precondition.Reason, "nil")

	_, err = g.GenerateThreatModel(context.Background(), &schemas.DFDModel{ID: "x", Name: "x"}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDFD)
}

func TestGenerateThreatModel_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGenerator().GenerateThreatModel(ctx, checkoutDFD(), Options{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = newTestGenerator().GenerateThreatModel(ctx, checkoutDFD(), Options{Parallel: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateThreatModel_Overlay(t *testing.T) {
	t.Parallel()
	overlay := map[OverlayKey][]string{
		{SubjectID: "f1", PatternID: SynthMITM}: {"Terminate TLS at the edge proxy"},
	}
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), checkoutDFD(), Options{Overlay: overlay})
	require.NoError(t, err)

	var found bool
	for _, f := range model.Findings {
		if f.PatternID == SynthMITM && f.Subject.ID == "f1" {
			found = true
			assert.Contains(t, f.Mitigations, "Terminate TLS at the edge proxy")
			assert.Equal(t, "Terminate TLS at the edge proxy", f.Mitigations[len(f.Mitigations)-1],
				"overlay mitigations append after the originals")
		}
	}
	assert.True(t, found)
}

func TestGenerateThreatModel_Dedup(t *testing.T) {
	t.Parallel()
	g := newTestGenerator()
	dfd := checkoutDFD()

	plain, err := g.GenerateThreatModel(context.Background(), dfd, Options{})
	require.NoError(t, err)
	deduped, err := g.GenerateThreatModel(context.Background(), dfd, Options{Dedup: true})
	require.NoError(t, err)

	assert.LessOrEqual(t, deduped.TotalThreats, plain.TotalThreats)

	// No two findings may share (subject, category, STRIDE set) afterwards.
	type key struct {
		subject, category, stride string
	}
	seen := make(map[key]bool)
	for _, f := range deduped.Findings {
		strides := ""
		for _, s := range f.Stride {
			strides += string(s) + "|"
		}
		k := key{f.Subject.ID, f.Category, strides}
		assert.False(t, seen[k], "duplicate group survived dedup: %+v", k)
		seen[k] = true
	}
	// The sort runs before dedup, so survivors keep the non-decreasing order.
	for i := 1; i < len(deduped.Findings); i++ {
		assert.LessOrEqual(t, deduped.Findings[i-1].Severity.Rank(), deduped.Findings[i].Severity.Rank())
	}
}

func TestGenerateThreatModel_ParallelMatchesSequential(t *testing.T) {
	t.Parallel()
	g := newTestGenerator()
	dfd := checkoutDFD()
	dfd.Elements = append(dfd.Elements,
		schemas.Element{ID: "db1", Name: "Cards DB", Type: schemas.ElementTypeDatastore, TrustLevel: schemas.TrustLevelPartiallyTrusted},
		schemas.Element{ID: "ext1", Name: "PSP", Type: schemas.ElementTypeExternalEntity},
	)
	dfd.Dataflows = append(dfd.Dataflows,
		schemas.Dataflow{ID: "f2", Name: "Settle", From: "p1", To: "ext1", Protocol: "https", IsCrossNetwork: true},
		schemas.Dataflow{ID: "f3", Name: "Store", From: "p1", To: "db1", Protocol: "postgres", IsEncrypted: true},
	)

	sequential, err := g.GenerateThreatModel(context.Background(), dfd, Options{})
	require.NoError(t, err)
	parallel, err := g.GenerateThreatModel(context.Background(), dfd, Options{Parallel: true})
	require.NoError(t, err)

	// Finding ids and timestamps are fresh per call; everything else must be
	// byte-identical, in the same order.
	normalize := func(m *schemas.ThreatModel) []schemas.ThreatFinding {
		out := make([]schemas.ThreatFinding, len(m.Findings))
		copy(out, m.Findings)
		for i := range out {
			out[i].ID = ""
		}
		return out
	}
	if diff := cmp.Diff(normalize(sequential), normalize(parallel)); diff != "" {
		t.Errorf("parallel generation diverged from sequential (-seq +par):\n%s", diff)
	}
}

func TestGenerateThreatModel_FreshIDsPerCall(t *testing.T) {
	t.Parallel()
	g := newTestGenerator()
	dfd := checkoutDFD()

	first, err := g.GenerateThreatModel(context.Background(), dfd, Options{})
	require.NoError(t, err)
	second, err := g.GenerateThreatModel(context.Background(), dfd, Options{})
	require.NoError(t, err)

	require.Equal(t, first.TotalThreats, second.TotalThreats)
	assert.NotEqual(t, first.ID, second.ID)
	for i := range first.Findings {
		assert.NotEqual(t, first.Findings[i].ID, second.Findings[i].ID,
			"finding ids must not be stable across regenerations")
		// The overlay key parts are stable.
		assert.Equal(t, first.Findings[i].PatternID, second.Findings[i].PatternID)
		assert.Equal(t, first.Findings[i].Subject, second.Findings[i].Subject)
	}
}

func TestGenerateThreatModel_EmptyDataflowsIsFine(t *testing.T) {
	t.Parallel()
	dfd := &schemas.DFDModel{
		ID:        "dfd-min",
		Name:      "Minimal",
		Elements:  []schemas.Element{{ID: "p1", Name: "Job", Type: schemas.ElementTypeProcess}},
		Dataflows: []schemas.Dataflow{},
	}
	model, err := newTestGenerator().GenerateThreatModel(context.Background(), dfd, Options{})
	require.NoError(t, err)
	assert.NotZero(t, model.TotalThreats)
}

func TestPreconditionErrorUnwrap(t *testing.T) {
	t.Parallel()
	err := &PreconditionError{Reason: "dfd is nil"}
	assert.True(t, errors.Is(err, ErrMalformedDFD))
	assert.Contains(t, err.Error(), "precondition")
}
