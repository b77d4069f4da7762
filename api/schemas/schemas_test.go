package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeElementType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected ElementType
		ok       bool
	}{
		{"canonical actor", "actor", ElementTypeActor, true},
		{"user alias", "user", ElementTypeActor, true},
		{"database alias", "database", ElementTypeDatastore, true},
		{"canonical datastore", "datastore", ElementTypeDatastore, true},
		{"process", "process", ElementTypeProcess, true},
		{"external entity", "external_entity", ElementTypeExternalEntity, true},
		{"unknown type", "mainframe", ElementType("mainframe"), false},
		{"empty", "", ElementType(""), false},
		// Aliasing is not case-insensitive; upstream emits lowercase.
		{"uppercase not recognized", "Actor", ElementType("Actor"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizeElementType(tc.input)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestElementRolePredicates(t *testing.T) {
	t.Parallel()

	db := Element{ID: "db1", Type: "database"}
	assert.True(t, db.IsDatastore(), "database alias should count as datastore")
	assert.False(t, db.IsProcess())
	assert.False(t, db.IsExternalEntity())

	ext := Element{ID: "ext1", Type: ElementTypeExternalEntity}
	assert.True(t, ext.IsExternalEntity())

	proc := Element{ID: "p1", Type: ElementTypeProcess}
	assert.True(t, proc.IsProcess())
}

func TestSeverityRank(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, SeverityCritical.Rank())
	assert.Equal(t, 1, SeverityHigh.Rank())
	assert.Equal(t, 2, SeverityMedium.Rank())
	assert.Equal(t, 3, SeverityLow.Rank())

	// Unknown severities sort after everything defined.
	assert.Greater(t, Severity("Bogus").Rank(), SeverityLow.Rank())
	assert.False(t, Severity("Bogus").Valid())
	assert.True(t, SeverityMedium.Valid())
}

func TestRiskSummary(t *testing.T) {
	t.Parallel()

	var r RiskSummary
	r.Add(SeverityCritical)
	r.Add(SeverityCritical)
	r.Add(SeverityHigh)
	r.Add(SeverityLow)
	r.Add(Severity("Bogus")) // silently dropped

	assert.Equal(t, 2, r.Critical)
	assert.Equal(t, 1, r.High)
	assert.Equal(t, 0, r.Medium)
	assert.Equal(t, 1, r.Low)
	assert.Equal(t, 4, r.Total())
}

func TestThreatFindingHasStride(t *testing.T) {
	t.Parallel()

	f := ThreatFinding{Stride: []StrideCategory{StrideSpoofing, StrideTampering}}
	assert.True(t, f.HasStride(StrideSpoofing))
	assert.True(t, f.HasStride(StrideTampering))
	assert.False(t, f.HasStride(StrideDenialOfService))
}

func TestDFDModelElementByID(t *testing.T) {
	t.Parallel()

	dfd := DFDModel{
		Elements: []Element{
			{ID: "a", Name: "A"},
			{ID: "b", Name: "B"},
		},
	}
	el := dfd.ElementByID("b")
	require.NotNil(t, el)
	assert.Equal(t, "B", el.Name)
	assert.Nil(t, dfd.ElementByID("missing"))
}

// The DFD wire shape is a contract with the diagram-recognition collaborator;
// pin the field names.
func TestDFDModelJSONShape(t *testing.T) {
	t.Parallel()

	raw := `{
		"id": "dfd-1",
		"name": "Payment Flow",
		"elements": [
			{"id": "u1", "name": "Customer", "type": "user", "trustLevel": "untrusted"}
		],
		"dataflows": [
			{"id": "f1", "name": "Checkout", "from": "u1", "to": "p1", "protocol": "https", "hasSensitiveData": true, "isEncrypted": true}
		],
		"trustBoundaries": [
			{"id": "tb1", "name": "DMZ", "elements": ["u1"]}
		]
	}`

	var dfd DFDModel
	require.NoError(t, json.Unmarshal([]byte(raw), &dfd))
	require.Len(t, dfd.Elements, 1)
	assert.Equal(t, TrustLevelUntrusted, dfd.Elements[0].TrustLevel)
	require.Len(t, dfd.Dataflows, 1)
	assert.True(t, dfd.Dataflows[0].HasSensitiveData)
	assert.True(t, dfd.Dataflows[0].IsEncrypted)
	require.Len(t, dfd.TrustBoundaries, 1)
	assert.Equal(t, []string{"u1"}, dfd.TrustBoundaries[0].Elements)
}
