package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
)

func TestForType_AliasNormalization(t *testing.T) {
	t.Parallel()
	lib := Default()

	actor := lib.ForType("actor")
	user := lib.ForType("user")
	require.NotEmpty(t, actor)
	assert.Equal(t, actor, user, "user must resolve to the actor bucket")

	datastore := lib.ForType("datastore")
	database := lib.ForType("database")
	require.NotEmpty(t, datastore)
	assert.Equal(t, datastore, database, "database must resolve to the datastore bucket")
}

func TestForType_UnknownTypeIsEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Default().ForType("mainframe"))
}

func TestForType_ReturnsCopy(t *testing.T) {
	t.Parallel()
	lib := Default()

	first := lib.ForType("process")
	require.NotEmpty(t, first)
	first[0].Title = "mutated"

	second := lib.ForType("process")
	assert.NotEqual(t, "mutated", second[0].Title, "callers must not be able to mutate the catalog")
}

func TestByID(t *testing.T) {
	t.Parallel()
	lib := Default()

	p, ok := lib.ByID("TL-PRC-01")
	require.True(t, ok)
	assert.Equal(t, "Injection via Untrusted Input", p.Title)

	_, ok = lib.ByID("TL-NOPE-99")
	assert.False(t, ok, "lookup misses return not-found, never an error")
}

func TestSearch(t *testing.T) {
	t.Parallel()
	lib := Default()

	results := lib.Search("INJECTION")
	require.NotEmpty(t, results, "search must be case-insensitive")
	for _, r := range results {
		assert.NotEmpty(t, r.SubjectType)
	}

	assert.Empty(t, lib.Search("quantum entanglement"))
}

func TestByCategory(t *testing.T) {
	t.Parallel()
	for _, p := range Default().ByCategory("transport security") {
		assert.Equal(t, "Transport Security", p.Category)
	}
	require.NotEmpty(t, Default().ByCategory("Transport Security"))
}

func TestByStride(t *testing.T) {
	t.Parallel()
	matches := Default().ByStride(schemas.StrideDenialOfService)
	require.NotEmpty(t, matches)
	for _, p := range matches {
		assert.Contains(t, p.Stride, schemas.StrideDenialOfService)
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	lib := Default()
	meta := lib.Metadata()

	assert.Equal(t, len(catalog), meta.TotalPatterns)
	assert.NotEmpty(t, meta.Version)
	assert.NotEmpty(t, meta.Categories)

	// Round-trip property: supported subject types are exactly the buckets
	// that actually hold patterns.
	assert.ElementsMatch(t, meta.SupportedSubjectTypes,
		[]string{"actor", "process", "datastore", "external_entity", SubjectTypeDataflow})
	for _, st := range meta.SupportedSubjectTypes {
		assert.NotEmpty(t, lib.ForType(st), "metadata must not advertise an empty bucket")
	}

	// STRIDE coverage stays in canonical order and within the six categories.
	seen := make(map[schemas.StrideCategory]bool)
	for _, s := range meta.StrideCoverage {
		assert.Contains(t, schemas.AllStrideCategories, s)
		assert.False(t, seen[s], "no duplicate STRIDE entries")
		seen[s] = true
	}
}

func TestCatalogIntegrity(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for _, p := range catalog {
		assert.False(t, ids[p.ID], "duplicate pattern id %s", p.ID)
		ids[p.ID] = true

		assert.True(t, p.Severity.Valid(), "pattern %s has invalid severity %q", p.ID, p.Severity)
		assert.NotEmpty(t, p.Stride, "pattern %s has no STRIDE tags", p.ID)
		assert.NotEmpty(t, p.Mitigations, "pattern %s has no mitigations", p.ID)
		assert.NotEmpty(t, p.OWASPCategory, "pattern %s has no OWASP category", p.ID)

		// Applicability is exclusive: element types or dataflow, never both.
		if p.AppliesToDataflow {
			assert.Empty(t, p.AppliesTo, "pattern %s mixes element and dataflow applicability", p.ID)
		} else {
			assert.NotEmpty(t, p.AppliesTo, "pattern %s applies to nothing", p.ID)
			assert.Empty(t, p.Protocols, "pattern %s has a protocol list but is not a dataflow pattern", p.ID)
		}
	}
}
