// Package patterns holds the static threat pattern catalog and its read-only
// lookup surface. The catalog is indexed once at process start and never
// mutated, so a single Library value is safe for unrestricted concurrent use.
package patterns

import (
	"sort"
	"strings"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
)

// SubjectTypeDataflow is the bucket key for dataflow-applicable patterns.
// Element buckets use the canonical schemas.ElementType strings.
const SubjectTypeDataflow = "dataflow"

// Library is the read-only lookup surface over the catalog.
type Library struct {
	buckets map[string][]schemas.ThreatPattern
	byID    map[string]schemas.ThreatPattern
}

var defaultLibrary = newLibrary(catalog)

// Default returns the process-wide library built from the compiled-in catalog.
func Default() *Library {
	return defaultLibrary
}

func newLibrary(patterns []schemas.ThreatPattern) *Library {
	lib := &Library{
		buckets: make(map[string][]schemas.ThreatPattern),
		byID:    make(map[string]schemas.ThreatPattern, len(patterns)),
	}
	for _, p := range patterns {
		lib.byID[p.ID] = p
		if p.AppliesToDataflow {
			lib.buckets[SubjectTypeDataflow] = append(lib.buckets[SubjectTypeDataflow], p)
			continue
		}
		for _, t := range p.AppliesTo {
			lib.buckets[string(t)] = append(lib.buckets[string(t)], p)
		}
	}
	return lib
}

// normalizeSubjectType resolves element-type aliases and leaves the dataflow
// bucket name untouched.
func normalizeSubjectType(subjectType string) string {
	if subjectType == SubjectTypeDataflow {
		return subjectType
	}
	t, _ := schemas.NormalizeElementType(subjectType)
	return string(t)
}

// ForType returns the patterns applicable to the given subject type. Aliases
// (user, database) are normalized first. Unknown types yield an empty slice,
// never an error.
func (l *Library) ForType(subjectType string) []schemas.ThreatPattern {
	bucket := l.buckets[normalizeSubjectType(subjectType)]
	out := make([]schemas.ThreatPattern, len(bucket))
	copy(out, bucket)
	return out
}

// ByID looks up a single pattern. The second return is false on a miss.
func (l *Library) ByID(id string) (schemas.ThreatPattern, bool) {
	p, ok := l.byID[id]
	return p, ok
}

// SearchResult pairs a matched pattern with the subject-type bucket it was
// found in.
type SearchResult struct {
	Pattern     schemas.ThreatPattern `json:"pattern"`
	SubjectType string                `json:"subjectType"`
}

// Search performs a case-insensitive substring match over title, description
// and category across all buckets.
func (l *Library) Search(query string) []SearchResult {
	query = strings.ToLower(query)
	var results []SearchResult
	for _, bucket := range l.bucketKeys() {
		for _, p := range l.buckets[bucket] {
			if strings.Contains(strings.ToLower(p.Title), query) ||
				strings.Contains(strings.ToLower(p.Description), query) ||
				strings.Contains(strings.ToLower(p.Category), query) {
				results = append(results, SearchResult{Pattern: p, SubjectType: bucket})
			}
		}
	}
	return results
}

// ByCategory returns all patterns whose category matches, case-insensitively.
func (l *Library) ByCategory(category string) []schemas.ThreatPattern {
	var out []schemas.ThreatPattern
	for _, bucket := range l.bucketKeys() {
		for _, p := range l.buckets[bucket] {
			if strings.EqualFold(p.Category, category) {
				out = append(out, p)
			}
		}
	}
	return out
}

// ByStride returns all patterns tagged with the given STRIDE category.
func (l *Library) ByStride(stride schemas.StrideCategory) []schemas.ThreatPattern {
	var out []schemas.ThreatPattern
	for _, bucket := range l.bucketKeys() {
		for _, p := range l.buckets[bucket] {
			for _, s := range p.Stride {
				if s == stride {
					out = append(out, p)
					break
				}
			}
		}
	}
	return out
}

// Metadata returns the aggregate view of the catalog for introspection and
// documentation surfaces.
func (l *Library) Metadata() schemas.LibraryMetadata {
	categories := make(map[string]struct{})
	strides := make(map[schemas.StrideCategory]struct{})
	for _, p := range l.byID {
		categories[p.Category] = struct{}{}
		for _, s := range p.Stride {
			strides[s] = struct{}{}
		}
	}

	meta := schemas.LibraryMetadata{
		Version:               catalogVersion,
		Source:                catalogSource,
		TotalPatterns:         len(l.byID),
		SupportedSubjectTypes: l.bucketKeys(),
	}
	for c := range categories {
		meta.Categories = append(meta.Categories, c)
	}
	sort.Strings(meta.Categories)
	// Keep STRIDE coverage in canonical S-T-R-I-D-E order.
	for _, s := range schemas.AllStrideCategories {
		if _, ok := strides[s]; ok {
			meta.StrideCoverage = append(meta.StrideCoverage, s)
		}
	}
	return meta
}

// bucketKeys returns the bucket names in sorted order for deterministic
// iteration.
func (l *Library) bucketKeys() []string {
	keys := make([]string, 0, len(l.buckets))
	for k := range l.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
