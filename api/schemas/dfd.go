package schemas

// -- DFD Schemas --

// ElementType classifies a node in a data flow diagram. The values are
// lowercase to align with the JSON produced by diagram-recognition tooling.
type ElementType string

// Constants defining the recognized element types.
const (
	ElementTypeActor          ElementType = "actor"           // A human or automated user of the system.
	ElementTypeProcess        ElementType = "process"         // A computation that transforms data.
	ElementTypeDatastore      ElementType = "datastore"       // A persistence point (database, queue, file).
	ElementTypeExternalEntity ElementType = "external_entity" // A system outside the trust perimeter.
)

// TrustLevel annotates how much an element is trusted. It drives severity
// escalation during threat generation.
type TrustLevel string

// Constants for the three trust levels. An empty value means unspecified and
// is treated the same as trusted for escalation purposes.
const (
	TrustLevelTrusted          TrustLevel = "trusted"
	TrustLevelPartiallyTrusted TrustLevel = "partially-trusted"
	TrustLevelUntrusted        TrustLevel = "untrusted"
)

// elementTypeAliases maps the loose type names emitted by upstream tooling to
// their canonical form. Aliasing happens once at ingestion, not during
// matching.
var elementTypeAliases = map[string]ElementType{
	"user":     ElementTypeActor,
	"database": ElementTypeDatastore,
}

// NormalizeElementType resolves aliases (user -> actor, database -> datastore)
// and returns the canonical type. The second return reports whether the input
// named a recognized type at all.
func NormalizeElementType(raw string) (ElementType, bool) {
	if canonical, ok := elementTypeAliases[raw]; ok {
		return canonical, true
	}
	t := ElementType(raw)
	switch t {
	case ElementTypeActor, ElementTypeProcess, ElementTypeDatastore, ElementTypeExternalEntity:
		return t, true
	}
	return t, false
}

// Element is a single node in the DFD.
type Element struct {
	ID          string      `json:"id"`   // Unique identifier within the DFD.
	Name        string      `json:"name"` // Human-readable label.
	Type        ElementType `json:"type"`
	Description string      `json:"description,omitempty"`
	TrustLevel  TrustLevel  `json:"trustLevel,omitempty"`
}

// The role predicates are derived views over Type. They are computed, never
// stored, so caller-owned DFDs are not mutated during validation.

// IsExternalEntity reports whether the element sits outside the trust perimeter.
func (e *Element) IsExternalEntity() bool {
	t, _ := NormalizeElementType(string(e.Type))
	return t == ElementTypeExternalEntity
}

// IsDatastore reports whether the element persists data.
func (e *Element) IsDatastore() bool {
	t, _ := NormalizeElementType(string(e.Type))
	return t == ElementTypeDatastore
}

// IsProcess reports whether the element is a computation node.
func (e *Element) IsProcess() bool {
	t, _ := NormalizeElementType(string(e.Type))
	return t == ElementTypeProcess
}

// Dataflow is a directed edge between two elements. From and To must
// reference element ids present in the same DFD; self-loops are not rejected
// here (the producing UI owns that rule).
type Dataflow struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	From             string `json:"from"`
	To               string `json:"to"`
	Protocol         string `json:"protocol,omitempty"`
	HasSensitiveData bool   `json:"hasSensitiveData,omitempty"`
	IsEncrypted      bool   `json:"isEncrypted,omitempty"`
	IsCrossNetwork   bool   `json:"isCrossNetwork,omitempty"`
	Authentication   string `json:"authentication,omitempty"`
}

// TrustBoundary is an advisory grouping of element ids marking a security
// perimeter. Dataflows crossing it are not checked against it.
type TrustBoundary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Elements []string `json:"elements"`
}

// DFDModel is the full diagram: the unit of input for validation and threat
// generation. It is caller-supplied and treated as immutable by the engine.
type DFDModel struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Elements        []Element       `json:"elements"`
	Dataflows       []Dataflow      `json:"dataflows"`
	TrustBoundaries []TrustBoundary `json:"trustBoundaries,omitempty"`
}

// ElementByID returns the element with the given id, or nil.
func (d *DFDModel) ElementByID(id string) *Element {
	for i := range d.Elements {
		if d.Elements[i].ID == id {
			return &d.Elements[i]
		}
	}
	return nil
}
