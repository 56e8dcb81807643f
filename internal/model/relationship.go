package model

// RelationshipType is the closed set of parent-child edge types. Type
// transitions are monotone: UntypedParent may become any other type;
// AssumedBiological/Resolve may be rewritten to a concrete type by the
// resolution pass; a concrete type is never downgraded.
type RelationshipType string

const (
	UntypedParent         RelationshipType = "UntypedParent"
	AssumedBiological     RelationshipType = "AssumedBiological"
	Resolve               RelationshipType = "Resolve"
	UnspecifiedParentType RelationshipType = "UnspecifiedParentType"
	UntypedCouple         RelationshipType = "UntypedCouple"
	AdoptiveParent        RelationshipType = "AdoptiveParent"
	BiologicalParent      RelationshipType = "BiologicalParent"
	FosterParent          RelationshipType = "FosterParent"
	GuardianParent        RelationshipType = "GuardianParent"
	StepParent            RelationshipType = "StepParent"
	SociologicalParent    RelationshipType = "SociologicalParent"
	SurrogateParent       RelationshipType = "SurrogateParent"
)

// concreteTypes are fact-derived types a resolution fetch can assign; any
// of these is a valid rewrite target from UntypedParent or Resolve.
var concreteTypes = map[RelationshipType]bool{
	UnspecifiedParentType: true,
	AdoptiveParent:        true,
	BiologicalParent:      true,
	FosterParent:          true,
	GuardianParent:        true,
	StepParent:            true,
	SociologicalParent:    true,
	SurrogateParent:       true,
}

// IsConcrete reports whether t is a fact-derived (non-placeholder) type.
func IsConcrete(t RelationshipType) bool {
	return concreteTypes[t]
}

// CanTransition reports whether an edge currently typed `from` may be
// rewritten to `to` by the resolution pass, enforcing the monotone policy
// in spec.md §3: UntypedParent may become anything; AssumedBiological and
// Resolve may become any concrete type; a concrete type never downgrades.
func CanTransition(from, to RelationshipType) bool {
	if from == to {
		return true
	}
	if from == UntypedParent {
		return true
	}
	if (from == AssumedBiological || from == Resolve) && IsConcrete(to) {
		return true
	}
	return false
}

// Edge is an ordered (child, parent) parent-child relationship.
type Edge struct {
	Child  string
	Parent string
	Type   RelationshipType
	RelID  string
}

// RelationshipCounts classifies edges by how many endpoints are resolved
// vertices: within (2), spanning (1), frontier (0).
type RelationshipCounts struct {
	Within   int
	Spanning int
	Frontier int
}
