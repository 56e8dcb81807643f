package model

import "strings"

// The types below are the typed DTOs for the two upstream endpoints this
// crawler consumes. Fields the crawler never reads are omitted rather than
// modeled — the decoder tolerates whatever else the payload carries.

// PersonsResponse is the body of
// GET /platform/tree/persons/.json?pids=ID1,ID2,...
type PersonsResponse struct {
	Persons                     []WirePerson       `json:"persons"`
	Relationships               []WireRelationship `json:"relationships"`
	ChildAndParentsRelationships []WireCAPR        `json:"childAndParentsRelationships"`
}

// RelationshipResponse is the body of
// GET /platform/tree/child-and-parents-relationships/{id}.json
type RelationshipResponse struct {
	ChildAndParentsRelationships []WireCAPR `json:"childAndParentsRelationships"`
}

// WirePerson is a single element of PersonsResponse.Persons.
type WirePerson struct {
	ID      string        `json:"id"`
	Living  bool          `json:"living"`
	Gender  *WireGender   `json:"gender"`
	Names   []WireName    `json:"names"`
	Display *WireDisplay  `json:"display"`
}

type WireGender struct {
	Type string `json:"type"`
}

type WireDisplay struct {
	Lifespan string `json:"lifespan"`
}

type WireName struct {
	Preferred bool           `json:"preferred"`
	NameForms []WireNameForm `json:"nameForms"`
}

type WireNameForm struct {
	Parts []WireNamePart `json:"parts"`
}

type WireNamePart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// WireRelationship is a couple/parent-child relationship summary entry,
// only the Couple-typed ones matter to the core crawl (spec.md §4.4).
type WireRelationship struct {
	Type    string             `json:"type"`
	Person1 *WireResourceRef   `json:"person1"`
	Person2 *WireResourceRef   `json:"person2"`
}

type WireResourceRef struct {
	ResourceID string `json:"resourceId"`
}

// WireCAPR is a childAndParentsRelationships entry.
type WireCAPR struct {
	ID           string            `json:"id"`
	Child        *WireResourceRef  `json:"child"`
	Parent1      *WireResourceRef  `json:"parent1"`
	Parent2      *WireResourceRef  `json:"parent2"`
	Parent1Facts []WireFact        `json:"parent1Facts"`
	Parent2Facts []WireFact        `json:"parent2Facts"`
}

type WireFact struct {
	Type string `json:"type"`
}

// GenderColor maps a gedcomx gender type URI to the vertex Color
// convention (spec.md §9 open question: adopt -1/0/1).
func GenderColor(g *WireGender) Color {
	if g == nil {
		return ColorUnknown
	}
	switch uriSuffix(g.Type) {
	case "Male":
		return ColorMale
	case "Female":
		return ColorFemale
	default:
		return ColorUnknown
	}
}

// PreferredName extracts the preferred (or first) name's given/surname
// parts. Returns a zero Name if none are present.
func PreferredName(names []WireName) Name {
	if len(names) == 0 {
		return Name{}
	}
	chosen := names[0]
	for _, n := range names {
		if n.Preferred {
			chosen = n
			break
		}
	}
	var out Name
	for _, form := range chosen.NameForms {
		for _, part := range form.Parts {
			switch uriSuffix(part.Type) {
			case "Given":
				out.Given = part.Value
			case "Surname":
				out.Surname = part.Value
			}
		}
	}
	return out
}

// FactType resolves a gedcomx fact type URI to a RelationshipType,
// defaulting to UnspecifiedParentType when unrecognized.
func FactType(uri string) RelationshipType {
	suffix := uriSuffix(uri)
	switch RelationshipType(suffix) {
	case AdoptiveParent, BiologicalParent, FosterParent, GuardianParent,
		StepParent, SociologicalParent, SurrogateParent:
		return RelationshipType(suffix)
	default:
		return UnspecifiedParentType
	}
}

// uriSuffix returns the final path segment of a gedcomx type URI, e.g.
// "http://gedcomx.org/Male" -> "Male".
func uriSuffix(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
