// Package model contains the domain types shared across the crawl engine:
// individuals, relationship types, and the wire DTOs decoded from the
// upstream tree service.
package model

import "regexp"

// Color is the vertex color used by downstream graph-analytics consumers.
// The value domain follows the -1/0/1 convention; see DESIGN.md for the
// historical 1/2 variant this supersedes.
type Color int

const (
	ColorMale    Color = -1
	ColorUnknown Color = 0
	ColorFemale  Color = 1
)

// IDPattern matches the external FamilySearch-style identifier format.
var IDPattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{3}$`)

// ValidID reports whether fsID matches the external identifier format.
func ValidID(fsID string) bool {
	return IDPattern.MatchString(fsID)
}

// Name holds the given and surname parts of a preferred name.
type Name struct {
	Given   string
	Surname string
}

// Individual is a single vertex in the graph: an external identifier plus
// the attributes resolved from the tree service at the iteration the
// vertex was first fetched.
type Individual struct {
	ID        string
	Color     Color
	Name      Name
	Iteration int
	Lifespan  string
}
