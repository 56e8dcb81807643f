package model

import "testing"

func TestGenderColor(t *testing.T) {
	if got := GenderColor(nil); got != ColorUnknown {
		t.Errorf("expected nil gender -> ColorUnknown, got %v", got)
	}
	if got := GenderColor(&WireGender{Type: "http://gedcomx.org/Male"}); got != ColorMale {
		t.Errorf("expected Male -> ColorMale, got %v", got)
	}
	if got := GenderColor(&WireGender{Type: "http://gedcomx.org/Female"}); got != ColorFemale {
		t.Errorf("expected Female -> ColorFemale, got %v", got)
	}
	if got := GenderColor(&WireGender{Type: "http://gedcomx.org/Unknown"}); got != ColorUnknown {
		t.Errorf("expected Unknown -> ColorUnknown, got %v", got)
	}
}

func TestPreferredName(t *testing.T) {
	names := []WireName{
		{
			Preferred: false,
			NameForms: []WireNameForm{{Parts: []WireNamePart{
				{Type: "http://gedcomx.org/Given", Value: "First"},
				{Type: "http://gedcomx.org/Surname", Value: "Name"},
			}}},
		},
		{
			Preferred: true,
			NameForms: []WireNameForm{{Parts: []WireNamePart{
				{Type: "http://gedcomx.org/Given", Value: "Jane"},
				{Type: "http://gedcomx.org/Surname", Value: "Doe"},
			}}},
		},
	}

	got := PreferredName(names)
	if got.Given != "Jane" || got.Surname != "Doe" {
		t.Errorf("expected preferred name Jane Doe, got %+v", got)
	}
}

func TestPreferredNameFallsBackToFirst(t *testing.T) {
	names := []WireName{
		{
			NameForms: []WireNameForm{{Parts: []WireNamePart{
				{Type: "http://gedcomx.org/Given", Value: "Only"},
			}}},
		},
	}
	got := PreferredName(names)
	if got.Given != "Only" {
		t.Errorf("expected fallback to first name, got %+v", got)
	}
}

func TestPreferredNameEmpty(t *testing.T) {
	got := PreferredName(nil)
	if got.Given != "" || got.Surname != "" {
		t.Errorf("expected zero Name, got %+v", got)
	}
}

func TestFactType(t *testing.T) {
	cases := map[string]RelationshipType{
		"http://gedcomx.org/BiologicalParent": BiologicalParent,
		"http://gedcomx.org/StepParent":       StepParent,
		"http://gedcomx.org/Unrecognized":     UnspecifiedParentType,
	}
	for uri, want := range cases {
		if got := FactType(uri); got != want {
			t.Errorf("FactType(%q) = %v, want %v", uri, got, want)
		}
	}
}
