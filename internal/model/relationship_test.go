package model

import "testing"

func TestIsConcrete(t *testing.T) {
	concrete := []RelationshipType{
		UnspecifiedParentType, AdoptiveParent, BiologicalParent,
		FosterParent, GuardianParent, StepParent, SociologicalParent, SurrogateParent,
	}
	for _, rt := range concrete {
		if !IsConcrete(rt) {
			t.Errorf("expected %s to be concrete", rt)
		}
	}

	placeholders := []RelationshipType{UntypedParent, AssumedBiological, Resolve, UntypedCouple}
	for _, rt := range placeholders {
		if IsConcrete(rt) {
			t.Errorf("expected %s to not be concrete", rt)
		}
	}
}

func TestCanTransitionFromUntypedParent(t *testing.T) {
	targets := []RelationshipType{
		AssumedBiological, Resolve, BiologicalParent, StepParent, AdoptiveParent,
	}
	for _, to := range targets {
		if !CanTransition(UntypedParent, to) {
			t.Errorf("expected UntypedParent -> %s to be allowed", to)
		}
	}
}

func TestCanTransitionFromAssumedOrResolve(t *testing.T) {
	for _, from := range []RelationshipType{AssumedBiological, Resolve} {
		if !CanTransition(from, BiologicalParent) {
			t.Errorf("expected %s -> BiologicalParent to be allowed", from)
		}
		if !CanTransition(from, StepParent) {
			t.Errorf("expected %s -> StepParent to be allowed", from)
		}
		if CanTransition(from, UntypedParent) {
			t.Errorf("expected %s -> UntypedParent to be rejected", from)
		}
	}
}

func TestConcreteTypeNeverDowngrades(t *testing.T) {
	for _, from := range []RelationshipType{BiologicalParent, StepParent, AdoptiveParent} {
		if CanTransition(from, UntypedParent) {
			t.Errorf("expected %s -> UntypedParent to be rejected", from)
		}
		if CanTransition(from, AssumedBiological) {
			t.Errorf("expected %s -> AssumedBiological to be rejected", from)
		}
		if CanTransition(from, Resolve) {
			t.Errorf("expected %s -> Resolve to be rejected", from)
		}
		if !CanTransition(from, from) {
			t.Errorf("expected %s -> %s (identity) to be allowed", from, from)
		}
	}
}

func TestCanTransitionBetweenDistinctConcreteTypesRejected(t *testing.T) {
	if CanTransition(BiologicalParent, StepParent) {
		t.Error("expected BiologicalParent -> StepParent to be rejected (no lateral rewrite)")
	}
}
