// Package decode turns raw JSON payloads from the tree service into Store
// mutations. Grounded on original_source/controller/fsapi.py's
// process_persons_result/process_relationship_result and their shared
// check_error unwrapping.
package decode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dbsmedya/fscrawl/internal/logger"
	"github.com/dbsmedya/fscrawl/internal/model"
	"github.com/dbsmedya/fscrawl/internal/store"
)

// unwrapError peels back a response shaped {"error": {...}}. Some upstream
// error responses carry the real payload nested under "error"; when that
// nested value parses as an object, it is used in place of the outer one.
// Any other shape is returned unchanged.
func unwrapError(body []byte) []byte {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return body
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Error, &probe); err != nil {
		return body
	}
	return envelope.Error
}

// ProcessPersonsResult applies the persons/relationships/
// childAndParentsRelationships sections of a GET .../persons/.json response
// to store: new vertices, Couple-relationship frontier seeds, and untyped
// parent-child edges.
func ProcessPersonsResult(ctx context.Context, s store.Store, body []byte, iteration int) error {
	if len(body) == 0 {
		return nil
	}
	body = unwrapError(body)

	var resp model.PersonsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode persons response: %w", err)
	}

	for _, p := range resp.Persons {
		individual := model.Individual{
			ID:        p.ID,
			Color:     model.GenderColor(p.Gender),
			Name:      model.PreferredName(p.Names),
			Iteration: iteration,
		}
		if p.Display != nil {
			individual.Lifespan = p.Display.Lifespan
		}
		if err := s.AddIndividual(ctx, individual); err != nil {
			return fmt.Errorf("add individual %s: %w", p.ID, err)
		}
	}

	for _, rel := range resp.Relationships {
		if uriSuffixOf(rel.Type) != "Couple" {
			continue
		}
		if rel.Person1 != nil {
			if err := s.AddToFrontier(ctx, rel.Person1.ResourceID); err != nil {
				return fmt.Errorf("frontier %s: %w", rel.Person1.ResourceID, err)
			}
		}
		if rel.Person2 != nil {
			if err := s.AddToFrontier(ctx, rel.Person2.ResourceID); err != nil {
				return fmt.Errorf("frontier %s: %w", rel.Person2.ResourceID, err)
			}
		}
	}

	for _, capr := range resp.ChildAndParentsRelationships {
		if capr.Child == nil {
			continue
		}
		child := capr.Child.ResourceID
		if capr.Parent1 != nil {
			if err := s.AddParentChildRelationship(ctx, child, capr.Parent1.ResourceID, capr.ID); err != nil {
				return fmt.Errorf("add relationship %s/parent1: %w", capr.ID, err)
			}
		}
		if capr.Parent2 != nil {
			if err := s.AddParentChildRelationship(ctx, child, capr.Parent2.ResourceID, capr.ID); err != nil {
				return fmt.Errorf("add relationship %s/parent2: %w", capr.ID, err)
			}
		}
	}
	return nil
}

// ProcessRelationshipResult applies a GET
// .../child-and-parents-relationships/{id}.json response to store,
// rewriting each concrete edge's type from its parent1Facts/parent2Facts.
// log may be nil; divergent facts are then left unreported rather than
// causing a failure.
func ProcessRelationshipResult(ctx context.Context, s store.Store, body []byte, log *logger.Logger) error {
	if len(body) == 0 {
		return nil
	}
	body = unwrapError(body)

	var resp model.RelationshipResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode relationship response: %w", err)
	}

	for _, capr := range resp.ChildAndParentsRelationships {
		if capr.Child == nil {
			continue
		}
		child := capr.Child.ResourceID
		if capr.Parent1 != nil {
			if err := updateEndpoint(ctx, s, child, capr.Parent1.ResourceID, capr.ID, capr.Parent1Facts, log); err != nil {
				return err
			}
		}
		if capr.Parent2 != nil {
			if err := updateEndpoint(ctx, s, child, capr.Parent2.ResourceID, capr.ID, capr.Parent2Facts, log); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateEndpoint resolves relID's type from facts the way
// original_source/controller/fsapi.py's get_relationship_type does:
// walk every fact, letting the last one win, and flag any fact whose
// type disagrees with the one before it.
func updateEndpoint(ctx context.Context, s store.Store, child, parent, relID string, facts []model.WireFact, log *logger.Logger) error {
	if child == "" || parent == "" {
		return fmt.Errorf("relationship %s: child=%q parent=%q unexpected", relID, child, parent)
	}
	relType := model.UnspecifiedParentType
	for i, fact := range facts {
		next := model.FactType(fact.Type)
		if i > 0 && next != relType && log != nil {
			log.Warnw("relationship fact type diverges from prior fact",
				"rel_id", relID, "prior_type", relType, "fact_type", next, "fact_index", i)
		}
		relType = next
	}
	if err := s.UpdateRelationshipByEndpoints(ctx, child, parent, relType); err != nil {
		return fmt.Errorf("update relationship %s: %w", relID, err)
	}
	return nil
}

func uriSuffixOf(uri string) string {
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == '/' {
			return uri[i+1:]
		}
	}
	return uri
}
