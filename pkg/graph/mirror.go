package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Mirror keeps Person nodes and RELATES_TO edges in the graph database in
// step with the relational store. Mirror writes are best effort; callers log
// failures without failing the originating request.
type Mirror struct {
	client *Client
	logger ectologger.Logger
}

// NewMirror creates a new graph mirror
func NewMirror(client *Client, logger ectologger.Logger) *Mirror {
	return &Mirror{
		client: client,
		logger: logger,
	}
}

// UpsertPerson creates or updates the person node
func (m *Mirror) UpsertPerson(ctx context.Context, person *models.Person) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Mirror.UpsertPerson")
	defer span.End()

	props := map[string]any{
		"id":               person.ID,
		"dossier_id":       person.DossierID,
		"canonical_name":   person.CanonicalName,
		"aliases":          []string(person.Aliases),
		"confidence_score": person.ConfidenceScore,
		"merged_from":      []string(person.MergedFrom),
		"updated_at":       person.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}

	cypher := `
		MERGE (p:Person {id: $id, dossier_id: $dossier_id})
		SET p = $props
		RETURN p
	`

	_, err := m.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":         person.ID,
			"dossier_id": person.DossierID,
			"props":      props,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"person_id": person.ID,
		}).Error("Failed to mirror person to graph")
		return fmt.Errorf("failed to mirror person: %w", err)
	}

	return nil
}

// DeletePerson removes the person node and any edges attached to it
func (m *Mirror) DeletePerson(ctx context.Context, personID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Mirror.DeletePerson")
	defer span.End()

	cypher := `
		MATCH (p:Person {id: $id})
		DETACH DELETE p
	`

	_, err := m.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": personID})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"person_id": personID,
		}).Error("Failed to remove person from graph")
		return fmt.Errorf("failed to remove person: %w", err)
	}

	return nil
}

// UpsertRelationship creates or updates the edge between two person nodes
func (m *Mirror) UpsertRelationship(ctx context.Context, rel *models.Relationship) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Mirror.UpsertRelationship")
	defer span.End()

	cypher := `
		MATCH (a:Person {id: $person_a_id})
		MATCH (b:Person {id: $person_b_id})
		MERGE (a)-[r:RELATES_TO {id: $id}]->(b)
		SET r.relationship_type = $relationship_type,
		    r.confidence_score = $confidence_score,
		    r.dossier_id = $dossier_id
	`

	_, err := m.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":                rel.ID,
			"person_a_id":       rel.PersonAID,
			"person_b_id":       rel.PersonBID,
			"relationship_type": rel.RelationshipType,
			"confidence_score":  rel.ConfidenceScore,
			"dossier_id":        rel.DossierID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"relationship_id": rel.ID,
		}).Error("Failed to mirror relationship to graph")
		return fmt.Errorf("failed to mirror relationship: %w", err)
	}

	return nil
}

// DeleteRelationship removes the edge by id
func (m *Mirror) DeleteRelationship(ctx context.Context, relationshipID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Mirror.DeleteRelationship")
	defer span.End()

	cypher := `
		MATCH ()-[r:RELATES_TO {id: $id}]->()
		DELETE r
	`

	_, err := m.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": relationshipID})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"relationship_id": relationshipID,
		}).Error("Failed to remove relationship from graph")
		return fmt.Errorf("failed to remove relationship: %w", err)
	}

	return nil
}

// MergePersons re-points the merged person's edges at the primary node and
// removes the merged node. Run after the relational merge has committed.
func (m *Mirror) MergePersons(ctx context.Context, primaryID, mergedID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Mirror.MergePersons")
	defer span.End()

	_, err := m.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		outbound := `
			MATCH (merged:Person {id: $merged_id})-[r:RELATES_TO]->(other)
			MATCH (primary:Person {id: $primary_id})
			MERGE (primary)-[nr:RELATES_TO {id: r.id}]->(other)
			SET nr = properties(r)
			DELETE r
		`
		if _, err := tx.Run(ctx, outbound, map[string]any{"primary_id": primaryID, "merged_id": mergedID}); err != nil {
			return nil, err
		}

		inbound := `
			MATCH (other)-[r:RELATES_TO]->(merged:Person {id: $merged_id})
			MATCH (primary:Person {id: $primary_id})
			MERGE (other)-[nr:RELATES_TO {id: r.id}]->(primary)
			SET nr = properties(r)
			DELETE r
		`
		if _, err := tx.Run(ctx, inbound, map[string]any{"primary_id": primaryID, "merged_id": mergedID}); err != nil {
			return nil, err
		}

		cleanup := `
			MATCH (merged:Person {id: $merged_id})
			DETACH DELETE merged
		`
		result, err := tx.Run(ctx, cleanup, map[string]any{"merged_id": mergedID})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"primary_person_id": primaryID,
			"merged_person_id":  mergedID,
		}).Error("Failed to apply merge in graph")
		return fmt.Errorf("failed to apply merge in graph: %w", err)
	}

	return nil
}
