// Package events handles event emission for dossier record lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/kafka"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes lifecycle events for persons and relationships
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitPersonCreated emits a person created event
func (e *Emitter) EmitPersonCreated(ctx context.Context, person *models.Person, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitPersonCreated")
	defer span.End()

	data, _ := json.Marshal(person)

	event := &kafka.PersonEvent{
		EventType: "person.created",
		DossierID: person.DossierID,
		PersonID:  person.ID,
		Data:      data,
		Actor:     actor,
	}

	if err := e.producer.PublishPersonEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit person.created event")
		return err
	}

	return nil
}

// EmitPersonDeleted emits a person deleted event
func (e *Emitter) EmitPersonDeleted(ctx context.Context, dossierID string, personID string, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitPersonDeleted")
	defer span.End()

	event := &kafka.PersonEvent{
		EventType: "person.deleted",
		DossierID: dossierID,
		PersonID:  personID,
		Actor:     actor,
	}

	if err := e.producer.PublishPersonEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit person.deleted event")
		return err
	}

	return nil
}

// EmitPersonMerged emits a person merged event describing the absorbed record
func (e *Emitter) EmitPersonMerged(ctx context.Context, primary *models.Person, mergedID string, reason string, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitPersonMerged")
	defer span.End()

	mergeData := map[string]any{
		"schema_version":   SchemaVersion,
		"merged_person_id": mergedID,
		"canonical_name":   primary.CanonicalName,
	}
	if reason != "" {
		mergeData["reason"] = reason
	}
	dataJSON, _ := json.Marshal(mergeData)

	event := &kafka.PersonEvent{
		EventType:  "person.merged",
		DossierID:  primary.DossierID,
		PersonID:   primary.ID,
		Data:       dataJSON,
		MergedFrom: primary.MergedFrom,
		Actor:      actor,
	}

	if err := e.producer.PublishPersonEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit person.merged event")
		return err
	}

	return nil
}

// EmitRelationshipCreated emits a relationship created event
func (e *Emitter) EmitRelationshipCreated(ctx context.Context, rel *models.Relationship, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRelationshipCreated")
	defer span.End()

	props, _ := json.Marshal(map[string]any{
		"confidence_score": rel.ConfidenceScore,
		"evidence_refs":    []string(rel.EvidenceRefs),
	})

	event := &kafka.RelationshipEvent{
		EventType:        "relationship.created",
		DossierID:        rel.DossierID,
		RelationshipID:   rel.ID,
		RelationshipType: rel.RelationshipType,
		PersonAID:        rel.PersonAID,
		PersonBID:        rel.PersonBID,
		Properties:       props,
		Actor:            actor,
	}

	if err := e.producer.PublishRelationshipEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit relationship.created event")
		return err
	}

	return nil
}

// EmitRelationshipDeleted emits a relationship deleted event
func (e *Emitter) EmitRelationshipDeleted(ctx context.Context, dossierID string, relID string, relType string, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRelationshipDeleted")
	defer span.End()

	event := &kafka.RelationshipEvent{
		EventType:        "relationship.deleted",
		DossierID:        dossierID,
		RelationshipID:   relID,
		RelationshipType: relType,
		Actor:            actor,
	}

	if err := e.producer.PublishRelationshipEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit relationship.deleted event")
		return err
	}

	return nil
}
