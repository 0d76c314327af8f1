package timeline

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/internal/repositories/attribute"
	"github.com/Ramsey-B/aster/internal/repositories/person"
	"github.com/Ramsey-B/aster/internal/repositories/relationship"
	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Service builds person timelines from stored attributes and relationships
type Service struct {
	logger           ectologger.Logger
	personRepo       *person.Repository
	attributeRepo    *attribute.Repository
	relationshipRepo *relationship.Repository
}

// NewService creates a new timeline service
func NewService(
	logger ectologger.Logger,
	personRepo *person.Repository,
	attributeRepo *attribute.Repository,
	relationshipRepo *relationship.Repository,
) *Service {
	return &Service{
		logger:           logger,
		personRepo:       personRepo,
		attributeRepo:    attributeRepo,
		relationshipRepo: relationshipRepo,
	}
}

// BuildTimeline assembles the event sequence for one person. Relationship
// events resolve the other endpoint's canonical name at query time, so a
// rename or merge after the relationship was recorded shows the current name.
func (s *Service) BuildTimeline(ctx context.Context, personID string) (*models.TimelineResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "timeline.Service.BuildTimeline")
	defer span.End()

	if _, err := s.personRepo.Get(ctx, personID); err != nil {
		return nil, err
	}

	attributes, err := s.attributeRepo.ListByPerson(ctx, personID, nil, nil)
	if err != nil {
		return nil, err
	}

	relationships, err := s.relationshipRepo.List(ctx, models.RelationshipFilter{PersonID: personID})
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	resolveName := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := "Unknown"
		if other, err := s.personRepo.Get(ctx, id); err == nil {
			name = other.CanonicalName
		}
		names[id] = name
		return name
	}

	timeline := Assemble(personID, attributes, relationships, resolveName)

	metrics.TimelineAssembliesTotal.Inc()

	return timeline, nil
}
