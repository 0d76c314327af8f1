// Package timeline assembles validity-window events for one person.
package timeline

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/aster/pkg/models"
)

// Assemble merges attribute and relationship validity windows into one
// ascending event sequence. Attributes with neither validity bound and
// relationships without valid_from produce no event. resolveName maps a
// person id to its current canonical name.
func Assemble(personID string, attributes []models.Attribute, relationships []models.Relationship, resolveName func(string) string) *models.TimelineResponse {
	events := make([]models.TimelineEvent, 0, len(attributes)+len(relationships))

	for _, attr := range attributes {
		if attr.ValidFrom == nil && attr.ValidTo == nil {
			continue
		}

		date := attr.CreatedAt
		if attr.ValidFrom != nil {
			date = *attr.ValidFrom
		}

		events = append(events, models.TimelineEvent{
			ID:      "attr_" + attr.ID,
			Type:    models.TimelineEventAttribute,
			Title:   fmt.Sprintf("%s: %s", attr.AttributeType, attr.AttributeValue),
			Date:    date,
			Details: attr,
		})
	}

	for _, rel := range relationships {
		if rel.ValidFrom == nil {
			continue
		}

		otherID := rel.PersonAID
		if rel.PersonAID == personID {
			otherID = rel.PersonBID
		}

		events = append(events, models.TimelineEvent{
			ID:      "rel_" + rel.ID,
			Type:    models.TimelineEventRelationship,
			Title:   fmt.Sprintf("%s with %s", rel.RelationshipType, resolveName(otherID)),
			Date:    *rel.ValidFrom,
			Details: rel,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	return &models.TimelineResponse{Events: events}
}
