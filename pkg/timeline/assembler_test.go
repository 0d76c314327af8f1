package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aster/pkg/models"
)

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func names(id string) string {
	lookup := map[string]string{
		"p2": "Bob",
		"p3": "Carol",
	}
	if name, ok := lookup[id]; ok {
		return name
	}
	return "Unknown"
}

func TestAssemble_OrdersEventsAscending(t *testing.T) {
	attributes := []models.Attribute{
		{
			ID:             "a1",
			PersonID:       "p1",
			AttributeType:  "occupation",
			AttributeValue: "chemist",
			ValidFrom:      datePtr("2024-01-01"),
		},
	}
	relationships := []models.Relationship{
		{
			ID:               "r1",
			PersonAID:        "p1",
			PersonBID:        "p2",
			RelationshipType: "colleague",
			ValidFrom:        datePtr("2023-06-01"),
		},
	}

	tl := Assemble("p1", attributes, relationships, names)

	require.Len(t, tl.Events, 2)
	assert.Equal(t, "rel_r1", tl.Events[0].ID)
	assert.Equal(t, "attr_a1", tl.Events[1].ID)
	assert.True(t, tl.Events[0].Date.Before(tl.Events[1].Date))
}

func TestAssemble_EventShape(t *testing.T) {
	attr := models.Attribute{
		ID:             "a1",
		PersonID:       "p1",
		AttributeType:  "address",
		AttributeValue: "221B Baker St",
		ValidFrom:      datePtr("2022-03-15"),
	}
	rel := models.Relationship{
		ID:               "r1",
		PersonAID:        "p1",
		PersonBID:        "p2",
		RelationshipType: "associate",
		ValidFrom:        datePtr("2022-01-01"),
	}

	tl := Assemble("p1", []models.Attribute{attr}, []models.Relationship{rel}, names)
	require.Len(t, tl.Events, 2)

	relEvent := tl.Events[0]
	assert.Equal(t, models.TimelineEventRelationship, relEvent.Type)
	assert.Equal(t, "associate with Bob", relEvent.Title)
	assert.Equal(t, rel, relEvent.Details)

	attrEvent := tl.Events[1]
	assert.Equal(t, models.TimelineEventAttribute, attrEvent.Type)
	assert.Equal(t, "address: 221B Baker St", attrEvent.Title)
	assert.Equal(t, date("2022-03-15"), attrEvent.Date)
	assert.Equal(t, attr, attrEvent.Details)
}

func TestAssemble_SkipsRecordsWithoutWindows(t *testing.T) {
	attributes := []models.Attribute{
		{ID: "a1", AttributeType: "email", AttributeValue: "x@example.com"},
	}
	relationships := []models.Relationship{
		{ID: "r1", PersonAID: "p1", PersonBID: "p2", RelationshipType: "associate"},
	}

	tl := Assemble("p1", attributes, relationships, names)

	assert.Empty(t, tl.Events)
}

func TestAssemble_ValidToOnlyUsesCreatedAt(t *testing.T) {
	attributes := []models.Attribute{
		{
			ID:             "a1",
			AttributeType:  "occupation",
			AttributeValue: "smuggler",
			ValidTo:        datePtr("2020-12-31"),
			CreatedAt:      date("2021-02-01"),
		},
	}

	tl := Assemble("p1", attributes, nil, names)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, date("2021-02-01"), tl.Events[0].Date)
}

func TestAssemble_ResolvesOtherEndpoint(t *testing.T) {
	relationships := []models.Relationship{
		// Focus person stored on either side.
		{ID: "r1", PersonAID: "p1", PersonBID: "p2", RelationshipType: "sibling", ValidFrom: datePtr("2001-01-01")},
		{ID: "r2", PersonAID: "p3", PersonBID: "p1", RelationshipType: "rival", ValidFrom: datePtr("2002-01-01")},
		{ID: "r3", PersonAID: "p1", PersonBID: "p9", RelationshipType: "contact", ValidFrom: datePtr("2003-01-01")},
	}

	tl := Assemble("p1", nil, relationships, names)

	require.Len(t, tl.Events, 3)
	assert.Equal(t, "sibling with Bob", tl.Events[0].Title)
	assert.Equal(t, "rival with Carol", tl.Events[1].Title)
	assert.Equal(t, "contact with Unknown", tl.Events[2].Title)
}

func TestAssemble_StableOrderOnEqualDates(t *testing.T) {
	sameDay := datePtr("2024-05-01")
	attributes := []models.Attribute{
		{ID: "a1", AttributeType: "email", AttributeValue: "one", ValidFrom: sameDay},
		{ID: "a2", AttributeType: "email", AttributeValue: "two", ValidFrom: sameDay},
	}
	relationships := []models.Relationship{
		{ID: "r1", PersonAID: "p1", PersonBID: "p2", RelationshipType: "associate", ValidFrom: sameDay},
	}

	tl := Assemble("p1", attributes, relationships, names)

	require.Len(t, tl.Events, 3)
	// Attributes are collected before relationships; ties keep that order.
	assert.Equal(t, []string{"attr_a1", "attr_a2", "rel_r1"}, []string{
		tl.Events[0].ID, tl.Events[1].ID, tl.Events[2].ID,
	})
}
