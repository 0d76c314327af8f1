package models

import "time"

// GraphNode is one person rendered in the relationship graph
type GraphNode struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// GraphEdge is one relationship rendered in the relationship graph
type GraphEdge struct {
	ID               string   `json:"id"`
	From             string   `json:"from"`
	To               string   `json:"to"`
	RelationshipType string   `json:"relationship_type"`
	ConfidenceScore  float64  `json:"confidence_score"`
	EvidenceRefs     []string `json:"evidence_refs"`
}

// GraphResponse is the renderable subgraph for a dossier
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

const (
	TimelineEventAttribute    = "attribute"
	TimelineEventRelationship = "relationship"
)

// TimelineEvent is one validity-window event on a person's timeline.
// Details carries the source Attribute or Relationship record.
type TimelineEvent struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Details any       `json:"details,omitempty"`
}

// TimelineResponse is the chronologically ascending event sequence for a person
type TimelineResponse struct {
	Events []TimelineEvent `json:"events"`
}
