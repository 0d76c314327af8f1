// Package graphview assembles renderable relationship graphs for a dossier.
package graphview

import (
	"github.com/Ramsey-B/aster/pkg/models"
)

// Assemble builds the graph response from the dossier's persons and
// relationships. With an empty focusID every person becomes a node. With a
// focus, nodes are limited to persons reachable from the focus within two
// hops over the relationship set treated as undirected; edges are kept only
// when both endpoints survive the filter.
func Assemble(persons []models.Person, relationships []models.Relationship, focusID string) *models.GraphResponse {
	if focusID != "" {
		connected := expandFocus(relationships, focusID)

		filteredPersons := make([]models.Person, 0, len(persons))
		for _, p := range persons {
			if connected[p.ID] {
				filteredPersons = append(filteredPersons, p)
			}
		}
		persons = filteredPersons

		filteredRels := make([]models.Relationship, 0, len(relationships))
		for _, r := range relationships {
			if connected[r.PersonAID] && connected[r.PersonBID] {
				filteredRels = append(filteredRels, r)
			}
		}
		relationships = filteredRels
	}

	nodes := make([]models.GraphNode, 0, len(persons))
	for _, p := range persons {
		nodes = append(nodes, models.GraphNode{
			ID:              p.ID,
			Name:            p.CanonicalName,
			ConfidenceScore: p.ConfidenceScore,
		})
	}

	edges := make([]models.GraphEdge, 0, len(relationships))
	for _, r := range relationships {
		edges = append(edges, models.GraphEdge{
			ID:               r.ID,
			From:             r.PersonAID,
			To:               r.PersonBID,
			RelationshipType: r.RelationshipType,
			ConfidenceScore:  r.ConfidenceScore,
			EvidenceRefs:     []string(r.EvidenceRefs),
		})
	}

	return &models.GraphResponse{
		Nodes: nodes,
		Edges: edges,
	}
}

// expandFocus returns the ids reachable from the focus within two hops.
// Each round expands the set frozen at the round's start, so a node three
// or more hops out stays excluded no matter how the edges are ordered.
func expandFocus(relationships []models.Relationship, focusID string) map[string]bool {
	connected := map[string]bool{focusID: true}

	for _, r := range relationships {
		if r.PersonAID == focusID {
			connected[r.PersonBID] = true
		}
		if r.PersonBID == focusID {
			connected[r.PersonAID] = true
		}
	}

	firstHop := make([]string, 0, len(connected))
	for id := range connected {
		firstHop = append(firstHop, id)
	}

	for _, id := range firstHop {
		for _, r := range relationships {
			if r.PersonAID == id {
				connected[r.PersonBID] = true
			}
			if r.PersonBID == id {
				connected[r.PersonAID] = true
			}
		}
	}

	return connected
}
