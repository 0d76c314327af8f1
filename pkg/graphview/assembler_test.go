package graphview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aster/pkg/models"
)

func makePerson(id, name string) models.Person {
	return models.Person{ID: id, CanonicalName: name, ConfidenceScore: 1}
}

func makeRel(id, a, b string) models.Relationship {
	return models.Relationship{ID: id, PersonAID: a, PersonBID: b, RelationshipType: "associate"}
}

// chain builds the line a - b - c - d - e
func chain() ([]models.Person, []models.Relationship) {
	persons := []models.Person{
		makePerson("a", "Alice"),
		makePerson("b", "Bob"),
		makePerson("c", "Carol"),
		makePerson("d", "Dan"),
		makePerson("e", "Eve"),
	}
	relationships := []models.Relationship{
		makeRel("r1", "a", "b"),
		makeRel("r2", "b", "c"),
		makeRel("r3", "c", "d"),
		makeRel("r4", "d", "e"),
	}
	return persons, relationships
}

func nodeIDs(g *models.GraphResponse) []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func edgeIDs(g *models.GraphResponse) []string {
	ids := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestAssemble_FullGraph(t *testing.T) {
	persons, relationships := chain()

	g := Assemble(persons, relationships, "")

	assert.Len(t, g.Nodes, 5)
	assert.Len(t, g.Edges, 4)
	assert.Equal(t, "Alice", g.Nodes[0].Name)
	assert.Equal(t, "a", g.Edges[0].From)
	assert.Equal(t, "b", g.Edges[0].To)
}

func TestAssemble_FocusTwoHops(t *testing.T) {
	persons, relationships := chain()

	t.Run("focus at the end of the chain", func(t *testing.T) {
		g := Assemble(persons, relationships, "a")

		assert.ElementsMatch(t, []string{"a", "b", "c"}, nodeIDs(g))
		assert.ElementsMatch(t, []string{"r1", "r2"}, edgeIDs(g))
	})

	t.Run("focus in the middle reaches everything", func(t *testing.T) {
		g := Assemble(persons, relationships, "c")

		assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, nodeIDs(g))
		assert.Len(t, g.Edges, 4)
	})

	t.Run("isolated focus yields only itself", func(t *testing.T) {
		persons := append(chainPersons(), makePerson("z", "Zed"))
		g := Assemble(persons, relationships, "z")

		assert.ElementsMatch(t, []string{"z"}, nodeIDs(g))
		assert.Empty(t, g.Edges)
	})
}

func chainPersons() []models.Person {
	persons, _ := chain()
	return persons
}

func TestAssemble_EdgeOrderDoesNotExtendReach(t *testing.T) {
	persons, relationships := chain()

	// Reverse the edge slice so the far end of the chain is scanned first.
	reversed := make([]models.Relationship, 0, len(relationships))
	for i := len(relationships) - 1; i >= 0; i-- {
		reversed = append(reversed, relationships[i])
	}

	g := Assemble(persons, reversed, "a")

	assert.ElementsMatch(t, []string{"a", "b", "c"}, nodeIDs(g))
}

func TestAssemble_FocusDropsOutOfReachEdges(t *testing.T) {
	persons, relationships := chain()

	g := Assemble(persons, relationships, "a")

	// r3 connects c and d; d is three hops out, so the edge goes with it.
	assert.NotContains(t, edgeIDs(g), "r3")
	assert.NotContains(t, edgeIDs(g), "r4")
}

func TestAssemble_UndirectedTraversal(t *testing.T) {
	// b - a stored with the focus as person_b; traversal must follow both
	// directions.
	persons := []models.Person{
		makePerson("a", "Alice"),
		makePerson("b", "Bob"),
		makePerson("c", "Carol"),
	}
	relationships := []models.Relationship{
		makeRel("r1", "b", "a"),
		makeRel("r2", "c", "b"),
	}

	g := Assemble(persons, relationships, "a")

	assert.ElementsMatch(t, []string{"a", "b", "c"}, nodeIDs(g))
}

func TestAssemble_EvidenceRefsCopied(t *testing.T) {
	persons := []models.Person{makePerson("a", "Alice"), makePerson("b", "Bob")}
	rel := makeRel("r1", "a", "b")
	rel.EvidenceRefs = []string{"doc-1", "doc-2"}

	g := Assemble(persons, []models.Relationship{rel}, "")

	require.Len(t, g.Edges, 1)
	assert.Equal(t, []string{"doc-1", "doc-2"}, g.Edges[0].EvidenceRefs)
}

func TestAssemble_EmptyDossier(t *testing.T) {
	g := Assemble(nil, nil, "")

	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}
