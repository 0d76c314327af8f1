package graphview

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/internal/repositories/dossier"
	"github.com/Ramsey-B/aster/internal/repositories/person"
	"github.com/Ramsey-B/aster/internal/repositories/relationship"
	"github.com/Ramsey-B/aster/pkg/cache"
	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// maxGraphNodes bounds the person fetch for one graph response.
const maxGraphNodes = 1000

// Service loads a dossier's persons and relationships and assembles the
// graph view
type Service struct {
	logger           ectologger.Logger
	dossierRepo      *dossier.Repository
	personRepo       *person.Repository
	relationshipRepo *relationship.Repository
	graphCache       *cache.GraphCache
}

// NewService creates a new graph view service. The cache may be nil when
// Redis is disabled.
func NewService(
	logger ectologger.Logger,
	dossierRepo *dossier.Repository,
	personRepo *person.Repository,
	relationshipRepo *relationship.Repository,
	graphCache *cache.GraphCache,
) *Service {
	return &Service{
		logger:           logger,
		dossierRepo:      dossierRepo,
		personRepo:       personRepo,
		relationshipRepo: relationshipRepo,
		graphCache:       graphCache,
	}
}

// BuildGraph assembles the relationship graph for the dossier, restricted to
// the focus person's two-hop neighborhood when focusID is set.
func (s *Service) BuildGraph(ctx context.Context, dossierID, focusID string) (*models.GraphResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "graphview.Service.BuildGraph")
	defer span.End()

	exists, err := s.dossierRepo.Exists(ctx, dossierID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "dossier %s not found", dossierID)
	}

	if s.graphCache != nil {
		if cached := s.graphCache.Get(ctx, dossierID, focusID); cached != nil {
			metrics.GraphCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.GraphCacheHits.WithLabelValues("miss").Inc()
	}

	page, err := s.personRepo.List(ctx, dossierID, "", maxGraphNodes, 0)
	if err != nil {
		return nil, err
	}

	relationships, err := s.relationshipRepo.List(ctx, models.RelationshipFilter{DossierID: dossierID})
	if err != nil {
		return nil, err
	}

	graph := Assemble(page.Items, relationships, focusID)

	mode := "full"
	if focusID != "" {
		mode = "focus"
	}
	metrics.RecordGraphAssembly(mode, len(graph.Nodes))

	if s.graphCache != nil {
		s.graphCache.Set(ctx, dossierID, focusID, graph)
	}

	return graph, nil
}
