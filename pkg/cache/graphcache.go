package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/aster/pkg/models"
)

// GraphCache caches assembled relationship graphs per dossier. Entries
// expire on a short TTL; writes to a dossier also invalidate its entries.
type GraphCache struct {
	client *Client
	logger ectologger.Logger
	ttl    time.Duration
}

// NewGraphCache creates a graph cache with the given TTL
func NewGraphCache(client *Client, logger ectologger.Logger, ttl time.Duration) *GraphCache {
	return &GraphCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func graphKey(dossierID, focusID string) string {
	if focusID == "" {
		return fmt.Sprintf("aster:graph:%s:full", dossierID)
	}
	return fmt.Sprintf("aster:graph:%s:focus:%s", dossierID, focusID)
}

// Get returns the cached graph for the dossier and focus, or nil on a miss.
// Cache failures are logged and reported as misses.
func (g *GraphCache) Get(ctx context.Context, dossierID, focusID string) *models.GraphResponse {
	raw, err := g.client.Get(ctx, graphKey(dossierID, focusID))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			g.logger.WithContext(ctx).WithError(err).Warn("Graph cache read failed")
		}
		return nil
	}

	var graph models.GraphResponse
	if err := json.Unmarshal([]byte(raw), &graph); err != nil {
		g.logger.WithContext(ctx).WithError(err).Warn("Graph cache entry corrupt")
		return nil
	}

	return &graph
}

// Set stores the assembled graph for the dossier and focus
func (g *GraphCache) Set(ctx context.Context, dossierID, focusID string, graph *models.GraphResponse) {
	data, err := json.Marshal(graph)
	if err != nil {
		return
	}

	if err := g.client.Set(ctx, graphKey(dossierID, focusID), data, g.ttl); err != nil {
		g.logger.WithContext(ctx).WithError(err).Warn("Graph cache write failed")
	}
}

// Invalidate drops every cached graph for the dossier
func (g *GraphCache) Invalidate(ctx context.Context, dossierID string) {
	if err := g.client.DeleteByPattern(ctx, fmt.Sprintf("aster:graph:%s:*", dossierID)); err != nil {
		g.logger.WithContext(ctx).WithError(err).Warn("Graph cache invalidation failed")
	}
}
