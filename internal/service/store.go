// Package service composes the event store, the embedding provider, and
// the query interpreter into the ingestion and query flows.
package service

import (
	"context"

	"github.com/daedalus-s/threat-gdg-adk/internal/db"
	"github.com/daedalus-s/threat-gdg-adk/internal/models"
)

// Store is the slice of the event store the services depend on.
// *db.Client satisfies it; tests substitute an in-memory fake.
type Store interface {
	UpsertEvent(ctx context.Context, rec models.EventRecord) (string, error)
	QueryTimeRange(ctx context.Context, cameraID int, start, end float64, topK int) ([]models.EventRecord, error)
	QuerySemantic(ctx context.Context, embedding []float32, opts db.SemanticOptions) ([]models.EventRecord, error)
	QueryThreatLevel(ctx context.Context, level models.ThreatLevel, cameraID *int, limit int) ([]models.EventRecord, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

var _ Store = (*db.Client)(nil)
