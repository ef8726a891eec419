// Package db provides SurrealDB query functions for event operations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/daedalus-s/threat-gdg-adk/internal/models"
)

// eventRow mirrors models.EventRecord with the SurrealDB record ID type
// for CBOR decoding. Converted back to the domain type at the boundary.
type eventRow struct {
	ID             surrealmodels.RecordID `json:"id"`
	CameraID       int                    `json:"camera_id"`
	Timestamp      float64                `json:"timestamp"`
	FrameNumber    int                    `json:"frame_number"`
	ThreatLevel    string                 `json:"threat_level"`
	WeaponType     string                 `json:"weapon_type"`
	PeopleCount    int                    `json:"people_count"`
	UnfamiliarFace bool                   `json:"unfamiliar_face"`
	Threats        []string               `json:"threats"`
	Description    string                 `json:"description"`
	SearchableText string                 `json:"searchable_text"`
	Embedding      []float32              `json:"embedding,omitempty"`
	SessionID      *string                `json:"session_id,omitempty"`
	VideoPath      *string                `json:"video_path,omitempty"`
	IngestionTime  time.Time              `json:"ingestion_time,omitempty"`
	RelevanceScore *float64               `json:"relevance_score,omitempty"`
}

func (r eventRow) toModel() models.EventRecord {
	return models.EventRecord{
		ID:             recordIDString(r.ID),
		CameraID:       r.CameraID,
		Timestamp:      r.Timestamp,
		FrameNumber:    r.FrameNumber,
		ThreatLevel:    models.ParseThreatLevel(r.ThreatLevel),
		WeaponType:     r.WeaponType,
		PeopleCount:    r.PeopleCount,
		UnfamiliarFace: r.UnfamiliarFace,
		Threats:        r.Threats,
		Description:    r.Description,
		SearchableText: r.SearchableText,
		Embedding:      r.Embedding,
		SessionID:      r.SessionID,
		VideoPath:      r.VideoPath,
		IngestionTime:  r.IngestionTime,
		RelevanceScore: r.RelevanceScore,
	}
}

func rowsToModels(rows []eventRow) []models.EventRecord {
	out := make([]models.EventRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}

// recordIDString extracts the string key from a SurrealDB RecordID.
func recordIDString(id surrealmodels.RecordID) string {
	if s, ok := id.ID.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", id.ID)
}

// SemanticOptions restricts a nearest-neighbor search. CameraID and the
// time bounds are optional; TopK must be positive.
type SemanticOptions struct {
	CameraID  *int
	StartTime *float64
	EndTime   *float64
	TopK      int
}

// StoreStats describes the state of the event index.
type StoreStats struct {
	TotalRecords int     `json:"total_records"`
	Dimension    int     `json:"dimension"`
	Fullness     float64 `json:"fullness"`
}

// UpsertEvent writes a record keyed by its deterministic ID, replacing
// any prior record with the same ID. The write is idempotent: a true
// duplicate frame overwrites rather than duplicates.
func (c *Client) UpsertEvent(ctx context.Context, rec models.EventRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	if len(rec.Embedding) == 0 {
		return "", fmt.Errorf("%w: missing embedding", models.ErrInvalidRecord)
	}

	content := map[string]any{
		"camera_id":       rec.CameraID,
		"timestamp":       rec.Timestamp,
		"frame_number":    rec.FrameNumber,
		"threat_level":    string(rec.ThreatLevel),
		"weapon_type":     rec.WeaponType,
		"people_count":    rec.PeopleCount,
		"unfamiliar_face": rec.UnfamiliarFace,
		"threats":         emptyIfNil(rec.Threats),
		"description":     rec.Description,
		"searchable_text": rec.SearchableText,
		"embedding":       rec.Embedding,
		"ingestion_time":  rec.IngestionTime,
	}
	if rec.SessionID != nil {
		content["session_id"] = *rec.SessionID
	}
	if rec.VideoPath != nil {
		content["video_path"] = *rec.VideoPath
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("event", $id) CONTENT $content
	`, map[string]any{"id": rec.ID, "content": content})
	if err != nil {
		return "", fmt.Errorf("upsert event: %w", wrapStoreError(err))
	}
	return rec.ID, nil
}

// QueryTimeRange returns all records for one camera with timestamps in
// [start, end], both ends inclusive, ascending by timestamp with stable
// tie-breaks on frame number and id. Range queries never touch the vector
// index: an exact window filter must not drop low-scoring entries.
func (c *Client) QueryTimeRange(ctx context.Context, cameraID int, start, end float64, topK int) ([]models.EventRecord, error) {
	results, err := surrealdb.Query[[]eventRow](ctx, c.db, `
		SELECT * FROM event
		WHERE camera_id = $camera AND timestamp >= $start AND timestamp <= $end
		ORDER BY timestamp ASC, frame_number ASC, id ASC
		LIMIT $limit
	`, map[string]any{
		"camera": cameraID,
		"start":  start,
		"end":    end,
		"limit":  topK,
	})
	if err != nil {
		return nil, fmt.Errorf("time range query: %w", wrapStoreError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.EventRecord{}, nil
	}
	return rowsToModels((*results)[0].Result), nil
}

// QuerySemantic performs approximate nearest-neighbor search over the
// HNSW index, optionally restricted by camera and time bounds. Results
// are ordered by descending cosine similarity with id as deterministic
// tie-break.
func (c *Client) QuerySemantic(ctx context.Context, embedding []float32, opts SemanticOptions) ([]models.EventRecord, error) {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	cameraClause := ""
	timeClause := ""
	vars := map[string]any{
		"emb":   embedding,
		"limit": opts.TopK,
	}
	if opts.CameraID != nil {
		cameraClause = "AND camera_id = $camera"
		vars["camera"] = *opts.CameraID
	}
	if opts.StartTime != nil && opts.EndTime != nil {
		timeClause = "AND timestamp >= $start AND timestamp <= $end"
		vars["start"] = *opts.StartTime
		vars["end"] = *opts.EndTime
	}

	// HNSW with ef=40 for better recall
	sql := fmt.Sprintf(`
		SELECT *, vector::similarity::cosine(embedding, $emb) AS relevance_score
		FROM event
		WHERE embedding <|%d,40|> $emb %s %s
		ORDER BY relevance_score DESC, id ASC
		LIMIT $limit
	`, opts.TopK, cameraClause, timeClause)

	results, err := surrealdb.Query[[]eventRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("semantic query: %w", wrapStoreError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.EventRecord{}, nil
	}
	return rowsToModels((*results)[0].Result), nil
}

// QueryThreatLevel returns records with the given threat level, optionally
// restricted to one camera, ascending by timestamp.
func (c *Client) QueryThreatLevel(ctx context.Context, level models.ThreatLevel, cameraID *int, limit int) ([]models.EventRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	cameraClause := ""
	vars := map[string]any{
		"level": string(level),
		"limit": limit,
	}
	if cameraID != nil {
		cameraClause = "AND camera_id = $camera"
		vars["camera"] = *cameraID
	}

	sql := fmt.Sprintf(`
		SELECT * FROM event
		WHERE threat_level = $level %s
		ORDER BY timestamp ASC, frame_number ASC, id ASC
		LIMIT $limit
	`, cameraClause)

	results, err := surrealdb.Query[[]eventRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("threat level query: %w", wrapStoreError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.EventRecord{}, nil
	}
	return rowsToModels((*results)[0].Result), nil
}

// DeleteSession removes all records with the given session id. Deleting a
// session nothing was ingested under is not an error.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE event WHERE session_id = $session
	`, map[string]any{"session": sessionID})
	if err != nil {
		return fmt.Errorf("delete session: %w", wrapStoreError(err))
	}
	return nil
}

// Stats reports record count, index dimension, and fullness relative to
// the configured soft capacity (0 when no capacity is set).
func (c *Client) Stats(ctx context.Context, capacityHint int) (StoreStats, error) {
	type countRow struct {
		Total int `json:"total"`
	}
	results, err := surrealdb.Query[[]countRow](ctx, c.db, `
		SELECT count() AS total FROM event GROUP ALL
	`, nil)
	if err != nil {
		return StoreStats{}, fmt.Errorf("stats query: %w", wrapStoreError(err))
	}

	total := 0
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		total = (*results)[0].Result[0].Total
	}

	stats := StoreStats{
		TotalRecords: total,
		Dimension:    c.dimension,
	}
	if capacityHint > 0 {
		stats.Fullness = float64(total) / float64(capacityHint)
	}
	return stats, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
