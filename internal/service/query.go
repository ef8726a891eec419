package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/daedalus-s/threat-gdg-adk/internal/db"
	"github.com/daedalus-s/threat-gdg-adk/internal/embedding"
	"github.com/daedalus-s/threat-gdg-adk/internal/metrics"
	"github.com/daedalus-s/threat-gdg-adk/internal/models"
	"github.com/daedalus-s/threat-gdg-adk/internal/query"
)

// Response statuses. Zero matches is a success with an explanatory
// message; only a backend failure produces StatusError.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const (
	timeRangeTopK = 20
	semanticTopK  = 10

	// Sentinel bounds for the "everything this camera ever saw" query
	// backing the timeline.
	timelineEnd  = 999999.0
	timelineTopK = 1000
)

// Summary aggregates the matched events of one query.
type Summary struct {
	EventCount         int                        `json:"event_count"`
	TimeRange          string                     `json:"time_range,omitempty"`
	CameraID           *int                       `json:"camera_id,omitempty"`
	QueryType          string                     `json:"query_type,omitempty"`
	MaxThreatLevel     models.ThreatLevel         `json:"max_threat_level,omitempty"`
	ThreatDistribution map[models.ThreatLevel]int `json:"threat_distribution,omitempty"`
	WeaponDetected     *bool                      `json:"weapon_detected,omitempty"`
}

// QueryResponse is the structured answer to a natural-language query.
type QueryResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Events  []models.EventRecord `json:"events"`
	Summary Summary              `json:"summary"`
}

// TimelineSummary counts events per threat level.
type TimelineSummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	None     int `json:"none"`
}

// TimelineResponse is the full chronological view for one camera.
type TimelineResponse struct {
	Status        string                                       `json:"status"`
	Message       string                                       `json:"message,omitempty"`
	CameraID      int                                          `json:"camera_id"`
	TotalEvents   int                                          `json:"total_events"`
	Timeline      []models.EventRecord                         `json:"timeline"`
	ByThreatLevel map[models.ThreatLevel][]models.EventRecord `json:"by_threat_level"`
	Summary       TimelineSummary                              `json:"summary"`
}

// QueryService answers natural-language questions against the event
// store, dispatching between exact time-range filtering and semantic
// search.
type QueryService struct {
	store    Store
	embedder embedding.Embedder
	interp   *query.Interpreter
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewQueryService creates a query service. The metrics collector may be nil.
func NewQueryService(store Store, embedder embedding.Embedder, interp *query.Interpreter, logger *slog.Logger, collector *metrics.Collector) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	if interp == nil {
		interp = query.NewInterpreter(0)
	}
	return &QueryService{store: store, embedder: embedder, interp: interp, logger: logger, metrics: collector}
}

// Query interprets a natural-language question and returns a structured
// answer. Time-phrase extraction is attempted first; queries matching no
// pattern fall through to semantic search. Backend failures surface as a
// StatusError response, never as a panic or a lost result shape.
func (s *QueryService) Query(ctx context.Context, text string) QueryResponse {
	s.logger.Info("processing query", "query", text)

	if tr, ok := s.interp.ParseTimeRange(text); ok {
		return s.queryTimeRange(ctx, tr)
	}
	return s.querySemantic(ctx, text)
}

func (s *QueryService) queryTimeRange(ctx context.Context, tr query.TimeRange) QueryResponse {
	s.logger.Info("executing time-range query",
		"camera_id", tr.CameraID, "start", tr.StartTime, "end", tr.EndTime)

	start := time.Now()
	events, err := s.store.QueryTimeRange(ctx, tr.CameraID, tr.StartTime, tr.EndTime, timeRangeTopK)
	if err != nil {
		s.recordFailure(metrics.OpTimeRange)
		s.logger.Error("time-range query failed", "error", err)
		return errorResponse(fmt.Sprintf("Time-range query failed: %v", err))
	}
	s.recordTiming(metrics.OpTimeRange, start)

	rangeLabel := fmt.Sprintf("%.1fs - %.1fs", tr.StartTime, tr.EndTime)
	cameraID := tr.CameraID

	if len(events) == 0 {
		return QueryResponse{
			Status: StatusSuccess,
			Message: fmt.Sprintf("No events found in Camera %d between %.1fs and %.1fs",
				tr.CameraID, tr.StartTime, tr.EndTime),
			Events: []models.EventRecord{},
			Summary: Summary{
				EventCount: 0,
				TimeRange:  rangeLabel,
				CameraID:   &cameraID,
			},
		}
	}

	distribution := make(map[models.ThreatLevel]int)
	weaponDetected := false
	for _, e := range events {
		distribution[e.ThreatLevel]++
		if e.WeaponType != "none" {
			weaponDetected = true
		}
	}

	return QueryResponse{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Found %d events in the specified time range", len(events)),
		Events:  events,
		Summary: Summary{
			EventCount:         len(events),
			TimeRange:          rangeLabel,
			CameraID:           &cameraID,
			MaxThreatLevel:     models.MaxThreatLevel(events),
			ThreatDistribution: distribution,
			WeaponDetected:     &weaponDetected,
		},
	}
}

func (s *QueryService) querySemantic(ctx context.Context, text string) QueryResponse {
	s.logger.Info("executing semantic query", "query", text)

	var cameraID *int
	if id, ok := query.ExtractCameraID(text); ok {
		cameraID = &id
	}

	start := time.Now()
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.recordFailure(metrics.OpEmbedding)
		s.logger.Error("query embedding failed", "error", err)
		return errorResponse(fmt.Sprintf("Failed to embed query: %v", err))
	}
	s.recordTiming(metrics.OpEmbedding, start)

	start = time.Now()
	events, err := s.store.QuerySemantic(ctx, vec, db.SemanticOptions{
		CameraID: cameraID,
		TopK:     semanticTopK,
	})
	if err != nil {
		s.recordFailure(metrics.OpSemantic)
		s.logger.Error("semantic query failed", "error", err)
		return errorResponse(fmt.Sprintf("Semantic search failed: %v", err))
	}
	s.recordTiming(metrics.OpSemantic, start)

	if len(events) == 0 {
		return QueryResponse{
			Status:  StatusSuccess,
			Message: "No relevant events found for your query",
			Events:  []models.EventRecord{},
			Summary: Summary{EventCount: 0, QueryType: "semantic_search", CameraID: cameraID},
		}
	}

	return QueryResponse{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Found %d relevant events", len(events)),
		Events:  events,
		Summary: Summary{
			EventCount: len(events),
			QueryType:  "semantic_search",
			CameraID:   cameraID,
		},
	}
}

// ByThreatLevel returns events with the given severity, optionally
// restricted to one camera.
func (s *QueryService) ByThreatLevel(ctx context.Context, level models.ThreatLevel, cameraID *int, limit int) ([]models.EventRecord, error) {
	return s.store.QueryThreatLevel(ctx, level, cameraID, limit)
}

// Timeline builds the full chronological view for one camera, bucketed
// by threat level. Every level gets a bucket, empty ones included.
func (s *QueryService) Timeline(ctx context.Context, cameraID int) TimelineResponse {
	s.logger.Info("building threat timeline", "camera_id", cameraID)

	start := time.Now()
	events, err := s.store.QueryTimeRange(ctx, cameraID, 0, timelineEnd, timelineTopK)
	if err != nil {
		s.recordFailure(metrics.OpTimeRange)
		s.logger.Error("timeline query failed", "error", err)
		return TimelineResponse{
			Status:        StatusError,
			Message:       fmt.Sprintf("Timeline query failed: %v", err),
			CameraID:      cameraID,
			Timeline:      []models.EventRecord{},
			ByThreatLevel: emptyBuckets(),
		}
	}
	s.recordTiming(metrics.OpTimeRange, start)

	buckets := emptyBuckets()
	for _, e := range events {
		buckets[e.ThreatLevel] = append(buckets[e.ThreatLevel], e)
	}

	return TimelineResponse{
		Status:        StatusSuccess,
		CameraID:      cameraID,
		TotalEvents:   len(events),
		Timeline:      events,
		ByThreatLevel: buckets,
		Summary: TimelineSummary{
			Critical: len(buckets[models.ThreatCritical]),
			High:     len(buckets[models.ThreatHigh]),
			Medium:   len(buckets[models.ThreatMedium]),
			Low:      len(buckets[models.ThreatLow]),
			None:     len(buckets[models.ThreatNone]),
		},
	}
}

func emptyBuckets() map[models.ThreatLevel][]models.EventRecord {
	buckets := make(map[models.ThreatLevel][]models.EventRecord, len(models.AllThreatLevels))
	for _, level := range models.AllThreatLevels {
		buckets[level] = []models.EventRecord{}
	}
	return buckets
}

func errorResponse(msg string) QueryResponse {
	return QueryResponse{
		Status:  StatusError,
		Message: msg,
		Events:  []models.EventRecord{},
	}
}

func (s *QueryService) recordTiming(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordTiming(op, time.Since(start))
	}
}

func (s *QueryService) recordFailure(op string) {
	if s.metrics != nil {
		s.metrics.RecordFailure(op)
	}
}
