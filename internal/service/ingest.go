package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daedalus-s/threat-gdg-adk/internal/embedding"
	"github.com/daedalus-s/threat-gdg-adk/internal/metrics"
	"github.com/daedalus-s/threat-gdg-adk/internal/models"
)

// Frame is one analyzed video frame handed over by the vision pipeline.
type Frame struct {
	CameraID    int                  `json:"camera_id"`
	Timestamp   float64              `json:"timestamp"`
	FrameNumber int                  `json:"frame_number"`
	Analysis    models.FrameAnalysis `json:"analysis"`
	VideoPath   string               `json:"video_path,omitempty"`
	SessionID   string               `json:"session_id,omitempty"`
}

// IngestReport summarizes a batch ingestion run. One bad frame never
// loses the rest: failures are counted and the batch continues.
type IngestReport struct {
	SessionID string `json:"session_id"`
	Stored    int    `json:"stored"`
	Failed    int    `json:"failed"`
}

// IngestService converts frame analyses into event records and writes
// them to the store.
type IngestService struct {
	store    Store
	embedder embedding.Embedder
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewIngestService creates an ingest service. The metrics collector may
// be nil.
func NewIngestService(store Store, embedder embedding.Embedder, logger *slog.Logger, collector *metrics.Collector) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{store: store, embedder: embedder, logger: logger, metrics: collector}
}

// NewSessionID generates a session id for one ingestion run.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}

// Ingest stores a single frame analysis. The searchable text and its
// embedding are generated together on every write so they can never be
// stored inconsistently with the record's other fields.
func (s *IngestService) Ingest(ctx context.Context, frame Frame) (string, error) {
	rec := models.NewEventRecord(frame.CameraID, frame.Timestamp, frame.FrameNumber, frame.Analysis, models.RecordOptions{
		VideoPath: frame.VideoPath,
		SessionID: frame.SessionID,
	})
	if err := rec.Validate(); err != nil {
		return "", err
	}

	start := time.Now()
	vec, err := s.embedder.Embed(ctx, rec.SearchableText)
	if err != nil {
		s.recordFailure(metrics.OpEmbedding)
		return "", fmt.Errorf("embed searchable text: %w", err)
	}
	s.recordTiming(metrics.OpEmbedding, start)
	rec.Embedding = vec

	start = time.Now()
	id, err := s.store.UpsertEvent(ctx, rec)
	if err != nil {
		s.recordFailure(metrics.OpUpsert)
		return "", err
	}
	s.recordTiming(metrics.OpUpsert, start)

	s.logger.Info("upserted event",
		"camera_id", rec.CameraID,
		"timestamp", rec.Timestamp,
		"threat_level", rec.ThreatLevel,
	)
	return id, nil
}

// IngestBatch stores a batch of frames under one session. If sessionID
// is empty, one is generated. Per-frame failures are logged, counted,
// and skipped.
func (s *IngestService) IngestBatch(ctx context.Context, frames []Frame, sessionID string) IngestReport {
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	report := IngestReport{SessionID: sessionID}
	for _, frame := range frames {
		if frame.SessionID == "" {
			frame.SessionID = sessionID
		}

		if _, err := s.Ingest(ctx, frame); err != nil {
			report.Failed++
			s.logger.Error("failed to store frame",
				"camera_id", frame.CameraID,
				"frame_number", frame.FrameNumber,
				"error", err,
			)
			continue
		}
		report.Stored++
	}

	s.logger.Info("batch ingestion complete",
		"session_id", sessionID,
		"stored", report.Stored,
		"failed", report.Failed,
	)
	return report
}

// DeleteSession removes every record ingested under the given session.
func (s *IngestService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("deleted session", "session_id", sessionID)
	return nil
}

func (s *IngestService) recordTiming(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordTiming(op, time.Since(start))
	}
}

func (s *IngestService) recordFailure(op string) {
	if s.metrics != nil {
		s.metrics.RecordFailure(op)
	}
}
