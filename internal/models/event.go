// Package models defines data structures for the threatwatch event store.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength bounds description and searchable text before storage,
// matching the metadata size limit of vector backends.
const MaxTextLength = 1000

// ErrInvalidRecord indicates a record failed shape validation after
// defaulting. The offending record is skipped and counted during batch
// ingestion; it never aborts the batch.
var ErrInvalidRecord = errors.New("invalid event record")

// FrameAnalysis is the raw per-frame classification result produced by
// the vision pipeline. Every field is optional; missing values default
// to their zero/"none" equivalents.
type FrameAnalysis struct {
	ThreatLevel     string   `json:"threat_level"`
	WeaponType      string   `json:"weapon_type"`
	PeopleCount     int      `json:"people_count"`
	UnfamiliarFace  bool     `json:"unfamiliar_face"`
	ThreatsDetected []string `json:"threats_detected"`
	Description     string   `json:"description"`
}

// EventRecord is one stored observation of one camera at one instant.
// Records are immutable after creation; re-ingesting the same
// (camera, frame, timestamp) triple produces the same ID and replaces
// the prior record via upsert.
type EventRecord struct {
	ID             string      `json:"id"`
	CameraID       int         `json:"camera_id"`
	Timestamp      float64     `json:"timestamp"`
	FrameNumber    int         `json:"frame_number"`
	ThreatLevel    ThreatLevel `json:"threat_level"`
	WeaponType     string      `json:"weapon_type"`
	PeopleCount    int         `json:"people_count"`
	UnfamiliarFace bool        `json:"unfamiliar_face"`
	Threats        []string    `json:"threats,omitempty"`
	Description    string      `json:"description,omitempty"`
	SearchableText string      `json:"searchable_text,omitempty"`
	Embedding      []float32   `json:"embedding,omitempty"`
	SessionID      *string     `json:"session_id,omitempty"`
	VideoPath      *string     `json:"video_path,omitempty"`
	IngestionTime  time.Time   `json:"ingestion_time,omitempty"`

	// RelevanceScore is populated only on semantic search results.
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// RecordOptions carries the optional provenance fields for a new record.
type RecordOptions struct {
	VideoPath string
	SessionID string
}

// EventID derives the deterministic record ID for a frame observation.
// Re-ingesting the same frame yields the same ID, so writes are
// idempotent upserts rather than duplicates.
func EventID(cameraID, frameNumber int, timestamp float64) string {
	return fmt.Sprintf("cam%d_f%d_%d", cameraID, frameNumber, int64(timestamp*1000))
}

// NewEventRecord builds a normalized, indexable record from a raw
// classification result. Searchable text is regenerated from the other
// fields on every build so it can never drift from them; the embedding
// is attached afterwards by the caller, always alongside the text.
func NewEventRecord(cameraID int, timestamp float64, frameNumber int, analysis FrameAnalysis, opts RecordOptions) EventRecord {
	rec := EventRecord{
		ID:             EventID(cameraID, frameNumber, timestamp),
		CameraID:       cameraID,
		Timestamp:      timestamp,
		FrameNumber:    frameNumber,
		ThreatLevel:    ParseThreatLevel(analysis.ThreatLevel),
		WeaponType:     defaultWeapon(analysis.WeaponType),
		PeopleCount:    analysis.PeopleCount,
		UnfamiliarFace: analysis.UnfamiliarFace,
		Threats:        analysis.ThreatsDetected,
		Description:    Truncate(analysis.Description, MaxTextLength),
		IngestionTime:  time.Now().UTC(),
	}
	rec.SearchableText = Truncate(SearchableText(analysis), MaxTextLength)

	if opts.VideoPath != "" {
		rec.VideoPath = &opts.VideoPath
	}
	if opts.SessionID != "" {
		rec.SessionID = &opts.SessionID
	}
	return rec
}

// SearchableText builds the deterministic pipe-delimited text used to
// produce the embedding. Field order is fixed so logically identical
// inputs always yield byte-identical text.
func SearchableText(analysis FrameAnalysis) string {
	parts := []string{
		fmt.Sprintf("Threat level: %s", ParseThreatLevel(analysis.ThreatLevel)),
	}

	if len(analysis.ThreatsDetected) > 0 {
		parts = append(parts, fmt.Sprintf("Threats: %s", strings.Join(analysis.ThreatsDetected, ", ")))
	}

	if weapon := defaultWeapon(analysis.WeaponType); weapon != "none" {
		parts = append(parts, fmt.Sprintf("Weapon detected: %s", weapon))
	}

	parts = append(parts, fmt.Sprintf("People count: %d", analysis.PeopleCount))

	if analysis.UnfamiliarFace {
		parts = append(parts, "Unknown person detected")
	}

	if analysis.Description != "" {
		parts = append(parts, fmt.Sprintf("Scene: %s", analysis.Description))
	}

	return strings.Join(parts, " | ")
}

// Validate checks basic record shape after defaulting. Records failing
// validation are skipped and counted by the ingestion loop.
func (r EventRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if r.CameraID <= 0 {
		return fmt.Errorf("%w: camera id %d must be positive", ErrInvalidRecord, r.CameraID)
	}
	if r.Timestamp < 0 {
		return fmt.Errorf("%w: negative timestamp %f", ErrInvalidRecord, r.Timestamp)
	}
	if r.FrameNumber < 0 {
		return fmt.Errorf("%w: negative frame number %d", ErrInvalidRecord, r.FrameNumber)
	}
	if r.PeopleCount < 0 {
		return fmt.Errorf("%w: negative people count %d", ErrInvalidRecord, r.PeopleCount)
	}
	return nil
}

// Truncate bounds s to max runes. Cutting by runes rather than bytes
// keeps the result valid UTF-8, which the CBOR text encoding requires.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func defaultWeapon(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
