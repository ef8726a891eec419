package models

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEventID(t *testing.T) {
	tests := []struct {
		name      string
		cameraID  int
		frame     int
		timestamp float64
		want      string
	}{
		{"whole seconds", 1, 150, 5.0, "cam1_f150_5000"},
		{"fractional seconds", 2, 33, 1.5, "cam2_f33_1500"},
		{"zero timestamp", 3, 0, 0, "cam3_f0_0"},
		{"millisecond precision", 1, 720, 24.017, "cam1_f720_24017"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EventID(tt.cameraID, tt.frame, tt.timestamp)
			if got != tt.want {
				t.Errorf("EventID(%d, %d, %v) = %q, want %q", tt.cameraID, tt.frame, tt.timestamp, got, tt.want)
			}
		})
	}
}

func TestSearchableTextFieldOrder(t *testing.T) {
	analysis := FrameAnalysis{
		ThreatLevel:     "high",
		WeaponType:      "knife",
		PeopleCount:     2,
		UnfamiliarFace:  true,
		ThreatsDetected: []string{"weapon", "intruder"},
		Description:     "person entering through window",
	}

	want := "Threat level: high | Threats: weapon, intruder | Weapon detected: knife | " +
		"People count: 2 | Unknown person detected | Scene: person entering through window"
	if got := SearchableText(analysis); got != want {
		t.Errorf("SearchableText() = %q, want %q", got, want)
	}
}

func TestSearchableTextDeterminism(t *testing.T) {
	analysis := FrameAnalysis{
		ThreatLevel:     "medium",
		ThreatsDetected: []string{"fire"},
		PeopleCount:     1,
		Description:     "smoke near the stove",
	}

	first := SearchableText(analysis)
	second := SearchableText(analysis)
	if first != second {
		t.Errorf("searchable text not deterministic: %q vs %q", first, second)
	}
}

func TestSearchableTextOmitsAbsentFields(t *testing.T) {
	// Empty analysis: only the always-present fields remain.
	got := SearchableText(FrameAnalysis{})
	want := "Threat level: none | People count: 0"
	if got != want {
		t.Errorf("SearchableText(empty) = %q, want %q", got, want)
	}

	if strings.Contains(got, "Weapon") {
		t.Error("weapon field should be omitted when weapon_type is none")
	}
}

func TestNewEventRecordDefaults(t *testing.T) {
	rec := NewEventRecord(1, 16.0, 480, FrameAnalysis{}, RecordOptions{})

	if rec.ThreatLevel != ThreatNone {
		t.Errorf("ThreatLevel = %q, want none", rec.ThreatLevel)
	}
	if rec.WeaponType != "none" {
		t.Errorf("WeaponType = %q, want none", rec.WeaponType)
	}
	if rec.SessionID != nil {
		t.Errorf("SessionID = %v, want nil", rec.SessionID)
	}
	if rec.VideoPath != nil {
		t.Errorf("VideoPath = %v, want nil", rec.VideoPath)
	}
	if rec.IngestionTime.IsZero() {
		t.Error("IngestionTime not populated")
	}
}

func TestNewEventRecordTruncation(t *testing.T) {
	long := strings.Repeat("x", 3000)
	rec := NewEventRecord(1, 1.0, 1, FrameAnalysis{Description: long}, RecordOptions{})

	if len(rec.Description) != MaxTextLength {
		t.Errorf("Description length = %d, want %d", len(rec.Description), MaxTextLength)
	}
	if len(rec.SearchableText) != MaxTextLength {
		t.Errorf("SearchableText length = %d, want %d", len(rec.SearchableText), MaxTextLength)
	}
}

func TestNewEventRecordTruncationKeepsValidUTF8(t *testing.T) {
	// A cut landing inside a multi-byte rune must not leave a dangling
	// lead byte in the stored strings.
	long := strings.Repeat("x", MaxTextLength-1) + strings.Repeat("é", 50)
	rec := NewEventRecord(1, 1.0, 1, FrameAnalysis{Description: long}, RecordOptions{})

	if !utf8.ValidString(rec.Description) {
		t.Errorf("Description is not valid UTF-8: %q", rec.Description[len(rec.Description)-4:])
	}
	if !utf8.ValidString(rec.SearchableText) {
		t.Errorf("SearchableText is not valid UTF-8: %q", rec.SearchableText[len(rec.SearchableText)-4:])
	}
	if n := utf8.RuneCountInString(rec.Description); n != MaxTextLength {
		t.Errorf("Description rune count = %d, want %d", n, MaxTextLength)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "abc", 10, "abc"},
		{"exact length", "abcde", 5, "abcde"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"multi-byte cut", "ééééé", 3, "ééé"},
		{"mixed cut at rune boundary", "abécd", 3, "abé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestNewEventRecordOptions(t *testing.T) {
	rec := NewEventRecord(2, 8.5, 255, FrameAnalysis{ThreatLevel: "low"}, RecordOptions{
		VideoPath: "/videos/cam2.mp4",
		SessionID: "session-abc",
	})

	if rec.VideoPath == nil || *rec.VideoPath != "/videos/cam2.mp4" {
		t.Errorf("VideoPath = %v, want /videos/cam2.mp4", rec.VideoPath)
	}
	if rec.SessionID == nil || *rec.SessionID != "session-abc" {
		t.Errorf("SessionID = %v, want session-abc", rec.SessionID)
	}
}

func TestValidate(t *testing.T) {
	valid := NewEventRecord(1, 5.0, 10, FrameAnalysis{}, RecordOptions{})
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid record: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*EventRecord)
	}{
		{"empty id", func(r *EventRecord) { r.ID = "" }},
		{"zero camera", func(r *EventRecord) { r.CameraID = 0 }},
		{"negative camera", func(r *EventRecord) { r.CameraID = -1 }},
		{"negative timestamp", func(r *EventRecord) { r.Timestamp = -0.5 }},
		{"negative frame", func(r *EventRecord) { r.FrameNumber = -1 }},
		{"negative people count", func(r *EventRecord) { r.PeopleCount = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			err := rec.Validate()
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Validate() = %v, want ErrInvalidRecord", err)
			}
		})
	}
}
