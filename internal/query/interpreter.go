// Package query turns natural-language questions into structured store
// queries. Time-phrase extraction is tried first; anything that matches
// no pattern falls through to semantic search, never to an error.
package query

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultCameraID is used when a time-phrase query names no camera.
	DefaultCameraID = 1

	// DefaultAssumedDuration resolves "last X seconds" when the true video
	// length is unknown to the interpreter. An acknowledged approximation,
	// not derived from stored data.
	DefaultAssumedDuration = 60.0

	// atWindowRadius is the half-width of the window placed around a
	// point-in-time phrase like "at 12 seconds".
	atWindowRadius = 2.5
)

// TimeRange is a parsed time-window request.
type TimeRange struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	CameraID  int     `json:"camera_id"`
}

// cameraPattern matches "camera N", "cam N", or "video N".
var cameraPattern = regexp.MustCompile(`(?:camera|cam|video)\s*(\d+)`)

// timePattern pairs a compiled regexp with its window extractor.
// Patterns are evaluated in priority order; the first match wins, so new
// phrase support stays additive and independently testable.
type timePattern struct {
	re      *regexp.Regexp
	extract func(m []string, assumedDuration float64) (start, end float64)
}

var timePatterns = []timePattern{
	{
		// "between X and Y seconds"
		re: regexp.MustCompile(`between\s+(\d+(?:\.\d+)?)\s+and\s+(\d+(?:\.\d+)?)\s+seconds?`),
		extract: func(m []string, _ float64) (float64, float64) {
			return atof(m[1]), atof(m[2])
		},
	},
	{
		// "first X seconds"
		re: regexp.MustCompile(`first\s+(\d+(?:\.\d+)?)\s+seconds?`),
		extract: func(m []string, _ float64) (float64, float64) {
			return 0, atof(m[1])
		},
	},
	{
		// "last X seconds" relative to the assumed duration
		re: regexp.MustCompile(`last\s+(\d+(?:\.\d+)?)\s+seconds?`),
		extract: func(m []string, assumedDuration float64) (float64, float64) {
			start := assumedDuration - atof(m[1])
			if start < 0 {
				start = 0
			}
			return start, assumedDuration
		},
	},
	{
		// "from X to Y" (bare numbers, seconds)
		re: regexp.MustCompile(`from\s+(\d+(?:\.\d+)?)\s+to\s+(\d+(?:\.\d+)?)`),
		extract: func(m []string, _ float64) (float64, float64) {
			return atof(m[1]), atof(m[2])
		},
	},
	{
		// "at X seconds" becomes a symmetric window around X
		re: regexp.MustCompile(`at\s+(\d+(?:\.\d+)?)\s+seconds?`),
		extract: func(m []string, _ float64) (float64, float64) {
			t := atof(m[1])
			start := t - atWindowRadius
			if start < 0 {
				start = 0
			}
			return start, t + atWindowRadius
		},
	},
	{
		// "M:SS to M:SS"
		re: regexp.MustCompile(`(\d+):(\d{1,2})\s+to\s+(\d+):(\d{1,2})`),
		extract: func(m []string, _ float64) (float64, float64) {
			return atoi(m[1])*60 + atoi(m[2]), atoi(m[3])*60 + atoi(m[4])
		},
	},
}

// Interpreter parses natural-language time phrases.
type Interpreter struct {
	assumedDuration float64
}

// NewInterpreter creates an interpreter. assumedDuration resolves
// "last X seconds" phrases; pass 0 to use DefaultAssumedDuration.
func NewInterpreter(assumedDuration float64) *Interpreter {
	if assumedDuration <= 0 {
		assumedDuration = DefaultAssumedDuration
	}
	return &Interpreter{assumedDuration: assumedDuration}
}

// ParseTimeRange extracts a time window and camera from a query.
// Returns false when no time phrase matches, signalling the caller to
// fall back to semantic search.
func (i *Interpreter) ParseTimeRange(q string) (TimeRange, bool) {
	lower := strings.ToLower(q)

	for _, p := range timePatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		start, end := p.extract(m, i.assumedDuration)
		camera, ok := ExtractCameraID(lower)
		if !ok {
			camera = DefaultCameraID
		}
		return TimeRange{StartTime: start, EndTime: end, CameraID: camera}, true
	}

	return TimeRange{}, false
}

// ExtractCameraID finds a camera reference in a query. Returns false
// when none is present.
func ExtractCameraID(q string) (int, bool) {
	m := cameraPattern.FindStringSubmatch(strings.ToLower(q))
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func atoi(s string) float64 {
	n, _ := strconv.Atoi(s)
	return float64(n)
}
