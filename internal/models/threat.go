package models

import "strings"

// ThreatLevel is the severity classification assigned to one observation.
// Levels form a total order used for max-severity aggregation.
type ThreatLevel string

const (
	ThreatNone     ThreatLevel = "none"
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// AllThreatLevels lists every level in ascending severity order.
var AllThreatLevels = []ThreatLevel{
	ThreatNone, ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical,
}

var threatRanks = map[ThreatLevel]int{
	ThreatNone:     0,
	ThreatLow:      1,
	ThreatMedium:   2,
	ThreatHigh:     3,
	ThreatCritical: 4,
}

// ParseThreatLevel normalizes a raw threat level string.
// Unknown or empty input defaults to ThreatNone rather than failing;
// upstream producers may omit the field entirely.
func ParseThreatLevel(s string) ThreatLevel {
	level := ThreatLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := threatRanks[level]; ok {
		return level
	}
	return ThreatNone
}

// Rank returns the position of the level in the severity order.
// Unknown levels rank as ThreatNone.
func (t ThreatLevel) Rank() int {
	return threatRanks[t]
}

// String implements fmt.Stringer.
func (t ThreatLevel) String() string {
	return string(t)
}

// MaxThreatLevel returns the most severe level among the given events.
// An empty slice yields ThreatNone.
func MaxThreatLevel(events []EventRecord) ThreatLevel {
	max := ThreatNone
	for _, e := range events {
		if e.ThreatLevel.Rank() > max.Rank() {
			max = e.ThreatLevel
		}
	}
	return max
}
