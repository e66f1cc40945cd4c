package memory

import (
	"math"
	"time"
)

// Decay defaults.
const (
	DefaultHalfLifeDays = 30.0
	DefaultDecayFloor   = 0.05

	// maxAgeDays stands in for records whose timestamps fail to parse:
	// they decay as if a year old instead of failing the search.
	maxAgeDays = 365.0
)

// timestampLayouts are tried in order when parsing record timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecayModel discounts relevance scores by record age using exponential
// half-life decay. The factor never reaches zero: a floor keeps old
// records discoverable when nothing fresher matches.
type DecayModel struct {
	halfLifeDays float64
	floor        float64
	now          func() time.Time
}

// NewDecayModel creates a DecayModel. Out-of-range parameters fall back
// to the defaults: halfLifeDays must be positive, floor must be in (0, 1).
func NewDecayModel(halfLifeDays, floor float64) *DecayModel {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	if floor <= 0 || floor >= 1 {
		floor = DefaultDecayFloor
	}
	return &DecayModel{
		halfLifeDays: halfLifeDays,
		floor:        floor,
		now:          time.Now,
	}
}

// Apply returns baseScore discounted by the age of timestamp. An empty
// timestamp means the material has no age (shared facts) and is not
// discounted. A non-empty timestamp that fails to parse is treated as
// maximally old rather than returned as an error.
func (d *DecayModel) Apply(baseScore float64, timestamp string) float64 {
	if timestamp == "" {
		return baseScore
	}
	return baseScore * d.Factor(d.ageDays(timestamp))
}

// Factor returns the decay multiplier for the given age, in [floor, 1].
func (d *DecayModel) Factor(ageDays float64) float64 {
	if ageDays <= 0 {
		return 1
	}
	f := math.Pow(2, -ageDays/d.halfLifeDays)
	if f < d.floor {
		return d.floor
	}
	return f
}

func (d *DecayModel) ageDays(timestamp string) float64 {
	ts, ok := parseTimestamp(timestamp)
	if !ok {
		return maxAgeDays
	}
	age := d.now().Sub(ts).Hours() / 24
	if age < 0 {
		return 0
	}
	return age
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
