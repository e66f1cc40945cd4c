package memory

import (
	"fmt"
	"sort"
	"strings"
)

// MemoryRecord is one logged activity: what happened, structured detail,
// and when. Timestamps are ISO-8601 strings because records round-trip
// through JSON persistence and external callers.
type MemoryRecord struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// SummaryText flattens the record into a single searchable line: the
// activity type followed by the data fields in deterministic key order.
func (r MemoryRecord) SummaryText() string {
	if len(r.Data) == 0 {
		return r.Type
	}

	keys := make([]string, 0, len(r.Data))
	for key := range r.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(r.Type)
	for _, key := range keys {
		sb.WriteByte(' ')
		sb.WriteString(key)
		sb.WriteByte(' ')
		fmt.Fprintf(&sb, "%v", r.Data[key])
	}
	return sb.String()
}

// Candidate sources, recorded so callers can tell where a result came from.
const (
	SourceSession   = "session"
	SourceSharedSet = "shared_set"
	SourceCompacted = "compacted"
)

// SearchCandidate is a scored retrieval result. Summary is the text that
// was matched; Timestamp is empty for material that has no age, such as
// shared set members.
type SearchCandidate struct {
	Score     float64 `json:"score"`
	Summary   string  `json:"summary"`
	Timestamp string  `json:"timestamp,omitempty"`
	Source    string  `json:"source,omitempty"`
}

// CompactedSummary is the condensed remainder of a finished session,
// kept bot-wide so later threads can find it.
type CompactedSummary struct {
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}
