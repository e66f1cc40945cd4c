package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/engram/engram/pkg/storage"
)

// Persistence TTL defaults. Session activity is working state and lives
// hours; shared sets and compacted summaries are durable knowledge and
// live weeks.
const (
	DefaultSessionTTL = 24 * time.Hour
	DefaultSharedTTL  = 30 * 24 * time.Hour
)

// maxCompactedSummaries bounds the bot-wide compaction log so it cannot
// grow without limit; the oldest summaries fall off first.
const maxCompactedSummaries = 200

// SessionStore records what one agent did and learned inside a single
// (bot, thread) scope. The in-process record list is the source of truth
// for the current run; persistence is best-effort write-through, so a
// dead backend costs durability and cross-thread visibility but never
// interrupts the session.
//
// All methods are safe for concurrent use.
type SessionStore struct {
	mu sync.RWMutex

	botID    string
	threadID string

	records []MemoryRecord

	// localSets mirrors bot-wide set membership written through this
	// store, so membership answers survive a persistence outage.
	localSets map[string]map[string]struct{}

	store      storage.Storage
	summarizer Summarizer
	logger     hubLogger
	now        func() time.Time

	sessionTTL time.Duration
	sharedTTL  time.Duration
}

// NewSessionStore creates a store scoped to the given bot and thread.
// A nil logger discards log output.
func NewSessionStore(botID, threadID string, store storage.Storage, logger hubLogger) *SessionStore {
	if logger == nil {
		logger = nopHubLogger{}
	}
	return &SessionStore{
		botID:      botID,
		threadID:   threadID,
		localSets:  make(map[string]map[string]struct{}),
		store:      store,
		logger:     logger,
		now:        time.Now,
		sessionTTL: DefaultSessionTTL,
		sharedTTL:  DefaultSharedTTL,
	}
}

// SetSummarizer installs the language-model collaborator used by
// Compact. Without one, compaction uses the deterministic extractor.
func (s *SessionStore) SetSummarizer(summarizer Summarizer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summarizer = summarizer
}

// SetTTLs overrides the persistence TTLs. Non-positive values keep the
// current setting.
func (s *SessionStore) SetTTLs(sessionTTL, sharedTTL time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionTTL > 0 {
		s.sessionTTL = sessionTTL
	}
	if sharedTTL > 0 {
		s.sharedTTL = sharedTTL
	}
}

// BotID returns the bot scope of this store.
func (s *SessionStore) BotID() string { return s.botID }

// ThreadID returns the thread scope of this store.
func (s *SessionStore) ThreadID() string { return s.threadID }

// Hydrate loads previously persisted activity for this scope into the
// local record list. It only applies to an empty store, so calling it
// after activity has been logged is a no-op. Failures leave the session
// empty and are logged, not returned.
func (s *SessionStore) Hydrate(ctx context.Context) {
	payload, err := s.store.Get(ctx, sessionActivityKey(s.botID, s.threadID))
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Warn("session hydrate failed, starting empty",
				"bot_id", s.botID, "thread_id", s.threadID, "error", err)
		}
		return
	}

	var records []MemoryRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		s.logger.Warn("persisted session activity is corrupt, starting empty",
			"bot_id", s.botID, "thread_id", s.threadID, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		s.records = records
	}
}

// LogActivity appends a typed activity record stamped with the current
// time. When persist is true the full record list is written through to
// storage; the return value reports that write. The local append always
// succeeds, so a false return means the record is held in memory only.
func (s *SessionStore) LogActivity(ctx context.Context, activityType string, data map[string]any, persist bool) bool {
	record := MemoryRecord{
		Type:      activityType,
		Data:      cloneData(data),
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	snapshot := cloneRecords(s.records)
	ttl := s.sessionTTL
	s.mu.Unlock()

	if !persist {
		return true
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn("failed to encode session activity",
			"bot_id", s.botID, "thread_id", s.threadID, "error", err)
		return false
	}
	if err := s.store.Set(ctx, sessionActivityKey(s.botID, s.threadID), payload, ttl); err != nil {
		s.logger.Warn("failed to persist session activity",
			"bot_id", s.botID, "thread_id", s.threadID, "error", err)
		return false
	}
	return true
}

// SessionActivity returns a copy of this scope's records in insertion
// order. Records from other threads never appear here.
func (s *SessionStore) SessionActivity() []MemoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records)
}

// Len returns the number of records in this scope.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// AddToSet records membership in a bot-wide named set, visible to every
// thread of the same bot. The return value reports the persisted write;
// on failure the membership is still held locally, so this store keeps
// answering IsInSet for it. Writes that cannot see the current remote
// set are skipped rather than risk clobbering other threads' members.
func (s *SessionStore) AddToSet(ctx context.Context, setName, member string) bool {
	if setName == "" || member == "" {
		return false
	}

	s.mu.Lock()
	if s.localSets[setName] == nil {
		s.localSets[setName] = make(map[string]struct{})
	}
	s.localSets[setName][member] = struct{}{}
	ttl := s.sharedTTL
	s.mu.Unlock()

	members, err := s.readSharedSet(ctx, setName)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Warn("shared set read failed, keeping local-only membership",
				"bot_id", s.botID, "set", setName, "error", err)
			return false
		}
		members = make(map[string]struct{}, 1)
	}
	if _, ok := members[member]; ok {
		return true
	}
	members[member] = struct{}{}

	payload, err := json.Marshal(sortedMembers(members))
	if err != nil {
		s.logger.Warn("failed to encode shared set",
			"bot_id", s.botID, "set", setName, "error", err)
		return false
	}
	if err := s.store.Set(ctx, sharedSetKey(s.botID, setName), payload, ttl); err != nil {
		s.logger.Warn("failed to persist shared set",
			"bot_id", s.botID, "set", setName, "error", err)
		return false
	}

	s.registerSetName(ctx, setName, ttl)
	return true
}

// IsInSet reports bot-wide set membership. Storage is consulted first so
// members added by other threads are seen; if it cannot answer, the
// local mirror decides and unknown members read as false.
func (s *SessionStore) IsInSet(ctx context.Context, setName, member string) bool {
	if setName == "" || member == "" {
		return false
	}

	members, err := s.readSharedSet(ctx, setName)
	if err == nil {
		if _, ok := members[member]; ok {
			return true
		}
	} else if !storage.IsNotFound(err) {
		s.logger.Warn("shared set read failed, answering from local state",
			"bot_id", s.botID, "set", setName, "error", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.localSets[setName][member]
	return ok
}

// SharedSetNames returns every set name known for this bot: names
// registered in storage by any thread plus names only this store has
// seen. The result is sorted for determinism.
func (s *SessionStore) SharedSetNames(ctx context.Context) []string {
	names := make(map[string]struct{})

	payload, err := s.store.Get(ctx, sharedSetNamesKey(s.botID))
	if err == nil {
		var stored []string
		if jsonErr := json.Unmarshal(payload, &stored); jsonErr == nil {
			for _, name := range stored {
				names[name] = struct{}{}
			}
		}
	} else if !storage.IsNotFound(err) {
		s.logger.Warn("shared set registry read failed",
			"bot_id", s.botID, "error", err)
	}

	s.mu.RLock()
	for name := range s.localSets {
		names[name] = struct{}{}
	}
	s.mu.RUnlock()

	return sortedMembers(names)
}

// SharedMembers returns the members of a bot-wide set, merging the
// persisted set with this store's local mirror.
func (s *SessionStore) SharedMembers(ctx context.Context, setName string) []string {
	members, err := s.readSharedSet(ctx, setName)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Warn("shared set read failed, answering from local state",
				"bot_id", s.botID, "set", setName, "error", err)
		}
		members = make(map[string]struct{})
	}

	s.mu.RLock()
	for member := range s.localSets[setName] {
		members[member] = struct{}{}
	}
	s.mu.RUnlock()

	return sortedMembers(members)
}

// Compact condenses activities into a short searchable summary and
// appends it to the bot-wide compaction log. A nil slice compacts the
// whole current session; callers may instead pass a filtered subset.
// The summarizer is asked first; if it fails or returns nothing, the
// deterministic extractor builds the summary instead, so Compact
// always returns usable text.
func (s *SessionStore) Compact(ctx context.Context, activities []MemoryRecord, outcome, goal string) string {
	summary, _ := s.BuildSummary(ctx, activities, outcome, goal)
	s.SaveSummary(ctx, summary)
	return summary
}

// BuildSummary produces the compacted summary without persisting it.
// A nil activities slice falls back to the full current session. The
// second return reports whether the installed summarizer wrote the
// text; false means the deterministic extractor did.
func (s *SessionStore) BuildSummary(ctx context.Context, activities []MemoryRecord, outcome, goal string) (string, bool) {
	if activities == nil {
		activities = s.SessionActivity()
	}

	s.mu.RLock()
	summarizer := s.summarizer
	s.mu.RUnlock()

	if summarizer != nil {
		text, err := summarizer.Summarize(ctx, activities, outcome, goal)
		if err != nil {
			s.logger.Warn("summarizer failed, using fallback extractor",
				"bot_id", s.botID, "thread_id", s.threadID, "error", err)
		} else if text = strings.TrimSpace(text); text != "" {
			return text, true
		}
	}
	return simpleSummary(activities, outcome, goal), false
}

// CompactedSummaries returns the bot-wide compaction log, oldest first.
// Read failures return nothing rather than an error.
func (s *SessionStore) CompactedSummaries(ctx context.Context) []CompactedSummary {
	payload, err := s.store.Get(ctx, compactedSummaryKey(s.botID))
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Warn("compacted summary read failed",
				"bot_id", s.botID, "error", err)
		}
		return nil
	}

	var summaries []CompactedSummary
	if err := json.Unmarshal(payload, &summaries); err != nil {
		s.logger.Warn("compacted summary log is corrupt",
			"bot_id", s.botID, "error", err)
		return nil
	}
	return summaries
}

// SaveSummary appends a summary to the bot-wide compaction log, the
// oldest entries falling off past the cap. The return value reports the
// persisted write; on failure the summary is simply not durable.
func (s *SessionStore) SaveSummary(ctx context.Context, summary string) bool {
	s.mu.RLock()
	ttl := s.sharedTTL
	s.mu.RUnlock()

	summaries := s.CompactedSummaries(ctx)
	summaries = append(summaries, CompactedSummary{
		Summary:   summary,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
	if len(summaries) > maxCompactedSummaries {
		summaries = summaries[len(summaries)-maxCompactedSummaries:]
	}

	payload, err := json.Marshal(summaries)
	if err != nil {
		s.logger.Warn("failed to encode compacted summaries",
			"bot_id", s.botID, "error", err)
		return false
	}
	if err := s.store.Set(ctx, compactedSummaryKey(s.botID), payload, ttl); err != nil {
		s.logger.Warn("failed to persist compacted summary",
			"bot_id", s.botID, "error", err)
		return false
	}
	return true
}

// registerSetName adds setName to the bot-wide registry so other threads
// can discover it during retrieval. Best effort.
func (s *SessionStore) registerSetName(ctx context.Context, setName string, ttl time.Duration) {
	names := make(map[string]struct{})

	payload, err := s.store.Get(ctx, sharedSetNamesKey(s.botID))
	if err == nil {
		var stored []string
		if jsonErr := json.Unmarshal(payload, &stored); jsonErr == nil {
			for _, name := range stored {
				names[name] = struct{}{}
			}
		}
	} else if !storage.IsNotFound(err) {
		return
	}

	if _, ok := names[setName]; ok {
		return
	}
	names[setName] = struct{}{}

	encoded, err := json.Marshal(sortedMembers(names))
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, sharedSetNamesKey(s.botID), encoded, ttl); err != nil {
		s.logger.Warn("failed to persist shared set registry",
			"bot_id", s.botID, "error", err)
	}
}

func (s *SessionStore) readSharedSet(ctx context.Context, setName string) (map[string]struct{}, error) {
	payload, err := s.store.Get(ctx, sharedSetKey(s.botID, setName))
	if err != nil {
		return nil, err
	}

	var members []string
	if err := json.Unmarshal(payload, &members); err != nil {
		return nil, &storage.SerializationError{Operation: "decode shared set", Cause: err}
	}

	set := make(map[string]struct{}, len(members))
	for _, member := range members {
		set[member] = struct{}{}
	}
	return set, nil
}

// entityKeys are the structured data fields the fallback extractor mines
// for salient entities.
var entityKeys = []string{"company", "company_name", "name", "person", "entity", "topic", "query", "title", "url"}

// maxSummaryEntities bounds the fallback summary length.
const maxSummaryEntities = 12

// simpleSummary builds a compacted summary without a language model. The
// goal, outcome, and entity values stay literally present in the output
// so the same vocabulary that described the session can find it again.
func simpleSummary(activities []MemoryRecord, outcome, goal string) string {
	parts := make([]string, 0, 4)
	if goal = strings.TrimSpace(goal); goal != "" {
		parts = append(parts, "goal: "+goal)
	}
	if outcome = strings.TrimSpace(outcome); outcome != "" {
		parts = append(parts, "outcome: "+outcome)
	}

	entities := make([]string, 0, maxSummaryEntities)
	seen := make(map[string]struct{})
	types := make([]string, 0, 4)
	typeSeen := make(map[string]struct{})

	for _, activity := range activities {
		if _, dup := typeSeen[activity.Type]; !dup && activity.Type != "" {
			typeSeen[activity.Type] = struct{}{}
			types = append(types, activity.Type)
		}
		for _, key := range entityKeys {
			value, ok := activity.Data[key].(string)
			if !ok || value == "" {
				continue
			}
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			if len(entities) < maxSummaryEntities {
				entities = append(entities, value)
			}
		}
	}

	if len(types) > 0 {
		parts = append(parts, "activities: "+strings.Join(types, ", "))
	}
	if len(entities) > 0 {
		parts = append(parts, "entities: "+strings.Join(entities, ", "))
	}
	if len(parts) == 0 {
		return "session with no recorded activity"
	}
	return strings.Join(parts, "; ")
}

func sortedMembers(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	sort.Strings(out)
	return out
}

func sessionActivityKey(botID, threadID string) string {
	return fmt.Sprintf("session_activity:%s:%s", botID, threadID)
}

func sharedSetKey(botID, setName string) string {
	return fmt.Sprintf("shared_set:%s:%s", botID, setName)
}

func sharedSetNamesKey(botID string) string {
	return fmt.Sprintf("shared_set_names:%s", botID)
}

func compactedSummaryKey(botID string) string {
	return fmt.Sprintf("compacted_summary:%s", botID)
}
