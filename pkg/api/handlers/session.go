package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/engram/engram/pkg/api/events"
	"github.com/engram/engram/pkg/api/middleware"
	"github.com/engram/engram/pkg/api/response"
	"github.com/engram/engram/pkg/memory"
	"github.com/engram/engram/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

// SessionHandler handles session memory API endpoints.
type SessionHandler struct {
	hub     *memory.Hub
	logger  sessionLogger
	metrics sessionMetrics
	events  *events.Broadcaster
}

type sessionLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type sessionMetrics interface {
	RecordActivity(persisted bool)
	SetActiveSessions(count float64)
	RecordSearch(status string, results int, duration time.Duration)
	RecordCompaction(mode string)
	RecordSharedSetWrite(persisted bool)
}

// NewSessionHandler creates a new session handler. The metrics recorder
// and broadcaster may be nil.
func NewSessionHandler(hub *memory.Hub, log sessionLogger, m sessionMetrics, b *events.Broadcaster) *SessionHandler {
	return &SessionHandler{
		hub:     hub,
		logger:  log,
		metrics: m,
		events:  b,
	}
}

// --- Request/Response types ---

type logActivityRequest struct {
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
	Persist *bool          `json:"persist,omitempty"`
}

type logActivityResponse struct {
	Persisted bool `json:"persisted"`
}

type compactRequest struct {
	Outcome string `json:"outcome,omitempty"`
	Goal    string `json:"goal,omitempty"`
	Save    *bool  `json:"save,omitempty"`
}

type compactResponse struct {
	Summary string `json:"summary"`
	Saved   bool   `json:"saved"`
}

// LogActivity handles POST /api/v1/sessions/{botID}/{threadID}/activities
// @Summary Log a session activity
// @Description Append a typed activity record to a session scope, optionally persisting it
// @Tags sessions
// @Accept json
// @Produce json
// @Param botID path string true "Bot ID"
// @Param threadID path string true "Thread ID"
// @Param activity body logActivityRequest true "Activity record"
// @Success 201 {object} logActivityResponse "Activity logged"
// @Failure 400 {object} response.ErrorResponse "Invalid request body or validation error"
// @Router /api/v1/sessions/{botID}/{threadID}/activities [post]
func (h *SessionHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")
	threadID := chi.URLParam(r, "threadID")

	var req logActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", middleware.GetRequestID(ctx))
		return
	}

	if req.Type == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Activity type is required", middleware.GetRequestID(ctx))
		return
	}

	session, err := h.hub.Session(ctx, botID, threadID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
		return
	}

	persist := true
	if req.Persist != nil {
		persist = *req.Persist
	}

	// Always record locally; persisted only reports the write-through.
	ok := session.LogActivity(ctx, req.Type, req.Data, persist)
	persisted := persist && ok

	if h.metrics != nil {
		h.metrics.RecordActivity(persisted)
		h.metrics.SetActiveSessions(float64(h.hub.Stats().Sessions))
	}
	if h.events != nil {
		h.events.BroadcastActivityLogged(botID, threadID, req.Type, persisted, time.Now())
	}

	h.logger.Debug("Activity logged",
		"bot_id", botID, "thread_id", threadID, "type", req.Type, "persisted", persisted)

	response.JSON(w, http.StatusCreated, logActivityResponse{Persisted: persisted})
}

// GetActivities handles GET /api/v1/sessions/{botID}/{threadID}/activities
// @Summary List session activities
// @Description List all activity records for a session scope in insertion order
// @Tags sessions
// @Produce json
// @Param botID path string true "Bot ID"
// @Param threadID path string true "Thread ID"
// @Success 200 {object} map[string]interface{} "Activities and count"
// @Failure 400 {object} response.ErrorResponse "Invalid session scope"
// @Router /api/v1/sessions/{botID}/{threadID}/activities [get]
func (h *SessionHandler) GetActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")
	threadID := chi.URLParam(r, "threadID")

	session, err := h.hub.Session(ctx, botID, threadID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
		return
	}

	activities := session.SessionActivity()
	if activities == nil {
		activities = []memory.MemoryRecord{}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"activities": activities,
		"count":      len(activities),
	})
}

// Search handles GET /api/v1/sessions/{botID}/{threadID}/search
// @Summary Search session memory
// @Description Rank session, shared and compacted records against a query
// @Tags sessions
// @Produce json
// @Param botID path string true "Bot ID"
// @Param threadID path string true "Thread ID"
// @Param query query string true "Search query"
// @Param limit query int false "Maximum number of results"
// @Success 200 {object} map[string]interface{} "Ranked results"
// @Failure 400 {object} response.ErrorResponse "Missing or invalid query"
// @Router /api/v1/sessions/{botID}/{threadID}/search [get]
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")
	threadID := chi.URLParam(r, "threadID")

	query := r.URL.Query().Get("query")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	start := time.Now()
	results, err := h.hub.Search(ctx, botID, threadID, query, limit)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordSearch("error", 0, time.Since(start))
		}
		if errors.Is(err, memory.ErrInvalidQuery) || errors.Is(err, memory.ErrInvalidBotID) || errors.Is(err, memory.ErrInvalidThreadID) {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
			return
		}
		h.logger.Error("Search failed", "bot_id", botID, "thread_id", threadID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Search failed", middleware.GetRequestID(ctx))
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSearch("ok", len(results), time.Since(start))
	}
	if results == nil {
		results = []memory.SearchCandidate{}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Compact handles POST /api/v1/sessions/{botID}/{threadID}/compact
// @Summary Compact a session
// @Description Summarize the session's activity and optionally persist the summary for the bot
// @Tags sessions
// @Accept json
// @Produce json
// @Param botID path string true "Bot ID"
// @Param threadID path string true "Thread ID"
// @Param request body compactRequest false "Compaction options"
// @Success 200 {object} compactResponse "Summary text and persistence outcome"
// @Failure 400 {object} response.ErrorResponse "Invalid request body or session scope"
// @Router /api/v1/sessions/{botID}/{threadID}/compact [post]
func (h *SessionHandler) Compact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")
	threadID := chi.URLParam(r, "threadID")

	// The body is optional; an absent body compacts with empty outcome and goal.
	var req compactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", middleware.GetRequestID(ctx))
		return
	}

	session, err := h.hub.Session(ctx, botID, threadID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
		return
	}

	summary, usedSummarizer := session.BuildSummary(ctx, nil, req.Outcome, req.Goal)

	save := true
	if req.Save != nil {
		save = *req.Save
	}
	saved := false
	if save {
		saved = session.SaveSummary(ctx, summary)
	}

	if h.metrics != nil {
		mode := metrics.CompactionModeFallback
		if usedSummarizer {
			mode = metrics.CompactionModeSummarizer
		}
		h.metrics.RecordCompaction(mode)
	}
	if h.events != nil {
		h.events.BroadcastSessionCompacted(botID, threadID, summary, saved, time.Now())
	}

	h.logger.Info("Session compacted",
		"bot_id", botID, "thread_id", threadID, "summarizer", usedSummarizer, "saved", saved)

	response.JSON(w, http.StatusOK, compactResponse{Summary: summary, Saved: saved})
}

// AddSetMember handles PUT /api/v1/bots/{botID}/sets/{setName}/{member}
// @Summary Add a member to a shared set
// @Description Record membership in a bot-wide named set, visible to every thread of the bot
// @Tags bots
// @Produce json
// @Param botID path string true "Bot ID"
// @Param setName path string true "Set name"
// @Param member path string true "Member value"
// @Success 200 {object} map[string]bool "Whether the membership was durably recorded"
// @Failure 400 {object} response.ErrorResponse "Missing path parameter"
// @Router /api/v1/bots/{botID}/sets/{setName}/{member} [put]
func (h *SessionHandler) AddSetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")
	setName := chi.URLParam(r, "setName")
	member := chi.URLParam(r, "member")

	if setName == "" || member == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Set name and member are required", middleware.GetRequestID(ctx))
		return
	}

	scope, err := h.hub.SharedScope(botID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
		return
	}

	added := scope.AddToSet(ctx, setName, member)

	if h.metrics != nil {
		h.metrics.RecordSharedSetWrite(added)
	}
	if h.events != nil {
		h.events.BroadcastSetMemberAdded(botID, setName, member, added, time.Now())
	}

	h.logger.Debug("Shared set member added",
		"bot_id", botID, "set", setName, "member", member, "persisted", added)

	response.JSON(w, http.StatusOK, map[string]any{
		"added": added,
	})
}

// CheckSetMember handles GET /api/v1/bots/{botID}/sets/{setName}/{member}
// @Summary Check shared set membership
// @Tags bots
// @Produce json
// @Param botID path string true "Bot ID"
// @Param setName path string true "Set name"
// @Param member path string true "Member value"
// @Success 200 {object} map[string]bool "Whether the member is in the set"
// @Failure 400 {object} response.ErrorResponse "Missing path parameter"
// @Router /api/v1/bots/{botID}/sets/{setName}/{member} [get]
func (h *SessionHandler) CheckSetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")
	setName := chi.URLParam(r, "setName")
	member := chi.URLParam(r, "member")

	if setName == "" || member == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Set name and member are required", middleware.GetRequestID(ctx))
		return
	}

	scope, err := h.hub.SharedScope(botID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"present": scope.IsInSet(ctx, setName, member),
	})
}

// ListSetMembers handles GET /api/v1/bots/{botID}/sets/{setName}
func (h *SessionHandler) ListSetMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")
	setName := chi.URLParam(r, "setName")

	if setName == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Set name is required", middleware.GetRequestID(ctx))
		return
	}

	scope, err := h.hub.SharedScope(botID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
		return
	}

	members := scope.SharedMembers(ctx, setName)
	if members == nil {
		members = []string{}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"members": members,
	})
}

// ListSets handles GET /api/v1/bots/{botID}/sets
func (h *SessionHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")

	scope, err := h.hub.SharedScope(botID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
		return
	}

	sets := scope.SharedSetNames(ctx)
	if sets == nil {
		sets = []string{}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"sets": sets,
	})
}

// ListSummaries handles GET /api/v1/bots/{botID}/summaries
func (h *SessionHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	botID := chi.URLParam(r, "botID")

	scope, err := h.hub.SharedScope(botID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), middleware.GetRequestID(ctx))
		return
	}

	summaries := scope.CompactedSummaries(ctx)
	if summaries == nil {
		summaries = []memory.CompactedSummary{}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"summaries": summaries,
	})
}
