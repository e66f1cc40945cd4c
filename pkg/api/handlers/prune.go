package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/engram/engram/config"
	"github.com/engram/engram/pkg/api/middleware"
	"github.com/engram/engram/pkg/api/response"
	"github.com/engram/engram/pkg/metrics"
	"github.com/engram/engram/pkg/prune"
)

// PruneHandler handles the tool result pruning endpoint.
type PruneHandler struct {
	mu      sync.RWMutex
	opts    prune.Options
	logger  pruneLogger
	metrics pruneMetrics
}

type pruneLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type pruneMetrics interface {
	RecordPruneRequest(status string, duration time.Duration)
	RecordPruneAction(action string)
	AddPruneCharsSaved(chars int)
}

// NewPruneHandler creates a new prune handler from the configured
// thresholds. The metrics recorder may be nil.
func NewPruneHandler(cfg *config.PruneConfig, log pruneLogger, m pruneMetrics) *PruneHandler {
	h := &PruneHandler{
		logger:  log,
		metrics: m,
	}
	if cfg != nil {
		h.opts = prune.Options{
			MinPrunableChars:    cfg.MinPrunableChars,
			SoftTrimThreshold:   cfg.SoftTrimThreshold,
			HardClearThreshold:  cfg.HardClearThreshold,
			KeepLastToolResults: cfg.KeepLastToolResults,
			HeadChars:           cfg.HeadChars,
			TailChars:           cfg.TailChars,
		}
	}
	return h
}

// SetOptions replaces the pruning thresholds. Used on config reload.
func (h *PruneHandler) SetOptions(opts prune.Options) {
	h.mu.Lock()
	h.opts = opts
	h.mu.Unlock()
}

func (h *PruneHandler) options() prune.Options {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.opts
}

// --- Request/Response types ---

type pruneRequest struct {
	Messages []prune.Message `json:"messages"`
	KeepLast int             `json:"keep_last,omitempty"`
}

type pruneDecisionCounts struct {
	Unchanged   int `json:"unchanged"`
	SoftTrimmed int `json:"soft_trimmed"`
	HardCleared int `json:"hard_cleared"`
}

type pruneResponse struct {
	Messages   []prune.Message     `json:"messages"`
	Decisions  pruneDecisionCounts `json:"decisions"`
	CharsSaved int                 `json:"chars_saved"`
}

// Prune handles POST /api/v1/prune
// @Summary Prune oversized tool results
// @Description Soft-trim or hard-clear oversized tool results in a message sequence, protecting the most recent ones
// @Tags prune
// @Accept json
// @Produce json
// @Param request body pruneRequest true "Message sequence and optional keep_last override (1-10; 0 or omitted uses the configured default)"
// @Success 200 {object} pruneResponse "Pruned messages with decision counts"
// @Failure 400 {object} response.ErrorResponse "Invalid request body or validation error"
// @Router /api/v1/prune [post]
func (h *PruneHandler) Prune(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req pruneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.recordRequest("error", start)
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", middleware.GetRequestID(ctx))
		return
	}

	if len(req.Messages) == 0 {
		h.recordRequest("error", start)
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "At least one message is required", middleware.GetRequestID(ctx))
		return
	}
	if req.KeepLast < 0 || req.KeepLast > 10 {
		h.recordRequest("error", start)
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "keep_last must be between 1 and 10, or 0 for the configured default", middleware.GetRequestID(ctx))
		return
	}

	opts := h.options()
	if req.KeepLast != 0 {
		opts.KeepLastToolResults = req.KeepLast
	}

	pruned, decisions := prune.PruneToolResultsWithDecisions(req.Messages, opts)

	var counts pruneDecisionCounts
	charsSaved := 0
	for i, d := range decisions {
		switch d {
		case prune.DecisionSoftTrimmed:
			counts.SoftTrimmed++
		case prune.DecisionHardCleared:
			counts.HardCleared++
		default:
			counts.Unchanged++
		}
		if d != prune.DecisionUnchanged {
			charsSaved += utf8.RuneCountInString(req.Messages[i].Content) - utf8.RuneCountInString(pruned[i].Content)
		}
	}

	h.recordActions(req.Messages, decisions, opts)
	if h.metrics != nil {
		h.metrics.AddPruneCharsSaved(charsSaved)
	}
	h.recordRequest("ok", start)

	h.logger.Debug("Pruned tool results",
		"messages", len(req.Messages),
		"soft_trimmed", counts.SoftTrimmed,
		"hard_cleared", counts.HardCleared,
		"chars_saved", charsSaved)

	response.JSON(w, http.StatusOK, pruneResponse{
		Messages:   pruned,
		Decisions:  counts,
		CharsSaved: charsSaved,
	})
}

func (h *PruneHandler) recordRequest(status string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordPruneRequest(status, time.Since(start))
	}
}

// recordActions classifies each tool message the way the pruner does:
// trailing tool results are protected by position, everything else is
// kept, trimmed or cleared.
func (h *PruneHandler) recordActions(messages []prune.Message, decisions []prune.Decision, opts prune.Options) {
	if h.metrics == nil {
		return
	}

	keep := opts.KeepLastToolResults
	if keep == 0 {
		keep = prune.DefaultKeepLastToolResults
	}
	if keep < 1 {
		keep = 1
	}
	if keep > 10 {
		keep = 10
	}

	toolCount := 0
	for i := range messages {
		if messages[i].Role == prune.RoleTool {
			toolCount++
		}
	}
	firstProtected := toolCount - keep

	toolSeen := 0
	for i := range messages {
		if messages[i].Role != prune.RoleTool {
			continue
		}
		position := toolSeen
		toolSeen++

		switch {
		case position >= firstProtected:
			h.metrics.RecordPruneAction(metrics.PruneActionProtected)
		case decisions[i] == prune.DecisionSoftTrimmed:
			h.metrics.RecordPruneAction(metrics.PruneActionSoftTrimmed)
		case decisions[i] == prune.DecisionHardCleared:
			h.metrics.RecordPruneAction(metrics.PruneActionHardCleared)
		default:
			h.metrics.RecordPruneAction(metrics.PruneActionKept)
		}
	}
}
