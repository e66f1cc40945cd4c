package prune

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Role identifies who produced a transcript message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single transcript entry. Pruning only ever rewrites the
// Content of tool-role messages; Role and ToolCallID pass through untouched.
type Message struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Decision describes what pruning did to a single message.
type Decision string

const (
	DecisionUnchanged   Decision = "unchanged"
	DecisionSoftTrimmed Decision = "soft_trimmed"
	DecisionHardCleared Decision = "hard_cleared"
)

// Default thresholds. Sizes are in characters (runes), not bytes.
const (
	DefaultMinPrunableChars    = 2000
	DefaultSoftTrimThreshold   = 50000
	DefaultHardClearThreshold  = 100000
	DefaultKeepLastToolResults = 4
	DefaultHeadChars           = 1000
	DefaultTailChars           = 1000

	minKeepLast = 1
	maxKeepLast = 10
)

// Options controls the pruning thresholds. The zero value selects the
// defaults.
type Options struct {
	// MinPrunableChars: content shorter than this is never touched. All
	// placeholders produced by pruning end up below the soft threshold,
	// which keeps pruning idempotent.
	MinPrunableChars int

	// SoftTrimThreshold: content longer than this has its middle replaced
	// with a trim marker, keeping a fixed head and tail.
	SoftTrimThreshold int

	// HardClearThreshold: content longer than this is replaced entirely by
	// a placeholder naming the original size.
	HardClearThreshold int

	// KeepLastToolResults: how many of the most recent tool messages,
	// counted from the end of the sequence, are protected from pruning
	// regardless of size. Clamped to [1, 10].
	KeepLastToolResults int

	// HeadChars and TailChars: how much of the start and end survive a
	// soft trim.
	HeadChars int
	TailChars int
}

func (o Options) normalized() Options {
	if o.MinPrunableChars <= 0 {
		o.MinPrunableChars = DefaultMinPrunableChars
	}
	if o.SoftTrimThreshold <= 0 {
		o.SoftTrimThreshold = DefaultSoftTrimThreshold
	}
	if o.HardClearThreshold <= 0 {
		o.HardClearThreshold = DefaultHardClearThreshold
	}
	if o.KeepLastToolResults == 0 {
		o.KeepLastToolResults = DefaultKeepLastToolResults
	}
	if o.KeepLastToolResults < minKeepLast {
		o.KeepLastToolResults = minKeepLast
	}
	if o.KeepLastToolResults > maxKeepLast {
		o.KeepLastToolResults = maxKeepLast
	}
	if o.HeadChars <= 0 {
		o.HeadChars = DefaultHeadChars
	}
	if o.TailChars <= 0 {
		o.TailChars = DefaultTailChars
	}
	return o
}

// Validate checks the threshold ordering invariants.
func (o Options) Validate() error {
	n := o.normalized()
	if n.MinPrunableChars >= n.SoftTrimThreshold {
		return fmt.Errorf("min prunable chars (%d) must be below soft trim threshold (%d)",
			n.MinPrunableChars, n.SoftTrimThreshold)
	}
	if n.SoftTrimThreshold >= n.HardClearThreshold {
		return fmt.Errorf("soft trim threshold (%d) must be below hard clear threshold (%d)",
			n.SoftTrimThreshold, n.HardClearThreshold)
	}
	if n.HeadChars+n.TailChars >= n.SoftTrimThreshold {
		return fmt.Errorf("head (%d) plus tail (%d) must be below soft trim threshold (%d)",
			n.HeadChars, n.TailChars, n.SoftTrimThreshold)
	}
	return nil
}

// PruneToolResults returns a copy of messages where oversized, unprotected
// tool results are soft-trimmed or hard-cleared. The input is never mutated;
// message count, roles, tool call ids and all non-tool messages are preserved
// exactly.
func PruneToolResults(messages []Message, opts Options) []Message {
	pruned, _ := PruneToolResultsWithDecisions(messages, opts)
	return pruned
}

// PruneToolResultsWithDecisions is PruneToolResults plus a per-message
// decision slice aligned by index with the result.
func PruneToolResultsWithDecisions(messages []Message, opts Options) ([]Message, []Decision) {
	o := opts.normalized()

	out := make([]Message, len(messages))
	copy(out, messages)

	decisions := make([]Decision, len(messages))
	for i := range decisions {
		decisions[i] = DecisionUnchanged
	}

	toolCount := 0
	for i := range out {
		if out[i].Role == RoleTool {
			toolCount++
		}
	}
	if toolCount == 0 {
		return out, decisions
	}

	// The last KeepLastToolResults tool messages are protected by position,
	// not by size.
	firstProtected := toolCount - o.KeepLastToolResults

	toolSeen := 0
	for i := range out {
		if out[i].Role != RoleTool {
			continue
		}
		position := toolSeen
		toolSeen++
		if position >= firstProtected {
			continue
		}

		decision, replacement := decide(out[i].Content, o)
		decisions[i] = decision
		if decision != DecisionUnchanged {
			out[i].Content = replacement
		}
	}

	return out, decisions
}

func decide(content string, o Options) (Decision, string) {
	if IsImageContent(content) {
		return DecisionUnchanged, ""
	}

	length := utf8.RuneCountInString(content)
	switch {
	case length < o.MinPrunableChars:
		return DecisionUnchanged, ""
	case length > o.HardClearThreshold:
		return DecisionHardCleared, hardClearPlaceholder(length)
	case length > o.SoftTrimThreshold && length > o.HeadChars+o.TailChars:
		return DecisionSoftTrimmed, softTrim(content, length, o)
	default:
		return DecisionUnchanged, ""
	}
}

func hardClearPlaceholder(length int) string {
	return fmt.Sprintf("[tool result cleared: %s characters]", formatThousands(length))
}

func softTrim(content string, length int, o Options) string {
	runes := []rune(content)
	head := string(runes[:o.HeadChars])
	tail := string(runes[len(runes)-o.TailChars:])
	trimmed := length - o.HeadChars - o.TailChars
	return fmt.Sprintf("%s... <%s characters trimmed> ...%s", head, formatThousands(trimmed), tail)
}

func formatThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}

	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
