package prune

import (
	"strings"
	"testing"
)

func toolMsg(id string, size int) Message {
	return Message{Role: RoleTool, Content: strings.Repeat("x", size), ToolCallID: id}
}

func TestPruneToolResults_EmptySequence(t *testing.T) {
	out := PruneToolResults(nil, Options{})
	if len(out) != 0 {
		t.Errorf("expected empty result, got %d messages", len(out))
	}
}

func TestPruneToolResults_NoToolMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleHuman, Content: strings.Repeat("h", 200000)},
		{Role: RoleAssistant, Content: strings.Repeat("a", 200000)},
	}

	out := PruneToolResults(messages, Options{})

	if len(out) != len(messages) {
		t.Fatalf("message count changed: %d -> %d", len(messages), len(out))
	}
	for i := range out {
		if out[i] != messages[i] {
			t.Errorf("non-tool message %d modified", i)
		}
	}
}

func TestPruneToolResults_ProtectedWindow(t *testing.T) {
	// Five oversized tool results, keep_last protects the final three.
	messages := []Message{
		toolMsg("t1", 120000),
		toolMsg("t2", 120000),
		toolMsg("t3", 120000),
		toolMsg("t4", 120000),
		toolMsg("t5", 120000),
	}

	out := PruneToolResults(messages, Options{KeepLastToolResults: 3})

	for i := 0; i < 2; i++ {
		if out[i].Content == messages[i].Content {
			t.Errorf("unprotected message %d should have been pruned", i)
		}
	}
	for i := 2; i < 5; i++ {
		if out[i].Content != messages[i].Content {
			t.Errorf("protected message %d was modified", i)
		}
	}
}

func TestPruneToolResults_ProtectionCountsToolPositions(t *testing.T) {
	// Non-tool messages interleaved; protection counts tool messages only.
	messages := []Message{
		toolMsg("t1", 120000),
		{Role: RoleAssistant, Content: "thinking"},
		toolMsg("t2", 120000),
		{Role: RoleHuman, Content: "go on"},
		toolMsg("t3", 120000),
	}

	out := PruneToolResults(messages, Options{KeepLastToolResults: 2})

	if out[0].Content == messages[0].Content {
		t.Error("oldest tool message should have been pruned")
	}
	if out[2].Content != messages[2].Content || out[4].Content != messages[4].Content {
		t.Error("last two tool messages must remain untouched")
	}
	if out[1] != messages[1] || out[3] != messages[3] {
		t.Error("interleaved non-tool messages must pass through unchanged")
	}
}

func TestPruneToolResults_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		size int
		want Decision
	}{
		{"below min prunable", 1500, DecisionUnchanged},
		{"between min and soft", 30000, DecisionUnchanged},
		{"exactly soft threshold", 50000, DecisionUnchanged},
		{"just above soft threshold", 50001, DecisionSoftTrimmed},
		{"between soft and hard", 80000, DecisionSoftTrimmed},
		{"exactly hard threshold", 100000, DecisionSoftTrimmed},
		{"above hard threshold", 100001, DecisionHardCleared},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// One oversized candidate followed by enough recent results to
			// leave it unprotected.
			messages := []Message{
				toolMsg("old", tt.size),
				toolMsg("r1", 10), toolMsg("r2", 10), toolMsg("r3", 10), toolMsg("r4", 10),
			}

			out, decisions := PruneToolResultsWithDecisions(messages, Options{})

			if decisions[0] != tt.want {
				t.Fatalf("size %d: expected %s, got %s", tt.size, tt.want, decisions[0])
			}

			switch tt.want {
			case DecisionUnchanged:
				if out[0].Content != messages[0].Content {
					t.Error("content should be unchanged")
				}
			case DecisionSoftTrimmed:
				if len(out[0].Content) >= tt.size {
					t.Errorf("soft trim did not shrink content: %d -> %d", tt.size, len(out[0].Content))
				}
				if !strings.Contains(out[0].Content, "characters trimmed") {
					t.Error("soft-trimmed content missing trim marker")
				}
				if !strings.HasPrefix(out[0].Content, strings.Repeat("x", DefaultHeadChars)) {
					t.Error("soft-trimmed content missing head")
				}
				if !strings.HasSuffix(out[0].Content, strings.Repeat("x", DefaultTailChars)) {
					t.Error("soft-trimmed content missing tail")
				}
			case DecisionHardCleared:
				if !strings.HasPrefix(out[0].Content, "[tool result cleared: ") {
					t.Errorf("unexpected hard-clear placeholder %q", out[0].Content)
				}
			}
		})
	}
}

func TestPruneToolResults_HardClearPlaceholderFormat(t *testing.T) {
	size := DefaultHardClearThreshold + 10000
	messages := []Message{
		toolMsg("huge", size),
		toolMsg("r1", 10), toolMsg("r2", 10), toolMsg("r3", 10), toolMsg("r4", 10),
	}

	out := PruneToolResults(messages, Options{})

	want := "[tool result cleared: 110,000 characters]"
	if out[0].Content != want {
		t.Errorf("expected placeholder %q, got %q", want, out[0].Content)
	}
}

func TestPruneToolResults_SoftTrimScenario(t *testing.T) {
	// Sizes [60000, small x4] with the default keep_last of 4: only the
	// oldest message is prunable, and it lands in the soft-trim band.
	messages := []Message{
		toolMsg("old", 60000),
		{Role: RoleTool, Content: "small", ToolCallID: "r1"},
		{Role: RoleTool, Content: "small", ToolCallID: "r2"},
		{Role: RoleTool, Content: "small", ToolCallID: "r3"},
		{Role: RoleTool, Content: "small", ToolCallID: "r4"},
	}

	out := PruneToolResults(messages, Options{})

	if !strings.Contains(out[0].Content, "characters trimmed") {
		t.Error("oldest message should carry the trim marker")
	}
	if !strings.HasPrefix(out[0].Content, strings.Repeat("x", DefaultHeadChars)) {
		t.Error("head of original content missing")
	}
	if !strings.HasSuffix(out[0].Content, strings.Repeat("x", DefaultTailChars)) {
		t.Error("tail of original content missing")
	}
	for i := 1; i < 5; i++ {
		if out[i].Content != "small" {
			t.Errorf("recent message %d modified: %q", i, out[i].Content)
		}
	}
}

func TestPruneToolResults_ImageContentExempt(t *testing.T) {
	image := "data:image/png;base64," + strings.Repeat("iVBORw0KGgo+", 20000)
	messages := []Message{
		{Role: RoleTool, Content: image, ToolCallID: "img"},
		toolMsg("r1", 10), toolMsg("r2", 10), toolMsg("r3", 10), toolMsg("r4", 10),
	}

	out := PruneToolResults(messages, Options{})

	if out[0].Content != image {
		t.Error("image content must never be pruned, regardless of size")
	}
}

func TestPruneToolResults_NeverMutatesInput(t *testing.T) {
	messages := []Message{
		{Role: RoleHuman, Content: "question"},
		toolMsg("old", 120000),
		toolMsg("recent", 10),
	}
	originals := make([]Message, len(messages))
	copy(originals, messages)

	out := PruneToolResults(messages, Options{KeepLastToolResults: 1})

	for i := range messages {
		if messages[i] != originals[i] {
			t.Fatalf("input message %d mutated", i)
		}
	}
	if out[1].Content == originals[1].Content {
		t.Error("output should carry the pruned content")
	}
}

func TestPruneToolResults_PreservesRoleAndToolCallID(t *testing.T) {
	messages := []Message{
		toolMsg("call-abc", 120000),
		{Role: RoleAssistant, Content: "ok"},
		toolMsg("call-def", 10),
	}

	out := PruneToolResults(messages, Options{KeepLastToolResults: 1})

	if len(out) != len(messages) {
		t.Fatalf("message count changed: %d -> %d", len(messages), len(out))
	}
	for i := range out {
		if out[i].Role != messages[i].Role {
			t.Errorf("message %d role changed", i)
		}
		if out[i].ToolCallID != messages[i].ToolCallID {
			t.Errorf("message %d tool_call_id changed", i)
		}
	}
}

func TestPruneToolResults_Idempotent(t *testing.T) {
	messages := []Message{
		toolMsg("hard", 150000),
		toolMsg("soft", 60000),
		toolMsg("keep", 10),
	}

	once := PruneToolResults(messages, Options{KeepLastToolResults: 1})
	twice := PruneToolResults(once, Options{KeepLastToolResults: 1})

	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("message %d changed on second prune: %q -> %q", i, once[i].Content, twice[i].Content)
		}
	}
}

func TestPruneToolResults_KeepLastClamped(t *testing.T) {
	messages := make([]Message, 0, 12)
	for i := 0; i < 12; i++ {
		messages = append(messages, toolMsg("t", 120000))
	}

	// A keep_last beyond the supported range clamps to 10: only the two
	// oldest messages are prunable.
	out := PruneToolResults(messages, Options{KeepLastToolResults: 50})

	prunedCount := 0
	for i := range out {
		if out[i].Content != messages[i].Content {
			prunedCount++
		}
	}
	if prunedCount != 2 {
		t.Errorf("expected 2 pruned messages with clamped keep_last, got %d", prunedCount)
	}
}

func TestOptions_Validate(t *testing.T) {
	if err := (Options{}).Validate(); err != nil {
		t.Errorf("default options should validate: %v", err)
	}

	bad := Options{MinPrunableChars: 60000, SoftTrimThreshold: 50000, HardClearThreshold: 100000}
	if err := bad.Validate(); err == nil {
		t.Error("expected error when min prunable exceeds soft threshold")
	}

	bad = Options{MinPrunableChars: 2000, SoftTrimThreshold: 100000, HardClearThreshold: 50000}
	if err := bad.Validate(); err == nil {
		t.Error("expected error when soft threshold exceeds hard threshold")
	}

	bad = Options{HeadChars: 30000, TailChars: 30000}
	if err := bad.Validate(); err == nil {
		t.Error("expected error when head plus tail exceeds soft threshold")
	}
}

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{110000, "110,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatThousands(tt.in); got != tt.want {
			t.Errorf("formatThousands(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
