package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseClientMessageToolCall(t *testing.T) {
	raw := []byte(`{"type":"tool_call","id":"c1","tool":"set_emojikey","args":{"conversation_id":"conv-1","emojikey":"[ME|🧠🎨8∠45]"}}`)
	call, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if call.ID != "c1" || call.Tool != "set_emojikey" {
		t.Fatalf("unexpected tool call: %+v", call)
	}
	if call.Args.ConversationID != "conv-1" || call.Args.Emojikey != "[ME|🧠🎨8∠45]" {
		t.Fatalf("unexpected args: %+v", call.Args)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsMissingTool(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"tool_call","id":"c1"}`))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestToolResultEchoesCallID(t *testing.T) {
	call := ToolCall{Type: TypeToolCall, ID: "c7", Tool: "get_emojikey"}
	result := NewToolResult(call, "🧠🎨✨")
	if result.ID != "c7" || result.Tool != "get_emojikey" || result.Type != TypeToolResult {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestToolsListMatchesHandlers(t *testing.T) {
	tools := Tools()
	if len(tools) != 5 {
		t.Fatalf("Tools() returned %d entries, want 5", len(tools))
	}

	want := []string{
		ToolInitializeConversation,
		ToolGetEmojikey,
		ToolSetEmojikey,
		ToolCreateSuperkey,
		ToolGetEmojikeyHistory,
	}
	for i, tool := range tools {
		if tool.Name != want[i] {
			t.Fatalf("tool %d = %q, want %q", i, tool.Name, want[i])
		}
		if tool.Description == "" {
			t.Fatalf("tool %q has no description", tool.Name)
		}
		if _, err := json.Marshal(tool.InputSchema); err != nil {
			t.Fatalf("tool %q schema does not marshal: %v", tool.Name, err)
		}
	}
}
