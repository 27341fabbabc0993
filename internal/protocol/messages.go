package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeToolCall   MessageType = "tool_call"
	TypeToolResult MessageType = "tool_result"
	TypeErrorEvent MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ToolCall invokes one tool by name. The ID is caller-chosen and echoed
// back on the matching result or error frame.
type ToolCall struct {
	Type MessageType `json:"type"`
	ID   string      `json:"id"`
	Tool string      `json:"tool"`
	Args ToolArgs    `json:"args"`
}

// ToolArgs carries the union of arguments across all tools; each tool
// reads only the fields it declares in its input schema.
type ToolArgs struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Emojikey       string `json:"emojikey,omitempty"`
	Superkey       string `json:"superkey,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

type ToolResult struct {
	Type MessageType `json:"type"`
	ID   string      `json:"id"`
	Tool string      `json:"tool"`
	Text string      `json:"text"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	ID     string      `json:"id,omitempty"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

// NewToolResult builds the result frame for a completed call.
func NewToolResult(call ToolCall, text string) ToolResult {
	return ToolResult{Type: TypeToolResult, ID: call.ID, Tool: call.Tool, Text: text}
}

// NewErrorEvent builds the error frame for a failed call.
func NewErrorEvent(id, code, detail string) ErrorEvent {
	return ErrorEvent{Type: TypeErrorEvent, ID: id, Code: code, Detail: detail}
}

// ParseClientMessage decodes one inbound websocket frame. Only
// tool_call frames are accepted from clients.
func ParseClientMessage(raw []byte) (ToolCall, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ToolCall{}, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeToolCall:
		var msg ToolCall
		if err := json.Unmarshal(raw, &msg); err != nil {
			return ToolCall{}, err
		}
		if msg.Tool == "" {
			return ToolCall{}, errors.New("invalid tool_call: missing tool")
		}
		return msg, nil
	default:
		return ToolCall{}, ErrUnsupportedType
	}
}
