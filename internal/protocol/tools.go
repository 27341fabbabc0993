package protocol

// Tool names.
const (
	ToolInitializeConversation = "initialize_conversation"
	ToolGetEmojikey            = "get_emojikey"
	ToolSetEmojikey            = "set_emojikey"
	ToolCreateSuperkey         = "create_superkey"
	ToolGetEmojikeyHistory     = "get_emojikey_history"
)

// Tool describes one callable tool for discovery. The input schema is a
// JSON Schema fragment serialized as-is.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func schema(required []string, props map[string]any) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var conversationIDProp = map[string]any{
	"type":        "string",
	"description": "The conversation ID provided by initialize_conversation",
}

// Tools lists every tool this server exposes, in invocation order.
func Tools() []Tool {
	return []Tool{
		{
			Name: ToolInitializeConversation,
			Description: "IMPORTANT: " +
				"1. Run this tool at the start of every conversation to initialize the emojikey context. " +
				"2. Emojikeys follow a structured language where each component encodes dimensions with magnitude and phase angle. " +
				"3. The initialize_conversation function will return recent keys and a unique conversation ID. " +
				"4. You must use the returned conversation ID in all subsequent emojikey operations in this conversation. " +
				"5. This ensures that each conversation maintains its own emojikey state separate from others.",
			InputSchema: schema(nil, nil),
		},
		{
			Name: ToolGetEmojikey,
			Description: "Get the current emojikey for this conversation. " +
				"This function can be used when the user requests a vibe check.",
			InputSchema: schema([]string{"conversation_id"}, map[string]any{
				"conversation_id": conversationIDProp,
			}),
		},
		{
			Name: ToolSetEmojikey,
			Description: "Use this function to create and store a new emojikey in the v3 format. " +
				"The Emojikey v3 format uses: " +
				"[ME|🧠🎨8∠45|🔒🔓9∠60] where: " +
				"* Each component (ME, CONTENT, YOU) is enclosed in square brackets " +
				"* Dimensions are separated by pipes (|) " +
				"* Each dimension has emoji pairs followed by magnitude (0-9) and angle (0-180°) " +
				"* Multiple components can be joined with ~ connector " +
				"Example: [ME|🧠🎨8∠45|🔒🔓9∠60]~[CONTENT|💻🧩9∠15|🌱🌳7∠30]~[YOU|🎓🌱8∠35|🔥💤9∠10] " +
				"Set a new emojikey when you detect significant changes in the interaction.",
			InputSchema: schema([]string{"emojikey", "conversation_id"}, map[string]any{
				"emojikey": map[string]any{
					"type":        "string",
					"description": "Emojikey in v3 format with components, dimensions, magnitude and phase angles.",
				},
				"conversation_id": conversationIDProp,
			}),
		},
		{
			Name: ToolCreateSuperkey,
			Description: "Use this function to create a superkey that compresses the patterns from 10 recent regular keys. " +
				"A superkey wraps a regular key payload in the compression marker [[×10...]] and summarizes " +
				"the dominant dimensions across those keys. " +
				"Create a superkey after 10 regular keys to maintain a manageable history length.",
			InputSchema: schema([]string{"superkey"}, map[string]any{
				"superkey": map[string]any{
					"type":        "string",
					"description": "Compressed summary key covering roughly 10 regular keys.",
				},
				"conversation_id": conversationIDProp,
			}),
		},
		{
			Name: ToolGetEmojikeyHistory,
			Description: "Function to list previously stored historical emojikeys for this conversation. " +
				"Useful for seeing the progression of vibes and interaction styles within the conversation.",
			InputSchema: schema([]string{"conversation_id"}, map[string]any{
				"conversation_id": conversationIDProp,
				"limit": map[string]any{
					"type":        "number",
					"description": "Number of historical emojikeys to return, defaults to 10.",
				},
			}),
		},
	}
}
