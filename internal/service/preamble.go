package service

// preamble explains the key grammar to the calling agent. It leads
// every initialize_conversation response, ahead of the relationship
// state and the conversation ID.
const preamble = "🌟✨ EMOJIKEY v3.0 SYSTEM INITIALIZED ✨🌟\n\n" +
	"Use arrow format: [ME|Cognitive.🧠➡️🔧|Trust.🔒⬅️🔓]\n\n" +
	"Directional arrows:\n" +
	"• ➡️ lean toward right emoji\n" +
	"• ⬅️ lean toward left emoji\n" +
	"• ↔️ balanced/neutral"

// periodLabels maps aggregate period types to their display names in
// the initialize response.
var periodLabels = map[string]string{
	"lifetime": "Lifetime (all-time)",
	"90d":      "90-day",
	"30d":      "30-day",
	"7d":       "7-day",
	"24h":      "24-hour",
}
