package chat

import (
	"encoding/hex"

	"github.com/tailored-agentic-units/dbchat/observability"
	"github.com/zeebo/blake3"
)

// Orchestrator event types emitted during a turn.
const (
	EventSubmitStart        observability.EventType = "chat.submit.start"
	EventRetrievalComplete  observability.EventType = "chat.retrieval.complete"
	EventFormattingComplete observability.EventType = "chat.formatting.complete"
	EventTurnRecorded       observability.EventType = "chat.turn.recorded"
	EventError              observability.EventType = "chat.error"
)

// Digest returns a short blake3 fingerprint of text so prompts can be
// correlated in logs without logging their contents.
func Digest(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}
