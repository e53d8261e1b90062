// Package protocol defines the message shapes exchanged with chat agents.
package protocol

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a chat request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a Message with the given role and content.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleUser, "How many orders last month?")
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// InitMessages builds a conversation from an optional system prompt followed
// by a single user message. An empty system prompt is omitted.
func InitMessages(system, user string) []Message {
	if system == "" {
		return []Message{NewMessage(RoleUser, user)}
	}
	return []Message{
		NewMessage(RoleSystem, system),
		NewMessage(RoleUser, user),
	}
}
