// Package llm holds the provider-agnostic types shared by the embedding and
// generation capabilities, plus the error taxonomy their implementations
// report against.
package llm

// Message roles. The developer role is distinct from system: system carries
// retrieved context, developer carries the caller's steering instructions.
const (
	RoleSystem    = "system"
	RoleDeveloper = "developer"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message with the given role and content.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}
