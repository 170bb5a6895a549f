package chat

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation is an excerpt of a source document backing an assistant reply
type Citation struct {
	RuleNumber string `json:"rule_number"`
	Text       string `json:"text"`
	Source     string `json:"source"` // Document identifier (e.g., "GFR 2017")
	Page       int    `json:"page"`
}

// Message represents a single message in a conversation
type Message struct {
	Role      Role       `json:"role"`                // "user" or "assistant"
	Content   string     `json:"content"`             // Markdown text
	Citations []Citation `json:"citations,omitempty"` // Only set on assistant messages
}

// Request is the body sent to the chat endpoint for one turn
type Request struct {
	Message string    `json:"message"`
	History []Message `json:"history"`
}

// Reply is the body returned by the chat endpoint
type Reply struct {
	Response  string     `json:"response"`
	Citations []Citation `json:"citations,omitempty"`
}
