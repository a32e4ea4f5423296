package llm

import (
	"encoding/json"
	"sync"
)

// Role is the message role used in the context log.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged record of the context log.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ContextLog accumulates prior exchange content across calls within one run.
// It is append-only: records are never pruned or deduplicated.
type ContextLog struct {
	mu       sync.Mutex
	messages []Message
}

// NewContextLog returns an empty log.
func NewContextLog() *ContextLog {
	return &ContextLog{messages: make([]Message, 0, 4)}
}

// Append adds a record to the end of the log.
func (c *ContextLog) Append(role Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// Len returns the number of records.
func (c *ContextLog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.messages)
}

// Messages returns a copy of the records in order.
func (c *ContextLog) Messages() []Message {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// JSON serializes the log as a JSON array; a nil or empty log renders as [].
func (c *ContextLog) JSON() string {
	msgs := c.Messages()
	if msgs == nil {
		msgs = []Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return "[]"
	}
	return string(data)
}
