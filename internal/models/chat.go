package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Turn roles accepted from the browser and forwarded upstream
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn represents a single message in a conversation
type Turn struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// Conversation is the chronologically ordered turn history supplied by the caller
type Conversation []Turn

// Clone returns a copy of the conversation that shares no backing array with c
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Last returns the final turn and false when the conversation is empty
func (c Conversation) Last() (Turn, bool) {
	if len(c) == 0 {
		return Turn{}, false
	}
	return c[len(c)-1], true
}

// ChatText accepts either a full conversation or a bare string.
// A bare string becomes a single user turn.
type ChatText struct {
	Conversation Conversation
}

// UnmarshalJSON implements json.Unmarshaler
func (t *ChatText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		t.Conversation = nil
		return nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		t.Conversation = Conversation{{Role: RoleUser, Content: text}}
		return nil
	case '[':
		var conv Conversation
		if err := json.Unmarshal(trimmed, &conv); err != nil {
			return err
		}
		t.Conversation = conv
		return nil
	default:
		return fmt.Errorf("text must be a string or an array of turns")
	}
}

// MarshalJSON implements json.Marshaler
func (t ChatText) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Conversation)
}

// RAGChatRequest is the body of POST /api/openai/response
type RAGChatRequest struct {
	Text ChatText `json:"text" swaggertype:"array,object"` // Conversation, or a single user message
}

// RAGChatResponse is the success body of POST /api/openai/response
type RAGChatResponse struct {
	Response string `json:"response"` // The assistant's answer
}

// ErrorResponse is the uniform failure body of every relay endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}
