// Package chat proxies the site's assistant widget to an external
// chat-completion provider and maps provider failures to messages a visitor
// can act on. It keeps no state between requests.
package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var (
	// ErrMessagesRequired is returned when messages is missing or not an array.
	ErrMessagesRequired = errors.New("chat: messages array is required")
	// ErrMalformedBody is returned when the request body is not JSON at all.
	ErrMalformedBody = errors.New("chat: malformed request body")
)

// Message is one turn of the visitor's conversation. The browser owns the
// history and resends all of it on every call.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the body of POST /api/chat.
type Request struct {
	Messages     []Message
	SystemPrompt string
}

type wireRequest struct {
	Messages     json.RawMessage `json:"messages"`
	SystemPrompt string          `json:"systemPrompt"`
}

// ParseRequest decodes and shape-checks a chat request. An empty array is a
// valid conversation.
func ParseRequest(body []byte) (Request, error) {
	var wire wireRequest
	if err := json.Unmarshal(body, &wire); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	raw := bytes.TrimSpace(wire.Messages)
	if len(raw) == 0 || raw[0] != '[' {
		return Request{}, ErrMessagesRequired
	}
	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMessagesRequired, err)
	}
	if messages == nil {
		messages = []Message{}
	}
	return Request{Messages: messages, SystemPrompt: wire.SystemPrompt}, nil
}
