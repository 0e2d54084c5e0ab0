package agent

import (
	"strings"
	"time"

	"swapsignal/internal/decision"

	"github.com/google/uuid"
)

// Content kinds of the chat protocol.
const (
	ContentText         = "text"
	ContentIntent       = "intent"
	ContentStartSession = "start-session"
	ContentEndSession   = "end-session"
)

// Content is one item of a chat message. Intent is set only for ContentIntent.
type Content struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Intent *decision.TradeIntent `json:"intent,omitempty"`
}

// ChatMessage is an inbound request or an outbound reply.
type ChatMessage struct {
	Timestamp time.Time `json:"timestamp"`
	MsgID     string    `json:"msg_id"`
	Content   []Content `json:"content"`
}

// ChatAcknowledgement confirms receipt of a ChatMessage.
type ChatAcknowledgement struct {
	Timestamp         time.Time `json:"timestamp"`
	AcknowledgedMsgID string    `json:"acknowledged_msg_id"`
}

// Text concatenates the text items in order.
func (m ChatMessage) Text() string {
	var b strings.Builder
	for _, c := range m.Content {
		if c.Type == ContentText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// StructuredIntent returns the first intent item, if any.
func (m ChatMessage) StructuredIntent() (decision.TradeIntent, bool) {
	for _, c := range m.Content {
		if c.Type == ContentIntent && c.Intent != nil {
			return *c.Intent, true
		}
	}
	return decision.TradeIntent{}, false
}

// EndsSession reports whether the message carries an end-session item.
func (m ChatMessage) EndsSession() bool {
	for _, c := range m.Content {
		if c.Type == ContentEndSession {
			return true
		}
	}
	return false
}

// NewReply builds a one-shot reply: text followed by end-session.
func NewReply(now time.Time, text string) ChatMessage {
	return ChatMessage{
		Timestamp: now.UTC(),
		MsgID:     uuid.NewString(),
		Content: []Content{
			{Type: ContentText, Text: text},
			{Type: ContentEndSession},
		},
	}
}
