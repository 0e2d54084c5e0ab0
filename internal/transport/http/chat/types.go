package chathttp

import (
	"context"

	"swapsignal/internal/agent"
)

// MessageHandler is implemented by agent.Session.
type MessageHandler interface {
	HandleMessage(ctx context.Context, sender string, msg agent.ChatMessage, out agent.Outbox) error
}

// RequestObserver counts served requests.
type RequestObserver interface {
	ObserveHTTP(method, route string, code int)
}

// MessageRequest is the body of POST /api/chat/messages.
type MessageRequest struct {
	Sender  string            `json:"sender" binding:"required"`
	Message agent.ChatMessage `json:"message"`
}

// MessageResponse carries everything the agent sent back for one request, in order.
type MessageResponse struct {
	Acknowledgement *agent.ChatAcknowledgement `json:"acknowledgement,omitempty"`
	Messages        []agent.ChatMessage        `json:"messages"`
}

// collectingOutbox buffers the agent's output for a single HTTP response.
type collectingOutbox struct {
	resp MessageResponse
}

func (o *collectingOutbox) SendAcknowledgement(_ context.Context, _ string, ack agent.ChatAcknowledgement) error {
	o.resp.Acknowledgement = &ack
	return nil
}

func (o *collectingOutbox) SendMessage(_ context.Context, _ string, msg agent.ChatMessage) error {
	o.resp.Messages = append(o.resp.Messages, msg)
	return nil
}
