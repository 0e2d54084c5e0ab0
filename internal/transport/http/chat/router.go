package chathttp

import (
	"context"
	"net/http"
	"strings"

	"swapsignal/internal/agent"
	"swapsignal/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Router exposes the chat protocol over HTTP.
type Router struct {
	Handler MessageHandler
}

// NewRouter builds the chat router.
func NewRouter(handler MessageHandler) *Router {
	return &Router{Handler: handler}
}

// Register mounts the chat routes under group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/messages", r.handleMessage)
	group.POST("/acknowledgements", r.handleAcknowledgement)
}

func (r *Router) handleMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Sender = strings.TrimSpace(req.Sender)
	if req.Sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender is required"})
		return
	}
	if strings.TrimSpace(req.Message.MsgID) == "" {
		req.Message.MsgID = uuid.NewString()
	}
	// The pipeline runs to completion even if the caller goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	out := &collectingOutbox{}
	if err := r.Handler.HandleMessage(ctx, req.Sender, req.Message, out); err != nil {
		logger.Errorf("chat message %s from %s: %v", req.Message.MsgID, req.Sender, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if out.resp.Messages == nil {
		out.resp.Messages = []agent.ChatMessage{}
	}
	c.JSON(http.StatusOK, out.resp)
}

// handleAcknowledgement accepts read receipts from peers; they carry no work.
func (r *Router) handleAcknowledgement(c *gin.Context) {
	var ack agent.ChatAcknowledgement
	if err := c.ShouldBindJSON(&ack); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.Debugf("acknowledgement received for %s", ack.AcknowledgedMsgID)
	c.Status(http.StatusNoContent)
}
