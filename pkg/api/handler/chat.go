package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkovalev/gemini-relay/pkg/api/response"
	"github.com/dkovalev/gemini-relay/pkg/domain"
	"github.com/dkovalev/gemini-relay/pkg/render"
)

type ChatDispatcher interface {
	Dispatch(ctx context.Context, message string, images []domain.Attachment, history []domain.ChatTurn, cfg domain.DispatchConfig) (string, error)
}

type chat struct {
	dispatcher ChatDispatcher
	cfg        domain.DispatchConfig
	writer     response.JSONResponseWriter
}

func NewChat(dispatcher ChatDispatcher, cfg domain.DispatchConfig) *chat {
	return &chat{
		dispatcher: dispatcher,
		cfg:        cfg,
		writer:     response.JSONResponseWriter{},
	}
}

type chatRequest struct {
	Message string              `json:"message"`
	Images  []domain.Attachment `json:"images,omitempty"`
	History []domain.ChatTurn   `json:"history,omitempty"`
	Format  string              `json:"format,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
	HTML     string `json:"html,omitempty"`
}

func (c *chat) GenerateReply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		c.writer.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Only POST is supported.")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writer.WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	reply, err := c.dispatcher.Dispatch(r.Context(), req.Message, req.Images, req.History, c.cfg)
	if err != nil {
		c.writer.WriteErrorResponse(w, statusFor(err), err.Error())
		return
	}

	resp := chatResponse{Response: reply}
	if req.Format == "html" {
		resp.HTML = render.MarkdownToHTML(reply)
	}
	c.writer.WriteSuccessResponse(w, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCredentialsExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
