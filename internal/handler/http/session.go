package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hireloop/interview-backend-go/internal/domain/session"
	"github.com/hireloop/interview-backend-go/internal/handler/http/response"
)

type SessionHandler interface {
	// Join moves a pending session to active via its opaque token
	Join(w http.ResponseWriter, r *http.Request)
	// Status returns the read-only session view for client polling
	Status(w http.ResponseWriter, r *http.Request)
	// Heartbeat records a liveness signal for an active session
	Heartbeat(w http.ResponseWriter, r *http.Request)
	// Complete explicitly completes an active session
	Complete(w http.ResponseWriter, r *http.Request)
	// Cancel cancels a pending session
	Cancel(w http.ResponseWriter, r *http.Request)
}

type sessionHandlerImpl struct {
	sessionService session.SessionService
}

func NewSessionHandler(sessionService session.SessionService) SessionHandler {
	return &sessionHandlerImpl{
		sessionService: sessionService,
	}
}

// Join implements SessionHandler - public endpoint, token-authenticated
func (h *sessionHandlerImpl) Join(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "Token is required", nil)
		return
	}

	result, err := h.sessionService.Join(r.Context(), token)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Status implements SessionHandler - public endpoint, token-authenticated
func (h *sessionHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "Token is required", nil)
		return
	}

	sess, err := h.sessionService.GetByToken(r.Context(), token)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, sess.ToResponse())
}

// Heartbeat implements SessionHandler
func (h *sessionHandlerImpl) Heartbeat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "Session ID is required", nil)
		return
	}

	if err := h.sessionService.Heartbeat(r.Context(), sessionID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Heartbeat recorded", nil)
}

// Complete implements SessionHandler
func (h *sessionHandlerImpl) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "Session ID is required", nil)
		return
	}

	if err := h.sessionService.Complete(r.Context(), sessionID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Session completed", nil)
}

// Cancel implements SessionHandler
func (h *sessionHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "Session ID is required", nil)
		return
	}

	if err := h.sessionService.Cancel(r.Context(), sessionID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Session cancelled", nil)
}
