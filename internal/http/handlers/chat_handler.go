// Chat HTTP handlers.
//
// This file exposes the conversational endpoints:
//   - POST /chat        (send a message, receive the assistant reply)
//   - POST /verify-otp  (submit a one-time password for a pending challenge)
//
// Handlers are transport-thin: they validate input, resolve the session to a
// stable user identity, call the assistant, and translate results into HTTP
// responses. All authentication decisions live behind the assistant.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SameedHusayn/staffsync-ai/internal/chat"
	"github.com/SameedHusayn/staffsync-ai/internal/session"
)

//
// Service contracts (context-aware)
//

// Assistant defines the conversational operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type Assistant interface {
	// Process handles one chat message for the given user identity.
	Process(ctx context.Context, userID, message string) chat.Reply
	// SubmitOTP verifies a one-time password for the user's pending challenge.
	SubmitOTP(ctx context.Context, userID, code string) chat.OTPResult
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for the assistant.
type Handlers struct {
	assistant Assistant
	sessions  *session.Store
}

// New constructs a Handlers instance bound to the given assistant and
// session store.
func New(assistant Assistant, sessions *session.Store) *Handlers {
	return &Handlers{assistant: assistant, sessions: sessions}
}

//
// DTOs
//

// ChatRequest is the JSON payload for sending a chat message.
type ChatRequest struct {
	// Message is the user's chat input.
	Message string `json:"message" binding:"required" example:"What is my leave balance? My ID is EMP001"`
	// SessionID continues an existing conversation; omit to start a new one.
	SessionID string `json:"session_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// ChatResponse wraps the assistant reply and the session id the client
// should echo on the next request.
type ChatResponse struct {
	Response    string `json:"response"`
	SessionID   string `json:"session_id"`
	RequireAuth bool   `json:"require_auth"`
}

// VerifyOTPRequest is the JSON payload for the OTP verification endpoint.
type VerifyOTPRequest struct {
	// OTP is the 6-digit code from the authentication email.
	OTP string `json:"otp" binding:"required" example:"123456"`
	// SessionID identifies the conversation that owns the challenge.
	SessionID string `json:"session_id" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// VerifyOTPResponse reports the verification outcome and, on success, the
// result of the resumed request.
type VerifyOTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

//
// Handlers
//

// Chat godoc
// @ID          chat
// @Summary     Send a chat message
// @Description Sends one message to the assistant. Responses may request OTP authentication before an employee-scoped action runs.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	sessionID, userID := h.sessions.Resolve(strings.TrimSpace(req.SessionID))
	reply := h.assistant.Process(c.Request.Context(), userID, req.Message)

	ok(c, http.StatusOK, ChatResponse{
		Response:    reply.Message,
		SessionID:   sessionID,
		RequireAuth: reply.RequireAuth,
	})
}

// VerifyOTP godoc
// @ID          verifyOTP
// @Summary     Verify a one-time password
// @Description Verifies the OTP for the session's pending challenge and resumes the suspended request on success.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.VerifyOTPRequest  true  "Verification payload"
//
// @Success     200  {object}  handlers.VerifyOTPResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown session"
// @Router      /verify-otp [post]
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "otp and session_id required")
		return
	}

	// Verification never mints identities: an unknown session has no
	// challenge to verify against.
	userID, found := h.sessions.Lookup(strings.TrimSpace(req.SessionID))
	if !found {
		fail(c, http.StatusNotFound, ErrCodeUnknownSession, "session not found")
		return
	}

	res := h.assistant.SubmitOTP(c.Request.Context(), userID, req.OTP)
	ok(c, http.StatusOK, VerifyOTPResponse{
		Success:   res.Success,
		Message:   res.Message,
		SessionID: req.SessionID,
	})
}
