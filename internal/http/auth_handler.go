package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/hostel-desk/internal/application"
)

type authService interface {
	LoginStudent(ctx context.Context, input application.LoginInput) (application.AuthResult, error)
	LoginAdmin(ctx context.Context, input application.LoginInput) (application.AuthResult, error)
	LoginWorker(ctx context.Context, input application.WorkerLoginInput) (application.AuthResult, error)
	RegisterStudent(ctx context.Context, input application.StudentInput) (application.AuthResult, error)
}

type AuthHandler struct {
	service   authService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) LoginStudent(w http.ResponseWriter, r *http.Request) {
	h.emailLogin(w, r, "LoginStudent", h.service.LoginStudent)
}

func (h *AuthHandler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	h.emailLogin(w, r, "LoginAdmin", h.service.LoginAdmin)
}

func (h *AuthHandler) emailLogin(w http.ResponseWriter, r *http.Request, operation string, login func(context.Context, application.LoginInput) (application.AuthResult, error)) {
	var req application.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), operation, "email", strings.ToLower(strings.TrimSpace(req.Email)))
	result, err := login(r.Context(), req)
	if err != nil {
		logger.WarnContext(r.Context(), "login rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("account_id", result.ID, "role", result.Role).InfoContext(r.Context(), "login succeeded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) LoginWorker(w http.ResponseWriter, r *http.Request) {
	var req application.WorkerLoginInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "LoginWorker", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "LoginWorker", "phone", strings.TrimSpace(req.Phone))
	result, err := h.service.LoginWorker(r.Context(), req)
	if err != nil {
		logger.WarnContext(r.Context(), "login rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("account_id", result.ID).InfoContext(r.Context(), "login succeeded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req application.StudentInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "RegisterStudent", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode registration", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "RegisterStudent")
	result, err := h.service.RegisterStudent(r.Context(), req)
	if err != nil {
		logger.WarnContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("student_id", result.ID).InfoContext(r.Context(), "student registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAuthResponse(result))
}

type authResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	ExpiresAt string `json:"expiresAt"`
}

func toAuthResponse(result application.AuthResult) authResponse {
	return authResponse{
		Token:     result.Token,
		Role:      string(result.Role),
		ID:        result.ID,
		Name:      result.Name,
		ExpiresAt: formatTime(result.ExpiresAt),
	}
}
