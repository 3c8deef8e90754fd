package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/hostel-desk/internal/application"
)

type notificationService interface {
	CreateNotification(ctx context.Context, params application.CreateNotificationParams) (application.Notification, error)
	ListNotifications(ctx context.Context, params application.ListNotificationsParams) ([]application.Notification, error)
	MarkRead(ctx context.Context, principal application.Principal, notificationID string) (application.Notification, error)
	MarkAllRead(ctx context.Context, principal application.Principal, recipientID string) (int64, error)
	UnreadCount(ctx context.Context, principal application.Principal, recipientID string) (int, error)
}

type NotificationHandler struct {
	service   notificationService
	responder responder
	logger    *slog.Logger
}

func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	base := defaultLogger(logger)
	return &NotificationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *NotificationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "NotificationHandler", operation, attrs...)
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req application.NotificationInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.ID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode notification", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.ID, "recipient_id", req.RecipientID)
	notification, err := h.service.CreateNotification(r.Context(), application.CreateNotificationParams{Principal: principal, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "notification creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("notification_id", notification.ID).InfoContext(r.Context(), "notification created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toNotificationDTO(notification))
}

// List serves a recipient's inbox. The path id is the recipient id.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.ID, "recipient_id", recipientID)

	isRead, err := queryBool(r, "isRead")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	params := application.ListNotificationsParams{Principal: principal, RecipientID: recipientID, IsRead: isRead}
	if kind := queryString(r, "type"); kind != nil {
		value := application.ActorKind(*kind)
		params.Kind = &value
	}

	notifications, err := h.service.ListNotifications(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "notification list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toNotificationDTOs(notifications))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	notification, err := h.service.MarkRead(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "MarkRead", "principal_id", principal.ID, "notification_id", id).ErrorContext(r.Context(), "mark read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toNotificationDTO(notification))
}

// MarkAllRead flags every notification of the recipient named by the path id.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "MarkAllRead", "principal_id", principal.ID, "recipient_id", recipientID)

	changed, err := h.service.MarkAllRead(r.Context(), principal, recipientID)
	if err != nil {
		logger.ErrorContext(r.Context(), "mark all read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("changed", changed).InfoContext(r.Context(), "notifications marked read")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "All notifications marked as read")
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	count, err := h.service.UnreadCount(r.Context(), principal, recipientID)
	if err != nil {
		h.log(r.Context(), "UnreadCount", "principal_id", principal.ID, "recipient_id", recipientID).ErrorContext(r.Context(), "unread count failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, unreadCountResponse{Count: count})
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

type notificationDTO struct {
	ID               string  `json:"id"`
	RecipientID      string  `json:"recipientId"`
	RecipientType    string  `json:"recipientType"`
	Message          string  `json:"message"`
	IsRead           bool    `json:"isRead"`
	RelatedComplaint *string `json:"relatedComplaint"`
	RelatedEmergency *string `json:"relatedEmergency"`
	CreatedAt        string  `json:"createdAt"`
}

func toNotificationDTO(notification application.Notification) notificationDTO {
	return notificationDTO{
		ID:               notification.ID,
		RecipientID:      notification.Recipient.ID,
		RecipientType:    string(notification.Recipient.Kind),
		Message:          notification.Message,
		IsRead:           notification.IsRead,
		RelatedComplaint: notification.RelatedComplaintID,
		RelatedEmergency: notification.RelatedEmergencyID,
		CreatedAt:        formatTime(notification.CreatedAt),
	}
}

func toNotificationDTOs(notifications []application.Notification) []notificationDTO {
	out := make([]notificationDTO, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, toNotificationDTO(notification))
	}
	return out
}
