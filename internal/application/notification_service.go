package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/hostel-desk/internal/persistence"
)

// NotificationListLimit caps how many notifications a listing returns.
const NotificationListLimit = 50

// NotificationQuery narrows a recipient's notifications.
type NotificationQuery struct {
	RecipientID string
	Kind        *ActorKind
	IsRead      *bool
	Limit       int
}

// NotificationRepository captures the persistence operations needed by the service.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) (Notification, error)
	GetNotification(ctx context.Context, id string) (Notification, error)
	ListNotifications(ctx context.Context, query NotificationQuery) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	CountUnreadNotifications(ctx context.Context, recipientID string) (int, error)
}

// Notifier delivers system notifications raised by other services.
type Notifier interface {
	Notify(ctx context.Context, recipient ActorRef, message string, related RelatedEntities) error
}

// RelatedEntities links a notification to the complaint or emergency that caused it.
type RelatedEntities struct {
	ComplaintID *string
	EmergencyID *string
}

// NotificationService manages per-account notifications.
type NotificationService struct {
	notifications NotificationRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationService constructs a notification service with the provided dependencies.
func NewNotificationService(notifications NotificationRepository, idGenerator func() string, now func() time.Time) *NotificationService {
	return NewNotificationServiceWithLogger(notifications, idGenerator, now, nil)
}

// NewNotificationServiceWithLogger constructs a notification service with a specified logger.
func NewNotificationServiceWithLogger(notifications NotificationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *NotificationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationService{notifications: notifications, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// CreateNotification stores a staff-authored notification.
func (s *NotificationService) CreateNotification(ctx context.Context, params CreateNotificationParams) (notification Notification, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateNotification",
		"principal_id", params.Principal.ID,
		"recipient_id", params.Input.RecipientID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create notification", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("notification_id", notification.ID).InfoContext(ctx, "notification created")
	}()

	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	notification, err = s.insert(ctx,
		ActorRef{Kind: params.Input.RecipientType, ID: strings.TrimSpace(params.Input.RecipientID)},
		strings.TrimSpace(params.Input.Message),
		RelatedEntities{ComplaintID: params.Input.RelatedComplaintID, EmergencyID: params.Input.RelatedEmergencyID},
	)
	return
}

// Notify stores a system notification. It implements Notifier.
func (s *NotificationService) Notify(ctx context.Context, recipient ActorRef, message string, related RelatedEntities) error {
	if s == nil {
		return fmt.Errorf("NotificationService is nil")
	}
	if recipient.ID == "" || !recipient.Kind.Valid() {
		return fmt.Errorf("notify: invalid recipient %q/%q", recipient.Kind, recipient.ID)
	}

	notification, err := s.insert(ctx, recipient, message, related)
	if err != nil {
		return err
	}
	s.loggerWith(ctx, "Notify",
		"recipient_id", recipient.ID,
		"recipient_kind", string(recipient.Kind),
	).DebugContext(ctx, "system notification stored", "notification_id", notification.ID)
	return nil
}

func (s *NotificationService) insert(ctx context.Context, recipient ActorRef, message string, related RelatedEntities) (Notification, error) {
	if s.notifications == nil {
		return Notification{}, fmt.Errorf("notification repository not configured")
	}
	now := s.now()
	notification := Notification{
		ID:                 s.idGenerator(),
		Recipient:          recipient,
		Message:            message,
		RelatedComplaintID: related.ComplaintID,
		RelatedEmergencyID: related.EmergencyID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	persisted, err := s.notifications.CreateNotification(ctx, notification)
	if err != nil {
		return Notification{}, mapNotificationRepoError(err)
	}
	return persisted, nil
}

// ListNotifications returns the newest notifications for a recipient.
func (s *NotificationService) ListNotifications(ctx context.Context, params ListNotificationsParams) (notifications []Notification, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}
	if s.notifications == nil {
		err = fmt.Errorf("notification repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListNotifications",
		"principal_id", params.Principal.ID,
		"recipient_id", params.RecipientID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list notifications", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(notifications)).InfoContext(ctx, "notifications listed")
	}()

	if err = authorizeRecipient(params.Principal, params.RecipientID); err != nil {
		return
	}
	if params.Kind != nil && !params.Kind.Valid() {
		err = fieldError("type", "type must be one of [Student Worker Admin Warden]")
		return
	}

	notifications, err = s.notifications.ListNotifications(ctx, NotificationQuery{
		RecipientID: params.RecipientID,
		Kind:        params.Kind,
		IsRead:      params.IsRead,
		Limit:       NotificationListLimit,
	})
	if err != nil {
		err = mapNotificationRepoError(err)
	}
	return
}

// MarkRead flips one notification to read and returns it.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, notificationID string) (notification Notification, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}
	if s.notifications == nil {
		err = fmt.Errorf("notification repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "MarkRead",
		"principal_id", principal.ID,
		"notification_id", notificationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to mark notification read", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "notification marked read")
	}()

	notification, err = s.notifications.GetNotification(ctx, notificationID)
	if err != nil {
		err = mapNotificationRepoError(err)
		return
	}
	if err = authorizeRecipient(principal, notification.Recipient.ID); err != nil {
		return
	}

	now := s.now()
	if err = s.notifications.MarkNotificationRead(ctx, notificationID, now); err != nil {
		err = mapNotificationRepoError(err)
		return
	}
	notification.IsRead = true
	notification.UpdatedAt = now
	return
}

// MarkAllRead flips every unread notification of a recipient and reports how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal Principal, recipientID string) (changed int64, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}
	if s.notifications == nil {
		err = fmt.Errorf("notification repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "MarkAllRead",
		"principal_id", principal.ID,
		"recipient_id", recipientID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to mark notifications read", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("changed", changed).InfoContext(ctx, "notifications marked read")
	}()

	if err = authorizeRecipient(principal, recipientID); err != nil {
		return
	}
	changed, err = s.notifications.MarkAllNotificationsRead(ctx, recipientID, s.now())
	if err != nil {
		err = mapNotificationRepoError(err)
	}
	return
}

// UnreadCount counts a recipient's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, principal Principal, recipientID string) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return 0, fmt.Errorf("notification repository not configured")
	}
	if err := authorizeRecipient(principal, recipientID); err != nil {
		return 0, err
	}

	count, err := s.notifications.CountUnreadNotifications(ctx, recipientID)
	if err != nil {
		err = mapNotificationRepoError(err)
		s.loggerWith(ctx, "UnreadCount", "recipient_id", recipientID).
			ErrorContext(ctx, "failed to count unread notifications", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	return count, nil
}

// authorizeRecipient lets staff reach any inbox and everyone else only their own.
func authorizeRecipient(principal Principal, recipientID string) error {
	if principal.Role.IsStaff() || (principal.ID != "" && principal.ID == recipientID) {
		return nil
	}
	return ErrForbidden
}

func mapNotificationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKey) {
		vErr := &ValidationError{}
		vErr.add("relatedComplaint", "related complaint or emergency does not exist")
		return vErr
	}
	return err
}

// notifyQuietly dispatches through notifier and only logs failures.
func notifyQuietly(ctx context.Context, notifier Notifier, logger *slog.Logger, recipient ActorRef, message string, related RelatedEntities) {
	if notifier == nil || recipient.ID == "" {
		return
	}
	if err := notifier.Notify(ctx, recipient, message, related); err != nil {
		logger.WarnContext(ctx, "notification dispatch failed",
			"recipient_id", recipient.ID,
			"recipient_kind", string(recipient.Kind),
			"error", err,
		)
	}
}
