package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/hostel-desk/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using SQLite.
type NotificationRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewNotificationRepository creates a new SQLite notification repository.
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{pool: pool, mapper: NewErrorMapper()}
}

const notificationColumns = `id, recipient_id, recipient_type, message, is_read, related_complaint_id, related_emergency_id, created_at, updated_at`

// CreateNotification inserts a notification.
func (r *NotificationRepository) CreateNotification(ctx context.Context, n persistence.Notification) error {
	if n.ID == "" || n.RecipientID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.RecipientID,
		n.RecipientType,
		n.Message,
		boolToInt(n.IsRead),
		nullableString(n.RelatedComplaintID),
		nullableString(n.RelatedEmergencyID),
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetNotification retrieves a notification by ID.
func (r *NotificationRepository) GetNotification(ctx context.Context, id string) (persistence.Notification, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	return r.scan(row)
}

// ListNotifications returns a recipient's notifications, newest first.
func (r *NotificationRepository) ListNotifications(ctx context.Context, filter persistence.NotificationFilter) ([]persistence.Notification, error) {
	clauses := []string{"recipient_id = ?"}
	args := []any{filter.RecipientID}
	if filter.RecipientType != nil {
		clauses = append(clauses, "recipient_type = ?")
		args = append(args, *filter.RecipientType)
	}
	if filter.IsRead != nil {
		clauses = append(clauses, "is_read = ?")
		args = append(args, boolToInt(*filter.IsRead))
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		n, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return notifications, nil
}

// MarkNotificationRead flips one notification to read.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE notifications SET is_read = 1, updated_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flips every unread notification of a recipient and returns how many changed.
func (r *NotificationRepository) MarkAllNotificationsRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE notifications SET is_read = 1, updated_at = ? WHERE recipient_id = ? AND is_read = 0`,
		formatTime(at), recipientID)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return rowsAffected(result)
}

// CountUnreadNotifications counts a recipient's unread notifications.
func (r *NotificationRepository) CountUnreadNotifications(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`, recipientID).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

func (r *NotificationRepository) scan(row rowScanner) (persistence.Notification, error) {
	var (
		n                    persistence.Notification
		isRead               int
		complaint, emergency sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&n.ID, &n.RecipientID, &n.RecipientType, &n.Message, &isRead, &complaint, &emergency, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Notification{}, r.mapper.MapError(err)
	}

	n.IsRead = isRead != 0
	n.RelatedComplaintID = stringPtr(complaint)
	n.RelatedEmergencyID = stringPtr(emergency)
	if n.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Notification{}, err
	}
	if n.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Notification{}, err
	}
	return n, nil
}
