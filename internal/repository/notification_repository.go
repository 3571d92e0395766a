package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karyalaya/patra-service/internal/domain"
)

// NotificationFilter narrows a recipient's notification listing.
type NotificationFilter struct {
	OnlyUnread  bool
	OnlyStarred bool
	Limit       int
	Offset      int
}

// NotificationRepository manages per-recipient notification rows.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]domain.Notification, error)
	CountByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) (int, error)
	// MarkRead sets is_read=true. Applying it to an already-read row is a
	// harmless no-op; is_read never moves back to false.
	MarkRead(ctx context.Context, id string) error
	// ToggleStarred flips is_starred atomically and returns the new value.
	ToggleStarred(ctx context.Context, id string) (bool, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkReadByRef(ctx context.Context, recipientID string, refType domain.NotificationRefType, refID string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_user_id, ref_type, ref_id, title, is_read, is_starred)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.RecipientUserID,
		notification.RefType,
		notification.RefID,
		notification.Title,
		notification.IsRead,
		notification.IsStarred,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `
        SELECT id, recipient_user_id, ref_type, ref_id, title, is_read, is_starred, created_at
        FROM notifications WHERE id=$1`
	var notification domain.Notification
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&notification.ID,
		&notification.RecipientUserID,
		&notification.RefType,
		&notification.RefID,
		&notification.Title,
		&notification.IsRead,
		&notification.IsStarred,
		&notification.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]domain.Notification, error) {
	clauses, args := buildNotificationClauses(recipientID, filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT id, recipient_user_id, ref_type, ref_id, title, is_read, is_starred, created_at
        FROM notifications WHERE %s
        ORDER BY created_at DESC, id DESC
        LIMIT %d OFFSET %d`, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientUserID,
			&notification.RefType,
			&notification.RefID,
			&notification.Title,
			&notification.IsRead,
			&notification.IsStarred,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) (int, error) {
	clauses, args := buildNotificationClauses(recipientID, filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM notifications WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET is_read=TRUE WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *notificationRepository) ToggleStarred(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE notifications SET is_starred = NOT is_starred
        WHERE id=$1 RETURNING is_starred`
	var starred bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&starred); err != nil {
		return false, err
	}
	return starred, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_user_id=$1 AND is_read=FALSE`
	var count int
	if err := r.pool.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkReadByRef(ctx context.Context, recipientID string, refType domain.NotificationRefType, refID string) error {
	const query = `
        UPDATE notifications SET is_read=TRUE
        WHERE recipient_user_id=$1 AND ref_type=$2 AND ref_id=$3 AND is_read=FALSE`
	_, err := r.pool.Exec(ctx, query, recipientID, refType, refID)
	return err
}

func buildNotificationClauses(recipientID string, filter NotificationFilter) ([]string, []any) {
	args := []any{recipientID}
	clauses := []string{"recipient_user_id=$1"}
	if filter.OnlyUnread {
		clauses = append(clauses, "is_read=FALSE")
	}
	if filter.OnlyStarred {
		clauses = append(clauses, "is_starred=TRUE")
	}
	return clauses, args
}
