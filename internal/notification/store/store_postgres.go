package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hearth/internal/notification/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
	"hearth/pkg/platform/tx"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, notification *models.Notification) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, type, message, created_at, read)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, notification.ID.String(), notification.RecipientID.String(),
		string(notification.Type), notification.Message, notification.Timestamp, notification.Read)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.NotificationID) (*models.Notification, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, recipient_id, type, message, created_at, read
		FROM notifications WHERE id = $1
	`, id.String())
	return scanNotification(row.Scan)
}

func (s *PostgresStore) MarkRead(ctx context.Context, id domain.NotificationID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipientID domain.UserID) ([]*models.Notification, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, recipient_id, type, message, created_at, read
		FROM notifications WHERE recipient_id = $1
		ORDER BY created_at DESC
	`, recipientID.String())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		notification, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

func scanNotification(scan func(dest ...any) error) (*models.Notification, error) {
	var (
		notification   models.Notification
		rawID          string
		rawRecipientID string
		notifType      string
	)
	err := scan(&rawID, &rawRecipientID, &notifType, &notification.Message,
		&notification.Timestamp, &notification.Read)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	id, err := domain.ParseNotificationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored notification id invalid: %w", err)
	}
	recipientID, err := domain.ParseUserID(rawRecipientID)
	if err != nil {
		return nil, fmt.Errorf("stored recipient id invalid: %w", err)
	}
	notification.ID = id
	notification.RecipientID = recipientID
	notification.Type = models.Type(notifType)
	return &notification, nil
}
