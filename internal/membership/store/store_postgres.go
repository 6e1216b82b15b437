package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hearth/internal/membership/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
	"hearth/pkg/platform/tx"
)

// PostgresStore persists membership requests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, household_id, sender_id, receiver_id, type, status, created_at`

func (s *PostgresStore) Create(ctx context.Context, request *models.Request) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO membership_requests (id, household_id, sender_id, receiver_id, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, request.ID.String(), request.HouseholdID.String(), request.SenderID.String(),
		request.ReceiverID.String(), string(request.Type), string(request.Status), request.CreatedAt)
	if err != nil {
		return fmt.Errorf("create membership request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM membership_requests WHERE id = $1`, id.String())
	return scanRequest(row.Scan)
}

// UpdateStatusIfPending is the guarded transition: a single conditional
// UPDATE with an affected-row check, so two concurrent accepts on the same
// request cannot both succeed.
func (s *PostgresStore) UpdateStatusIfPending(ctx context.Context, id domain.RequestID, status models.RequestStatus) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE membership_requests SET status = $2
		WHERE id = $1 AND status = $3
	`, id.String(), string(status), string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request status rows: %w", err)
	}
	if affected == 0 {
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id domain.RequestID, status models.RequestStatus) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE membership_requests SET status = $2 WHERE id = $1`,
		id.String(), string(status))
	if err != nil {
		return fmt.Errorf("set request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set request status rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM membership_requests`
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !filter.ReceiverID.IsZero() {
		conditions = append(conditions, "receiver_id = "+arg(filter.ReceiverID.String()))
	}
	if !filter.HouseholdID.IsZero() {
		conditions = append(conditions, "household_id = "+arg(filter.HouseholdID.String()))
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+arg(string(filter.Type)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			placeholders = append(placeholders, arg(string(status)))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list membership requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func (s *PostgresStore) DeleteByHousehold(ctx context.Context, householdID domain.HouseholdID) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM membership_requests WHERE household_id = $1`, householdID.String())
	if err != nil {
		return fmt.Errorf("delete membership requests: %w", err)
	}
	return nil
}

func scanRequest(scan func(dest ...any) error) (*models.Request, error) {
	var (
		request       models.Request
		rawID         string
		rawHID        string
		rawSenderID   string
		rawReceiverID string
		requestType   string
		status        string
	)
	err := scan(&rawID, &rawHID, &rawSenderID, &rawReceiverID, &requestType, &status, &request.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan membership request: %w", err)
	}

	id, err := domain.ParseRequestID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored request id invalid: %w", err)
	}
	senderID, err := domain.ParseUserID(rawSenderID)
	if err != nil {
		return nil, fmt.Errorf("stored sender id invalid: %w", err)
	}
	receiverID, err := domain.ParseUserID(rawReceiverID)
	if err != nil {
		return nil, fmt.Errorf("stored receiver id invalid: %w", err)
	}
	request.ID = id
	request.HouseholdID = domain.HouseholdID(rawHID)
	request.SenderID = senderID
	request.ReceiverID = receiverID
	request.Type = models.RequestType(requestType)
	request.Status = models.RequestStatus(status)
	return &request, nil
}
