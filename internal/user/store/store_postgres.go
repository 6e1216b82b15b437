package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hearth/internal/user/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
	"hearth/pkg/platform/tx"
)

// PostgresStore persists the user slice in PostgreSQL. Statements run
// through tx.Q so they join an enclosing transaction when one is carried in
// the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, full_name, role, household_id, latitude, longitude`

func (s *PostgresStore) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, full_name, role, household_id, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			household_id = EXCLUDED.household_id,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude
	`
	var householdID *string
	if user.HouseholdID != nil {
		raw := user.HouseholdID.String()
		householdID = &raw
	}
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, query,
		user.ID.String(), user.Email, user.FullName, string(user.Role),
		householdID, user.Latitude, user.Longitude,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	return scanUser(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *PostgresStore) ListByHousehold(ctx context.Context, householdID domain.HouseholdID) ([]*models.User, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE household_id = $1`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list household members: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *PostgresStore) ListWithPosition(ctx context.Context) ([]*models.User, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE latitude <> '' AND longitude <> ''`)
	if err != nil {
		return nil, fmt.Errorf("list positioned users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *PostgresStore) SetHousehold(ctx context.Context, id domain.UserID, householdID *domain.HouseholdID) error {
	var raw *string
	if householdID != nil {
		v := householdID.String()
		raw = &v
	}
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET household_id = $2 WHERE id = $1`, id.String(), raw)
	if err != nil {
		return fmt.Errorf("set household: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set household rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ClearHousehold(ctx context.Context, householdID domain.HouseholdID) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET household_id = NULL WHERE household_id = $1`, householdID.String())
	if err != nil {
		return fmt.Errorf("clear household: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user        models.User
		rawID       string
		role        string
		householdID sql.NullString
	)
	err := row.Scan(&rawID, &user.Email, &user.FullName, &role, &householdID, &user.Latitude, &user.Longitude)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	parsed, err := domain.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored user id invalid: %w", err)
	}
	user.ID = parsed
	user.Role = models.Role(role)
	if householdID.Valid {
		hid := domain.HouseholdID(householdID.String)
		user.HouseholdID = &hid
	}
	return &user, nil
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		var (
			user        models.User
			rawID       string
			role        string
			householdID sql.NullString
		)
		if err := rows.Scan(&rawID, &user.Email, &user.FullName, &role, &householdID, &user.Latitude, &user.Longitude); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		parsed, err := domain.ParseUserID(rawID)
		if err != nil {
			return nil, fmt.Errorf("stored user id invalid: %w", err)
		}
		user.ID = parsed
		user.Role = models.Role(role)
		if householdID.Valid {
			hid := domain.HouseholdID(householdID.String)
			user.HouseholdID = &hid
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
