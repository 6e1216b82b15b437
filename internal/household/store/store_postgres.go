package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"hearth/internal/household/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
	"hearth/pkg/platform/tx"
)

// PostgresStore persists households in PostgreSQL. This store is pure I/O;
// ownership checks and notification side effects belong in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, household *models.Household) error {
	query := `
		INSERT INTO households (id, name, address, owner_id, member_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, query,
		household.ID.String(), household.Name, household.Address,
		household.OwnerID.String(), household.MemberCount, household.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create household: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.HouseholdID) (*models.Household, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, address, owner_id, member_count, created_at
		FROM households WHERE id = $1
	`, id.String())

	var (
		household  models.Household
		rawID      string
		rawOwnerID string
	)
	err := row.Scan(&rawID, &household.Name, &household.Address, &rawOwnerID,
		&household.MemberCount, &household.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find household: %w", err)
	}
	household.ID = domain.HouseholdID(rawID)
	ownerID, err := domain.ParseUserID(rawOwnerID)
	if err != nil {
		return nil, fmt.Errorf("stored owner id invalid: %w", err)
	}
	household.OwnerID = ownerID
	return &household, nil
}

func (s *PostgresStore) UpdateOwner(ctx context.Context, id domain.HouseholdID, ownerID domain.UserID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE households SET owner_id = $2 WHERE id = $1`,
		id.String(), ownerID.String())
	if err != nil {
		return fmt.Errorf("update owner: %w", err)
	}
	return requireAffected(res, sentinel.ErrNotFound)
}

// AdjustMemberCount applies delta in a single conditional UPDATE so
// concurrent joins and leaves can never interleave a stale read-modify-write.
// The WHERE clause refuses to drop the counter below one.
func (s *PostgresStore) AdjustMemberCount(ctx context.Context, id domain.HouseholdID, delta int) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE households
		SET member_count = member_count + $2
		WHERE id = $1 AND member_count + $2 >= 1
	`, id.String(), delta)
	if err != nil {
		return fmt.Errorf("adjust member count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust member count rows: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing household from a refused decrement.
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.HouseholdID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM households WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return requireAffected(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) AddUnregistered(ctx context.Context, member *models.UnregisteredMember) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO unregistered_members (id, full_name, household_id)
		VALUES ($1, $2, $3)
	`, member.ID.String(), member.FullName, member.HouseholdID.String())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("add unregistered member: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindUnregistered(ctx context.Context, id domain.MemberID) (*models.UnregisteredMember, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, full_name, household_id FROM unregistered_members WHERE id = $1
	`, id.String())
	return scanUnregistered(row)
}

func (s *PostgresStore) UpdateUnregistered(ctx context.Context, id domain.MemberID, fullName string) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE unregistered_members SET full_name = $2 WHERE id = $1`,
		id.String(), fullName)
	if err != nil {
		return fmt.Errorf("update unregistered member: %w", err)
	}
	return requireAffected(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) DeleteUnregistered(ctx context.Context, id domain.MemberID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM unregistered_members WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete unregistered member: %w", err)
	}
	return requireAffected(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) ListUnregistered(ctx context.Context, householdID domain.HouseholdID) ([]*models.UnregisteredMember, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, full_name, household_id FROM unregistered_members WHERE household_id = $1
	`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list unregistered members: %w", err)
	}
	defer rows.Close()

	var members []*models.UnregisteredMember
	for rows.Next() {
		var (
			member models.UnregisteredMember
			rawID  string
			rawHID string
		)
		if err := rows.Scan(&rawID, &member.FullName, &rawHID); err != nil {
			return nil, fmt.Errorf("scan unregistered member: %w", err)
		}
		memberID, err := domain.ParseMemberID(rawID)
		if err != nil {
			return nil, fmt.Errorf("stored member id invalid: %w", err)
		}
		member.ID = memberID
		member.HouseholdID = domain.HouseholdID(rawHID)
		members = append(members, &member)
	}
	return members, rows.Err()
}

func (s *PostgresStore) DeleteUnregisteredByHousehold(ctx context.Context, householdID domain.HouseholdID) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM unregistered_members WHERE household_id = $1`, householdID.String())
	if err != nil {
		return fmt.Errorf("delete unregistered members: %w", err)
	}
	return nil
}

func scanUnregistered(row *sql.Row) (*models.UnregisteredMember, error) {
	var (
		member models.UnregisteredMember
		rawID  string
		rawHID string
	)
	err := row.Scan(&rawID, &member.FullName, &rawHID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan unregistered member: %w", err)
	}
	memberID, err := domain.ParseMemberID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored member id invalid: %w", err)
	}
	member.ID = memberID
	member.HouseholdID = domain.HouseholdID(rawHID)
	return &member, nil
}

func requireAffected(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
