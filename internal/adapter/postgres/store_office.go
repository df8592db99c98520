package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/praxis-suite/praxis/internal/domain/office"
)

func (s *Store) CreateOffice(ctx context.Context, o *office.Office) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create office: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO offices (id, handle, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Handle, o.Name, o.OwnerID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return conflictWrap(err, "create office %s", o.Handle)
	}

	for _, m := range o.Members {
		if err := insertMember(ctx, tx, &m); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("create office: commit: %w", err)
	}
	return nil
}

func (s *Store) GetOffice(ctx context.Context, id string) (*office.Office, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, handle, name, owner_id, created_at, updated_at
		FROM offices WHERE id = $1`, id)

	var o office.Office
	err := row.Scan(&o.ID, &o.Handle, &o.Name, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get office %s", id)
	}
	if o.Members, err = s.listMembers(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) GetOfficeByHandle(ctx context.Context, handle string) (*office.Office, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, handle, name, owner_id, created_at, updated_at
		FROM offices WHERE handle = $1`, handle)

	var o office.Office
	err := row.Scan(&o.ID, &o.Handle, &o.Name, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get office by handle %s", handle)
	}
	if o.Members, err = s.listMembers(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListOfficesForUser(ctx context.Context, userID string) ([]office.Office, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT o.id, o.handle, o.name, o.owner_id, o.created_at, o.updated_at
		FROM offices o
		LEFT JOIN memberships m ON m.office_id = o.id
		WHERE o.owner_id = $1 OR m.user_id = $1
		ORDER BY o.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list offices for user: %w", err)
	}
	defer rows.Close()

	var offices []office.Office
	for rows.Next() {
		var o office.Office
		if err := rows.Scan(&o.ID, &o.Handle, &o.Name, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan office: %w", err)
		}
		offices = append(offices, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range offices {
		if offices[i].Members, err = s.listMembers(ctx, offices[i].ID); err != nil {
			return nil, err
		}
	}
	return offices, nil
}

func (s *Store) listMembers(ctx context.Context, officeID string) ([]office.Membership, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT office_id, user_id, role, ov_financial, ov_cases, ov_documents, ov_settings, created_at
		FROM memberships WHERE office_id = $1 ORDER BY created_at`, officeID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []office.Membership
	for rows.Next() {
		var m office.Membership
		err := rows.Scan(&m.OfficeID, &m.UserID, &m.Role,
			&m.Overrides.Financial, &m.Overrides.Cases, &m.Overrides.Documents, &m.Overrides.Settings,
			&m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) AddMember(ctx context.Context, m *office.Membership) error {
	return insertMember(ctx, s.pool, m)
}

// execer is satisfied by both pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertMember(ctx context.Context, db execer, m *office.Membership) error {
	_, err := db.Exec(ctx, `
		INSERT INTO memberships (office_id, user_id, role, ov_financial, ov_cases, ov_documents, ov_settings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.OfficeID, m.UserID, m.Role,
		m.Overrides.Financial, m.Overrides.Cases, m.Overrides.Documents, m.Overrides.Settings,
		m.CreatedAt,
	)
	if err != nil {
		return conflictWrap(err, "add member %s to office %s", m.UserID, m.OfficeID)
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, officeID, userID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM memberships WHERE office_id = $1 AND user_id = $2`,
		officeID, userID,
	)
	return execExpectOne(tag, err, "remove member %s from office %s", userID, officeID)
}

func (s *Store) UpdateMemberOverrides(ctx context.Context, officeID, userID string, ov office.Overrides) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE memberships
		SET ov_financial = $3, ov_cases = $4, ov_documents = $5, ov_settings = $6
		WHERE office_id = $1 AND user_id = $2`,
		officeID, userID, ov.Financial, ov.Cases, ov.Documents, ov.Settings,
	)
	return execExpectOne(tag, err, "update overrides for %s in office %s", userID, officeID)
}

func (s *Store) UpdateMemberRole(ctx context.Context, officeID, userID string, role office.Role) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE memberships SET role = $3 WHERE office_id = $1 AND user_id = $2`,
		officeID, userID, role,
	)
	return execExpectOne(tag, err, "update role for %s in office %s", userID, officeID)
}
