package persistence

import (
	"context"
	"time"

	identityDomain "github.com/qnz18/qzwhatnext/internal/identity/domain"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteUserRepository persists User aggregates. Local mode runs with
// exactly one row, created by ensureLocalUserExists at startup.
type SQLiteUserRepository struct {
	exec database.Executor
}

// NewSQLiteUserRepository builds a user repository bound to exec.
func NewSQLiteUserRepository(exec database.Executor) *SQLiteUserRepository {
	return &SQLiteUserRepository{exec: exec}
}

func (r *SQLiteUserRepository) Save(ctx context.Context, user *identityDomain.User) error {
	_, err := r.exec.Exec(ctx, `
		INSERT INTO users (id, email, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name, updated_at = excluded.updated_at
	`, user.ID().String(), user.Email().String(), user.Name().String(), user.CreatedAt(), user.UpdatedAt())
	return err
}

func (r *SQLiteUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error) {
	row := r.exec.QueryRow(ctx, `SELECT id, email, name, created_at, updated_at FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

func (r *SQLiteUserRepository) FindByEmail(ctx context.Context, email identityDomain.Email) (*identityDomain.User, error) {
	row := r.exec.QueryRow(ctx, `SELECT id, email, name, created_at, updated_at FROM users WHERE email = ?`, email.String())
	return scanUser(row)
}

func (r *SQLiteUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.exec.Exec(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	return err
}

func (r *SQLiteUserRepository) ExistsByEmail(ctx context.Context, email identityDomain.Email) (bool, error) {
	var count int
	row := r.exec.QueryRow(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email.String())
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

type userScanner interface {
	Scan(dest ...any) error
}

func scanUser(row userScanner) (*identityDomain.User, error) {
	var idStr, emailRaw, nameRaw string
	var createdAt, updatedAt time.Time
	if err := row.Scan(&idStr, &emailRaw, &nameRaw, &createdAt, &updatedAt); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	email, err := identityDomain.NewEmail(emailRaw)
	if err != nil {
		return nil, err
	}
	name, err := identityDomain.NewName(nameRaw)
	if err != nil {
		return nil, err
	}

	return identityDomain.RehydrateUser(id, email, name, createdAt, updatedAt), nil
}
