package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/civicdesk/grievance-portal/internal/domain"
)

// AdminRegistration is the outcome of an atomic admin sign-up.
type AdminRegistration int

const (
	AdminRegistered AdminRegistration = iota
	AdminCodeRejected
	AdminUsernameTaken
)

// CredentialStore persists user accounts and admin invitation codes.
// Expected rejections (duplicate username, unknown or used code) are
// reported through boolean or enum results, never as errors.
type CredentialStore interface {
	IssueAdminCode(ctx context.Context) (string, error)
	RedeemAdminCode(ctx context.Context, code string) (bool, error)
	RegisterUser(ctx context.Context, user *domain.User, isAdmin bool) (bool, error)
	RegisterAdmin(ctx context.Context, code string, user *domain.User) (AdminRegistration, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	SetVerified(ctx context.Context, id int64, verified bool) error
}

type credentialStore struct {
	db DBTX
}

// NewCredentialStore returns a Postgres-backed implementation.
func NewCredentialStore(db DBTX) CredentialStore {
	return &credentialStore{db: db}
}

const (
	insertAdminCodeQuery = `
        INSERT INTO admin_codes (code, created_at, used)
        VALUES ($1, NOW(), FALSE)`

	// the used=FALSE predicate makes check-and-mark a single statement
	redeemAdminCodeQuery = `
        UPDATE admin_codes SET used=TRUE, used_at=NOW()
        WHERE code=$1 AND used=FALSE`

	insertUserQuery = `
        INSERT INTO users (username, password, role, email, full_name, department, verified)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`

	selectUserColumns = `
        SELECT id, username, password, role, email, full_name, department, verified
        FROM users`
)

// NewAdminCode returns an opaque 32 hex character token with 122 random bits.
func NewAdminCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *credentialStore) IssueAdminCode(ctx context.Context) (string, error) {
	code := NewAdminCode()
	if _, err := s.db.Exec(ctx, insertAdminCodeQuery, code); err != nil {
		return "", storageError("issue admin code", err)
	}
	return code, nil
}

func (s *credentialStore) RedeemAdminCode(ctx context.Context, code string) (bool, error) {
	cmd, err := s.db.Exec(ctx, redeemAdminCodeQuery, code)
	if err != nil {
		return false, storageError("redeem admin code", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (s *credentialStore) RegisterUser(ctx context.Context, user *domain.User, isAdmin bool) (bool, error) {
	applyRole(user, isAdmin)
	err := s.db.QueryRow(ctx, insertUserQuery, userArgs(user)...).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, storageError("register user", err)
	}
	return true, nil
}

// RegisterAdmin redeems code and creates the admin account in one
// transaction, so a duplicate username leaves the code unused.
func (s *credentialStore) RegisterAdmin(ctx context.Context, code string, user *domain.User) (AdminRegistration, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return AdminCodeRejected, storageError("begin admin registration", err)
	}

	cmd, err := tx.Exec(ctx, redeemAdminCodeQuery, code)
	if err != nil {
		_ = tx.Rollback(ctx)
		return AdminCodeRejected, storageError("redeem admin code", err)
	}
	if cmd.RowsAffected() != 1 {
		_ = tx.Rollback(ctx)
		return AdminCodeRejected, nil
	}

	applyRole(user, true)
	if err := tx.QueryRow(ctx, insertUserQuery, userArgs(user)...).Scan(&user.ID); err != nil {
		_ = tx.Rollback(ctx)
		user.ID = 0
		if isUniqueViolation(err) {
			return AdminUsernameTaken, nil
		}
		return AdminCodeRejected, storageError("register admin", err)
	}

	if err := tx.Commit(ctx); err != nil {
		user.ID = 0
		return AdminCodeRejected, storageError("commit admin registration", err)
	}
	return AdminRegistered, nil
}

func (s *credentialStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.fetchSingle(ctx, selectUserColumns+` WHERE id=$1`, id)
}

func (s *credentialStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.fetchSingle(ctx, selectUserColumns+` WHERE username=$1`, username)
}

func (s *credentialStore) SetVerified(ctx context.Context, id int64, verified bool) error {
	const query = `UPDATE users SET verified=$1 WHERE id=$2`
	cmd, err := s.db.Exec(ctx, query, verified, id)
	if err != nil {
		return storageError("set verified", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *credentialStore) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := s.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.Email,
		&user.FullName,
		&user.Department,
		&user.Verified,
	); err != nil {
		return nil, storageError("get user", err)
	}
	user.Role = domain.UserRole(role)
	return &user, nil
}

func applyRole(user *domain.User, isAdmin bool) {
	if isAdmin {
		user.Role = domain.UserRoleAdmin
		user.Verified = true
		return
	}
	user.Role = domain.UserRoleUser
	user.Verified = false
}

func userArgs(user *domain.User) []any {
	return []any{
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.Email,
		user.FullName,
		user.Department,
		user.Verified,
	}
}
