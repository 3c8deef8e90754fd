package sqlite

import (
	"context"
	"strings"

	"github.com/example/hostel-desk/internal/persistence"
)

// AdminRepository implements persistence.AdminRepository using SQLite.
type AdminRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewAdminRepository creates a new SQLite admin repository.
func NewAdminRepository(pool *ConnectionPool) *AdminRepository {
	return &AdminRepository{pool: pool, mapper: NewErrorMapper()}
}

const adminColumns = `id, name, email, password_hash, role, phone, created_at, updated_at`

// CreateAdmin inserts a new admin or warden account.
func (r *AdminRepository) CreateAdmin(ctx context.Context, admin persistence.Admin) error {
	if admin.ID == "" || admin.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO admins (`+adminColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		admin.ID,
		admin.Name,
		normalizeEmail(admin.Email),
		admin.PasswordHash,
		admin.Role,
		admin.Phone,
		formatTime(admin.CreatedAt),
		formatTime(admin.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetAdmin retrieves an admin by ID.
func (r *AdminRepository) GetAdmin(ctx context.Context, id string) (persistence.Admin, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
	return r.scan(row)
}

// GetAdminByEmail retrieves an admin by case-insensitive email.
func (r *AdminRepository) GetAdminByEmail(ctx context.Context, email string) (persistence.Admin, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = ?`, normalizeEmail(email))
	return r.scan(row)
}

func (r *AdminRepository) scan(row rowScanner) (persistence.Admin, error) {
	var (
		admin                persistence.Admin
		createdAt, updatedAt string
	)
	if err := row.Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.Role, &admin.Phone, &createdAt, &updatedAt); err != nil {
		return persistence.Admin{}, r.mapper.MapError(err)
	}

	var err error
	if admin.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Admin{}, err
	}
	if admin.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Admin{}, err
	}
	return admin, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
