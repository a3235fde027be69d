package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	intconfig "bookbus/internal/config"
	intdb "bookbus/internal/db"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
)

type UserRepo struct {
	DB *sql.DB
}

func (r UserRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const userColumns = `id, username, email, name, password_hash, role, coins, created_at`

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Coins, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	return u, err
}

func (r UserRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO users (username, email, name, password_hash, role, coins)
		VALUES (?, ?, ?, ?, ?, 0)`,
		u.Username, strings.ToLower(u.Email), u.Name, u.PasswordHash, u.Role)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return models.User{}, domain.ConflictError{Resource: "user", Msg: "username or email already registered", Err: err}
		}
		return models.User{}, err
	}
	u.ID, err = res.LastInsertId()
	u.Coins = 0
	return u, err
}

func (r UserRepo) Get(ctx context.Context, id int64) (models.User, error) {
	return scanUser(r.db().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetByLogin finds a user by username or email.
func (r UserRepo) GetByLogin(ctx context.Context, login string) (models.User, error) {
	login = strings.TrimSpace(login)
	return scanUser(r.db().QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? LIMIT 1`,
		login, strings.ToLower(login)))
}

// Exists reports whether the username or email is taken.
func (r UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.db().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`,
		strings.TrimSpace(username), strings.ToLower(strings.TrimSpace(email))).Scan(&n)
	return n > 0, err
}

func (r UserRepo) Balance(ctx context.Context, q intdb.Querier, id int64) (int64, error) {
	if q == nil {
		q = r.db()
	}
	var coins int64
	err := q.QueryRowContext(ctx, `SELECT coins FROM users WHERE id = ?`, id).Scan(&coins)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.NotFoundError{Resource: "user", Err: err}
	}
	return coins, err
}

// debit takes amount from the user's coins. Unless overdraft is allowed the
// update only matches while the balance covers it, so two concurrent debits can
// never drive a customer negative.
func (r UserRepo) debit(ctx context.Context, q intdb.Querier, id, amount int64, overdraft bool) error {
	query := `UPDATE users SET coins = coins - ? WHERE id = ? AND coins >= ?`
	args := []any{amount, id, amount}
	if overdraft {
		query = `UPDATE users SET coins = coins - ? WHERE id = ?`
		args = args[:2]
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if _, err := r.Balance(ctx, q, id); err != nil {
		return err
	}
	return domain.Reject(domain.ErrInsufficientFunds, "user %d needs %d coins", id, amount)
}

func (r UserRepo) credit(ctx context.Context, q intdb.Querier, id, amount int64) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET coins = coins + ? WHERE id = ?`, amount, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}
