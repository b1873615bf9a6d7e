package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, password_hash, name, role, avatar`

type UsersRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		observer: observer{prom: prom},
		pool:     pool,
	}
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u    user.User
		role string
	)

	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &role, &u.Avatar); err != nil {
		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	var out user.User

	err := r.observe("users.insert", func() error {
		var e error
		out, e = scanUser(r.pool.QueryRow(ctx, `
			INSERT INTO users (username, password_hash, name, role, avatar)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING `+userColumns,
			u.Username, u.PasswordHash, u.Name, string(u.Role), u.Avatar,
		))
		return e
	})
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, err
	}

	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername matches case-insensitively, mirroring the unique index.
func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_username", `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var out user.User

	err := r.observe(op, func() error {
		var e error
		out, e = scanUser(r.pool.QueryRow(ctx, query, arg))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return out, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *UsersRepo) CountByRole(ctx context.Context, role user.Role) (int, error) {
	var n int
	err := r.observe("users.count_by_role", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	})
	return n, err
}

// lockForRemoval locks every administrator row, in id order, then the target.
// Two transactions demoting or deleting different administrators serialize on
// the first shared row, so the second one sees the reduced count.
func (r *UsersRepo) lockForRemoval(ctx context.Context, tx pgx.Tx, id int64) (target user.User, admins int, err error) {
	err = r.observe("users.lock_admins", func() error {
		rows, e := tx.Query(ctx, `SELECT id FROM users WHERE role = $1 ORDER BY id FOR UPDATE`, string(user.RoleAdministrator))
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			admins++
		}
		return rows.Err()
	})
	if err != nil {
		return
	}

	err = r.observe("users.lock_target", func() error {
		var e error
		target, e = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		return e
	})
	if errors.Is(err, pgx.ErrNoRows) {
		err = user.ErrNotFound
	}
	return
}

func (r *UsersRepo) Update(ctx context.Context, id int64, changes user.Changes, guard user.RemovalGuard) (out user.User, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	current, admins, err := r.lockForRemoval(ctx, tx, id)
	if err != nil {
		return
	}

	if guard != nil && changes.Role != nil && *changes.Role != current.Role {
		if err = guard(current, admins); err != nil {
			return
		}
	}

	next := changes.Apply(current)

	err = r.observe("users.update", func() error {
		var e error
		out, e = scanUser(tx.QueryRow(ctx, `
			UPDATE users
			SET username = $2, password_hash = $3, name = $4, role = $5, avatar = $6
			WHERE id = $1
			RETURNING `+userColumns,
			id, next.Username, next.PasswordHash, next.Name, string(next.Role), next.Avatar,
		))
		return e
	})
	if err != nil {
		if isUniqueViolation(err) {
			err = user.ErrUsernameTaken
		}
		return
	}

	err = tx.Commit(ctx)
	return
}

// Delete removes the user; api_keys rows go with it through ON DELETE CASCADE.
func (r *UsersRepo) Delete(ctx context.Context, id int64, guard user.RemovalGuard) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	target, admins, err := r.lockForRemoval(ctx, tx, id)
	if err != nil {
		return
	}

	if guard != nil {
		if err = guard(target, admins); err != nil {
			return
		}
	}

	err = r.observe("users.delete", func() error {
		_, e := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return e
	})
	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}
