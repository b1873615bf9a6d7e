package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const apiKeyColumns = `id, key, name, user_id, created_at, last_used, is_active`

type APIKeysRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewAPIKeysRepo(pool *pgxpool.Pool, prom *observability.Prom) *APIKeysRepo {
	return &APIKeysRepo{
		observer: observer{prom: prom},
		pool:     pool,
	}
}

func scanAPIKey(row pgx.Row) (apikey.APIKey, error) {
	var k apikey.APIKey
	err := row.Scan(&k.ID, &k.Key, &k.Name, &k.UserID, &k.CreatedAt, &k.LastUsed, &k.IsActive)
	return k, err
}

func (r *APIKeysRepo) Create(ctx context.Context, k apikey.APIKey) (apikey.APIKey, error) {
	var out apikey.APIKey

	err := r.observe("api_keys.insert", func() error {
		var e error
		out, e = scanAPIKey(r.pool.QueryRow(ctx, `
			INSERT INTO api_keys (key, name, user_id, created_at, last_used, is_active)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING `+apiKeyColumns,
			k.Key, k.Name, k.UserID, k.CreatedAt, k.LastUsed, k.IsActive,
		))
		return e
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return apikey.APIKey{}, user.ErrNotFound
		}
		return apikey.APIKey{}, err
	}

	return out, nil
}

func (r *APIKeysRepo) List(ctx context.Context) ([]apikey.APIKey, error) {
	out := make([]apikey.APIKey, 0)

	err := r.observe("api_keys.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			k, err := scanAPIKey(rows)
			if err != nil {
				return err
			}
			out = append(out, k)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *APIKeysRepo) GetByID(ctx context.Context, id int64) (apikey.APIKey, error) {
	return r.getOne(ctx, "api_keys.get", `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id)
}

func (r *APIKeysRepo) GetByKey(ctx context.Context, key string) (apikey.APIKey, error) {
	return r.getOne(ctx, "api_keys.get_by_key", `SELECT `+apiKeyColumns+` FROM api_keys WHERE key = $1`, key)
}

func (r *APIKeysRepo) getOne(ctx context.Context, op, query string, arg any) (apikey.APIKey, error) {
	var out apikey.APIKey

	err := r.observe(op, func() error {
		var e error
		out, e = scanAPIKey(r.pool.QueryRow(ctx, query, arg))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apikey.APIKey{}, apikey.ErrNotFound
		}
		return apikey.APIKey{}, err
	}

	return out, nil
}

func (r *APIKeysRepo) TouchLastUsed(ctx context.Context, id int64, at int64) error {
	var affected int64

	err := r.observe("api_keys.touch", func() error {
		tag, e := r.pool.Exec(ctx, `UPDATE api_keys SET last_used = $2 WHERE id = $1`, id, at)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return apikey.ErrNotFound
	}
	return nil
}

func (r *APIKeysRepo) SetActive(ctx context.Context, id int64, active bool) (apikey.APIKey, error) {
	var out apikey.APIKey

	err := r.observe("api_keys.set_active", func() error {
		var e error
		out, e = scanAPIKey(r.pool.QueryRow(ctx,
			`UPDATE api_keys SET is_active = $2 WHERE id = $1 RETURNING `+apiKeyColumns, id, active))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apikey.APIKey{}, apikey.ErrNotFound
		}
		return apikey.APIKey{}, err
	}

	return out, nil
}

func (r *APIKeysRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.observe("api_keys.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return apikey.ErrNotFound
	}
	return nil
}
