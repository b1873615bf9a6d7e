package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadColumns = `id, name, company, email, phone, source, status, product, product_register,
	end_user_contact, end_user_organization, project_name, budget, partner_contact,
	created_at, updated_at, created_by, created_by_id`

type LeadsRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewLeadsRepo(pool *pgxpool.Pool, prom *observability.Prom) *LeadsRepo {
	return &LeadsRepo{
		observer: observer{prom: prom},
		pool:     pool,
	}
}

func scanLead(row pgx.Row) (lead.Lead, error) {
	var (
		l              lead.Lead
		source, status string
	)

	err := row.Scan(
		&l.ID, &l.Name, &l.Company, &l.Email, &l.Phone, &source, &status,
		&l.Product, &l.ProductRegister, &l.EndUserContact, &l.EndUserOrganization,
		&l.ProjectName, &l.Budget, &l.PartnerContact,
		&l.CreatedAt, &l.UpdatedAt, &l.CreatedBy, &l.CreatedByID,
	)
	if err != nil {
		return lead.Lead{}, err
	}

	l.Source = lead.Source(source)
	l.Status = lead.Status(status)
	return l, nil
}

func (r *LeadsRepo) Create(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	var out lead.Lead

	err := r.observe("leads.insert", func() error {
		var e error
		out, e = scanLead(r.pool.QueryRow(ctx, `
			INSERT INTO leads (name, company, email, phone, source, status, product, product_register,
				end_user_contact, end_user_organization, project_name, budget, partner_contact,
				created_at, updated_at, created_by, created_by_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			RETURNING `+leadColumns,
			l.Name, l.Company, l.Email, l.Phone, string(l.Source), string(l.Status),
			l.Product, l.ProductRegister, l.EndUserContact, l.EndUserOrganization,
			l.ProjectName, l.Budget, l.PartnerContact,
			l.CreatedAt, l.UpdatedAt, l.CreatedBy, l.CreatedByID,
		))
		return e
	})
	if err != nil {
		return lead.Lead{}, err
	}

	return out, nil
}

func (r *LeadsRepo) GetByID(ctx context.Context, id int64) (lead.Lead, error) {
	var out lead.Lead

	err := r.observe("leads.get", func() error {
		var e error
		out, e = scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lead.Lead{}, lead.ErrNotFound
		}
		return lead.Lead{}, err
	}

	return out, nil
}

func (r *LeadsRepo) List(ctx context.Context, window lead.DateRange) ([]lead.Lead, error) {
	var (
		conds []string
		args  []any
	)

	if window.From != nil {
		args = append(args, window.From.UnixMilli())
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if window.To != nil {
		args = append(args, window.To.UnixMilli())
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	return r.query(ctx, "leads.list", conds, args)
}

func (r *LeadsRepo) Search(ctx context.Context, c lead.SearchCriteria) ([]lead.Lead, error) {
	var (
		conds []string
		args  []any
	)

	like := func(column, value string) string {
		args = append(args, containsPattern(value))
		return fmt.Sprintf("%s ILIKE $%d", column, len(args))
	}

	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		columns := []string{
			"name", "project_name", "company", "end_user_organization",
			"product", "email", "phone", "end_user_contact",
		}
		args = append(args, containsPattern(kw))
		ors := make([]string, len(columns))
		for i, col := range columns {
			ors[i] = fmt.Sprintf("%s ILIKE $%d", col, len(args))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")

		return r.query(ctx, "leads.search", conds, args)
	}

	fields := []struct {
		column, value string
	}{
		{"name", c.Name},
		{"project_name", c.ProjectName},
		{"end_user_organization", c.EndUserOrganization},
		{"company", c.Company},
		{"product", c.Product},
	}
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			conds = append(conds, like(f.column, v))
		}
	}

	return r.query(ctx, "leads.search", conds, args)
}

func (r *LeadsRepo) query(ctx context.Context, op string, conds []string, args []any) ([]lead.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	out := make([]lead.Lead, 0)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLead(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update locks the row, merges req in Go and writes the full record back so
// partial updates share one code path with the memory store.
func (r *LeadsRepo) Update(ctx context.Context, id int64, req lead.UpdateRequest, at time.Time) (out lead.Lead, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current lead.Lead
	err = r.observe("leads.update.lock", func() error {
		var e error
		current, e = scanLead(tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = lead.ErrNotFound
		}
		return
	}

	next := req.Apply(current, at)

	err = r.observe("leads.update", func() error {
		var e error
		out, e = scanLead(tx.QueryRow(ctx, `
			UPDATE leads
			SET name = $2, company = $3, email = $4, phone = $5, source = $6, status = $7,
				product = $8, product_register = $9, end_user_contact = $10,
				end_user_organization = $11, project_name = $12, budget = $13,
				partner_contact = $14, updated_at = $15
			WHERE id = $1
			RETURNING `+leadColumns,
			id, next.Name, next.Company, next.Email, next.Phone, string(next.Source), string(next.Status),
			next.Product, next.ProductRegister, next.EndUserContact,
			next.EndUserOrganization, next.ProjectName, next.Budget,
			next.PartnerContact, next.UpdatedAt,
		))
		return e
	})
	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

func (r *LeadsRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.observe("leads.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return lead.ErrNotFound
	}

	return nil
}

func (r *LeadsRepo) DeleteAll(ctx context.Context) (int64, error) {
	var affected int64

	err := r.observe("leads.delete_all", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM leads`)
		affected = tag.RowsAffected()
		return e
	})

	return affected, err
}
