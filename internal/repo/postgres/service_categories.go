package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fadebook/fadebook/internal/domain/catalog"
	"github.com/fadebook/fadebook/internal/observability"
)

type ServiceCategoriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewServiceCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ServiceCategoriesRepo {
	return &ServiceCategoriesRepo{pool: pool, prom: prom}
}

// Create stores category names uppercase+trimmed; the unique index works on
// that canonical form.
func (r *ServiceCategoriesRepo) Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.ServiceCategory, error) {
	now := time.Now().UTC()

	c := catalog.ServiceCategory{
		ID:        uuid.NewString(),
		Name:      strings.ToUpper(strings.TrimSpace(req.Name)),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.prom.ObserveDB("service_categories.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO service_categories (id, name, is_active, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			c.ID, c.Name, c.IsActive, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return catalog.ServiceCategory{}, catalog.ErrCategoryTaken
		}

		return catalog.ServiceCategory{}, err
	}

	return c, nil
}

func (r *ServiceCategoriesRepo) List(ctx context.Context) ([]catalog.ServiceCategory, error) {
	var out []catalog.ServiceCategory

	err := r.prom.ObserveDB("service_categories.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, is_active, created_at, updated_at
			 FROM service_categories
			 ORDER BY name ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]catalog.ServiceCategory, 0, 8)

		for rows.Next() {
			var c catalog.ServiceCategory

			err = rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)

			if err != nil {
				return err
			}

			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *ServiceCategoriesRepo) GetByID(ctx context.Context, id string) (catalog.ServiceCategory, error) {
	var c catalog.ServiceCategory

	err := r.prom.ObserveDB("service_categories.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, is_active, created_at, updated_at
			 FROM service_categories
			 WHERE id = $1`,
			id,
		).Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.ServiceCategory{}, catalog.ErrCategoryNotFound
		}

		return catalog.ServiceCategory{}, err
	}

	return c, nil
}
