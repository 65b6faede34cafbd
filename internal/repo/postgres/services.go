package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fadebook/fadebook/internal/domain/catalog"
	"github.com/fadebook/fadebook/internal/observability"
)

type ServicesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewServicesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ServicesRepo {
	return &ServicesRepo{pool: pool, prom: prom}
}

func (r *ServicesRepo) Create(ctx context.Context, req catalog.CreateServiceRequest) (catalog.Service, error) {
	now := time.Now().UTC()

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	s := catalog.Service{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		IsActive:    active,
		Image:       req.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.prom.ObserveDB("services.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO services (id, name, description, duration_minutes, price, category_id, is_active, image, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			 RETURNING (SELECT name FROM service_categories WHERE id = $6)`,
			s.ID, s.Name, s.Description, s.Duration, s.Price, s.CategoryID, s.IsActive, s.Image, s.CreatedAt, s.UpdatedAt,
		).Scan(&s.CategoryName)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return catalog.Service{}, catalog.ErrCategoryNotFound
		}

		return catalog.Service{}, err
	}

	return s, nil
}

// ListActive returns active services with their category name populated,
// ordered for a stable catalog page.
func (r *ServicesRepo) ListActive(ctx context.Context) ([]catalog.Service, error) {
	var out []catalog.Service

	err := r.prom.ObserveDB("services.list_active", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT s.id, s.name, s.description, s.duration_minutes, s.price, s.category_id, c.name, s.is_active, s.image, s.created_at, s.updated_at
			 FROM services s
			 JOIN service_categories c ON c.id = s.category_id
			 WHERE s.is_active = TRUE
			 ORDER BY c.name ASC, s.name ASC, s.id ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]catalog.Service, 0, 16)

		for rows.Next() {
			var s catalog.Service

			err = rows.Scan(&s.ID, &s.Name, &s.Description, &s.Duration, &s.Price, &s.CategoryID, &s.CategoryName, &s.IsActive, &s.Image, &s.CreatedAt, &s.UpdatedAt)

			if err != nil {
				return err
			}

			out = append(out, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *ServicesRepo) GetByID(ctx context.Context, id string) (catalog.Service, error) {
	var s catalog.Service

	err := r.prom.ObserveDB("services.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT s.id, s.name, s.description, s.duration_minutes, s.price, s.category_id, c.name, s.is_active, s.image, s.created_at, s.updated_at
			 FROM services s
			 JOIN service_categories c ON c.id = s.category_id
			 WHERE s.id = $1`,
			id,
		).Scan(&s.ID, &s.Name, &s.Description, &s.Duration, &s.Price, &s.CategoryID, &s.CategoryName, &s.IsActive, &s.Image, &s.CreatedAt, &s.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Service{}, catalog.ErrServiceNotFound
		}

		return catalog.Service{}, err
	}

	return s, nil
}

func (r *ServicesRepo) Update(ctx context.Context, id string, req catalog.UpdateServiceRequest) (catalog.Service, error) {
	var s catalog.Service

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	err := r.prom.ObserveDB("services.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE services
			 SET name = $2,
			     description = $3,
			     duration_minutes = $4,
			     price = $5,
			     category_id = $6,
			     is_active = $7,
			     image = $8,
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING id, name, description, duration_minutes, price, category_id,
			           (SELECT name FROM service_categories WHERE id = $6),
			           is_active, image, created_at, updated_at`,
			id, req.Name, req.Description, req.Duration, req.Price, req.CategoryID, active, req.Image,
		).Scan(&s.ID, &s.Name, &s.Description, &s.Duration, &s.Price, &s.CategoryID, &s.CategoryName, &s.IsActive, &s.Image, &s.CreatedAt, &s.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Service{}, catalog.ErrServiceNotFound
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return catalog.Service{}, catalog.ErrCategoryNotFound
		}

		return catalog.Service{}, err
	}

	return s, nil
}

func (r *ServicesRepo) Delete(ctx context.Context, id string) error {
	return r.prom.ObserveDB("services.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return catalog.ErrServiceNotFound
		}

		return nil
	})
}
