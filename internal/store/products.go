package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-gerai/internal/catalog"
)

// ProductRepo reads and mutates the products table.
type ProductRepo struct {
	DB Querier
}

const productColumns = "id, slug, title, list_price, offer_price, stock, active, created_at, updated_at"

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.ListPrice, &p.OfferPrice, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProducts applies the catalog filters and returns a page plus the total
// match count.
func (r ProductRepo) ListProducts(ctx context.Context, params catalog.ListParams) ([]catalog.Product, int64, error) {
	where := []string{"active"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if params.Query != "" {
		where = append(where, "title ILIKE "+arg("%"+params.Query+"%"))
	}
	if params.MinPrice != nil {
		where = append(where, "COALESCE(offer_price, list_price) >= "+arg(*params.MinPrice))
	}
	if params.MaxPrice != nil {
		where = append(where, "COALESCE(offer_price, list_price) <= "+arg(*params.MaxPrice))
	}
	if params.InStock != nil && *params.InStock {
		where = append(where, "stock > 0")
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRow(ctx, "SELECT count(*) FROM products WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC"
	switch params.Sort {
	case "price:asc":
		orderBy = "COALESCE(offer_price, list_price) ASC"
	case "price:desc":
		orderBy = "COALESCE(offer_price, list_price) DESC"
	case "title:asc":
		orderBy = "title ASC"
	case "title:desc":
		orderBy = "title DESC"
	}
	query := fmt.Sprintf(
		"SELECT %s FROM products WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
		productColumns, clause, orderBy, arg(params.Limit), arg((params.Page-1)*params.Limit),
	)
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r ProductRepo) GetProductBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	row := r.DB.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE slug = $1 AND active", slug)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrNotFound
		}
		return catalog.Product{}, err
	}
	return p, nil
}

func (r ProductRepo) GetProductsByID(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.DB.Query(ctx, "SELECT "+productColumns+" FROM products WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
