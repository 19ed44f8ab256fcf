package postgres

import (
	"context"
	"fmt"

	"conversation-deck-service/internal/catalog"
	"conversation-deck-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads the question catalog from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	known, err := l.loadCategories(ctx)
	if err != nil {
		return domain.Catalog{}, err
	}

	rows, err := l.pool.Query(ctx, `SELECT id, text, COALESCE(category, '') FROM questions ORDER BY id`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Category); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return domain.Catalog{}, domain.ErrCatalogNotFound
	}

	return domain.Catalog{
		Questions:  questions,
		Categories: orderLike(catalog.Categories(questions, known), known),
	}, nil
}

func (l *CatalogLoader) loadCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// orderLike puts counted categories in the stored position order; categories
// only found on questions go last.
func orderLike(counted, known []domain.Category) []domain.Category {
	byID := make(map[string]domain.Category, len(counted))
	for _, c := range counted {
		byID[c.ID] = c
	}
	out := make([]domain.Category, 0, len(counted))
	for _, k := range known {
		if c, ok := byID[k.ID]; ok {
			out = append(out, c)
			delete(byID, k.ID)
		}
	}
	for _, c := range counted {
		if _, ok := byID[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}
