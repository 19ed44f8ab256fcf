package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"conversation-deck-service/internal/domain"
	"github.com/uptrace/bun"
)

type categoryRow struct {
	bun.BaseModel `bun:"table:categories"`

	ID       string `bun:"id,pk"`
	Name     string `bun:"name,notnull"`
	Position int    `bun:"position,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID       int    `bun:"id,pk"`
	Text     string `bun:"text,notnull"`
	Category string `bun:"category,nullzero"`
}

// SeedCatalog upserts the catalog into the categories and questions tables.
func SeedCatalog(ctx context.Context, db *bun.DB, c domain.Catalog) error {
	if len(c.Questions) == 0 {
		return domain.ErrCatalogNotFound
	}
	cats := make([]categoryRow, len(c.Categories))
	for i, cat := range c.Categories {
		cats[i] = categoryRow{ID: cat.ID, Name: cat.Name, Position: i}
	}
	qs := make([]questionRow, len(c.Questions))
	for i, q := range c.Questions {
		qs[i] = questionRow{ID: q.ID, Text: q.Text, Category: q.Category}
	}

	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if len(cats) > 0 {
			if _, err := tx.NewInsert().Model(&cats).
				On("CONFLICT (id) DO UPDATE").
				Set("name = EXCLUDED.name").
				Set("position = EXCLUDED.position").
				Exec(ctx); err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
		}
		if _, err := tx.NewInsert().Model(&qs).
			On("CONFLICT (id) DO UPDATE").
			Set("text = EXCLUDED.text").
			Set("category = EXCLUDED.category").
			Exec(ctx); err != nil {
			return fmt.Errorf("seed questions: %w", err)
		}
		return nil
	})
}
