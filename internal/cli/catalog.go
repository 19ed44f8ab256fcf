package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"conversation-deck-service/internal/catalog"
	"conversation-deck-service/internal/domain"
	pgstore "conversation-deck-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCatalogCmd groups catalog maintenance commands.
func NewCatalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or seed the question catalog",
	}

	var (
		fromDB     bool
		categories []string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List categories and question counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadListCatalog(cmd.Context(), *configPath, fromDB)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tQUESTIONS")
			for _, cat := range c.Categories {
				fmt.Fprintf(w, "%s\t%s\t%d\n", cat.ID, cat.Name, cat.Count)
			}
			fmt.Fprintf(w, "\t\t%d\n", catalog.Count(c, categories))
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&fromDB, "db", false, "read the catalog from postgres instead of the embedded copy")
	list.Flags().StringSliceVar(&categories, "category", nil, "total only questions in these categories")

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Write the embedded catalog into postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seedCatalog(cmd.Context(), *configPath)
		},
	}

	cmd.AddCommand(list, seed)
	return cmd
}

func loadListCatalog(ctx context.Context, configPath string, fromDB bool) (domain.Catalog, error) {
	if !fromDB {
		return catalog.Default()
	}
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return domain.Catalog{}, err
	}
	defer logger.Sync()
	if cfg.Postgres.URL == "" {
		return domain.Catalog{}, fmt.Errorf("postgres url not configured")
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return domain.Catalog{}, err
	}
	defer pool.Close()
	return pgstore.NewCatalogLoader(pool).LoadCatalog(ctx)
}

func seedCatalog(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrateDB(ctx, db, logger); err != nil {
		return err
	}
	c, err := catalog.Default()
	if err != nil {
		return err
	}
	if err := pgstore.SeedCatalog(ctx, db, c); err != nil {
		return err
	}
	logger.Info("catalog seeded", zap.Int("questions", len(c.Questions)), zap.Int("categories", len(c.Categories)))
	return nil
}
