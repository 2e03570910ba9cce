package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"farmops/internal/config"
	"farmops/internal/core/id"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/infrastructure/storage/postgres"
	"farmops/internal/infrastructure/storage/postgres/catalog_repo"
	"farmops/internal/infrastructure/storage/postgres/register_repo"
	"farmops/pkg/logger"
)

type seedProduct struct {
	Type     string
	Packaged int64
	Weight   string
	Price    string
	// Slaughter indexes the seeded slaughter batches; -1 for none.
	Slaughter int
}

var seedPriceList = []struct {
	Name  string
	Price string
}{
	{"Whole Chicken", "4.20"},
	{"Chicken Breast", "7.90"},
	{"Chicken Legs", "3.60"},
	{"Eggs Tray", "0"},
}

var seedSlaughters = []struct {
	DaysAgo   int
	Quantity  int64
	AvgWeight string
}{
	{3, 120, "2.35"},
	{10, 80, "2.10"},
}

var seedProducts = []seedProduct{
	{Type: "whole chicken", Packaged: 60, Slaughter: 0},
	{Type: "whole chicken", Packaged: 40, Weight: "2.2", Slaughter: 1},
	{Type: "chicken breast", Packaged: 25, Weight: "0.5", Slaughter: -1},
	{Type: "chicken legs", Packaged: 30, Weight: "0.8", Price: "3.00", Slaughter: -1},
	{Type: "eggs tray", Packaged: 50, Price: "9.50", Slaughter: -1},
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "load a demo price list, slaughter batches and products",
		Action: func(c *cli.Context) error {
			cfg, log, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.App.StorageDriver != config.DriverPostgres {
				return errors.New("seed requires STORAGE_DRIVER=postgres")
			}
			ctx := logger.WithLogger(c.Context, log)

			pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.CheckSchema(ctx, pool); err != nil {
				return fmt.Errorf("%w (run `farmctl migrate up` first)", err)
			}

			n, err := seed(ctx, postgres.NewTxManager(pool, postgres.DefaultTxOptions()), time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "seeded %d product types, %d slaughter batches, %d products\n",
				len(seedPriceList), len(seedSlaughters), n)
			return nil
		},
	}
}

func seed(ctx context.Context, txm *postgres.TxManager, now time.Time) (int64, error) {
	types := catalog_repo.NewProductTypeRepo(txm)
	slaughters := catalog_repo.NewSlaughterRepo(txm)
	products := register_repo.NewProductRepo(txm)

	var inserted int64
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, row := range seedPriceList {
			pt := product_type.ProductType{
				ID:    id.New(),
				Name:  row.Name,
				Price: decimal.NewNullDecimal(decimal.RequireFromString(row.Price)),
			}
			if err := types.Put(ctx, pt); err != nil {
				return fmt.Errorf("put product type %q: %w", row.Name, err)
			}
		}

		slaughterIDs := make([]id.ID, 0, len(seedSlaughters))
		for _, row := range seedSlaughters {
			sl := slaughter.Slaughtered{
				ID:            id.New(),
				SlaughterDate: now.AddDate(0, 0, -row.DaysAgo).Truncate(24 * time.Hour),
				Quantity:      row.Quantity,
				AvgWeight:     decimal.NewNullDecimal(decimal.RequireFromString(row.AvgWeight)),
			}
			if err := slaughters.Put(ctx, sl); err != nil {
				return fmt.Errorf("put slaughter: %w", err)
			}
			slaughterIDs = append(slaughterIDs, sl.ID)
		}

		batch := make([]*stock.Product, 0, len(seedProducts))
		for _, row := range seedProducts {
			p := stock.NewProduct(row.Type, row.Packaged)
			if row.Weight != "" {
				p.Weight = decimal.NewNullDecimal(decimal.RequireFromString(row.Weight))
			}
			if row.Price != "" {
				p.BaseUnitPrice = decimal.NewNullDecimal(decimal.RequireFromString(row.Price))
			}
			if row.Slaughter >= 0 {
				p.SlaughteredID = id.Ptr(slaughterIDs[row.Slaughter])
			}
			batch = append(batch, p)
		}

		n, err := products.CreateBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("copy products: %w", err)
		}
		inserted = n

		for _, p := range batch {
			if err := products.CreateMovement(ctx, &stock.Movement{
				ID:           id.New(),
				ProductID:    p.ID,
				Reason:       stock.ReasonReceived,
				Delta:        p.PackagedQuantity,
				BalanceAfter: p.PackagedQuantity,
				CreatedAt:    now,
			}); err != nil {
				return fmt.Errorf("record receipt: %w", err)
			}
		}
		return nil
	})
	return inserted, err
}
