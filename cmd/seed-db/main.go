// Command seed-db loads a JSON catalog fixture (products, variants,
// customers, vouchers) into the database and runs migrations first.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/customer"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/voucher"
	"github.com/hieplevanqts/salepa-checkout/internal/storage/postgres"
)

type variantJSON struct {
	ID      string          `json:"id"`
	Barcode string          `json:"barcode"`
	Label   string          `json:"label"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
}

type productJSON struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Category        string        `json:"category"`
	Description     string        `json:"description"`
	Image           string        `json:"image"`
	ServiceSessions int           `json:"service_sessions"`
	Variants        []variantJSON `json:"variants"`
}

type customerJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type voucherJSON struct {
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	Cap         decimal.Decimal `json:"cap"`
	Description string          `json:"description"`
}

type fixtureJSON struct {
	Products  []productJSON  `json:"products"`
	Customers []customerJSON `json:"customers"`
	Vouchers  []voucherJSON  `json:"vouchers"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture-file", "db/seed/catalog.json", "path to catalog fixture JSON")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile string) error {
	slog.Info("reading fixture file", slog.String("path", fixtureFile))

	data, err := os.ReadFile(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture file")
	}

	var fixture fixtureJSON
	if err := json.Unmarshal(data, &fixture); err != nil {
		return errors.Wrap(err, "parse fixture JSON")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, postgres.NewCatalogRepository(pool), fixture.Products); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedCustomers(ctx, postgres.NewCustomerRepository(pool), fixture.Customers); err != nil {
		return errors.Wrap(err, "seed customers")
	}
	if err := seedVouchers(ctx, postgres.NewVoucherRepository(pool), fixture.Vouchers); err != nil {
		return errors.Wrap(err, "seed vouchers")
	}

	return nil
}

func seedCatalog(ctx context.Context, repo *postgres.CatalogRepository, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := repo.UpsertProduct(ctx, catalog.Product{
			ID:              p.ID,
			Name:            p.Name,
			Category:        p.Category,
			Description:     p.Description,
			Image:           p.Image,
			ServiceSessions: p.ServiceSessions,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		for _, v := range p.Variants {
			if err := repo.UpsertVariant(ctx, catalog.Variant{
				ID:        v.ID,
				ProductID: p.ID,
				Barcode:   v.Barcode,
				Label:     v.Label,
				Price:     v.Price,
				Stock:     v.Stock,
			}); err != nil {
				return errors.Wrapf(err, "upsert variant %s", v.ID)
			}
		}

		slog.Info("upserted product",
			slog.String("id", p.ID),
			slog.String("name", p.Name),
			slog.Int("variants", len(p.Variants)),
		)
	}

	return nil
}

func seedCustomers(ctx context.Context, repo *postgres.CustomerRepository, customers []customerJSON) error {
	slog.Info("upserting customers", slog.Int("count", len(customers)))

	for _, c := range customers {
		if err := repo.Upsert(ctx, customer.Customer{ID: c.ID, Name: c.Name, Phone: c.Phone}); err != nil {
			return errors.Wrapf(err, "upsert customer %s", c.ID)
		}
	}

	return nil
}

func seedVouchers(ctx context.Context, repo *postgres.VoucherRepository, vouchers []voucherJSON) error {
	slog.Info("upserting vouchers", slog.Int("count", len(vouchers)))

	for _, v := range vouchers {
		if err := repo.Upsert(ctx, voucher.Rule{
			Code:        v.Code,
			Type:        voucher.Type(v.Type),
			Value:       v.Value,
			Cap:         v.Cap,
			Description: v.Description,
		}); err != nil {
			return errors.Wrapf(err, "upsert voucher %s", v.Code)
		}

		slog.Info("upserted voucher", slog.String("code", v.Code))
	}

	return nil
}
