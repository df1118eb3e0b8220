package catalog

import (
	"context"
	"time"

	"orderconv/internal/config"
	"orderconv/internal/storage"
)

type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

type SyncCounts struct {
	Products  int
	Customers int
	Schemes   int
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

func (s *SyncService) InitialSync(ctx context.Context) (SyncCounts, error) {
	var counts SyncCounts

	products, err := s.client.GetProductsAll(ctx)
	if err != nil {
		return counts, err
	}
	if err := s.db.UpsertProducts(products); err != nil {
		return counts, err
	}
	counts.Products = len(products)

	customers, err := s.client.GetCustomersAll(ctx)
	if err != nil {
		return counts, err
	}
	if err := s.db.UpsertCustomers(customers); err != nil {
		return counts, err
	}
	counts.Customers = len(customers)

	schemes, err := s.client.GetSchemesAll(ctx)
	if err != nil {
		return counts, err
	}
	if err := s.db.UpsertSchemes(schemes); err != nil {
		return counts, err
	}
	counts.Schemes = len(schemes)

	_ = s.db.SetMetadata("catalog.last_initial_sync", time.Now().UTC().Format(time.RFC3339))
	return counts, nil
}

func (s *SyncService) IncrementalSync(ctx context.Context) (SyncCounts, error) {
	var counts SyncCounts

	products, err := s.client.GetProductsIncremental(ctx)
	if err != nil {
		return counts, err
	}
	if len(products) > 0 {
		if err := s.db.UpsertProducts(products); err != nil {
			return counts, err
		}
	}
	counts.Products = len(products)

	customers, err := s.client.GetCustomersIncremental(ctx)
	if err != nil {
		return counts, err
	}
	if len(customers) > 0 {
		if err := s.db.UpsertCustomers(customers); err != nil {
			return counts, err
		}
	}
	counts.Customers = len(customers)

	// Schemes change rarely and the full list is small, refresh whole.
	schemes, err := s.client.GetSchemesAll(ctx)
	if err != nil {
		return counts, err
	}
	if len(schemes) > 0 {
		if err := s.db.UpsertSchemes(schemes); err != nil {
			return counts, err
		}
	}
	counts.Schemes = len(schemes)

	_ = s.db.SetMetadata("catalog.last_incremental_sync", time.Now().UTC().Format(time.RFC3339))
	return counts, nil
}
