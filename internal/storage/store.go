package storage

import (
	"context"

	"sellerpulse/pkg/contracts/domain"
)

// Store is the persisted dataset behind ingestion and reporting.
type Store interface {
	// PutTransactions inserts records whose UniqueKey is not stored yet and
	// returns how many were inserted. The batch is atomic.
	PutTransactions(ctx context.Context, txs []domain.Transaction) (int, error)
	AllTransactions(ctx context.Context) ([]domain.Transaction, error)
	TransactionsByMarketplace(ctx context.Context, code string) ([]domain.Transaction, error)
	TransactionsByCategory(ctx context.Context, category domain.CategoryType) ([]domain.Transaction, error)
	// DeleteMarketplace removes a marketplace's records and metadata and
	// returns the number of records removed.
	DeleteMarketplace(ctx context.Context, code string) (int, error)
	CountTransactions(ctx context.Context) (int, error)
	// MarketplaceStats summarizes the stored records of one marketplace.
	MarketplaceStats(ctx context.Context, code string) (count int, dates domain.DateRange, err error)

	Metadata(ctx context.Context, code string) (domain.MarketplaceMetadata, bool, error)
	ListMetadata(ctx context.Context) ([]domain.MarketplaceMetadata, error)
	PutMetadata(ctx context.Context, meta domain.MarketplaceMetadata) error

	GetValue(ctx context.Context, key string) (string, bool, error)
	PutValue(ctx context.Context, key, value string) error

	Close() error
}
