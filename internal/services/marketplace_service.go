package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	apierrors "sellerpulse/internal/errors"
	"sellerpulse/internal/infrastructure"
	"sellerpulse/internal/marketplace"
	"sellerpulse/internal/storage"
	"sellerpulse/pkg/contracts/domain"
)

// MarketplaceService exposes the per-marketplace bookkeeping of the store.
type MarketplaceService struct {
	store    storage.Store
	logger   *slog.Logger
	onDelete []func()
}

// NewMarketplaceService creates a marketplace service.
func NewMarketplaceService(store storage.Store, logger *slog.Logger) *MarketplaceService {
	return &MarketplaceService{
		store:  store,
		logger: infrastructure.ComponentLogger(logger, "marketplaces"),
	}
}

// OnDelete registers fn to run after marketplace data is removed.
func (s *MarketplaceService) OnDelete(fn func()) {
	s.onDelete = append(s.onDelete, fn)
}

// List returns the metadata of every marketplace with stored data, ordered
// by code.
func (s *MarketplaceService) List(ctx context.Context) ([]domain.MarketplaceMetadata, error) {
	metas, err := s.store.ListMetadata(ctx)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to list marketplaces", err)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Code < metas[j].Code })
	return metas, nil
}

// Get returns one marketplace's metadata.
func (s *MarketplaceService) Get(ctx context.Context, code string) (domain.MarketplaceMetadata, error) {
	code, err := canonicalCode(code)
	if err != nil {
		return domain.MarketplaceMetadata{}, err
	}
	meta, ok, err := s.store.Metadata(ctx, code)
	if err != nil {
		return domain.MarketplaceMetadata{}, apierrors.NewStorageError("failed to read marketplace metadata", err)
	}
	if !ok {
		return domain.MarketplaceMetadata{}, apierrors.NewNotFoundError(fmt.Sprintf("marketplace %s", code))
	}
	return meta, nil
}

// Delete removes a marketplace's records and metadata and returns the
// number of records removed.
func (s *MarketplaceService) Delete(ctx context.Context, code string) (int, error) {
	code, err := canonicalCode(code)
	if err != nil {
		return 0, err
	}
	_, known, err := s.store.Metadata(ctx, code)
	if err != nil {
		return 0, apierrors.NewStorageError("failed to read marketplace metadata", err)
	}

	removed, err := s.store.DeleteMarketplace(ctx, code)
	if err != nil {
		return 0, apierrors.NewStorageError("failed to delete marketplace data", err)
	}
	if removed == 0 && !known {
		return 0, apierrors.NewNotFoundError(fmt.Sprintf("marketplace %s", code))
	}

	for _, fn := range s.onDelete {
		fn()
	}
	s.logger.InfoContext(ctx, "marketplace data deleted",
		slog.String("marketplace", code),
		slog.Int("removed", removed))
	return removed, nil
}

func canonicalCode(code string) (string, error) {
	c := marketplace.NormalizeCode(code)
	if _, ok := marketplace.Lookup(c); !ok {
		return "", apierrors.NewAppError(apierrors.ErrTypeValidation, fmt.Sprintf("unknown marketplace %q", code), ErrUnknownMarketplace)
	}
	return c, nil
}
