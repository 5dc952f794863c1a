package storage

import (
	"context"
	"sort"
	"sync"

	"sellerpulse/pkg/contracts/domain"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu       sync.RWMutex
	txs      []domain.Transaction
	keys     map[string]struct{}
	metadata map[string]domain.MarketplaceMetadata
	values   map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:     make(map[string]struct{}),
		metadata: make(map[string]domain.MarketplaceMetadata),
		values:   make(map[string]string),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) PutTransactions(_ context.Context, txs []domain.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, tx := range txs {
		if _, exists := s.keys[tx.UniqueKey]; exists {
			continue
		}
		s.keys[tx.UniqueKey] = struct{}{}
		s.txs = append(s.txs, tx)
		inserted++
	}
	return inserted, nil
}

func (s *MemoryStore) AllTransactions(_ context.Context) ([]domain.Transaction, error) {
	return s.filter(func(domain.Transaction) bool { return true }), nil
}

func (s *MemoryStore) TransactionsByMarketplace(_ context.Context, code string) ([]domain.Transaction, error) {
	return s.filter(func(tx domain.Transaction) bool { return tx.MarketplaceCode == code }), nil
}

func (s *MemoryStore) TransactionsByCategory(_ context.Context, category domain.CategoryType) ([]domain.Transaction, error) {
	return s.filter(func(tx domain.Transaction) bool { return tx.CategoryType == category }), nil
}

// filter returns a copy of the matching records ordered by time, then
// insertion order.
func (s *MemoryStore) filter(keep func(domain.Transaction) bool) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, tx := range s.txs {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (s *MemoryStore) DeleteMarketplace(_ context.Context, code string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.txs[:0]
	removed := 0
	for _, tx := range s.txs {
		if tx.MarketplaceCode == code {
			delete(s.keys, tx.UniqueKey)
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	s.txs = kept
	delete(s.metadata, code)
	return removed, nil
}

func (s *MemoryStore) CountTransactions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs), nil
}

func (s *MemoryStore) MarketplaceStats(_ context.Context, code string) (int, domain.DateRange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		n     int
		dates domain.DateRange
	)
	for _, tx := range s.txs {
		if tx.MarketplaceCode != code {
			continue
		}
		n++
		if dates.Start == "" || tx.DateOnly < dates.Start {
			dates.Start = tx.DateOnly
		}
		if tx.DateOnly > dates.End {
			dates.End = tx.DateOnly
		}
	}
	return n, dates, nil
}

func (s *MemoryStore) Metadata(_ context.Context, code string) (domain.MarketplaceMetadata, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.metadata[code]
	if ok {
		meta.UploadHistory = append([]domain.UploadEvent(nil), meta.UploadHistory...)
	}
	return meta, ok, nil
}

func (s *MemoryStore) ListMetadata(_ context.Context) ([]domain.MarketplaceMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MarketplaceMetadata, 0, len(s.metadata))
	for _, meta := range s.metadata {
		meta.UploadHistory = append([]domain.UploadEvent(nil), meta.UploadHistory...)
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *MemoryStore) PutMetadata(_ context.Context, meta domain.MarketplaceMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta.UploadHistory = append([]domain.UploadEvent(nil), meta.UploadHistory...)
	s.metadata[meta.Code] = meta
	return nil
}

func (s *MemoryStore) GetValue(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) PutValue(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
