package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"sellerpulse/internal/config"
	"sellerpulse/internal/dataprocessing"
	apierrors "sellerpulse/internal/errors"
	"sellerpulse/internal/infrastructure"
	"sellerpulse/internal/storage"
	"sellerpulse/pkg/contracts/domain"
)

// MaxUploadHistory bounds the upload events kept per marketplace.
const MaxUploadHistory = 100

// IngestResult describes one committed file.
type IngestResult struct {
	File        string                     `json:"file"`
	Sheet       string                     `json:"sheet"`
	Marketplace string                     `json:"marketplace"`
	Stats       dataprocessing.IngestStats `json:"stats"`
	Inserted    int                        `json:"inserted"`
	Duplicates  int                        `json:"duplicates"`
	Upload      domain.UploadEvent         `json:"upload"`
}

// IngestService parses workbooks and commits their records to the store.
// Commits are serialized so the total row ceiling holds across concurrent
// uploads.
type IngestService struct {
	store    storage.Store
	limits   config.IngestConfig
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
	now      func() time.Time
	onCommit []func()

	mu sync.Mutex
}

// NewIngestService creates an ingest service. metrics may be nil.
func NewIngestService(store storage.Store, limits config.IngestConfig, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *IngestService {
	if limits.MaxRowsPerFile <= 0 {
		limits.MaxRowsPerFile = config.MaxRowsPerFile
	}
	if limits.MaxRowsTotal <= 0 {
		limits.MaxRowsTotal = config.MaxRowsTotal
	}
	if limits.HeaderScanRows <= 0 {
		limits.HeaderScanRows = config.HeaderScanRows
	}
	return &IngestService{
		store:   store,
		limits:  limits,
		metrics: metrics,
		logger:  infrastructure.ComponentLogger(logger, "ingest"),
		now:     time.Now,
	}
}

// OnCommit registers fn to run after every successful commit, e.g. to drop
// memoized reports.
func (s *IngestService) OnCommit(fn func()) {
	s.onCommit = append(s.onCommit, fn)
}

// Parse reads one workbook without persisting it.
func (s *IngestService) Parse(ctx context.Context, name string, r io.Reader, override string) (*dataprocessing.ParsedFile, error) {
	parsed, err := dataprocessing.ReadWorkbook(r, name, dataprocessing.ReadOptions{
		MarketplaceOverride: override,
		MaxRows:             s.limits.MaxRowsPerFile,
		HeaderScanRows:      s.limits.HeaderScanRows,
		Logger:              s.logger,
	})
	if err != nil {
		s.metrics.RecordRejected(ctx, rejectionReason(err))
		return nil, err
	}
	s.metrics.RecordDropped(ctx, "unknown_type", parsed.Stats.DroppedUnknownType)
	s.metrics.RecordDropped(ctx, "bad_date", parsed.Stats.DroppedBadDate)
	return parsed, nil
}

// IngestFile parses a workbook and commits it. A rejected file writes
// nothing.
func (s *IngestService) IngestFile(ctx context.Context, name string, r io.Reader, override string) (*IngestResult, error) {
	ctx, span := infrastructure.StartSpan(ctx, "ingest.file", attribute.String("file", name))
	defer span.End()

	parsed, err := s.Parse(ctx, name, r, override)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	result, err := s.Commit(ctx, parsed)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("marketplace", result.Marketplace),
		attribute.Int("inserted", result.Inserted),
		attribute.Int("duplicates", result.Duplicates))
	return result, nil
}

// Commit persists a parsed file: it enforces the total row ceiling, writes
// the records (duplicates by unique key are skipped), and refreshes the
// marketplace metadata.
func (s *IngestService) Commit(ctx context.Context, parsed *dataprocessing.ParsedFile) (*IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.logger.With(slog.String("file", parsed.Name), slog.String("marketplace", parsed.Marketplace))

	existing, err := s.store.CountTransactions(ctx)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to count stored transactions", err)
	}
	if total := existing + len(parsed.Records); total > s.limits.MaxRowsTotal {
		limitErr := apierrors.NewLimitError(
			fmt.Sprintf("%s: %d stored rows plus %d new rows exceed the limit of %d",
				parsed.Name, existing, len(parsed.Records), s.limits.MaxRowsTotal),
			s.limits.MaxRowsTotal, total).WithContext("file", parsed.Name)
		limitErr.Cause = dataprocessing.ErrDatasetTooLarge
		s.metrics.RecordRejected(ctx, rejectionReason(limitErr))
		logger.WarnContext(ctx, "workbook rejected", slog.String("error", limitErr.Error()))
		return nil, limitErr
	}

	inserted, err := s.store.PutTransactions(ctx, parsed.Records)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to store transactions", err).WithContext("file", parsed.Name)
	}

	event := domain.UploadEvent{
		ID:          uuid.NewString(),
		FileName:    parsed.Name,
		Marketplace: parsed.Marketplace,
		UploadedAt:  s.now().UTC(),
		RowsRead:    parsed.Stats.RowsRead,
		Accepted:    parsed.Stats.RowsAccepted,
		Inserted:    inserted,
		Duplicates:  len(parsed.Records) - inserted,
		Dropped:     parsed.Stats.Dropped(),
	}
	if err := s.updateMetadata(ctx, parsed.Marketplace, event); err != nil {
		return nil, err
	}

	s.metrics.RecordIngested(ctx, parsed.Marketplace, inserted)
	for _, fn := range s.onCommit {
		fn()
	}

	logger.InfoContext(ctx, "workbook committed",
		slog.String("upload_id", event.ID),
		slog.Int("inserted", event.Inserted),
		slog.Int("duplicates", event.Duplicates),
		slog.Int("dropped", event.Dropped))

	return &IngestResult{
		File:        parsed.Name,
		Sheet:       parsed.Sheet,
		Marketplace: parsed.Marketplace,
		Stats:       parsed.Stats,
		Inserted:    inserted,
		Duplicates:  event.Duplicates,
		Upload:      event,
	}, nil
}

func (s *IngestService) updateMetadata(ctx context.Context, code string, event domain.UploadEvent) error {
	meta, _, err := s.store.Metadata(ctx, code)
	if err != nil {
		return apierrors.NewStorageError("failed to read marketplace metadata", err)
	}
	count, dates, err := s.store.MarketplaceStats(ctx, code)
	if err != nil {
		return apierrors.NewStorageError("failed to summarize marketplace", err)
	}

	meta.Code = code
	meta.TransactionCount = count
	meta.DateRange = dates
	meta.UploadHistory = append(meta.UploadHistory, event)
	if n := len(meta.UploadHistory); n > MaxUploadHistory {
		meta.UploadHistory = meta.UploadHistory[n-MaxUploadHistory:]
	}
	meta.UpdatedAt = event.UploadedAt

	if err := s.store.PutMetadata(ctx, meta); err != nil {
		return apierrors.NewStorageError("failed to write marketplace metadata", err)
	}
	return nil
}
