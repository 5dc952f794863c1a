package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the ingestion and reporting instruments. A nil
// *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	RowsIngested   metric.Int64Counter
	RowsDropped    metric.Int64Counter
	FilesRejected  metric.Int64Counter
	RateSource     metric.Int64Counter
	ReportDuration metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments on meter, or on the
// global meter when meter is nil.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	rowsIngested, err := meter.Int64Counter(
		"sellerpulse_rows_ingested",
		metric.WithDescription("Transaction rows persisted after deduplication"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"sellerpulse_rows_dropped",
		metric.WithDescription("Workbook rows dropped during ingestion, by reason"),
	)
	if err != nil {
		return nil, err
	}

	filesRejected, err := meter.Int64Counter(
		"sellerpulse_files_rejected",
		metric.WithDescription("Workbooks rejected as a whole, by reason"),
	)
	if err != nil {
		return nil, err
	}

	rateSource, err := meter.Int64Counter(
		"sellerpulse_rate_source",
		metric.WithDescription("Exchange rate tables served, by source"),
	)
	if err != nil {
		return nil, err
	}

	reportDuration, err := meter.Float64Histogram(
		"sellerpulse_report_duration",
		metric.WithDescription("Analytics report generation time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsIngested:   rowsIngested,
		RowsDropped:    rowsDropped,
		FilesRejected:  filesRejected,
		RateSource:     rateSource,
		ReportDuration: reportDuration,
	}, nil
}

// RecordIngested counts rows written for a marketplace.
func (m *PipelineMetrics) RecordIngested(ctx context.Context, marketplace string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	m.RowsIngested.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("marketplace", marketplace)))
}

// RecordDropped counts rows dropped for reason.
func (m *PipelineMetrics) RecordDropped(ctx context.Context, reason string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	m.RowsDropped.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRejected counts a rejected file.
func (m *PipelineMetrics) RecordRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.FilesRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRateSource counts a rate table served from source.
func (m *PipelineMetrics) RecordRateSource(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.RateSource.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordReport records how long one report (kind "report" or "compare") took.
func (m *PipelineMetrics) RecordReport(ctx context.Context, kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.ReportDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("kind", kind)))
}

// HTTPMetrics holds the request instruments used by the OTel middleware.
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP request instruments.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	requestsTotal, err := meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		RequestsTotal:   requestsTotal,
		RequestDuration: requestDuration,
		ActiveRequests:  activeRequests,
	}, nil
}
