package dataprocessing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "sellerpulse/internal/errors"
	"sellerpulse/internal/marketplace"
	"sellerpulse/pkg/contracts/domain"
)

// File-level rejection causes. Returned errors are *apierrors.AppError
// values wrapping one of these, so both errors.Is and apierrors.TypeOf work.
var (
	ErrUnreadableWorkbook    = errors.New("workbook could not be opened")
	ErrHeaderNotFound        = errors.New("header row not found")
	ErrMarketplaceUndetected = errors.New("marketplace could not be detected")
	ErrFileTooLarge          = errors.New("file exceeds the per-file row limit")
	ErrDatasetTooLarge       = errors.New("dataset would exceed the total row limit")
)

// Default ingestion limits.
const (
	DefaultMaxRowsPerFile = 150000
	DefaultHeaderScanRows = 20
)

// ReadOptions configures workbook ingestion.
type ReadOptions struct {
	// MarketplaceOverride forces the file-level marketplace code.
	MarketplaceOverride string
	MaxRows             int
	HeaderScanRows      int
	Logger              *slog.Logger
}

func (o ReadOptions) withDefaults() ReadOptions {
	if o.MaxRows <= 0 {
		o.MaxRows = DefaultMaxRowsPerFile
	}
	if o.HeaderScanRows <= 0 {
		o.HeaderScanRows = DefaultHeaderScanRows
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// IngestStats counts what happened to each data row of a file.
type IngestStats struct {
	RowsRead           int `json:"rows_read"`
	RowsAccepted       int `json:"rows_accepted"`
	SkippedBlank       int `json:"skipped_blank"`
	DroppedUnknownType int `json:"dropped_unknown_type"`
	DroppedBadDate     int `json:"dropped_bad_date"`
}

// Dropped returns the number of non-blank rows that were discarded.
func (s IngestStats) Dropped() int {
	return s.DroppedUnknownType + s.DroppedBadDate
}

// Add accumulates another file's stats.
func (s *IngestStats) Add(other IngestStats) {
	s.RowsRead += other.RowsRead
	s.RowsAccepted += other.RowsAccepted
	s.SkippedBlank += other.SkippedBlank
	s.DroppedUnknownType += other.DroppedUnknownType
	s.DroppedBadDate += other.DroppedBadDate
}

// ParsedFile is the result of reading one workbook. Nothing has been
// persisted yet.
type ParsedFile struct {
	Name        string
	Sheet       string
	Marketplace string
	Records     []domain.Transaction
	Stats       IngestStats
}

// sheetData is the located header plus the data rows of one sheet.
type sheetData struct {
	name      string
	headerRow int
	headers   []string
	rows      [][]string
	// rowNumbers holds the 1-based sheet row of each entry in rows
	rowNumbers []int
}

// ReadWorkbookFile opens path and reads it with ReadWorkbook.
func ReadWorkbookFile(path string, opts ReadOptions) (*ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("cannot open %s", filepath.Base(path)), err)
	}
	defer f.Close()
	return ReadWorkbook(f, filepath.Base(path), opts)
}

// ReadWorkbook parses an Amazon transaction report. The whole file is
// rejected, with no records returned, when the header row cannot be found
// within the scan window, when it has more data rows than the per-file
// limit, or when no marketplace can be determined for it.
func ReadWorkbook(r io.Reader, name string, opts ReadOptions) (*ParsedFile, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.With(slog.String("file", name))

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("%s is not a readable workbook", name), fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)).
			WithContext("file", name)
	}
	defer f.Close()

	sheet, err := locateSheet(f, opts)
	if err != nil {
		logger.Warn("workbook rejected", slog.String("error", err.Error()))
		return nil, withFile(err, name)
	}

	code, err := detectFileMarketplace(sheet, name, opts.MarketplaceOverride)
	if err != nil {
		logger.Warn("workbook rejected", slog.String("error", err.Error()))
		return nil, withFile(err, name)
	}

	columns := BuildColumnMap(sheet.headers)
	builder := NewBuilder(columns, code, name)

	parsed := &ParsedFile{
		Name:        name,
		Sheet:       sheet.name,
		Marketplace: code,
		Records:     make([]domain.Transaction, 0, len(sheet.rows)),
	}
	for i, row := range sheet.rows {
		parsed.Stats.RowsRead++
		tx, reason := builder.Build(row, sheet.rowNumbers[i])
		switch reason {
		case DropNone:
			parsed.Records = append(parsed.Records, tx)
			parsed.Stats.RowsAccepted++
		case DropBlank:
			parsed.Stats.SkippedBlank++
		case DropUnknownType:
			parsed.Stats.DroppedUnknownType++
			logger.Debug("row dropped", slog.Int("row", sheet.rowNumbers[i]), slog.String("reason", string(reason)))
		case DropBadDate:
			parsed.Stats.DroppedBadDate++
			logger.Debug("row dropped", slog.Int("row", sheet.rowNumbers[i]), slog.String("reason", string(reason)))
		}
	}

	logger.Info("workbook parsed",
		slog.String("sheet", sheet.name),
		slog.String("marketplace", code),
		slog.Int("header_row", sheet.headerRow+1),
		slog.Int("rows_read", parsed.Stats.RowsRead),
		slog.Int("accepted", parsed.Stats.RowsAccepted),
		slog.Int("dropped", parsed.Stats.Dropped()))

	return parsed, nil
}

// locateSheet returns the first sheet whose header row sits within the
// scan window, with its data rows. It stops reading as soon as the row
// limit is exceeded.
func locateSheet(f *excelize.File, opts ReadOptions) (*sheetData, error) {
	for _, name := range f.GetSheetList() {
		sheet, err := readSheet(f, name, opts)
		if err != nil {
			return nil, err
		}
		if sheet != nil {
			return sheet, nil
		}
	}
	return nil, apierrors.NewParsingError(
		fmt.Sprintf("no header row found in the first %d rows", opts.HeaderScanRows), ErrHeaderNotFound)
}

func readSheet(f *excelize.File, name string, opts ReadOptions) (*sheetData, error) {
	rows, err := f.Rows(name)
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("cannot read sheet %q", name), err)
	}
	defer rows.Close()

	var (
		scanned   [][]string
		sheet     *sheetData
		rowNumber int
		dataRows  int
	)
	for rows.Next() {
		rowNumber++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apierrors.NewParsingError(fmt.Sprintf("cannot read row %d of sheet %q", rowNumber, name), err)
		}

		if sheet == nil {
			scanned = append(scanned, cols)
			if len(scanned) > opts.HeaderScanRows {
				return nil, nil
			}
			if IsHeaderRow(cols) {
				sheet = &sheetData{name: name, headerRow: rowNumber - 1, headers: cols}
			}
			continue
		}

		if isBlankRow(cols) {
			continue
		}
		dataRows++
		if dataRows > opts.MaxRows {
			continue
		}
		sheet.rows = append(sheet.rows, cols)
		sheet.rowNumbers = append(sheet.rowNumbers, rowNumber)
	}
	if err := rows.Error(); err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("cannot read sheet %q", name), err)
	}

	if sheet != nil && dataRows > opts.MaxRows {
		limitErr := apierrors.NewLimitError(
			fmt.Sprintf("file has %d rows, more than the limit of %d", dataRows, opts.MaxRows),
			opts.MaxRows, dataRows)
		limitErr.Cause = ErrFileTooLarge
		return nil, limitErr
	}
	return sheet, nil
}

// detectFileMarketplace resolves the file-level marketplace: an explicit
// override, then the most common value of the marketplace column, then a
// token in the file name.
func detectFileMarketplace(sheet *sheetData, fileName, override string) (string, error) {
	if override != "" {
		if _, ok := marketplace.Lookup(override); !ok {
			return "", apierrors.NewAppValidationError(fmt.Sprintf("unknown marketplace %q", override))
		}
		return marketplace.NormalizeCode(override), nil
	}

	if idx, ok := BuildColumnMap(sheet.headers)[FieldMarketplace]; ok {
		votes := make(map[string]int)
		for _, row := range sheet.rows {
			if idx >= len(row) {
				continue
			}
			if code, ok := marketplace.Detect(row[idx]); ok {
				votes[code]++
			}
		}
		if code := majority(votes); code != "" {
			return code, nil
		}
	}

	if code, ok := marketplace.DetectFromFileName(fileName); ok {
		return code, nil
	}
	return "", apierrors.NewParsingError("no marketplace column value or file name token identifies the marketplace", ErrMarketplaceUndetected)
}

// majority returns the most voted code; ties go to the alphabetically
// first code.
func majority(votes map[string]int) string {
	codes := make([]string, 0, len(votes))
	for code := range votes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	best, bestVotes := "", 0
	for _, code := range codes {
		if votes[code] > bestVotes {
			best, bestVotes = code, votes[code]
		}
	}
	return best
}

func withFile(err error, name string) error {
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		appErr.WithContext("file", name)
		if !strings.Contains(appErr.Message, name) {
			appErr.Message = name + ": " + appErr.Message
		}
		return appErr
	}
	return fmt.Errorf("%s: %w", name, err)
}
