package services

import (
	"errors"

	"sellerpulse/internal/dataprocessing"
)

// Service errors
var (
	ErrUnknownMarketplace = errors.New("unknown marketplace")
	ErrInvalidDateRange   = errors.New("start date is after end date")
	ErrInvalidMode        = errors.New("invalid comparison mode")
)

// rejectionReason labels a file-level rejection for metrics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, dataprocessing.ErrUnreadableWorkbook):
		return "unreadable"
	case errors.Is(err, dataprocessing.ErrHeaderNotFound):
		return "header_not_found"
	case errors.Is(err, dataprocessing.ErrMarketplaceUndetected):
		return "marketplace_undetected"
	case errors.Is(err, dataprocessing.ErrFileTooLarge):
		return "file_too_large"
	case errors.Is(err, dataprocessing.ErrDatasetTooLarge):
		return "dataset_too_large"
	default:
		return "other"
	}
}
