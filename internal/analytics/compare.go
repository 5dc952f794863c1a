package analytics

import (
	"fmt"
	"time"

	apierrors "sellerpulse/internal/errors"
	"sellerpulse/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// ShiftRange returns the comparison window for an inclusive date range.
// previous-period is the equal-length window ending the day before start;
// previous-year is the same window one calendar year earlier, with Feb 29
// mapped to Feb 28.
func ShiftRange(mode domain.ComparisonMode, start, end string) (string, string, string, error) {
	if start == "" || end == "" {
		return "", "", "", apierrors.NewAppValidationError("comparison requires both a start and an end date")
	}
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return "", "", "", apierrors.NewAppValidationError(fmt.Sprintf("invalid start date %q", start))
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return "", "", "", apierrors.NewAppValidationError(fmt.Sprintf("invalid end date %q", end))
	}
	if e.Before(s) {
		return "", "", "", apierrors.NewAppValidationError("end date is before start date")
	}

	var ps, pe time.Time
	var label string
	switch mode {
	case domain.ComparePreviousPeriod:
		days := int(e.Sub(s).Hours()/24) + 1
		pe = s.AddDate(0, 0, -1)
		ps = pe.AddDate(0, 0, -(days - 1))
		label = "Previous period"
	case domain.ComparePreviousYear:
		ps = yearEarlier(s)
		pe = yearEarlier(e)
		label = "Same period last year"
	default:
		return "", "", "", apierrors.NewAppValidationError(fmt.Sprintf("unknown comparison mode %q", mode))
	}

	from, to := ps.Format(dateLayout), pe.Format(dateLayout)
	return from, to, fmt.Sprintf("%s (%s to %s)", label, from, to), nil
}

func yearEarlier(t time.Time) time.Time {
	if t.Month() == time.February && t.Day() == 29 {
		return time.Date(t.Year()-1, time.February, 28, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year()-1, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Compare aggregates records over the window shifted from f's date range.
// Marketplace and fulfillment filters are kept; records should be the full
// dataset, not one already narrowed to f's dates.
func (a *Aggregator) Compare(records []domain.EnrichedTransaction, f domain.Filters, mode domain.ComparisonMode) (*domain.Comparison, error) {
	start, end, label, err := ShiftRange(mode, f.StartDate, f.EndDate)
	if err != nil {
		return nil, err
	}
	shifted := f
	shifted.StartDate = start
	shifted.EndDate = end

	return &domain.Comparison{
		Mode:      mode,
		Label:     label,
		StartDate: start,
		EndDate:   end,
		Analytics: a.Aggregate(records, shifted),
	}, nil
}
