package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
)

var (
	// ErrInvalidDate is returned when an explicit trade date cannot be parsed
	ErrInvalidDate = errors.New("invalid trade date")

	// ErrNoTradeDate is returned when no table carries a usable date
	ErrNoTradeDate = errors.New("no trade date available")
)

// ResolveTradeDate returns the explicit date when given, otherwise the latest
// date present across the view. The bool reports whether the default was used.
// An explicit date is not checked against the data.
func ResolveTradeDate(explicit string, view *contracts.DatasetView) (time.Time, bool, error) {
	if explicit != "" {
		date, ok := ParseDate(explicit)
		if !ok {
			return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, explicit)
		}
		return date, false, nil
	}

	var latest time.Time
	found := false
	for _, code := range view.Codes() {
		table, _ := view.Get(code)
		maxDate, ok := table.MaxDate()
		if !ok {
			continue
		}
		if !found || maxDate.After(latest) {
			latest = maxDate
			found = true
		}
	}

	if !found {
		return time.Time{}, true, ErrNoTradeDate
	}
	return latest, true, nil
}
