package jquants

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/akakabu/akakabu-server/internal/models"
)

const (
	compactDateLayout = "20060102"

	// Free-tier credentials cannot read the trading calendar and their
	// historical quote data starts roughly twelve weeks back, so the scan
	// anchors this many calendar days before today and walks further back.
	freeScanStartOffsetDays = 110

	// Calendar days the scan is allowed to walk back from the anchor before
	// giving up. Covers any run of consecutive market holidays.
	freeScanSpanDays = 21

	// Weekdays kept on each side of the scan's hit date.
	windowRadius = 5
)

// ErrNoRecentPrice is returned when every candidate trading date was
// exhausted without finding quote data.
var ErrNoRecentPrice = errors.New("no recent trading-day price data available")

// TargetDates resolves the candidate dates (YYYYMMDD, ascending) to query for
// the latest quote data. Calendar-eligible plans read the trading calendar;
// the free plan scans backward for the most recent date that actually has
// quotes and returns a weekday window around it.
func (c *Client) TargetDates(ctx context.Context, cred *models.JQuantsCredential) ([]string, error) {
	if cred.Plan.HasCalendarAccess() {
		return c.calendarTargetDates(ctx, cred)
	}
	return c.scanTargetDates(ctx, cred)
}

func (c *Client) calendarTargetDates(ctx context.Context, cred *models.JQuantsCredential) ([]string, error) {
	days, err := c.GetTradingCalendar(ctx, cred)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(days))
	for _, day := range days {
		if !day.Opening {
			continue
		}
		// Calendar dates arrive as YYYY-MM-DD; quote queries want YYYYMMDD.
		dates = append(dates, strings.ReplaceAll(day.Date, "-", ""))
	}
	sort.Strings(dates)

	return dates, nil
}

// scanTargetDates probes weekdays backward from the anchor until one returns
// quote data, then builds the window around it. A 400 on a candidate date
// means no data for that date and is skipped; any other error aborts the
// scan. An exhausted scan yields an empty slice, not an error.
func (c *Client) scanTargetDates(ctx context.Context, cred *models.JQuantsCredential) ([]string, error) {
	anchor := c.now().AddDate(0, 0, -freeScanStartOffsetDays)

	for offset := 0; offset < freeScanSpanDays; offset++ {
		day := anchor.AddDate(0, 0, -offset)
		if isWeekend(day) {
			continue
		}

		date := day.Format(compactDateLayout)
		quotes, err := c.GetDailyQuotes(ctx, cred, date)
		if err != nil {
			if IsStatus(err, http.StatusBadRequest) {
				c.logger.Debug().Str("date", date).Msg("No quote data for candidate date")
				continue
			}
			return nil, err
		}
		if len(quotes) == 0 {
			continue
		}

		c.logger.Debug().Str("date", date).Msg("Resolved trading day by scan")
		return weekdayWindow(day), nil
	}

	c.logger.Warn().Msg("Trading-day scan exhausted without a hit")
	return nil, nil
}

// GetLatestDailyQuotes retrieves quotes for the most recent target date that
// has data, trying candidates newest first. Dates rejected with a 400 or
// returning an empty set are skipped; exhaustion yields ErrNoRecentPrice.
func (c *Client) GetLatestDailyQuotes(ctx context.Context, cred *models.JQuantsCredential) ([]models.DailyQuote, error) {
	dates, err := c.TargetDates(ctx, cred)
	if err != nil {
		return nil, err
	}

	for i := len(dates) - 1; i >= 0; i-- {
		quotes, err := c.GetDailyQuotes(ctx, cred, dates[i])
		if err != nil {
			if IsStatus(err, http.StatusBadRequest) {
				continue
			}
			return nil, err
		}
		if len(quotes) > 0 {
			return quotes, nil
		}
	}

	return nil, ErrNoRecentPrice
}

// weekdayWindow returns the hit date with windowRadius weekdays on each
// side, ascending. Weekends are never part of the window.
func weekdayWindow(hit time.Time) []string {
	dates := make([]string, 2*windowRadius+1)

	day := hit
	for i := windowRadius - 1; i >= 0; i-- {
		day = prevWeekday(day)
		dates[i] = day.Format(compactDateLayout)
	}

	dates[windowRadius] = hit.Format(compactDateLayout)

	day = hit
	for i := windowRadius + 1; i < len(dates); i++ {
		day = nextWeekday(day)
		dates[i] = day.Format(compactDateLayout)
	}

	return dates
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func prevWeekday(t time.Time) time.Time {
	t = t.AddDate(0, 0, -1)
	for isWeekend(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

func nextWeekday(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for isWeekend(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
