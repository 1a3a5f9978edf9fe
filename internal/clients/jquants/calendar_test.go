package jquants

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akakabu/akakabu-server/internal/models"
)

// fixedNow anchors the free-plan scan: 2024-05-01 minus 110 calendar days
// lands on Friday 2024-01-12.
var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func withFixedClock(c *Client) *Client {
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestTargetDatesCalendarPlan(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/markets/calendar", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"calendar": [
			{"Date": "2024-01-09", "Opening": true},
			{"Date": "2024-01-08", "Opening": false},
			{"Date": "2024-01-05", "Opening": true},
			{"Date": "2024-01-10", "Opening": true}
		]}`)
	})

	client := newTestClient(t, mux)
	dates, err := client.TargetDates(context.Background(), testCredential(models.PlanProStandard))
	require.NoError(t, err)

	// Closed days dropped, hyphens stripped, ascending order.
	assert.Equal(t, []string{"20240105", "20240109", "20240110"}, dates)
}

func TestTargetDatesFreeScanWindow(t *testing.T) {
	var queried []string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/prices/daily_quotes", func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		queried = append(queried, date)

		switch date {
		case "20240112":
			fmt.Fprint(w, `{"daily_quotes": []}`)
		case "20240111":
			w.WriteHeader(http.StatusBadRequest)
		case "20240110":
			fmt.Fprint(w, `{"daily_quotes": [{"Code": "72030", "Date": "20240110", "Close": 2500.0}]}`)
		default:
			t.Errorf("scan should have stopped at the hit, queried %q", date)
		}
	})

	client := withFixedClock(newTestClient(t, mux))
	dates, err := client.TargetDates(context.Background(), testCredential(models.PlanFree))
	require.NoError(t, err)

	// Empty 2024-01-12 and 400-rejected 2024-01-11 are skipped; the hit is
	// Wednesday 2024-01-10, centered in an 11-weekday window.
	want := []string{
		"20240103", "20240104", "20240105", "20240108", "20240109",
		"20240110",
		"20240111", "20240112", "20240115", "20240116", "20240117",
	}
	assert.Equal(t, want, dates)
	assert.Equal(t, []string{"20240112", "20240111", "20240110"}, queried)

	require.Len(t, dates, 2*windowRadius+1)
	assert.True(t, sort.StringsAreSorted(dates))
	for _, d := range dates {
		day, perr := time.Parse(compactDateLayout, d)
		require.NoError(t, perr)
		assert.False(t, isWeekend(day), "window must not contain weekend date %s", d)
	}
}

func TestTargetDatesFreeScanSkipsWeekends(t *testing.T) {
	var queried []string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/prices/daily_quotes", func(w http.ResponseWriter, r *http.Request) {
		queried = append(queried, r.URL.Query().Get("date"))
		w.WriteHeader(http.StatusBadRequest)
	})

	client := withFixedClock(newTestClient(t, mux))
	dates, err := client.TargetDates(context.Background(), testCredential(models.PlanFree))
	require.NoError(t, err)
	assert.Empty(t, dates, "exhausted scan yields an empty slice, not an error")

	for _, d := range queried {
		day, perr := time.Parse(compactDateLayout, d)
		require.NoError(t, perr)
		assert.False(t, isWeekend(day), "scan queried weekend date %s", d)
	}
}

func TestTargetDatesFreeScanFatalError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/prices/daily_quotes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := withFixedClock(newTestClient(t, mux))
	_, err := client.TargetDates(context.Background(), testCredential(models.PlanFree))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestGetLatestDailyQuotesNewestFirst(t *testing.T) {
	var queried []string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/markets/calendar", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"calendar": [
			{"Date": "2024-01-09", "Opening": true},
			{"Date": "2024-01-10", "Opening": true},
			{"Date": "2024-01-11", "Opening": true}
		]}`)
	})
	mux.HandleFunc("/v1/prices/daily_quotes", func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		queried = append(queried, date)

		switch date {
		case "20240111":
			w.WriteHeader(http.StatusBadRequest)
		case "20240110":
			fmt.Fprint(w, `{"daily_quotes": [{"Code": "72030", "Date": "20240110", "Close": 2500.0}]}`)
		default:
			fmt.Fprint(w, `{"daily_quotes": []}`)
		}
	})

	client := newTestClient(t, mux)
	quotes, err := client.GetLatestDailyQuotes(context.Background(), testCredential(models.PlanProStandard))
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "20240110", quotes[0].Date)

	// Newest candidate first; the 400 is recoverable and falls through.
	assert.Equal(t, []string{"20240111", "20240110"}, queried)
}

func TestGetLatestDailyQuotesExhausted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/markets/calendar", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"calendar": [{"Date": "2024-01-09", "Opening": true}]}`)
	})
	mux.HandleFunc("/v1/prices/daily_quotes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"daily_quotes": []}`)
	})

	client := newTestClient(t, mux)
	_, err := client.GetLatestDailyQuotes(context.Background(), testCredential(models.PlanProStandard))
	assert.ErrorIs(t, err, ErrNoRecentPrice)
}

func TestWeekdayWindowAcrossMonthBoundary(t *testing.T) {
	// Thursday 2024-02-01: the prior weekdays reach back into January.
	hit := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	want := []string{
		"20240125", "20240126", "20240129", "20240130", "20240131",
		"20240201",
		"20240202", "20240205", "20240206", "20240207", "20240208",
	}
	assert.Equal(t, want, weekdayWindow(hit))
}
