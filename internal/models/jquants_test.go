package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"four digits padded", "7203", "07203"},
		{"already five digits", "07203", "07203"},
		{"single digit", "1", "00001"},
		{"wider than five kept", "720300", "720300"},
		{"trimmed before padding", " 7203 ", "07203"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCode(tt.raw))
		})
	}
}

func TestNormalizeCodeIdempotent(t *testing.T) {
	for _, raw := range []string{"", "7203", "07203", "720300"} {
		once := NormalizeCode(raw)
		assert.Equal(t, once, NormalizeCode(once), "normalizing %q twice must not change it", raw)
	}
}

func TestNormalizeNumericCode(t *testing.T) {
	assert.Equal(t, "07203", NormalizeNumericCode(7203))
}

func TestFlexStringDecodesBothShapes(t *testing.T) {
	var payload struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "7203", "b": 6758}`), &payload))
	assert.Equal(t, FlexString("7203"), payload.A)
	assert.Equal(t, FlexString("6758"), payload.B)
}

func TestPlanGating(t *testing.T) {
	assert.False(t, PlanFree.HasCalendarAccess())
	assert.True(t, PlanProLight.HasCalendarAccess())
	assert.True(t, PlanProStandard.HasCalendarAccess())
	assert.True(t, PlanProAdvanced.HasCalendarAccess())

	// Dividend data is top tier only.
	assert.False(t, PlanFree.HasDividendAccess())
	assert.False(t, PlanProStandard.HasDividendAccess())
	assert.True(t, PlanProAdvanced.HasDividendAccess())

	assert.True(t, PlanFree.Valid())
	assert.False(t, Plan("platinum").Valid())
}

func TestDailyQuoteMatches(t *testing.T) {
	q := DailyQuote{Code: "7203", LocalCode: "07203"}

	assert.True(t, q.Matches("07203"), "matches via either code field")
	assert.False(t, q.Matches("06758"))
	assert.False(t, q.Matches(""), "empty normalized code never matches")

	d := Dividend{LocalCode: "07203"}
	assert.True(t, d.Matches("07203"))
	assert.False(t, d.Matches(""))
}
