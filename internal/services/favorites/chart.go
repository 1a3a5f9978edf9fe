package favorites

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/akakabu/akakabu-server/internal/models"
)

// RenderDividendChart renders a PNG bar chart of dividend per share across a
// user's favorites. Favorites without a dividend snapshot are drawn as zero
// so the x-axis always shows the full watchlist.
func (s *Service) RenderDividendChart(ctx context.Context, userID string) ([]byte, error) {
	favs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(favs) == 0 {
		return nil, fmt.Errorf("no favorites to chart")
	}

	return renderDividendBars(favs)
}

func renderDividendBars(favs []*models.Favorite) ([]byte, error) {
	bars := make([]chart.Value, len(favs))
	maxValue := 0.0
	for i, fav := range favs {
		value := 0.0
		if fav.Dividend != nil {
			value = *fav.Dividend
		}
		if value > maxValue {
			maxValue = value
		}

		label := fav.Code
		if fav.CompanyName != "" {
			label = fav.CompanyName
		}

		bars[i] = chart.Value{
			Label: label,
			Value: value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2563eb"),
				StrokeColor: drawing.ColorFromHex("2563eb"),
			},
		}
	}

	// go-chart refuses to derive an axis range when every bar carries the
	// same value, so the range is always set explicitly.
	yMax := maxValue * 1.1
	if yMax == 0 {
		yMax = 1
	}

	graph := chart.BarChart{
		Title:    "Dividend per Share",
		Width:    900,
		Height:   400,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f JPY", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
