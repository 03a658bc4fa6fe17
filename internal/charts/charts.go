// Package charts renders report images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing positive to draw.
var ErrNoData = errors.New("charts: no data")

// Slice is one labelled pie segment.
type Slice struct {
	Label string
	Value decimal.Decimal
}

var palette = []drawing.Color{
	drawing.ColorFromHex("e76f51"),
	drawing.ColorFromHex("f4a261"),
	drawing.ColorFromHex("e9c46a"),
	drawing.ColorFromHex("2a9d8f"),
	drawing.ColorFromHex("264653"),
	drawing.ColorFromHex("8ab17d"),
	drawing.ColorFromHex("b56576"),
	drawing.ColorFromHex("6d597a"),
}

// Pie renders a PNG pie chart; labels carry the category and its share.
func Pie(title string, slices []Slice) ([]byte, error) {
	total := decimal.Zero
	for _, s := range slices {
		if s.Value.IsPositive() {
			total = total.Add(s.Value)
		}
	}
	if !total.IsPositive() {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if !s.Value.IsPositive() {
			continue
		}
		share := s.Value.Div(total).Mul(decimal.NewFromInt(100))
		v, _ := s.Value.Float64()
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%s%%)", s.Label, s.Value.StringFixed(2), share.StringFixed(1)),
			Value: v,
			Style: chart.Style{
				FillColor:   palette[len(values)%len(palette)],
				StrokeColor: chart.ColorWhite,
				FontSize:    10,
			},
		})
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  800,
		Height: 800,
		Values: values,
		Background: chart.Style{
			Padding:   chart.Box{Top: 60, Left: 40, Right: 40, Bottom: 40},
			FillColor: chart.ColorWhite,
		},
	}
	buf := bytes.NewBuffer(nil)
	if err := pie.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render pie chart: %w", err)
	}
	return buf.Bytes(), nil
}
