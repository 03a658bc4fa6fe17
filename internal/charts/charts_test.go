package charts

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPieRendersPNG(t *testing.T) {
	png, err := Pie("Расходы за месяц", []Slice{
		{Label: "Продукты", Value: decimal.NewFromInt(500)},
		{Label: "Такси", Value: decimal.RequireFromString("120.50")},
	})
	if err != nil {
		t.Fatalf("Pie: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("output is not a PNG (%d bytes)", len(png))
	}
}

func TestPieWithoutData(t *testing.T) {
	if _, err := Pie("empty", nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := Pie("zero", []Slice{{Label: "x", Value: decimal.Zero}}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
