package payments

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{1, 100},
		{19.99, 1999},
		{0.29, 29},
		{1250.5, 125050},
		{0.005, 1},
	}

	for _, tt := range tests {
		got, err := ToMinorUnits(tt.price)
		if err != nil {
			t.Errorf("ToMinorUnits(%v) error: %v", tt.price, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToMinorUnits(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

func TestToMinorUnitsRejects(t *testing.T) {
	for _, price := range []float64{0, -5, 0.001, math.NaN(), math.Inf(1)} {
		if _, err := ToMinorUnits(price); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ToMinorUnits(%v) err = %v, want ErrInvalidAmount", price, err)
		}
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.CreateIntent(context.Background(), 100, CurrencyUSD)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
