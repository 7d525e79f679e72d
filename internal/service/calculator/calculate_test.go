package ridecalc

import (
	"math"
	"testing"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
)

var (
	lowerManhattan = models.Location{Latitude: 40.7128, Longitude: -74.0060}
	timesSquare    = models.Location{Latitude: 40.7589, Longitude: -73.9851}
)

func TestDistance(t *testing.T) {
	c := New()

	got := c.Distance(lowerManhattan, timesSquare)
	// ~5.4 km по прямой
	if got < 5.2 || got > 5.6 {
		t.Fatalf("Distance = %.3f km, want ~5.4", got)
	}

	if d := c.Distance(timesSquare, timesSquare); d != 0 {
		t.Fatalf("Distance to itself = %f, want 0", d)
	}

	if back := c.Distance(timesSquare, lowerManhattan); math.Abs(back-got) > 1e-9 {
		t.Fatalf("Distance not symmetric: %f vs %f", got, back)
	}
}

func TestDuration(t *testing.T) {
	c := New()

	tests := []struct {
		km   float64
		want int
	}{
		{0, 0},
		{-1, 0},
		{0.1, 1},
		{15, 30},
		{15.1, 31},
	}

	for _, tt := range tests {
		if got := c.Duration(tt.km); got != tt.want {
			t.Errorf("Duration(%v) = %d, want %d", tt.km, got, tt.want)
		}
	}
}

func TestFare(t *testing.T) {
	c := New()

	if got := c.Fare(timesSquare, timesSquare); got != 2.50 {
		t.Fatalf("zero distance fare = %v, want base 2.50", got)
	}

	got := c.Fare(lowerManhattan, timesSquare)
	want := math.Round((2.50+c.Distance(lowerManhattan, timesSquare)*1.50)*100) / 100
	if got != want {
		t.Fatalf("Fare = %v, want %v", got, want)
	}
	if got < 10.5 || got > 10.8 {
		t.Fatalf("Fare = %v, want ~10.63", got)
	}
}

func TestETA(t *testing.T) {
	c := New()
	if got := c.ETA(lowerManhattan, timesSquare); got != 11 {
		t.Fatalf("ETA = %d, want 11", got)
	}
}
