package grid

import (
	"testing"

	"github.com/ngmaloney/rotation-map/internal/models"
)

func TestSnapToSea(t *testing.T) {
	g, err := New(5, NewBoxClassifier())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		pos  models.Coordinate
		want Cell
	}{
		// Busan sits inside the Eurasia box; the closest sea is east of lng 140.
		{"busan", models.Coordinate{Lat: 35.1, Lng: 129.0}, Cell{11, 65}},
		// Rotterdam reaches open sea north of the box before west of it.
		{"rotterdam", models.Coordinate{Lat: 51.9, Lng: 4.5}, Cell{3, 37}},
		{"already sea", models.Coordinate{Lat: 0, Lng: -150}, Cell{18, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.SnapToSea(g.CoordToCell(tt.pos))
			if !ok {
				t.Fatal("SnapToSea() found no sea")
			}
			if got != tt.want {
				t.Errorf("SnapToSea() = %v, want %v", got, tt.want)
			}
			if g.IsLand(got) {
				t.Errorf("SnapToSea() returned land cell %v", got)
			}
		})
	}
}

func TestSnapToSea_Deterministic(t *testing.T) {
	g, err := New(5, NewBoxClassifier())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start := g.CoordToCell(models.Coordinate{Lat: 45, Lng: 60})
	first, _ := g.SnapToSea(start)
	for i := 0; i < 10; i++ {
		if got, _ := g.SnapToSea(start); got != first {
			t.Fatalf("SnapToSea() run %d = %v, first run %v", i, got, first)
		}
	}
}

func TestSnapToSea_AllLand(t *testing.T) {
	g, err := New(30, ClassifierFunc(func(lat, lng float64) bool { return true }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := g.SnapToSea(Cell{2, 2}); ok {
		t.Error("SnapToSea() on an all-land grid should fail")
	}
}
