package route

import (
	"math"
	"reflect"
	"testing"

	"github.com/ngmaloney/rotation-map/internal/models"
)

func pts(lngs ...float64) []models.Coordinate {
	out := make([]models.Coordinate, len(lngs))
	for i, lng := range lngs {
		out[i] = models.Coordinate{Lat: 10, Lng: lng}
	}
	return out
}

func TestStitcher(t *testing.T) {
	tests := []struct {
		name     string
		paths    [][]models.Coordinate
		want     []models.Coordinate
		wantGaps int
	}{
		{
			name:  "shared endpoints kept once",
			paths: [][]models.Coordinate{pts(0, 5, 10), pts(10, 15), pts(15, 20, 25)},
			want:  pts(0, 5, 10, 15, 20, 25),
		},
		{
			name:  "disjoint paths kept whole",
			paths: [][]models.Coordinate{pts(0, 5), pts(30, 35)},
			want:  pts(0, 5, 30, 35),
		},
		{
			name:  "within tolerance counts as shared",
			paths: [][]models.Coordinate{pts(0, 5), pts(6, 10)},
			want:  pts(0, 5, 10),
		},
		{
			name:  "shared across the antimeridian",
			paths: [][]models.Coordinate{pts(170, 180), pts(-180, -175)},
			want:  pts(170, 180, -175),
		},
		{
			name:     "empty paths are gaps",
			paths:    [][]models.Coordinate{pts(0, 5), nil, pts(5, 10), {}},
			want:     pts(0, 5, 10),
			wantGaps: 2,
		},
		{
			name:     "nothing found",
			paths:    [][]models.Coordinate{nil, nil},
			want:     []models.Coordinate{},
			wantGaps: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStitcher(2.5)
			for _, p := range tt.paths {
				s.Add(p)
			}
			if got := s.Result(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Result() = %v, want %v", got, tt.want)
			}
			if s.Gaps() != tt.wantGaps {
				t.Errorf("Gaps() = %d, want %d", s.Gaps(), tt.wantGaps)
			}
		})
	}
}

func TestStitcherLengthLaw(t *testing.T) {
	paths := [][]models.Coordinate{pts(0, 5, 10), pts(10, 15, 20, 25), pts(25), pts(40, 45)}

	s := NewStitcher(2.5)
	total := 0
	for _, p := range paths {
		s.Add(p)
		total += len(p)
	}

	// joins at 10 and 25 are shared, 25 -> 40 is not
	if got, want := len(s.Result()), total-2; got != want {
		t.Errorf("len(Result()) = %d, want %d", got, want)
	}
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", nil, nil},
		{"single", []float64{170}, []float64{170}},
		{"no crossing", []float64{0, 10, 20}, []float64{0, 10, 20}},
		{"eastward crossing", []float64{170, 175, -180, -175, -170}, []float64{170, 175, 180, 185, 190}},
		{"westward crossing", []float64{-170, -175, 180, 175}, []float64{-170, -175, -180, -185}},
		{"exactly 180 apart", []float64{-90, 90}, []float64{-90, 90}},
		{"twice round", []float64{170, -170, -150, 150, 170, -170}, []float64{170, 190, 210, 150, 170, 190}},
		{"far from canonical", []float64{0, 900}, []float64{0, 180}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unwrap(pts(tt.in...))
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Lng != tt.want[i] {
					t.Errorf("point %d lng = %v, want %v", i, got[i].Lng, tt.want[i])
				}
			}
		})
	}
}

func TestUnwrapProperties(t *testing.T) {
	seqs := [][]float64{
		{170, -170, 170, -170},
		{-179, 179, -179, 179, 0, 180, -180},
		{45, -135, 45, -135, 45},
		{120, 150, 180, -150, -120, -90, -60},
		{0, 720, -720, 359},
	}

	for _, seq := range seqs {
		in := pts(seq...)
		once := Unwrap(in)
		twice := Unwrap(once)

		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Unwrap not idempotent for %v: %v then %v", seq, once, twice)
		}
		if once[0] != in[0] {
			t.Errorf("first point changed for %v", seq)
		}
		for i := 1; i < len(once); i++ {
			if d := math.Abs(once[i].Lng - once[i-1].Lng); d > 180 {
				t.Errorf("jump of %v between points %d and %d in %v", d, i-1, i, once)
			}
		}
		if in[1].Lng != seq[1] {
			t.Error("Unwrap modified its input")
		}
	}
}
