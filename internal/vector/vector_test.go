package vector

import (
	"errors"
	"math"
	"testing"
)

func Test_CosineSimilarity_SelfIsOne(t *testing.T) {
	t.Parallel()
	v := []float32{0.3, 0.5, 0.2, 0.9}

	got, err := CosineSimilarity(v, v)
	if err != nil {
		t.Fatalf("cosine(v, v): %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("cosine(v, v): want ~1.0, got %v", got)
	}
}

func Test_CosineSimilarity_Symmetric(t *testing.T) {
	t.Parallel()
	a := []float32{0.1, 0.7, 0.2}
	b := []float32{0.4, 0.4, 0.8}

	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("cosine(a, b): %v", err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatalf("cosine(b, a): %v", err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("cosine not symmetric: %v vs %v", ab, ba)
	}
}

func Test_CosineSimilarity_DimensionMismatch(t *testing.T) {
	t.Parallel()
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("want ErrDimensionMismatch, got %v", err)
	}
}

func Test_CosineSimilarity_ZeroMagnitude(t *testing.T) {
	t.Parallel()
	got, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("cosine with zero vector: %v", err)
	}
	if got != 0 {
		t.Errorf("want 0 for zero-magnitude operand, got %v", got)
	}
}

func Test_Normalize_UnitMagnitude(t *testing.T) {
	t.Parallel()
	got := Normalize([]float32{3, 4})

	var norm float64
	for _, x := range got {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-6 {
		t.Errorf("want unit magnitude, got %v", math.Sqrt(norm))
	}
}

func Test_Normalize_ZeroVectorUnchanged(t *testing.T) {
	t.Parallel()
	in := []float32{0, 0, 0}
	got := Normalize(in)
	for i := range got {
		if got[i] != 0 {
			t.Fatalf("zero vector changed at %d: %v", i, got[i])
		}
	}
}

func Test_EuclideanDistance(t *testing.T) {
	t.Parallel()
	got, err := EuclideanDistance([]float32{0, 0}, []float32{3, 4})
	if err != nil {
		t.Fatalf("euclidean: %v", err)
	}
	if math.Abs(got-5.0) > 1e-9 {
		t.Errorf("want 5.0, got %v", got)
	}

	if _, err := EuclideanDistance([]float32{1}, []float32{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("want ErrDimensionMismatch, got %v", err)
	}
}

func Test_Validate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		v    []float32
		dim  int
		want bool
	}{
		{"exact dimension", []float32{1, 2, 3}, 3, true},
		{"wrong dimension", []float32{1, 2}, 3, false},
		{"nan element", []float32{1, float32(math.NaN()), 3}, 3, false},
		{"inf element", []float32{1, float32(math.Inf(1)), 3}, 3, false},
		{"empty zero dim", nil, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Validate(tc.v, tc.dim); got != tc.want {
				t.Errorf("Validate(%v, %d) = %v, want %v", tc.v, tc.dim, got, tc.want)
			}
		})
	}
}
