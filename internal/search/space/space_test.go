package space

import (
	"testing"
)

func TestCategoricalDecode(t *testing.T) {
	d := NewCategorical("kernel", "linear", "poly", "rbf")

	tests := []struct {
		name string
		c    float64
		want any
	}{
		{"lower edge", 0.0, "linear"},
		{"middle", 0.5, "poly"},
		{"upper edge", 1.0, "rbf"},
		{"below range clamps", -3.0, "linear"},
		{"above range clamps", 7.5, "rbf"},
		{"rounds to nearest index", 0.6, "poly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Decode(tt.c); got != tt.want {
				t.Errorf("Decode(%v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestIntegerDecode(t *testing.T) {
	tests := []struct {
		name string
		dim  *Integer
		c    float64
		want int
	}{
		{"linear low", NewInteger("n", 1, 10, Linear), 0.0, 1},
		{"linear high", NewInteger("n", 1, 10, Linear), 1.0, 10},
		{"linear mid", NewInteger("n", 1, 10, Linear), 0.5, 6},
		{"linear clamp below", NewInteger("n", 1, 10, Linear), -1.0, 1},
		{"linear clamp above", NewInteger("n", 1, 10, Linear), 2.0, 10},
		{"exponential low", NewInteger("n", 1, 1000, Exponential), 0.0, 1},
		{"exponential high", NewInteger("n", 1, 1000, Exponential), 1.0, 1000},
		{"exponential mid is geometric", NewInteger("n", 1, 10000, Exponential), 0.5, 100},
		{"degenerate range", NewInteger("n", 3, 3, Linear), 0.7, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dim.Decode(tt.c)
			if got != tt.want {
				t.Errorf("Decode(%v) = %v, want %v", tt.c, got, tt.want)
			}
			// Decode must be idempotent.
			if again := tt.dim.Decode(tt.c); again != got {
				t.Errorf("Decode(%v) not deterministic: %v then %v", tt.c, got, again)
			}
		})
	}
}

func TestIntegerDecodeStaysInRange(t *testing.T) {
	dims := []*Integer{
		NewInteger("a", 1, 7, Linear),
		NewInteger("b", 2, 512, Exponential),
		NewInteger("c", -5, 5, Linear),
	}
	for _, d := range dims {
		for c := -0.5; c <= 1.5; c += 0.01 {
			v := d.Decode(c).(int)
			if v < d.Low || v > d.High {
				t.Fatalf("%s: Decode(%v) = %d outside [%d, %d]", d.Name(), c, v, d.Low, d.High)
			}
		}
	}
}

func TestExponentialIntegerMonotonic(t *testing.T) {
	d := NewInteger("n", 1, 1000, Exponential)
	prev := d.Decode(0.0).(int)
	for c := 0.01; c <= 1.0; c += 0.01 {
		v := d.Decode(c).(int)
		if v < prev {
			t.Fatalf("Decode not monotonic: Decode(%v) = %d < previous %d", c, v, prev)
		}
		prev = v
	}
}

func TestRealDecode(t *testing.T) {
	tests := []struct {
		name string
		dim  *Real
		c    float64
		want float64
		tol  float64
	}{
		{"linear low", NewReal("lr", 0.0, 1.0, Linear), 0.0, 0.0, 0},
		{"linear high", NewReal("lr", 0.0, 1.0, Linear), 1.0, 1.0, 0},
		{"linear mid", NewReal("lr", 2.0, 4.0, Linear), 0.25, 2.5, 1e-12},
		{"exponential mid is geometric", NewReal("lr", 1e-4, 1.0, Exponential), 0.5, 1e-2, 1e-12},
		{"clamp above", NewReal("lr", 0.0, 1.0, Linear), 9.0, 1.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dim.Decode(tt.c).(float64)
			if diff := got - tt.want; diff > tt.tol || diff < -tt.tol {
				t.Errorf("Decode(%v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestDimensionValidate(t *testing.T) {
	tests := []struct {
		name    string
		dim     Dimension
		wantErr bool
	}{
		{"valid categorical", NewCategorical("k", "a", "b"), false},
		{"empty categorical", NewCategorical("k"), true},
		{"valid integer", NewInteger("n", 1, 10, Linear), false},
		{"inverted integer bounds", NewInteger("n", 10, 1, Linear), true},
		{"exponential integer with low zero", NewInteger("n", 0, 10, Exponential), true},
		{"exponential integer with negative low", NewInteger("n", -2, 10, Exponential), true},
		{"unknown integer scale", NewInteger("n", 1, 10, Scale("log")), true},
		{"valid real", NewReal("x", 0.1, 2.0, Exponential), false},
		{"exponential real with low zero", NewReal("x", 0.0, 2.0, Exponential), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dim.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpaceValidate(t *testing.T) {
	if err := New().Validate(); err == nil {
		t.Error("empty space should not validate")
	}
	dup := New(NewInteger("n", 1, 5, Linear), NewReal("n", 0, 1, Linear))
	if err := dup.Validate(); err == nil {
		t.Error("duplicate dimension names should not validate")
	}
	ok := New(NewInteger("n", 1, 5, Linear), NewReal("lr", 0, 1, Linear))
	if err := ok.Validate(); err != nil {
		t.Errorf("valid space failed validation: %v", err)
	}
}

func TestSpaceDecode(t *testing.T) {
	s := New(
		NewInteger("depth", 1, 10, Linear),
		NewCategorical("metric", "euclidean", "manhattan"),
	)
	params := s.Decode([]float64{1.0, 0.0})
	if params["depth"] != 10 {
		t.Errorf("depth = %v, want 10", params["depth"])
	}
	if params["metric"] != "euclidean" {
		t.Errorf("metric = %v, want euclidean", params["metric"])
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		pos  []float64
		want []int
	}{
		{"mixed", []float64{0.9, 0.1, 0.5}, []int{0, 2}},
		{"threshold is inclusive", []float64{0.5, 0.49}, []int{0}},
		{"all included", []float64{0.8, 0.9}, []int{0, 1}},
		{"empty mask force-includes highest", []float64{0.1, 0.4, 0.2}, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mask(tt.pos)
			if len(got) != len(tt.want) {
				t.Fatalf("Mask(%v) = %v, want %v", tt.pos, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Mask(%v) = %v, want %v", tt.pos, got, tt.want)
				}
			}
		})
	}
}
