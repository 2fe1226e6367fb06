package indicator

import "testing"

func TestRounding(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) float64
		in   float64
		want float64
	}{
		{"price", RoundPrice, 123.456, 123.46},
		{"price half away from zero", RoundPrice, 1.005, 1.01},
		{"price negative", RoundPrice, -2.345, -2.35},
		{"factor", RoundFactor, 0.4951, 0.5},
		{"ratio", RoundRatio, 0.123456, 0.1235},
		{"oscillator", RoundOscillator, 49.95, 50},
		{"oscillator exact", RoundOscillator, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
