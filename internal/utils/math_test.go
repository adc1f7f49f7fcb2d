package utils

import (
	"math"
	"testing"
)

// TestRound tests the floating-point rounding function
func TestRound(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		// Basic rounding
		{
			name:  "round down",
			input: 1.234,
			want:  1.23,
		},
		{
			name:  "round up",
			input: 1.236,
			want:  1.24,
		},
		{
			name:  "exact two decimals",
			input: 1.23,
			want:  1.23,
		},
		{
			name:  "no decimals",
			input: 1.0,
			want:  1.0,
		},
		{
			name:  "zero",
			input: 0.0,
			want:  0.0,
		},

		// Edge cases
		{
			name:  "negative round down",
			input: -1.234,
			want:  -1.23,
		},
		{
			name:  "boundary .5",
			input: 1.235,
			want:  1.24, // Should round up
		},
		{
			name:  "very small positive",
			input: 0.001,
			want:  0.0,
		},

		// Realistic report values
		{
			name:  "success rate",
			input: 66.66666666,
			want:  66.67,
		},
		{
			name:  "elapsed seconds",
			input: 4.2817,
			want:  4.28,
		},
		{
			name:  "just under 100",
			input: 99.999,
			want:  100.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round(tt.input)

			// Use a small epsilon for floating-point comparison
			epsilon := 0.001
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Round(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestPercent tests percentage calculation for batch summaries
func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		part  int
		whole int
		want  float64
	}{
		{
			name:  "all succeeded",
			part:  8,
			whole: 8,
			want:  100.0,
		},
		{
			name:  "none succeeded",
			part:  0,
			whole: 8,
			want:  0.0,
		},
		{
			name:  "two thirds",
			part:  2,
			whole: 3,
			want:  66.67,
		},
		{
			name:  "empty batch",
			part:  0,
			whole: 0,
			want:  0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(tt.part, tt.whole)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.whole, got, tt.want)
			}
		})
	}
}

// BenchmarkRound benchmarks the rounding function
func BenchmarkRound(b *testing.B) {
	values := []float64{
		1.23456789,
		99.999999,
		0.001,
		1234567.89123,
		-45.678901,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Round(values[i%len(values)])
	}
}
