package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL2Norm(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want []float32
	}{
		{"3-4-5 triangle", []float32{3, 4}, []float32{0.6, 0.8}},
		{"already unit", []float32{0, 1, 0}, []float32{0, 1, 0}},
		{"negative components", []float32{-2, 0}, []float32{-1, 0}},
		{"zero vector unchanged", []float32{0, 0, 0}, []float32{0, 0, 0}},
		{"empty", []float32{}, []float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := L2Norm(tt.in)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}
}

func TestL2Norm_Idempotent(t *testing.T) {
	v := []float32{0.3, -1.7, 2.2, 9.1, 0.0001}
	once := L2Norm(v)
	twice := L2Norm(once)

	for i := range once {
		assert.InDelta(t, once[i], twice[i], 1e-6)
	}

	var sum float64
	for _, x := range once {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestL2Norm_DoesNotMutateInput(t *testing.T) {
	v := []float32{3, 4}
	_ = L2Norm(v)
	assert.Equal(t, []float32{3, 4}, v)
}
