package matcher

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{0.1, 0.2, 0.3}, []float32{0.1, 0.2, 0.3}, 0},
		{"3-4-5", []float32{0, 0}, []float32{0.3, 0.4}, 0.5},
		{"unit", []float32{0, 0}, []float32{0.6, 0.8}, 1.0},
		{"single", []float32{-1}, []float32{2}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distance(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		a := make([]float32, 128)
		b := make([]float32, 128)
		for j := range a {
			a[j] = r.Float32()*2 - 1
			b[j] = r.Float32()*2 - 1
		}
		ab, err := Distance(a, b)
		require.NoError(t, err)
		ba, err := Distance(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
		assert.Greater(t, ab, 0.0)
	}
}

func TestDistanceMismatch(t *testing.T) {
	_, err := Distance([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Distance(nil, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDecide(t *testing.T) {
	p := DefaultPolicy()

	d := p.Decide(0)
	assert.True(t, d.Match)
	assert.Equal(t, 100.0, d.SimilarityPercent)

	// threshold is exclusive
	assert.False(t, p.Decide(0.55).Match)
	assert.True(t, p.Decide(math.Nextafter(0.55, 0)).Match)
	assert.True(t, p.Decide(0.549999).Match)

	d = p.Decide(0.5)
	assert.True(t, d.Match)
	assert.InDelta(t, 50.0, d.SimilarityPercent, 1e-9)

	d = p.Decide(1.0)
	assert.False(t, d.Match)
	assert.Equal(t, 0.0, d.SimilarityPercent)

	assert.Equal(t, 0.0, p.Decide(7.5).SimilarityPercent)
}

func TestCompare(t *testing.T) {
	p := DefaultPolicy()

	d, err := p.Compare([]float32{0, 0}, []float32{0.3, 0.4})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, d.Distance, 1e-6)
	assert.True(t, d.Match)
	assert.InDelta(t, 50.0, d.SimilarityPercent, 1e-4)

	d, err = p.Compare([]float32{0, 0}, []float32{0.6, 0.8})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d.Distance, 1e-6)
	assert.False(t, d.Match)
	assert.Equal(t, 0.0, d.SimilarityPercent)

	_, err = p.Compare([]float32{0}, []float32{0, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.NoError(t, Policy{Threshold: 0.6, Scale: 50}.Validate())
	assert.Error(t, Policy{Threshold: 0, Scale: 100}.Validate())
	assert.Error(t, Policy{Threshold: 0.55, Scale: -1}.Validate())
	assert.Error(t, Policy{Threshold: math.NaN(), Scale: 100}.Validate())
	assert.Error(t, Policy{Threshold: math.Inf(1), Scale: 100}.Validate())
}
