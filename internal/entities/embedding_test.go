package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeVector(fill func(i int) float32) Vector {
	v := make(Vector, EmbeddingDimensions)
	for i := range v {
		v[i] = fill(i)
	}
	return v
}

func Test_CosineSimilarity_IdenticalVectorsScoreOne(t *testing.T) {
	v := makeVector(func(i int) float32 { return float32(i%7) + 1 })
	assert.InDelta(t, 1.0, v.CosineSimilarity(v), 1e-9)
}

func Test_CosineSimilarity_OppositeVectorsScoreMinusOne(t *testing.T) {
	v := makeVector(func(i int) float32 { return float32(i%5) + 1 })
	opposite := makeVector(func(i int) float32 { return -(float32(i%5) + 1) })
	assert.InDelta(t, -1.0, v.CosineSimilarity(opposite), 1e-9)
}

func Test_CosineSimilarity_OrthogonalVectorsScoreZero(t *testing.T) {
	a := makeVector(func(i int) float32 {
		if i%2 == 0 {
			return 1
		}
		return 0
	})
	b := makeVector(func(i int) float32 {
		if i%2 == 1 {
			return 1
		}
		return 0
	})
	assert.InDelta(t, 0.0, a.CosineSimilarity(b), 1e-9)
}

func Test_CosineSimilarity_ZeroNormVectorScoresExactlyZero(t *testing.T) {
	zero := make(Vector, EmbeddingDimensions)
	v := makeVector(func(i int) float32 { return 1 })

	assert.Equal(t, 0.0, zero.CosineSimilarity(v))
	assert.Equal(t, 0.0, v.CosineSimilarity(zero))
	assert.Equal(t, 0.0, zero.CosineSimilarity(zero))
}

func Test_Vector_IsValidRequiresExactDimensions(t *testing.T) {
	assert.True(t, make(Vector, EmbeddingDimensions).IsValid())
	assert.False(t, make(Vector, EmbeddingDimensions-1).IsValid())
	assert.False(t, make(Vector, EmbeddingDimensions+1).IsValid())
	assert.False(t, Vector(nil).IsValid())
}

func Test_Vector_ScanTreatsCorruptedColumnAsAbsent(t *testing.T) {
	var v Vector
	err := v.Scan("not json at all")
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func Test_Vector_RoundTripsThroughTextColumn(t *testing.T) {
	original := Vector{0.5, -0.25, 1}

	value, err := original.Value()
	assert.NoError(t, err)

	var scanned Vector
	assert.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)
}
