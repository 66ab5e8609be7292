package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// EmbeddingDimensions is the only vector length the system accepts.
// Vectors of any other length are treated as absent.
const EmbeddingDimensions = 768

// Vector is a text embedding. It is a value type: once produced it is
// copied into whichever record holds it and never mutated in place.
type Vector []float32

func (v Vector) IsValid() bool {
	return len(v) == EmbeddingDimensions
}

// CosineSimilarity returns the normalized dot product of the two vectors.
// It is exactly 0.0 when either vector has zero norm.
func (v Vector) CosineSimilarity(other Vector) float64 {
	var dot, normA, normB float64
	n := len(v)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		a, b := float64(v[i]), float64(other[i])
		dot += a * b
		normA += a * a
		normB += b * b
	}
	for i := n; i < len(v); i++ {
		normA += float64(v[i]) * float64(v[i])
	}
	for i := n; i < len(other); i++ {
		normB += float64(other[i]) * float64(other[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Value serializes the vector as a JSON array for storage in a text column.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}

	var data []byte
	switch raw := value.(type) {
	case []byte:
		data = raw
	case string:
		data = []byte(raw)
	default:
		return fmt.Errorf("cannot scan %T into Vector", value)
	}

	if len(data) == 0 {
		*v = nil
		return nil
	}

	var parsed []float32
	if err := json.Unmarshal(data, &parsed); err != nil {
		//a corrupted column is treated as an absent embedding, not an error
		*v = nil
		return nil
	}
	*v = parsed
	return nil
}
