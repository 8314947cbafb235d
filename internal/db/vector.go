package db

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EmbeddingDimensions is the width of the vector column on catalog.products_unique.
const EmbeddingDimensions = 768

// VectorLiteral renders an embedding as a pgvector input literal.
func VectorLiteral(values []float64) (string, error) {
	if len(values) != EmbeddingDimensions {
		return "", fmt.Errorf("expected %d dimensions, got %d", EmbeddingDimensions, len(values))
	}

	var builder strings.Builder
	builder.Grow(len(values) * 8)
	builder.WriteByte('[')
	for i, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return "", fmt.Errorf("vector has non-finite value at index %d", i)
		}
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}
