package db

import (
	"math"
	"strings"
	"testing"
)

func fullVector(fill float64) []float64 {
	v := make([]float64, EmbeddingDimensions)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestVectorLiteral(t *testing.T) {
	t.Parallel()

	v := fullVector(0.5)
	v[0] = -1.25
	v[EmbeddingDimensions-1] = 3

	literal, err := VectorLiteral(v)
	if err != nil {
		t.Fatalf("VectorLiteral() error = %v", err)
	}
	if !strings.HasPrefix(literal, "[-1.25,0.5,") {
		t.Fatalf("unexpected literal prefix: %s", literal[:20])
	}
	if !strings.HasSuffix(literal, ",3]") {
		t.Fatalf("unexpected literal suffix: %s", literal[len(literal)-10:])
	}
	if got := strings.Count(literal, ","); got != EmbeddingDimensions-1 {
		t.Fatalf("expected %d separators, got %d", EmbeddingDimensions-1, got)
	}
}

func TestVectorLiteralRejectsWrongDimensions(t *testing.T) {
	t.Parallel()

	if _, err := VectorLiteral([]float64{1, 2, 3}); err == nil {
		t.Fatal("expected error for short vector")
	}
	if _, err := VectorLiteral(nil); err == nil {
		t.Fatal("expected error for nil vector")
	}
}

func TestVectorLiteralRejectsNonFiniteValues(t *testing.T) {
	t.Parallel()

	v := fullVector(0.1)
	v[10] = math.NaN()
	if _, err := VectorLiteral(v); err == nil {
		t.Fatal("expected error for NaN value")
	}

	v[10] = math.Inf(1)
	if _, err := VectorLiteral(v); err == nil {
		t.Fatal("expected error for infinite value")
	}
}
