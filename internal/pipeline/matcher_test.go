package pipeline

import (
	"context"
	"testing"

	"github.com/jaliltomas/preciosbot/internal/db"
)

func TestMatchCatalogSkipsConfirmationBelowThreshold(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.nearest = &db.MatchCandidate{
		ProductID:      42,
		NormalizedName: "iPhone 13 128GB Blue",
		Similarity:     0.60,
	}
	llm := &fakeIntel{confirm: true}
	service := newTestService(store, llm, &fakeEmbedder{})

	candidate, err := service.matchCatalog(context.Background(), "iphone 13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidate != nil {
		t.Fatalf("candidate below threshold must not match")
	}
	if llm.confirmCalls != 0 {
		t.Fatalf("identity must not be asked below the threshold, got %d calls", llm.confirmCalls)
	}
}

func TestMatchCatalogNoCandidate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeIntel{confirm: true}
	service := newTestService(store, llm, &fakeEmbedder{})

	candidate, err := service.matchCatalog(context.Background(), "iphone 13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidate != nil {
		t.Fatalf("expected no candidate")
	}
	if llm.confirmCalls != 0 {
		t.Fatalf("identity must not be asked without a candidate")
	}
}

func TestMatchCatalogRejectedByIdentity(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.nearest = &db.MatchCandidate{
		ProductID:      42,
		NormalizedName: "iPhone 14 128GB",
		Similarity:     0.80,
	}
	llm := &fakeIntel{confirm: false}
	service := newTestService(store, llm, &fakeEmbedder{})

	candidate, err := service.matchCatalog(context.Background(), "iphone 13 128")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidate != nil {
		t.Fatalf("rejected identity must not match")
	}
	if llm.confirmCalls != 1 {
		t.Fatalf("identity should be asked exactly once, got %d calls", llm.confirmCalls)
	}
}

func TestMatchCatalogConfirmedMatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.nearest = &db.MatchCandidate{
		ProductID:      42,
		NormalizedName: "iPhone 13 128GB Blue",
		Similarity:     0.92,
	}
	llm := &fakeIntel{confirm: true}
	embedder := &fakeEmbedder{}
	service := newTestService(store, llm, embedder)

	candidate, err := service.matchCatalog(context.Background(), "iphone 13 128")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidate == nil || candidate.ProductID != 42 {
		t.Fatalf("expected confirmed candidate, got %#v", candidate)
	}
	if embedder.queryCalls != 1 {
		t.Fatalf("expected one query embedding, got %d", embedder.queryCalls)
	}
}
