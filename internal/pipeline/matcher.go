package pipeline

import (
	"context"
	"fmt"

	"github.com/jaliltomas/preciosbot/internal/db"
)

// matchCatalog runs the two stage catalog match: nearest neighbour search over
// the query embedding, then identity confirmation by the language model.
// Identity is never asked about a candidate below the match threshold. A nil
// candidate with nil error means no catalog entry matched.
func (s *Service) matchCatalog(ctx context.Context, name string) (*db.MatchCandidate, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidate, err := s.store.FindNearestProduct(ctx, embedding, s.matchThreshold)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find nearest product: %w", err)
	}
	if candidate.Similarity < s.matchThreshold {
		return nil, nil
	}

	same, err := s.llm.ConfirmIdentity(ctx, name, candidate.NormalizedName)
	if err != nil {
		return nil, fmt.Errorf("confirm identity: %w", err)
	}
	if !same {
		return nil, nil
	}
	return candidate, nil
}
