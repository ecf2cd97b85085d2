package retrieval

import (
	"context"
	"fmt"

	"github.com/dgallion1/guidekb/internal/model"
	"github.com/dgallion1/guidekb/internal/segment"
)

const neighborsPerSeed = 3
const termsPerSeed = 3

// ExpandGraph walks outward from the seed chunks within one document and
// returns up to budget additional chunk ids, never including a seed.
// Sources are consulted in strict priority order: positional neighbors in
// the seed's section first, then chunks sharing entity mentions, then
// chunks linked through recommendations.
func (s *Service) ExpandGraph(ctx context.Context, docID string, seedIDs []string, budget int) ([]string, error) {
	if budget <= 0 || len(seedIDs) == 0 {
		return nil, nil
	}
	seeds, err := s.store.FetchChunksByIDs(ctx, docID, seedIDs)
	if err != nil {
		return nil, fmt.Errorf("expand: fetch seeds: %w", err)
	}

	isSeed := make(map[string]bool, len(seedIDs))
	for _, id := range seedIDs {
		isSeed[id] = true
	}
	seen := make(map[string]bool)
	var expanded []string
	remaining := budget

	take := func(records []model.ChunkRecord) {
		for _, r := range records {
			if remaining <= 0 {
				return
			}
			if isSeed[r.ChunkID] || seen[r.ChunkID] {
				continue
			}
			seen[r.ChunkID] = true
			expanded = append(expanded, r.ChunkID)
			remaining--
		}
	}

	for _, seed := range seeds {
		if remaining <= 0 {
			break
		}
		limit := neighborsPerSeed
		if remaining < limit {
			limit = remaining
		}
		neighbors, err := s.store.FetchSectionNeighbors(ctx, docID, seed.SectionPath, seed.Order, limit)
		if err != nil {
			return nil, fmt.Errorf("expand: section neighbors: %w", err)
		}
		take(neighbors)
	}

	if remaining > 0 {
		var entityTerms []string
		for _, seed := range seeds {
			terms := segment.ExpansionTerms(seed.Text)
			if len(terms) > termsPerSeed {
				terms = terms[:termsPerSeed]
			}
			entityTerms = append(entityTerms, terms...)
		}
		if len(entityTerms) > 0 {
			byEntity, err := s.store.FetchChunksByEntityMentions(ctx, docID, entityTerms, remaining)
			if err != nil {
				return nil, fmt.Errorf("expand: entity mentions: %w", err)
			}
			take(byEntity)
		}
	}

	if remaining > 0 {
		recLinked, err := s.store.FetchRecommendationLinked(ctx, docID, seedIDs, remaining)
		if err != nil {
			return nil, fmt.Errorf("expand: recommendation links: %w", err)
		}
		take(recLinked)
	}

	return expanded, nil
}
