package graph

import (
	"context"
	"fmt"

	"mercury/backend/internal/social"
)

// ============================================================================
// Search Operations
// ============================================================================

// ListUsers returns one window of the users matching the filter, by id
func (r *Repository) ListUsers(ctx context.Context, filter social.UserFilter, skip, limit int64) ([]social.User, error) {
	query := `
		MATCH (u:User)
		WHERE ($country = "" OR u.country = $country) AND u.id <> $excludeId
		WITH u
		ORDER BY u.id
		SKIP $skip
		LIMIT $limit
		RETURN u
	`

	records, err := r.collect(ctx, query, map[string]any{
		"country":   filter.Country,
		"excludeId": filter.ExcludeID,
		"skip":      skip,
		"limit":     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return usersFromRecords(records, "u")
}

// CountUsers counts the users matching the filter
func (r *Repository) CountUsers(ctx context.Context, filter social.UserFilter) (int64, error) {
	query := `
		MATCH (u:User)
		WHERE ($country = "" OR u.country = $country) AND u.id <> $excludeId
		RETURN count(u) AS total
	`

	total, err := r.count(ctx, query, map[string]any{
		"country":   filter.Country,
		"excludeId": filter.ExcludeID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

// NearestUsers asks the vector index for the k users whose name embedding is
// closest to vector. Scores are the index's cosine similarity in [0, 1].
func (r *Repository) NearestUsers(ctx context.Context, vector []float64, k int64) ([]social.ScoredUser, error) {
	query := `
		CALL db.index.vector.queryNodes($index, $k, $vector)
		YIELD node, score
		RETURN node, score
		ORDER BY score DESC, node.id
	`

	records, err := r.collect(ctx, query, map[string]any{
		"index":  r.indexName,
		"k":      k,
		"vector": vector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index %s: %w", r.indexName, err)
	}

	out := make([]social.ScoredUser, 0, len(records))
	for _, record := range records {
		u, err := userFromRecord(record, "node")
		if err != nil {
			return nil, err
		}
		out = append(out, social.ScoredUser{
			User:  u,
			Score: getFloat64FromRecord(record, "score"),
		})
	}
	return out, nil
}
