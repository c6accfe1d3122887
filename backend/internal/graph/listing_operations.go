package graph

import (
	"context"
	"fmt"

	"mercury/backend/internal/social"
)

// ============================================================================
// Relation View Operations
// ============================================================================

// viewPatterns binds every related user of a view to r
var viewPatterns = map[social.View]struct {
	match string
	order string
}{
	social.ViewFriends: {
		match: `MATCH (:User {id: $userId})-[:IS_FRIENDS_WITH]-(r:User)`,
		order: `r.id`,
	},
	social.ViewFriendRequests: {
		match: `MATCH (:User {id: $userId})<-[:SENT_INVITE_TO]-(r:User)`,
		order: `r.last_name, r.first_name, r.id`,
	},
	social.ViewFriendSuggestions: {
		match: `MATCH (u:User {id: $userId})-[:IS_FRIENDS_WITH]-(:User)-[:IS_FRIENDS_WITH]-(r:User)
		WHERE r.id <> $userId AND NOT (u)-[:IS_FRIENDS_WITH]-(r)`,
		order: `r.id`,
	},
}

func viewPattern(view social.View) (string, string, error) {
	p, ok := viewPatterns[view]
	if !ok {
		return "", "", fmt.Errorf("unknown view %d", view)
	}
	return p.match, p.order, nil
}

// ListRelated returns one window of the distinct users in a view
func (r *Repository) ListRelated(ctx context.Context, view social.View, userID string, skip, limit int64) ([]social.User, error) {
	match, order, err := viewPattern(view)
	if err != nil {
		return nil, err
	}

	query := match + `
		WITH DISTINCT r
		ORDER BY ` + order + `
		SKIP $skip
		LIMIT $limit
		RETURN r
	`

	records, err := r.collect(ctx, query, map[string]any{
		"userId": userID,
		"skip":   skip,
		"limit":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", view, err)
	}
	return usersFromRecords(records, "r")
}

// CountRelated counts the distinct users in a view
func (r *Repository) CountRelated(ctx context.Context, view social.View, userID string) (int64, error) {
	match, _, err := viewPattern(view)
	if err != nil {
		return 0, err
	}

	total, err := r.count(ctx, match+`
		RETURN count(DISTINCT r) AS total
	`, map[string]any{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", view, err)
	}
	return total, nil
}
