package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"mercury/backend/internal/social"
)

// ============================================================================
// User-to-User Relationship Operations
// ============================================================================

// AreFriends reports whether a friendship edge joins the two users
func (r *Repository) AreFriends(ctx context.Context, firstID, secondID string) (bool, error) {
	query := `
		OPTIONAL MATCH (:User {id: $first})-[f:IS_FRIENDS_WITH]-(:User {id: $second})
		RETURN count(f) > 0 AS found
	`

	records, err := r.collect(ctx, query, map[string]any{
		"first":  firstID,
		"second": secondID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return len(records) > 0 && getBoolFromRecord(records[0], "found"), nil
}

// InPairTx runs fn inside one managed write transaction scoped to the pair.
// The driver may rerun fn when the transaction hits a transient error such
// as a deadlock.
func (r *Repository) InPairTx(ctx context.Context, firstID, secondID string, fn func(tx social.PairTx) error) error {
	return r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		return fn(&pairTx{tx: tx, first: firstID, second: secondID})
	})
}

type pairTx struct {
	tx            neo4j.ManagedTransaction
	first, second string
}

// Lock takes a write lock on each existing user node, always in id order so
// that two transactions on the same pair cannot deadlock each other.
func (p *pairTx) Lock(ctx context.Context) (bool, bool, error) {
	ids := []string{p.first, p.second}
	sort.Strings(ids)
	if ids[0] == ids[1] {
		ids = ids[:1]
	}

	record, err := single(ctx, p.tx, `
		UNWIND $ids AS id
		OPTIONAL MATCH (u:User {id: id})
		FOREACH (n IN CASE WHEN u IS NULL THEN [] ELSE [u] END |
			SET n._lock = true
			REMOVE n._lock)
		RETURN collect(u.id) AS locked
	`, map[string]any{"ids": ids})
	if err != nil {
		return false, false, fmt.Errorf("failed to lock users: %w", err)
	}

	locked := map[string]bool{}
	if val, ok := record.Get("locked"); ok {
		if list, ok := val.([]any); ok {
			for _, v := range list {
				if id, ok := v.(string); ok {
					locked[id] = true
				}
			}
		}
	}
	return locked[p.first], locked[p.second], nil
}

func (p *pairTx) AreFriends(ctx context.Context) (bool, error) {
	record, err := single(ctx, p.tx, `
		OPTIONAL MATCH (:User {id: $first})-[f:IS_FRIENDS_WITH]-(:User {id: $second})
		RETURN count(f) > 0 AS found
	`, map[string]any{"first": p.first, "second": p.second})
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return getBoolFromRecord(record, "found"), nil
}

func (p *pairTx) HasInvite(ctx context.Context, fromID, toID string) (bool, error) {
	record, err := single(ctx, p.tx, `
		OPTIONAL MATCH (:User {id: $from})-[i:SENT_INVITE_TO]->(:User {id: $to})
		RETURN count(i) > 0 AS found
	`, map[string]any{"from": fromID, "to": toID})
	if err != nil {
		return false, fmt.Errorf("failed to check invite: %w", err)
	}
	return getBoolFromRecord(record, "found"), nil
}

func (p *pairTx) CreateInvite(ctx context.Context, fromID, toID string) error {
	err := exec(ctx, p.tx, `
		MATCH (a:User {id: $from}), (b:User {id: $to})
		MERGE (a)-[:SENT_INVITE_TO]->(b)
	`, map[string]any{"from": fromID, "to": toID})
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (p *pairTx) AcceptInvite(ctx context.Context, fromID, toID string) (bool, error) {
	invited, err := p.HasInvite(ctx, fromID, toID)
	if err != nil || !invited {
		return false, err
	}
	if _, err := p.DeleteInvites(ctx); err != nil {
		return false, err
	}

	err = exec(ctx, p.tx, `
		MATCH (a:User {id: $from}), (b:User {id: $to})
		MERGE (a)-[:IS_FRIENDS_WITH]-(b)
	`, map[string]any{"from": fromID, "to": toID})
	if err != nil {
		return false, fmt.Errorf("failed to create friendship: %w", err)
	}
	return true, nil
}

func (p *pairTx) DeleteInvites(ctx context.Context) (bool, error) {
	record, err := single(ctx, p.tx, `
		OPTIONAL MATCH (:User {id: $first})-[i:SENT_INVITE_TO]-(:User {id: $second})
		DELETE i
		RETURN count(i) AS total
	`, map[string]any{"first": p.first, "second": p.second})
	if err != nil {
		return false, fmt.Errorf("failed to delete invites: %w", err)
	}
	return getInt64FromRecord(record, "total") > 0, nil
}

func (p *pairTx) DeleteFriendship(ctx context.Context) (bool, error) {
	record, err := single(ctx, p.tx, `
		OPTIONAL MATCH (:User {id: $first})-[f:IS_FRIENDS_WITH]-(:User {id: $second})
		DELETE f
		RETURN count(f) AS total
	`, map[string]any{"first": p.first, "second": p.second})
	if err != nil {
		return false, fmt.Errorf("failed to delete friendship: %w", err)
	}
	return getInt64FromRecord(record, "total") > 0, nil
}

// ============================================================================
// Bulk Import
// ============================================================================

// ImportFriendship merges a friendship edge and removes any invite between
// the pair in the same statement. It is meant for seeding.
func (r *Repository) ImportFriendship(ctx context.Context, firstID, secondID string) error {
	return r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		return exec(ctx, tx, `
			MATCH (a:User {id: $first}), (b:User {id: $second})
			OPTIONAL MATCH (a)-[inv:SENT_INVITE_TO]-(b)
			DELETE inv
			WITH DISTINCT a, b
			MERGE (a)-[:IS_FRIENDS_WITH]-(b)
		`, map[string]any{"first": firstID, "second": secondID})
	})
}

// ImportInvite merges an invite edge unless the pair is already friends or
// the reverse invite exists. It reports whether the invite is now stored.
func (r *Repository) ImportInvite(ctx context.Context, fromID, toID string) (bool, error) {
	var stored bool
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		record, err := single(ctx, tx, `
			MATCH (a:User {id: $from}), (b:User {id: $to})
			WHERE NOT (a)-[:IS_FRIENDS_WITH]-(b)
			  AND NOT (b)-[:SENT_INVITE_TO]->(a)
			MERGE (a)-[:SENT_INVITE_TO]->(b)
			RETURN count(*) AS total
		`, map[string]any{"from": fromID, "to": toID})
		if err != nil {
			return err
		}
		stored = getInt64FromRecord(record, "total") > 0
		return nil
	})
	return stored, err
}
