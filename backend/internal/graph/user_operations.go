package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"mercury/backend/internal/social"
)

// ============================================================================
// User Operations
// ============================================================================

// UsersExist reports, per id, whether a user node with that id exists
func (r *Repository) UsersExist(ctx context.Context, ids ...string) (map[string]bool, error) {
	query := `
		UNWIND $ids AS id
		OPTIONAL MATCH (u:User {id: id})
		RETURN id, u IS NOT NULL AS found
	`

	records, err := r.collect(ctx, query, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("failed to check users: %w", err)
	}

	exists := make(map[string]bool, len(ids))
	for _, record := range records {
		if getBoolFromRecord(record, "found") {
			exists[getStringFromRecord(record, "id")] = true
		}
	}
	return exists, nil
}

// GetUser loads a user by id; it returns nil when the user does not exist
func (r *Repository) GetUser(ctx context.Context, id string) (*social.User, error) {
	query := `
		MATCH (u:User {id: $id})
		RETURN u
	`

	records, err := r.collect(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	u, err := userFromRecord(records[0], "u")
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByMail looks a user up by mail. With an issuer only external
// users of that issuer match.
func (r *Repository) FindUserByMail(ctx context.Context, mail, issuer string) (*social.User, error) {
	query := `
		MATCH (u:User {mail: $mail})
		WHERE $issuer = "" OR u.issuer = $issuer
		RETURN u
		LIMIT 1
	`

	records, err := r.collect(ctx, query, map[string]any{
		"mail":   mail,
		"issuer": issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find user by mail: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	u, err := userFromRecord(records[0], "u")
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser stores a new user node. The mail lock node serializes
// registrations of one address, and the mail check is repeated under it so
// two concurrent registrations cannot both pass.
func (r *Repository) CreateUser(ctx context.Context, user social.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	issuer := ""
	if ext, ok := user.Identity.(social.ExternalIdentity); ok {
		issuer = ext.Issuer
	}

	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		record, err := single(ctx, tx, `
			MERGE (k:MailKey {address: $mail})
			SET k._lock = true
			REMOVE k._lock
			WITH k
			OPTIONAL MATCH (u:User {mail: $mail})
			WHERE $issuer = "" OR u.issuer = $issuer
			RETURN count(u) AS total
		`, map[string]any{"mail": user.Mail, "issuer": issuer})
		if err != nil {
			return err
		}
		if getInt64FromRecord(record, "total") > 0 {
			return social.ErrMailTaken
		}
		return exec(ctx, tx, `CREATE (u:User $props)`, map[string]any{
			"props": userProps(user),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("User node created", zap.String("user_id", user.ID))
	return nil
}

// ReplaceUser overwrites every property of an existing user node, so a
// switch of identity variant drops the old variant's keys.
func (r *Repository) ReplaceUser(ctx context.Context, user social.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		return exec(ctx, tx, `
			MATCH (u:User {id: $id})
			SET u = $props
		`, map[string]any{
			"id":    user.ID,
			"props": userProps(user),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to replace user: %w", err)
	}
	return nil
}

// DeleteUser removes a user node together with all of its edges
func (r *Repository) DeleteUser(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		record, err := single(ctx, tx, `
			OPTIONAL MATCH (u:User {id: $id})
			DETACH DELETE u
			RETURN count(u) AS total
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		deleted = getInt64FromRecord(record, "total") > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	if deleted {
		r.logger.Info("User node deleted", zap.String("user_id", id))
	}
	return deleted, nil
}
