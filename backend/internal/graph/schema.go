package graph

import (
	"context"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"mercury/backend/internal/constants"
)

// SchemaVersion identifies the schema EnsureSchema creates
const SchemaVersion = "social_graph_v1"

// Index names are interpolated into DDL, so they are restricted to a safe set
var indexNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Migration is one schema statement
type Migration struct {
	Name  string
	Query string
}

// Migrations lists the schema statements for a vector index of the given
// dimensions
func (r *Repository) Migrations(dimensions int) ([]Migration, error) {
	if !indexNamePattern.MatchString(r.indexName) {
		return nil, fmt.Errorf("invalid vector index name %q", r.indexName)
	}
	if dimensions < 1 {
		return nil, fmt.Errorf("invalid vector dimensions %d", dimensions)
	}

	return []Migration{
		{
			Name:  "user id uniqueness",
			Query: `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
		},
		{
			Name:  "mail lock uniqueness",
			Query: `CREATE CONSTRAINT mail_key_unique IF NOT EXISTS FOR (k:MailKey) REQUIRE k.address IS UNIQUE`,
		},
		{
			Name:  "user mail lookup",
			Query: `CREATE INDEX user_mail IF NOT EXISTS FOR (u:User) ON (u.mail)`,
		},
		{
			Name:  "user country filter",
			Query: `CREATE INDEX user_country IF NOT EXISTS FOR (u:User) ON (u.country)`,
		},
		{
			Name: "user name vector index",
			Query: fmt.Sprintf("CREATE VECTOR INDEX `%s` IF NOT EXISTS FOR (u:%s) ON (u.%s) "+
				"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
				r.indexName, constants.LabelUser, constants.NameEmbeddingProperty, dimensions),
		},
	}, nil
}

// EnsureSchema creates the constraints and indexes the store relies on.
// Every statement is idempotent.
func (r *Repository) EnsureSchema(ctx context.Context, dimensions int) error {
	migrations, err := r.Migrations(dimensions)
	if err != nil {
		return err
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for i, m := range migrations {
		r.logger.Info("Running migration",
			zap.Int("step", i+1),
			zap.Int("total", len(migrations)),
			zap.String("name", m.Name),
		)
		result, err := session.Run(ctx, m.Query, nil)
		if err != nil {
			return fmt.Errorf("migration %q failed: %w", m.Name, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("migration %q failed: %w", m.Name, err)
		}
	}
	return nil
}

// SchemaApplied reports whether MarkSchemaApplied ran for SchemaVersion
func (r *Repository) SchemaApplied(ctx context.Context) (bool, error) {
	records, err := r.collect(ctx, `
		MATCH (m:Migration {version: $version})
		RETURN m.applied_at AS applied_at
	`, map[string]any{"version": SchemaVersion})
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return len(records) > 0, nil
}

// MarkSchemaApplied records SchemaVersion in the graph
func (r *Repository) MarkSchemaApplied(ctx context.Context) error {
	return r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		return exec(ctx, tx, `
			MERGE (m:Migration {version: $version})
			SET m.applied_at = datetime(),
			    m.service = $service,
			    m.vector_index = $index
		`, map[string]any{
			"version": SchemaVersion,
			"service": constants.ServiceName,
			"index":   r.indexName,
		})
	})
}
