package graph

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mercury/backend/internal/social"
)

// The tests below require a running Neo4j 5 instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	driver, err := createTestDriver()
	if err != nil {
		t.Skipf("Neo4j not reachable: %v", err)
	}
	t.Cleanup(func() { driver.Close(context.Background()) })

	prefix := fmt.Sprintf("test-%d-", time.Now().UnixNano())
	t.Cleanup(func() {
		ctx := context.Background()
		session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)
		_, _ = session.Run(ctx, "MATCH (u:User) WHERE u.id STARTS WITH $prefix DETACH DELETE u", map[string]any{"prefix": prefix})
		_, _ = session.Run(ctx, "MATCH (k:MailKey) WHERE k.address STARTS WITH $prefix DELETE k", map[string]any{"prefix": prefix})
	})

	return NewRepository(driver), prefix
}

func createTestUsers(t *testing.T, repo *Repository, prefix string, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id := prefix + name
		require.NoError(t, repo.CreateUser(context.Background(), social.User{
			ID:        id,
			FirstName: name,
			LastName:  name,
			Country:   prefix + "land",
			Mail:      id + "@example.com",
			Identity:  social.NativeIdentity{PasswordHash: "hash"},
		}))
		ids = append(ids, id)
	}
	return ids
}

func TestRepository_UserLifecycle(t *testing.T) {
	repo, prefix := newTestRepository(t)
	ctx := context.Background()
	ids := createTestUsers(t, repo, prefix, "a")

	u, err := repo.GetUser(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a", u.FirstName)
	assert.True(t, u.IsNative())

	found, err := repo.FindUserByMail(ctx, ids[0]+"@example.com", "")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ids[0], found.ID)

	u.Identity = social.ExternalIdentity{Issuer: "google", IssuerID: "g"}
	require.NoError(t, repo.ReplaceUser(ctx, *u))
	u, err = repo.GetUser(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, u.IsNative(), "replacing drops the password property")

	deleted, err := repo.DeleteUser(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err := repo.UsersExist(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, exists[ids[0]])
}

func TestRepository_FriendRequestFlow(t *testing.T) {
	repo, prefix := newTestRepository(t)
	ctx := context.Background()
	ids := createTestUsers(t, repo, prefix, "a", "b", "c")
	rel := social.NewRelationships(repo)

	send, err := rel.SendFriendRequest(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, send.Success)

	send, err = rel.SendFriendRequest(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, send.Success)

	requests, err := repo.CountRelated(ctx, social.ViewFriendRequests, ids[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), requests, "sending twice keeps a single invite")

	accept, err := rel.AcceptFriendRequest(ctx, ids[1], ids[0])
	require.NoError(t, err)
	assert.True(t, accept.Success)

	friends, err := repo.AreFriends(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, friends)

	requests, err = repo.CountRelated(ctx, social.ViewFriendRequests, ids[1])
	require.NoError(t, err)
	assert.Equal(t, int64(0), requests)

	require.NoError(t, repo.ImportFriendship(ctx, ids[1], ids[2]))
	suggestions, err := repo.ListRelated(ctx, social.ViewFriendSuggestions, ids[0], 0, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, ids[2], suggestions[0].ID)

	del, err := rel.DeleteFriend(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, del.Success)
}

func TestRepository_ConcurrentMutationsKeepPairConsistent(t *testing.T) {
	repo, prefix := newTestRepository(t)
	ctx := context.Background()
	ids := createTestUsers(t, repo, prefix, "a", "b")
	rel := social.NewRelationships(repo)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _, _ = rel.SendFriendRequest(ctx, ids[0], ids[1]) }()
		go func() { defer wg.Done(); _, _ = rel.SendFriendRequest(ctx, ids[1], ids[0]) }()
		go func() { defer wg.Done(); _, _ = rel.AcceptFriendRequest(ctx, ids[1], ids[0]) }()
	}
	wg.Wait()

	records, err := repo.collect(ctx, `
		MATCH (:User {id: $a})-[e]-(:User {id: $b})
		RETURN type(e) AS kind, count(e) AS total
	`, map[string]any{"a": ids[0], "b": ids[1]})
	require.NoError(t, err)

	kinds := map[string]int64{}
	for _, record := range records {
		kinds[getStringFromRecord(record, "kind")] = getInt64FromRecord(record, "total")
	}
	assert.LessOrEqual(t, kinds["SENT_INVITE_TO"]+kinds["IS_FRIENDS_WITH"], int64(1), "%v", kinds)
}

func TestRepository_ListUsersByCountry(t *testing.T) {
	repo, prefix := newTestRepository(t)
	ctx := context.Background()
	ids := createTestUsers(t, repo, prefix, "a", "b", "c")

	filter := social.UserFilter{Country: prefix + "land", ExcludeID: ids[0]}
	users, err := repo.ListUsers(ctx, filter, 0, 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	total, err := repo.CountUsers(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := envOr("NEO4J_URI", "bolt://localhost:7687")
	user := envOr("NEO4J_USER", "neo4j")
	password := envOr("NEO4J_PASSWORD", "password")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(context.Background())
		return nil, err
	}

	return driver, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestRepository_ImportKeepsPairsExclusive(t *testing.T) {
	repo, prefix := newTestRepository(t)
	ctx := context.Background()
	ids := createTestUsers(t, repo, prefix, "a", "b")

	edges := func() map[string]int64 {
		records, err := repo.collect(ctx, `
			MATCH (:User {id: $a})-[e]-(:User {id: $b})
			RETURN type(e) AS kind, count(e) AS total
		`, map[string]any{"a": ids[0], "b": ids[1]})
		require.NoError(t, err)
		kinds := map[string]int64{}
		for _, record := range records {
			kinds[getStringFromRecord(record, "kind")] = getInt64FromRecord(record, "total")
		}
		return kinds
	}

	stored, err := repo.ImportInvite(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = repo.ImportInvite(ctx, ids[1], ids[0])
	require.NoError(t, err)
	assert.False(t, stored, "reverse invite must not be imported")
	assert.Equal(t, map[string]int64{"SENT_INVITE_TO": 1}, edges())

	require.NoError(t, repo.ImportFriendship(ctx, ids[0], ids[1]))
	assert.Equal(t, map[string]int64{"IS_FRIENDS_WITH": 1}, edges())

	stored, err = repo.ImportInvite(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.False(t, stored, "invite between friends must not be imported")
	assert.Equal(t, map[string]int64{"IS_FRIENDS_WITH": 1}, edges())
}

func TestRepository_CreateUserRejectsTakenMail(t *testing.T) {
	repo, prefix := newTestRepository(t)
	ctx := context.Background()
	mail := prefix + "shared@example.com"

	user := func(id string, identity social.Identity) social.User {
		return social.User{ID: prefix + id, FirstName: "Jan", LastName: "Nowak", Mail: mail, Identity: identity}
	}

	require.NoError(t, repo.CreateUser(ctx, user("first", social.NativeIdentity{PasswordHash: "hash"})))

	err := repo.CreateUser(ctx, user("second", social.NativeIdentity{PasswordHash: "hash"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, social.ErrMailTaken)

	require.NoError(t, repo.CreateUser(ctx, user("google", social.ExternalIdentity{Issuer: "google", IssuerID: "g-1"})))

	err = repo.CreateUser(ctx, user("google-again", social.ExternalIdentity{Issuer: "google", IssuerID: "g-2"}))
	assert.ErrorIs(t, err, social.ErrMailTaken)

	missing, err := repo.GetUser(ctx, prefix+"second")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
