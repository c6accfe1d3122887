package social

import (
	"context"
	"errors"
)

// View names one of the paginated relation listings
type View int

const (
	// ViewFriends lists users joined to the subject by a friendship edge
	ViewFriends View = iota
	// ViewFriendRequests lists users with a pending invite to the subject,
	// ordered by last name then first name
	ViewFriendRequests
	// ViewFriendSuggestions lists friends of friends who are neither the
	// subject nor already its friends
	ViewFriendSuggestions
)

func (v View) String() string {
	switch v {
	case ViewFriends:
		return "friends"
	case ViewFriendRequests:
		return "friend_requests"
	case ViewFriendSuggestions:
		return "friend_suggestions"
	default:
		return "unknown"
	}
}

// UserFilter restricts user scans. Empty fields do not filter.
type UserFilter struct {
	Country   string
	ExcludeID string
}

// Matches applies the filter to a user
func (f UserFilter) Matches(u User) bool {
	if f.Country != "" && u.Country != f.Country {
		return false
	}
	return f.ExcludeID == "" || u.ID != f.ExcludeID
}

// ScoredUser is a nearest-neighbour candidate
type ScoredUser struct {
	User  User
	Score float64
}

// UserReader answers existence questions
type UserReader interface {
	// UsersExist reports, per id, whether a user with that id is stored
	UsersExist(ctx context.Context, ids ...string) (map[string]bool, error)
}

// PairTx is one atomic unit of work on the relation between two users,
// first and second in the order given to RelationStore.InPairTx.
type PairTx interface {
	// Lock write-locks whichever of the two users exist and reports which do.
	// It must be the first call in the transaction.
	Lock(ctx context.Context) (firstExists, secondExists bool, err error)
	AreFriends(ctx context.Context) (bool, error)
	HasInvite(ctx context.Context, fromID, toID string) (bool, error)
	// CreateInvite merges the directed invite; repeating it is a no-op
	CreateInvite(ctx context.Context, fromID, toID string) error
	// AcceptInvite replaces the invite fromID -> toID with a friendship and
	// reports whether the invite existed. Nothing is written when it did not.
	AcceptInvite(ctx context.Context, fromID, toID string) (bool, error)
	// DeleteInvites removes invites in either direction
	DeleteInvites(ctx context.Context) (bool, error)
	DeleteFriendship(ctx context.Context) (bool, error)
}

// RelationStore is the store contract of the relationship state machine
type RelationStore interface {
	UserReader
	AreFriends(ctx context.Context, firstID, secondID string) (bool, error)
	// InPairTx runs fn in a single write transaction. The store may rerun fn
	// on transient failures, so fn must not leak partial results.
	InPairTx(ctx context.Context, firstID, secondID string, fn func(tx PairTx) error) error
}

// ListingStore is the store contract of the paginated relation views
type ListingStore interface {
	UserReader
	ListRelated(ctx context.Context, view View, userID string, skip, limit int64) ([]User, error)
	CountRelated(ctx context.Context, view View, userID string) (int64, error)
}

// SearchStore is the store contract of user search
type SearchStore interface {
	ListUsers(ctx context.Context, filter UserFilter, skip, limit int64) ([]User, error)
	CountUsers(ctx context.Context, filter UserFilter) (int64, error)
	// NearestUsers returns up to k users ordered by descending similarity
	NearestUsers(ctx context.Context, vector []float64, k int64) ([]ScoredUser, error)
}

// ErrMailTaken is returned by AccountStore.CreateUser when the mail was
// registered after the caller's FindUserByMail check
var ErrMailTaken = errors.New("mail already registered")

// AccountStore is the store contract of the account lifecycle
type AccountStore interface {
	GetUser(ctx context.Context, id string) (*User, error)
	// FindUserByMail matches on mail, and on issuer when issuer is not empty
	FindUserByMail(ctx context.Context, mail, issuer string) (*User, error)
	// CreateUser repeats the mail check of FindUserByMail atomically with the
	// insert and fails with ErrMailTaken on a match
	CreateUser(ctx context.Context, user User) error
	// ReplaceUser overwrites every stored property of the user
	ReplaceUser(ctx context.Context, user User) error
	// DeleteUser removes the user and all of its edges
	DeleteUser(ctx context.Context, id string) (bool, error)
	CountUsers(ctx context.Context, filter UserFilter) (int64, error)
}

// Store is everything the core needs from the graph store
type Store interface {
	RelationStore
	ListingStore
	SearchStore
	AccountStore
}
