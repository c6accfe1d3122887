package social

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	apperrors "mercury/backend/pkg/errors"
	"mercury/backend/pkg/logger"
)

// Listing is one page of a relation view. UserExists is false when the
// subject user is absent, which is reported instead of an empty page.
type Listing struct {
	UserExists bool
	Paged[Profile]
}

// Err converts a missing subject into a NotFound error
func (l Listing) Err() error {
	if l.UserExists {
		return nil
	}
	return apperrors.NewNotFound(map[string]string{"userId": "not found"})
}

// CountResult is the total of a relation view
type CountResult struct {
	UserExists bool
	Total      int64
}

// Listings serves the paginated relation views
type Listings struct {
	store  ListingStore
	logger *zap.Logger
}

// NewListings creates the listing service
func NewListings(store ListingStore) *Listings {
	return &Listings{
		store:  store,
		logger: logger.Named("listings"),
	}
}

// Friends lists the subject's friends
func (l *Listings) Friends(ctx context.Context, userID string, page Page) (Listing, error) {
	return l.List(ctx, ViewFriends, userID, page)
}

// FriendRequests lists users with a pending invite to the subject
func (l *Listings) FriendRequests(ctx context.Context, userID string, page Page) (Listing, error) {
	return l.List(ctx, ViewFriendRequests, userID, page)
}

// FriendSuggestions lists friends of the subject's friends
func (l *Listings) FriendSuggestions(ctx context.Context, userID string, page Page) (Listing, error) {
	return l.List(ctx, ViewFriendSuggestions, userID, page)
}

// List fetches one window of a view together with the view's total. The
// window and the count are read concurrently, so under concurrent writes the
// page count may describe a slightly different state than the items.
func (l *Listings) List(ctx context.Context, view View, userID string, page Page) (Listing, error) {
	if err := page.Validate(); err != nil {
		return Listing{}, err
	}

	exists, err := l.userExists(ctx, userID)
	if err != nil || !exists {
		return Listing{}, err
	}

	var (
		users []User
		total int64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		users, err = l.store.ListRelated(egCtx, view, userID, page.Skip(), page.Limit())
		if err != nil {
			return apperrors.NewStoreFailure(fmt.Sprintf("list %s", view), err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		total, err = l.store.CountRelated(egCtx, view, userID)
		if err != nil {
			return apperrors.NewStoreFailure(fmt.Sprintf("count %s", view), err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		l.logger.Error("Listing failed",
			zap.String("view", view.String()),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return Listing{}, err
	}

	return Listing{
		UserExists: true,
		Paged:      NewPaged(Profiles(users), total, page),
	}, nil
}

// Count returns the number of distinct users in a view
func (l *Listings) Count(ctx context.Context, view View, userID string) (CountResult, error) {
	exists, err := l.userExists(ctx, userID)
	if err != nil || !exists {
		return CountResult{}, err
	}

	total, err := l.store.CountRelated(ctx, view, userID)
	if err != nil {
		return CountResult{}, apperrors.NewStoreFailure(fmt.Sprintf("count %s", view), err)
	}
	return CountResult{UserExists: true, Total: total}, nil
}

func (l *Listings) userExists(ctx context.Context, userID string) (bool, error) {
	exists, err := l.store.UsersExist(ctx, userID)
	if err != nil {
		return false, apperrors.NewStoreFailure("check user", err)
	}
	return exists[userID], nil
}
