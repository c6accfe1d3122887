package social

import (
	"context"

	"go.uber.org/zap"
	apperrors "mercury/backend/pkg/errors"
	"mercury/backend/pkg/logger"
)

// Relationships is the friend-request state machine. For every pair of
// users the relation is one of none, invited (one direction) or friends.
//
// Each mutating operation reads the current state and writes inside a single
// store transaction that locks both users first, so concurrent calls on the
// same pair are serialized by the store.
type Relationships struct {
	store  RelationStore
	logger *zap.Logger
}

// NewRelationships creates the state machine over a relation store
func NewRelationships(store RelationStore) *Relationships {
	return &Relationships{
		store:  store,
		logger: logger.Named("relationships"),
	}
}

// CheckFriends reports whether both users exist and are friends. It is a
// plain read and takes no locks.
func (r *Relationships) CheckFriends(ctx context.Context, userID1, userID2 string) (CheckFriendsResult, error) {
	exists, err := r.store.UsersExist(ctx, userID1, userID2)
	if err != nil {
		return CheckFriendsResult{}, apperrors.NewStoreFailure("check users", err)
	}

	res := CheckFriendsResult{
		Existence: Existence{
			FirstUserExists:  exists[userID1],
			SecondUserExists: exists[userID2],
		},
	}
	if !res.Both() || userID1 == userID2 {
		return res, nil
	}

	res.AreFriends, err = r.store.AreFriends(ctx, userID1, userID2)
	if err != nil {
		return CheckFriendsResult{}, apperrors.NewStoreFailure("check friendship", err)
	}
	return res, nil
}

// guard locks the pair and evaluates the checks shared by every mutation
func guard(ctx context.Context, tx PairTx, userID1, userID2 string) (e Existence, self, friends bool, err error) {
	e.FirstUserExists, e.SecondUserExists, err = tx.Lock(ctx)
	if err != nil || !e.Both() {
		return e, false, false, err
	}
	if userID1 == userID2 {
		return e, true, false, nil
	}
	friends, err = tx.AreFriends(ctx)
	return e, false, friends, err
}

// SendFriendRequest creates the invite userID1 -> userID2. Sending again
// while the invite is pending succeeds without creating a second edge.
func (r *Relationships) SendFriendRequest(ctx context.Context, userID1, userID2 string) (SendResult, error) {
	var res SendResult
	err := r.store.InPairTx(ctx, userID1, userID2, func(tx PairTx) error {
		res = SendResult{}
		e, self, friends, err := guard(ctx, tx, userID1, userID2)
		res.Existence, res.SelfRelation, res.AlreadyFriends = e, self, friends
		if err != nil || !e.Both() || self || friends {
			return err
		}

		res.ReverseInvite, err = tx.HasInvite(ctx, userID2, userID1)
		if err != nil || res.ReverseInvite {
			return err
		}

		if err := tx.CreateInvite(ctx, userID1, userID2); err != nil {
			return err
		}
		res.Success = true
		return nil
	})
	if err != nil {
		return SendResult{}, apperrors.NewStoreFailure("send friend request", err)
	}

	r.logResult("Friend request", res.Success, userID1, userID2)
	return res, nil
}

// AcceptFriendRequest turns the invite userID2 -> userID1 into a friendship.
// Only the invitee can accept.
func (r *Relationships) AcceptFriendRequest(ctx context.Context, userID1, userID2 string) (AcceptResult, error) {
	var res AcceptResult
	err := r.store.InPairTx(ctx, userID1, userID2, func(tx PairTx) error {
		res = AcceptResult{}
		e, self, friends, err := guard(ctx, tx, userID1, userID2)
		res.Existence, res.SelfRelation, res.AlreadyFriends = e, self, friends
		if err != nil || !e.Both() || self || friends {
			return err
		}

		res.SentInvite, err = tx.AcceptInvite(ctx, userID2, userID1)
		if err != nil {
			return err
		}
		res.Success = res.SentInvite
		return nil
	})
	if err != nil {
		return AcceptResult{}, apperrors.NewStoreFailure("accept friend request", err)
	}

	r.logResult("Friend request accepted", res.Success, userID1, userID2)
	return res, nil
}

// DeclineFriendRequest removes a pending invite between the two users.
// Unlike accept it matches an invite in either direction, so the sender can
// also withdraw a request this way.
func (r *Relationships) DeclineFriendRequest(ctx context.Context, userID1, userID2 string) (DeclineResult, error) {
	var res DeclineResult
	err := r.store.InPairTx(ctx, userID1, userID2, func(tx PairTx) error {
		res = DeclineResult{}
		e, self, friends, err := guard(ctx, tx, userID1, userID2)
		res.Existence, res.SelfRelation, res.WasFriend = e, self, friends
		if err != nil || !e.Both() || self || friends {
			return err
		}

		res.WasInvited, err = tx.DeleteInvites(ctx)
		if err != nil {
			return err
		}
		res.Success = res.WasInvited
		return nil
	})
	if err != nil {
		return DeclineResult{}, apperrors.NewStoreFailure("decline friend request", err)
	}

	r.logResult("Friend request declined", res.Success, userID1, userID2)
	return res, nil
}

// DeleteFriend removes the friendship between the two users
func (r *Relationships) DeleteFriend(ctx context.Context, userID1, userID2 string) (DeleteFriendResult, error) {
	var res DeleteFriendResult
	err := r.store.InPairTx(ctx, userID1, userID2, func(tx PairTx) error {
		res = DeleteFriendResult{}
		e, self, friends, err := guard(ctx, tx, userID1, userID2)
		res.Existence, res.SelfRelation = e, self
		if err != nil || !e.Both() || self || !friends {
			return err
		}

		res.WasFriend, err = tx.DeleteFriendship(ctx)
		if err != nil {
			return err
		}
		res.Success = res.WasFriend
		return nil
	})
	if err != nil {
		return DeleteFriendResult{}, apperrors.NewStoreFailure("delete friend", err)
	}

	r.logResult("Friend removed", res.Success, userID1, userID2)
	return res, nil
}

func (r *Relationships) logResult(msg string, success bool, userID1, userID2 string) {
	if !success {
		r.logger.Debug(msg+" rejected",
			zap.String("user_id1", userID1),
			zap.String("user_id2", userID2),
		)
		return
	}
	r.logger.Info(msg,
		zap.String("user_id1", userID1),
		zap.String("user_id2", userID2),
	)
}
