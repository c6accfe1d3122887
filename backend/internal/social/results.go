package social

import apperrors "mercury/backend/pkg/errors"

// Field names used in per-field error maps, matching the route parameters
const (
	FieldFirstUser  = "userId1"
	FieldSecondUser = "userId2"
)

// Existence reports which of the two users of a pair operation exist
type Existence struct {
	FirstUserExists  bool
	SecondUserExists bool
}

// Both reports whether both users exist
func (e Existence) Both() bool {
	return e.FirstUserExists && e.SecondUserExists
}

func (e Existence) notFound() map[string]string {
	fields := map[string]string{}
	if !e.FirstUserExists {
		fields[FieldFirstUser] = "not found"
	}
	if !e.SecondUserExists {
		fields[FieldSecondUser] = "not found"
	}
	return fields
}

func failure(e Existence, invalid map[string]string) error {
	if !e.Both() {
		return apperrors.NewNotFound(e.notFound())
	}
	return apperrors.NewInvalidState(invalid)
}

// CheckFriendsResult is the outcome of CheckFriends
type CheckFriendsResult struct {
	Existence
	AreFriends bool
}

// SendResult is the outcome of SendFriendRequest
type SendResult struct {
	Success bool
	Existence
	AlreadyFriends bool
	// ReverseInvite means the second user already invited the first
	ReverseInvite bool
	SelfRelation  bool
}

// FieldErrors describes why the request was not sent
func (r SendResult) FieldErrors() map[string]string {
	if r.Success {
		return nil
	}
	if !r.Both() {
		return r.notFound()
	}
	fields := map[string]string{}
	switch {
	case r.SelfRelation:
		fields[FieldSecondUser] = "same user"
	case r.AlreadyFriends:
		fields[FieldSecondUser] = "already friends"
	case r.ReverseInvite:
		fields[FieldSecondUser] = "already invited you"
	}
	return fields
}

// Err converts a failed result into a NotFound or InvalidState error
func (r SendResult) Err() error {
	if r.Success {
		return nil
	}
	return failure(r.Existence, r.FieldErrors())
}

// AcceptResult is the outcome of AcceptFriendRequest
type AcceptResult struct {
	Success bool
	Existence
	SentInvite     bool
	AlreadyFriends bool
	SelfRelation   bool
}

// FieldErrors describes why the request was not accepted
func (r AcceptResult) FieldErrors() map[string]string {
	if r.Success {
		return nil
	}
	if !r.Both() {
		return r.notFound()
	}
	fields := map[string]string{}
	switch {
	case r.SelfRelation:
		fields[FieldSecondUser] = "same user"
	case r.AlreadyFriends:
		fields[FieldFirstUser] = "already friends"
	case !r.SentInvite:
		fields[FieldFirstUser] = "not invited"
	}
	return fields
}

// Err converts a failed result into a NotFound or InvalidState error
func (r AcceptResult) Err() error {
	if r.Success {
		return nil
	}
	return failure(r.Existence, r.FieldErrors())
}

// DeclineResult is the outcome of DeclineFriendRequest
type DeclineResult struct {
	Success bool
	Existence
	WasFriend    bool
	WasInvited   bool
	SelfRelation bool
}

// FieldErrors describes why the request was not declined
func (r DeclineResult) FieldErrors() map[string]string {
	if r.Success {
		return nil
	}
	if !r.Both() {
		return r.notFound()
	}
	fields := map[string]string{}
	switch {
	case r.SelfRelation:
		fields[FieldSecondUser] = "same user"
	case r.WasFriend:
		fields[FieldFirstUser] = "already friends"
	case !r.WasInvited:
		fields[FieldFirstUser] = "not invited"
	}
	return fields
}

// Err converts a failed result into a NotFound or InvalidState error
func (r DeclineResult) Err() error {
	if r.Success {
		return nil
	}
	return failure(r.Existence, r.FieldErrors())
}

// DeleteFriendResult is the outcome of DeleteFriend
type DeleteFriendResult struct {
	Success bool
	Existence
	WasFriend    bool
	SelfRelation bool
}

// FieldErrors describes why the friendship was not removed
func (r DeleteFriendResult) FieldErrors() map[string]string {
	if r.Success {
		return nil
	}
	if !r.Both() {
		return r.notFound()
	}
	fields := map[string]string{}
	if r.SelfRelation {
		fields[FieldSecondUser] = "same user"
	} else if !r.WasFriend {
		fields[FieldSecondUser] = "not a friend"
	}
	return fields
}

// Err converts a failed result into a NotFound or InvalidState error
func (r DeleteFriendResult) Err() error {
	if r.Success {
		return nil
	}
	return failure(r.Existence, r.FieldErrors())
}
