package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"mercury/backend/internal/social"
)

type listFunc func(ctx context.Context, userID string, page social.Page) (social.Listing, error)

// listing serves one relation view under the given response key
func (h *Handler) listing(c *gin.Context, key string, list listFunc) {
	errs := fieldErrors{}
	page := pageQuery(c, errs)
	if !errs.empty() {
		badRequest(c, errs)
		return
	}

	res, err := list(c.Request.Context(), c.Param("userId"), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := res.Err(); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"pageCount": res.PageCount, key: res.Items})
}

func (h *Handler) listFriends(c *gin.Context) {
	h.listing(c, "friends", h.svc.Listings.Friends)
}

func (h *Handler) listFriendRequests(c *gin.Context) {
	h.listing(c, "friendRequests", h.svc.Listings.FriendRequests)
}

func (h *Handler) listFriendSuggestions(c *gin.Context) {
	h.listing(c, "friendSuggestions", h.svc.Listings.FriendSuggestions)
}

func (h *Handler) checkFriends(c *gin.Context) {
	userID1, userID2 := c.Param("userId"), c.Param("otherId")

	res, err := h.svc.Relationships.CheckFriends(c.Request.Context(), userID1, userID2)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !res.Both() {
		errs := map[string]string{}
		if !res.FirstUserExists {
			errs[social.FieldFirstUser] = "not found"
		}
		if !res.SecondUserExists {
			errs[social.FieldSecondUser] = "not found"
		}
		badRequest(c, errs)
		return
	}
	ok(c, gin.H{"areFriends": res.AreFriends})
}

// outcome is the common shape of the relationship mutation results
type outcome interface {
	FieldErrors() map[string]string
}

// mutation runs a relationship operation and answers {status: ok} on
// success or 400 with the per-field reasons on rejection
func (h *Handler) mutation(c *gin.Context, run func(ctx context.Context, userID1, userID2 string) (bool, outcome, error)) {
	success, res, err := run(c.Request.Context(), c.Param("userId"), c.Param("otherId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !success {
		badRequest(c, res.FieldErrors())
		return
	}
	ok(c, nil)
}

func (h *Handler) sendFriendRequest(c *gin.Context) {
	h.mutation(c, func(ctx context.Context, u1, u2 string) (bool, outcome, error) {
		res, err := h.svc.Relationships.SendFriendRequest(ctx, u1, u2)
		return res.Success, res, err
	})
}

func (h *Handler) acceptFriendRequest(c *gin.Context) {
	h.mutation(c, func(ctx context.Context, u1, u2 string) (bool, outcome, error) {
		res, err := h.svc.Relationships.AcceptFriendRequest(ctx, u1, u2)
		return res.Success, res, err
	})
}

func (h *Handler) declineFriendRequest(c *gin.Context) {
	h.mutation(c, func(ctx context.Context, u1, u2 string) (bool, outcome, error) {
		res, err := h.svc.Relationships.DeclineFriendRequest(ctx, u1, u2)
		return res.Success, res, err
	})
}

func (h *Handler) deleteFriend(c *gin.Context) {
	h.mutation(c, func(ctx context.Context, u1, u2 string) (bool, outcome, error) {
		res, err := h.svc.Relationships.DeleteFriend(ctx, u1, u2)
		return res.Success, res, err
	})
}
