// Package api exposes the social graph over HTTP with gin.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"mercury/backend/internal/social"
	"mercury/backend/pkg/logger"
)

// RelationshipService is the friend-request state machine
type RelationshipService interface {
	CheckFriends(ctx context.Context, userID1, userID2 string) (social.CheckFriendsResult, error)
	SendFriendRequest(ctx context.Context, userID1, userID2 string) (social.SendResult, error)
	AcceptFriendRequest(ctx context.Context, userID1, userID2 string) (social.AcceptResult, error)
	DeclineFriendRequest(ctx context.Context, userID1, userID2 string) (social.DeclineResult, error)
	DeleteFriend(ctx context.Context, userID1, userID2 string) (social.DeleteFriendResult, error)
}

// ListingService serves the paginated relation views
type ListingService interface {
	Friends(ctx context.Context, userID string, page social.Page) (social.Listing, error)
	FriendRequests(ctx context.Context, userID string, page social.Page) (social.Listing, error)
	FriendSuggestions(ctx context.Context, userID string, page social.Page) (social.Listing, error)
}

// SearchService runs user name search
type SearchService interface {
	Search(ctx context.Context, q social.SearchQuery) (social.SearchResult, error)
}

// AccountService manages user accounts
type AccountService interface {
	CreateUser(ctx context.Context, details social.UserDetails, cred social.Credential) (social.Profile, error)
	GetUser(ctx context.Context, id string) (social.Profile, bool, error)
	UpdateUser(ctx context.Context, id string, update social.UserUpdate) (social.Profile, bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	CountUsers(ctx context.Context, country string) (int64, error)
}

// Services groups everything the handlers call
type Services struct {
	Relationships RelationshipService
	Listings      ListingService
	Search        SearchService
	Accounts      AccountService
}

// Handler serves the HTTP routes
type Handler struct {
	svc    Services
	logger *zap.Logger
}

// NewHandler creates the HTTP handler
func NewHandler(svc Services) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.Named("api"),
	}
}

// Register mounts every route on router
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	users := router.Group("/users")
	{
		users.GET("/search", h.searchUsers)
		users.GET("/count", h.countUsers)
		users.POST("", h.registerUser)
		users.POST("/external", h.registerExternalUser)
		users.GET("/:userId", h.getUser)
		users.PUT("/:userId", RequireCaller("userId"), h.updateUser)
		users.DELETE("/:userId", RequireCaller("userId"), h.deleteUser)

		users.GET("/:userId/friends", RequireCaller("userId"), h.listFriends)
		users.GET("/:userId/friend-requests", h.listFriendRequests)
		users.GET("/:userId/friend-suggestions", RequireCaller("userId"), h.listFriendSuggestions)
		users.GET("/:userId/friends/:otherId", h.checkFriends)

		users.POST("/:userId/send-friend-request/:otherId", RequireCaller("userId"), h.sendFriendRequest)
		users.POST("/:userId/accept-friend-request/:otherId", RequireCaller("userId"), h.acceptFriendRequest)
		users.POST("/:userId/decline-friend-request/:otherId", RequireCaller("userId"), h.declineFriendRequest)
		users.DELETE("/:userId/delete-friend/:otherId", RequireCaller("userId"), h.deleteFriend)
	}
}
