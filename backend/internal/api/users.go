package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"mercury/backend/internal/constants"
	"mercury/backend/internal/social"
	apperrors "mercury/backend/pkg/errors"
)

// searchHit flattens a scored profile into one JSON object
type searchHit struct {
	social.Profile
	Score float64 `json:"score"`
}

func (h *Handler) searchUsers(c *gin.Context) {
	errs := fieldErrors{}
	page := pageQuery(c, errs)
	phrase := errs.ascii(c, "q")
	country := errs.ascii(c, "country")
	if !errs.empty() {
		badRequest(c, errs)
		return
	}

	res, err := h.svc.Search.Search(c.Request.Context(), social.SearchQuery{
		Phrase:    phrase,
		Country:   country,
		Page:      page,
		ExcludeID: c.GetHeader(constants.UserIDHeader),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if errors.Is(res.Err(), apperrors.ErrSearchUnsupported) {
		badRequest(c, map[string]string{"q": "not supported"})
		return
	}

	hits := make([]searchHit, 0, len(res.Items))
	for _, item := range res.Items {
		hits = append(hits, searchHit{Profile: item.User, Score: item.Score})
	}
	ok(c, gin.H{"pageCount": res.PageCount, "users": hits})
}

func (h *Handler) countUsers(c *gin.Context) {
	errs := fieldErrors{}
	country := errs.ascii(c, "country")
	if !errs.empty() {
		badRequest(c, errs)
		return
	}

	total, err := h.svc.Accounts.CountUsers(c.Request.Context(), country)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"count": total})
}

type userRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	Country        string `json:"country"`
	ProfilePicture string `json:"profile_picture"`
	Mail           string `json:"mail" binding:"required,email"`
}

func (r userRequest) details() social.UserDetails {
	return social.UserDetails{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Country:        r.Country,
		ProfilePicture: r.ProfilePicture,
		Mail:           r.Mail,
	}
}

func (h *Handler) registerUser(c *gin.Context) {
	var req struct {
		userRequest
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": err.Error()})
		return
	}

	profile, err := h.svc.Accounts.CreateUser(c.Request.Context(), req.details(), social.Password(req.Password))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "user": profile})
}

// registerExternalUser is called by the identity provider bridge after a
// first external login
func (h *Handler) registerExternalUser(c *gin.Context) {
	var req struct {
		userRequest
		Issuer   string `json:"issuer" binding:"required"`
		IssuerID string `json:"issuer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": err.Error()})
		return
	}

	profile, err := h.svc.Accounts.CreateUser(c.Request.Context(), req.details(), social.ExternalIdentity{
		Issuer:   req.Issuer,
		IssuerID: req.IssuerID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "user": profile})
}

func userNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"status": "error", "errors": gin.H{"userId": "not found"}})
}

func (h *Handler) getUser(c *gin.Context) {
	profile, found, err := h.svc.Accounts.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		userNotFound(c)
		return
	}
	ok(c, gin.H{"user": profile})
}

func (h *Handler) updateUser(c *gin.Context) {
	var req struct {
		FirstName      *string `json:"first_name"`
		LastName       *string `json:"last_name"`
		Country        *string `json:"country"`
		ProfilePicture *string `json:"profile_picture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": err.Error()})
		return
	}

	profile, found, err := h.svc.Accounts.UpdateUser(c.Request.Context(), c.Param("userId"), social.UserUpdate{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Country:        req.Country,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		userNotFound(c)
		return
	}
	ok(c, gin.H{"user": profile})
}

func (h *Handler) deleteUser(c *gin.Context) {
	deleted, err := h.svc.Accounts.DeleteUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !deleted {
		userNotFound(c)
		return
	}
	ok(c, nil)
}
