package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	apperrors "mercury/backend/pkg/errors"
)

func ok(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["status"] = "ok"
	c.JSON(http.StatusOK, body)
}

func badRequest(c *gin.Context, errs map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "errors": errs})
}

// fail maps a typed error to its status code. Untyped and store errors are
// logged and hidden behind a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeInvalidState, apperrors.ErrorTypeSearchUnsupported:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"status": "error", "errors": gin.H{"server": "internal error"}})
		return
	}

	errs := apperrors.FieldsOf(err)
	if errs == nil {
		errs = map[string]string{"request": err.Error()}
	}
	c.JSON(status, gin.H{"status": "error", "errors": errs})
}
