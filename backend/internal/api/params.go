package api

import (
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"mercury/backend/internal/constants"
	"mercury/backend/internal/social"
)

var (
	digits      = regexp.MustCompile(`^[0-9]+$`)
	asciiLetter = regexp.MustCompile(`^[a-zA-Z ]*$`)
)

// fieldErrors collects per-field messages for a 400 response
type fieldErrors map[string]string

func (f fieldErrors) empty() bool { return len(f) == 0 }

// integer reads a required positive query integer
func (f fieldErrors) integer(c *gin.Context, key string) int64 {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		f[key] = "not provided"
		return 0
	}
	if !digits.MatchString(raw) {
		f[key] = "not a number"
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f[key] = "out of range"
		return 0
	}
	if n < 1 {
		f[key] = "must be positive"
		return 0
	}
	return n
}

// ascii reads an optional query string of letters and spaces
func (f fieldErrors) ascii(c *gin.Context, key string) string {
	raw := c.Query(key)
	if !asciiLetter.MatchString(raw) {
		f[key] = "not a valid string"
		return ""
	}
	return raw
}

// pageQuery reads the 1-based page and maxUsers parameters into a
// zero-based social.Page
func pageQuery(c *gin.Context, errs fieldErrors) social.Page {
	page := errs.integer(c, "page")
	maxUsers := errs.integer(c, "maxUsers")
	if maxUsers > constants.MaxPageSize {
		errs["maxUsers"] = "too large"
	}
	return social.Page{Index: page - 1, Size: maxUsers}
}
