package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// pageParams reads limit/offset query parameters, defaulting to
// domain.DefaultPageLimit (spec.md §4.3 pagination contract).
func pageParams(c *gin.Context) (limit, offset int) {
	limit = domain.DefaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
