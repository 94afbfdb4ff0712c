package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lastcallsw/trackeats/internal/service"
)

// respondError maps a service error to an HTTP status. Classified errors keep
// their stable message; anything else is logged and reported generically so
// storage-layer text never leaks to the client.
func respondError(c *gin.Context, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		switch se.Kind {
		case service.KindValidation:
			status = http.StatusBadRequest
		case service.KindConflict:
			status = http.StatusConflict
		case service.KindNotFound:
			status = http.StatusNotFound
		case service.KindConsistency:
			log.Printf("consistency error in %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		c.JSON(status, gin.H{"error": se.Message()})
		return
	}

	log.Printf("unexpected error in %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// currentUserID returns the authenticated user id the auth middleware stored.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}
	return id, true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
