package api

import (
	"net/http"
	"strconv"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	headerActorID   = "X-Actor-Id"
	headerActorRole = "X-Actor-Role"
)

// actorFrom reads the authenticated actor from trusted headers set by the
// identity layer in front of this service. An unknown role still fails closed
// in the authorization gate.
func actorFrom(c *gin.Context) domain.Actor {
	id, _ := strconv.ParseInt(c.GetHeader(headerActorID), 10, 64)
	return domain.Actor{
		ID:   id,
		Role: c.GetHeader(headerActorRole),
	}
}

// respondError maps domain error kinds onto HTTP statuses. Anything untyped is
// a 500 with no internal detail.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInvalidInput:
		status = http.StatusBadRequest
	case domain.KindInvalidTransition, domain.KindPaymentNotCompleted, domain.KindAlreadyProcessed:
		status = http.StatusConflict
	case domain.KindPersistenceFailure:
		status = http.StatusInternalServerError
	}
	if kind == "" {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}
