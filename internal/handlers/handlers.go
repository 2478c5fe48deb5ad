package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kinogate/internal/errors"
	"kinogate/internal/models"
	"kinogate/internal/search"
	"kinogate/internal/service"
)

// Handlers binds the ticket lifecycle services to the HTTP surface. The
// search index may be nil when Elasticsearch is not configured.
type Handlers struct {
	services *service.Services
	store    service.TicketStore
	index    *search.TicketIndex
}

func NewHandlers(services *service.Services, store service.TicketStore, index *search.TicketIndex) *Handlers {
	return &Handlers{
		services: services,
		store:    store,
		index:    index,
	}
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, models.Response{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, models.Response{Success: false, Message: message})
}

// respondError maps the error taxonomy onto HTTP statuses and canned
// messages. Wrapped detail stays in the logs; clients get the category.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidQR):
		fail(c, http.StatusBadRequest, "Invalid QR code")
	case errors.Is(err, apperrors.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, apperrors.ErrForbidden):
		fail(c, http.StatusForbidden, "You do not own this booking")
	case errors.Is(err, apperrors.ErrNotFound):
		fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, apperrors.ErrAlreadyCancelled):
		fail(c, http.StatusConflict, "Ticket is already cancelled")
	case errors.Is(err, apperrors.ErrAlreadyUsed):
		fail(c, http.StatusConflict, "Ticket is already used")
	case errors.Is(err, apperrors.ErrShowStarted):
		fail(c, http.StatusConflict, "Show has already started")
	case errors.Is(err, apperrors.ErrShowEnded):
		fail(c, http.StatusConflict, "Show has ended")
	default:
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func requesterID(c *gin.Context) string {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
