package handlers

import (
	"net/http"

	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ActivityHandler serves the actor's activity inbox
type ActivityHandler struct {
	activities *services.ActivityService
}

func NewActivityHandler(activities *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group) {
	g.GET("/activities", h.GetActivities)
	g.GET("/activities/unread", h.GetUnread)
	g.GET("/activities/unread/count", h.GetUnreadCount)
	g.PUT("/activities/read", h.MarkRead)
	g.PUT("/activities/read-all", h.MarkAllRead)
}

// GetActivities returns the actor's activities, newest first, with actor and
// target preview attached
func (h *ActivityHandler) GetActivities(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	cursor, err := cursorParam(c)
	if err != nil {
		return err
	}
	page, err := h.activities.List(c.Request().Context(), userID, cursor, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return paged(c, page)
}

func (h *ActivityHandler) GetUnread(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	views, err := h.activities.Unread(c.Request().Context(), userID, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, views)
}

func (h *ActivityHandler) GetUnreadCount(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	count, err := h.activities.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkRead marks the given activities of the actor as read. Ids that belong
// to someone else are ignored.
func (h *ActivityHandler) MarkRead(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req models.MarkActivitiesReadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	n, err := h.activities.MarkRead(c.Request().Context(), userID, req.IDs)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"updated": n})
}

func (h *ActivityHandler) MarkAllRead(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	n, err := h.activities.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"updated": n})
}
