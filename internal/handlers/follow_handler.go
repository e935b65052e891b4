package handlers

import (
	"net/http"

	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles HTTP requests related to the follow graph
type FollowHandler struct {
	graph *services.SocialGraph
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.SocialGraph) *FollowHandler {
	return &FollowHandler{graph: graph}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.Follow)
	g.DELETE("/users/:id/follow", h.Unfollow)
	g.GET("/users/:id/follow/status", h.GetFollowStatus)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// Follow makes the actor follow :id
func (h *FollowHandler) Follow(c echo.Context) error {
	followerID, err := actorID(c)
	if err != nil {
		return err
	}
	if err := h.graph.Follow(c.Request().Context(), followerID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"following": true})
}

func (h *FollowHandler) Unfollow(c echo.Context) error {
	followerID, err := actorID(c)
	if err != nil {
		return err
	}
	if err := h.graph.Unfollow(c.Request().Context(), followerID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"following": false})
}

func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	followerID, err := actorID(c)
	if err != nil {
		return err
	}
	following, err := h.graph.IsFollowing(c.Request().Context(), followerID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"following": following})
}

// GetFollowers lists who follows :id, most recent first
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	cursor, err := cursorParam(c)
	if err != nil {
		return err
	}
	page, err := h.graph.GetFollowers(c.Request().Context(), c.Param("id"), cursor, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return paged(c, page)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	cursor, err := cursorParam(c)
	if err != nil {
		return err
	}
	page, err := h.graph.GetFollowing(c.Request().Context(), c.Param("id"), cursor, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return paged(c, page)
}
