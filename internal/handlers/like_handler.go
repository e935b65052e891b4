package handlers

import (
	"net/http"

	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles likes on posts and comments
type LikeHandler struct {
	engagement *services.Engagement
	feed       *services.FeedService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(engagement *services.Engagement, feed *services.FeedService) *LikeHandler {
	return &LikeHandler{engagement: engagement, feed: feed}
}

// RegisterLikeRoutes registers like-related routes. Both targets share the
// same handlers; the route decides the target type.
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	for _, t := range []struct {
		prefix string
		target models.TargetType
	}{
		{"/posts/:post_id/likes", models.TargetPost},
		{"/comments/:comment_id/likes", models.TargetComment},
	} {
		g.POST(t.prefix, h.Like(t.target))
		g.DELETE(t.prefix, h.Unlike(t.target))
		g.GET(t.prefix, h.GetLikers(t.target))
		g.GET(t.prefix+"/count", h.GetLikeCount(t.target))
		g.GET(t.prefix+"/status", h.GetLikeStatus(t.target))
	}
	g.GET("/users/:id/liked-posts", h.GetLikedPosts)
}

func targetParam(c echo.Context, target models.TargetType) string {
	if target == models.TargetComment {
		return c.Param("comment_id")
	}
	return c.Param("post_id")
}

// Like likes the target. Liking twice is not an error.
func (h *LikeHandler) Like(target models.TargetType) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := actorID(c)
		if err != nil {
			return err
		}
		if err := h.engagement.Like(c.Request().Context(), userID, targetParam(c, target), target); err != nil {
			return httpError(err)
		}
		return success(c, http.StatusOK, echo.Map{"liked": true})
	}
}

func (h *LikeHandler) Unlike(target models.TargetType) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := actorID(c)
		if err != nil {
			return err
		}
		if err := h.engagement.Unlike(c.Request().Context(), userID, targetParam(c, target), target); err != nil {
			return httpError(err)
		}
		return success(c, http.StatusOK, echo.Map{"liked": false})
	}
}

func (h *LikeHandler) GetLikers(target models.TargetType) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := h.feed.Likers(c.Request().Context(), targetParam(c, target), target, limitParam(c))
		if err != nil {
			return httpError(err)
		}
		return success(c, http.StatusOK, users)
	}
}

func (h *LikeHandler) GetLikeCount(target models.TargetType) echo.HandlerFunc {
	return func(c echo.Context) error {
		count, err := h.feed.LikeCount(c.Request().Context(), targetParam(c, target), target)
		if err != nil {
			return httpError(err)
		}
		return success(c, http.StatusOK, echo.Map{"count": count})
	}
}

func (h *LikeHandler) GetLikeStatus(target models.TargetType) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := actorID(c)
		if err != nil {
			return err
		}
		liked, err := h.engagement.IsLiked(c.Request().Context(), userID, targetParam(c, target), target)
		if err != nil {
			return httpError(err)
		}
		return success(c, http.StatusOK, echo.Map{"liked": liked})
	}
}

func (h *LikeHandler) GetLikedPosts(c echo.Context) error {
	posts, err := h.feed.LikedPosts(c.Request().Context(), c.Param("id"), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, posts)
}
