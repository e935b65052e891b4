package handlers

import (
	"net/http"

	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	engagement *services.Engagement
	feed       *services.FeedService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(engagement *services.Engagement, feed *services.FeedService) *PostHandler {
	return &PostHandler{engagement: engagement, feed: feed}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:post_id", h.GetPost)
	g.PUT("/posts/:post_id", h.UpdatePost)
	g.DELETE("/posts/:post_id", h.DeletePost)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// CreatePost handles creating a new post; mentioned usernames are notified
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := h.engagement.CreatePost(c.Request().Context(), userID, &req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, post)
}

// GetPost retrieves a single post together with its author
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.feed.GetPost(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, post)
}

// UpdatePost handles updating an existing post. Only the owner may update it.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := h.engagement.UpdatePost(c.Request().Context(), userID, c.Param("post_id"), &req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, post)
}

// DeletePost handles deleting a post. Only the owner may delete it.
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	if err := h.engagement.DeletePost(c.Request().Context(), userID, c.Param("post_id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PostHandler) GetUserPosts(c echo.Context) error {
	cursor, err := cursorParam(c)
	if err != nil {
		return err
	}
	page, err := h.feed.UserPosts(c.Request().Context(), c.Param("id"), cursor, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return paged(c, page)
}
