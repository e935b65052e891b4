package handlers

import (
	"net/http"

	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments and replies
type CommentHandler struct {
	engagement *services.Engagement
	feed       *services.FeedService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(engagement *services.Engagement, feed *services.FeedService) *CommentHandler {
	return &CommentHandler{engagement: engagement, feed: feed}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetComments)
	g.GET("/comments/:comment_id/replies", h.GetReplies)
	g.DELETE("/comments/:comment_id", h.DeleteComment)
	g.GET("/users/:id/comments", h.GetUserComments)
}

// CreateComment adds a comment, or a reply when parent_comment_id is set
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment, err := h.engagement.CreateComment(c.Request().Context(), userID, c.Param("post_id"), &req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, comment)
}

// GetComments returns the top-level comments of a post, newest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	cursor, err := cursorParam(c)
	if err != nil {
		return err
	}
	page, err := h.feed.Comments(c.Request().Context(), c.Param("post_id"), cursor, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return paged(c, page)
}

func (h *CommentHandler) GetReplies(c echo.Context) error {
	replies, err := h.feed.Replies(c.Request().Context(), c.Param("comment_id"), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, replies)
}

// DeleteComment removes a comment. The comment author and the post owner
// are allowed to.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	if err := h.engagement.DeleteComment(c.Request().Context(), userID, c.Param("comment_id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) GetUserComments(c echo.Context) error {
	comments, err := h.feed.UserComments(c.Request().Context(), c.Param("id"), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, comments)
}
