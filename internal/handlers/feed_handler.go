package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the post listings: home feed, public timeline, tags
// and popularity.
type FeedHandler struct {
	feed *services.FeedService
}

func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetHomeFeed)
	g.GET("/feed/public", h.GetPublicFeed)
	g.GET("/feed/popular", h.GetPopular)
	g.GET("/feed/tags", h.GetByTags)
	g.GET("/users/by-username/:username/tagged", h.GetTagged)
}

// GetHomeFeed returns the posts of the actor and the users they follow,
// newest first. ?before takes an RFC 3339 timestamp for the next page.
func (h *FeedHandler) GetHomeFeed(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var before time.Time
	if raw := c.QueryParam("before"); raw != "" {
		before, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid before timestamp")
		}
	}
	posts, err := h.feed.HomeFeed(c.Request().Context(), userID, before, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, posts)
}

func (h *FeedHandler) GetPublicFeed(c echo.Context) error {
	cursor, err := cursorParam(c)
	if err != nil {
		return err
	}
	page, err := h.feed.PublicPosts(c.Request().Context(), cursor, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return paged(c, page)
}

func (h *FeedHandler) GetPopular(c echo.Context) error {
	posts, err := h.feed.PopularPosts(c.Request().Context(), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, posts)
}

// GetByTags returns posts carrying any of ?tags=a,b
func (h *FeedHandler) GetByTags(c echo.Context) error {
	tags := listParam(c, "tags")
	if len(tags) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "tags query parameter is required")
	}
	posts, err := h.feed.PostsByTags(c.Request().Context(), tags, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, posts)
}

func (h *FeedHandler) GetTagged(c echo.Context) error {
	posts, err := h.feed.TaggedPosts(c.Request().Context(), c.Param("username"), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, posts)
}
