package handlers

import (
	"net/http"

	"github.com/anonto42/mockup-social/backend/internal/middleware"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to user profiles and search
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.POST("/profile", h.CreateProfile)
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/prefix", h.SearchByPrefix)
	g.GET("/users/by-username/:username", h.GetUserByUsername)
	g.GET("/users/by-email", h.GetUserByEmail)
	g.GET("/users/:id", h.GetUser)
}

// CreateProfile creates the profile of the authenticated actor
func (h *UserHandler) CreateProfile(c echo.Context) error {
	id, err := actorID(c)
	if err != nil {
		return err
	}
	// A verified email wins over the one in the body.
	req := models.CreateUserRequest{Email: middleware.ActorEmail(c)}
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateProfile(c.Request().Context(), id, middleware.ActorEmail(c), &req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, user)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	id, err := actorID(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, user)
}

// UpdateProfile applies a partial update to the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := actorID(c)
	if err != nil {
		return err
	}
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.Request().Context(), id, &req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, user)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, user)
}

func (h *UserHandler) GetUserByUsername(c echo.Context) error {
	user, err := h.users.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, user)
}

func (h *UserHandler) GetUserByEmail(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email query parameter is required")
	}
	user, err := h.users.GetByEmail(c.Request().Context(), email)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, user)
}

// SearchUsers ranks users whose username or display name contains q
func (h *UserHandler) SearchUsers(c echo.Context) error {
	results, err := h.users.Search(c.Request().Context(), c.QueryParam("q"), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, results)
}

func (h *UserHandler) SearchByPrefix(c echo.Context) error {
	users, err := h.users.SearchByPrefix(c.Request().Context(), c.QueryParam("q"), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, users)
}
