package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/middleware"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const maxPageSize = 100

func success(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, echo.Map{
		"success": true,
		"data":    data,
	})
}

// paged writes a page with the opaque cursor of the next one.
func paged[T any](c echo.Context, page *repositories.Page[T]) error {
	next, err := docstore.EncodeCursor(page.Next)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    page.Items,
		"meta": echo.Map{
			"nextCursor":  next,
			"hasNextPage": page.HasMore,
		},
	})
}

// httpError maps service and store errors to HTTP errors. Anything it does
// not recognize is a 500.
func httpError(err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, docstore.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrCannotFollowSelf),
		errors.Is(err, services.ErrInvalidParent),
		errors.Is(err, services.ErrInvalidTarget),
		errors.Is(err, docstore.ErrInvalidQuery):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, docstore.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func actorID(c echo.Context) (string, error) {
	id := middleware.ActorID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func limitParam(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > maxPageSize {
		return 0
	}
	return limit
}

func cursorParam(c echo.Context) (*docstore.Cursor, error) {
	cursor, err := docstore.DecodeCursor(c.QueryParam("cursor"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid cursor")
	}
	return cursor, nil
}

func listParam(c echo.Context, name string) []string {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
