package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "mockup-social",
		"time":    time.Now().Unix(),
	})
}
