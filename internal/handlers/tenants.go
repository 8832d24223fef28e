package handlers

import (
	"net/http"

	"trysite/internal/services"

	"github.com/labstack/echo/v4"
)

type TenantHandler struct {
	host *services.ShellRegistry
}

func RegisterTenantRoutes(e *echo.Echo, host *services.ShellRegistry) {
	h := &TenantHandler{host: host}

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/sites/Index")
	})
	e.GET("/livez", h.Livez)
	e.GET("/:handle", h.Home)
}

// Home is the landing page of a provisioned tenant.
func (h *TenantHandler) Home(c echo.Context) error {
	sc, ok := h.host.TryGetShellContext(c.Param("handle"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return c.Render(http.StatusOK, "tenant.html", sc.Settings)
}

func (h *TenantHandler) Livez(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "alive"})
}
