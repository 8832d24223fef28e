package handlers

import (
	"net"
	"net/http"
	"net/url"
	"strconv"

	"trysite/internal/models"
	"trysite/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type SitesHandler struct {
	svc *services.TrySiteService
	log zerolog.Logger
}

type indexPage struct {
	Form    models.RegisterUserForm
	Errors  models.FieldErrors
	Recipes []models.Recipe
}

func RegisterSiteRoutes(e *echo.Echo, svc *services.TrySiteService, log zerolog.Logger) {
	h := &SitesHandler{svc: svc, log: log.With().Str("component", "sites").Logger()}

	g := e.Group("/sites")
	g.GET("", h.Index)
	g.GET("/", h.Index)
	g.GET("/Index", h.Index)
	g.POST("/Index", h.IndexPost)
	g.GET("/Success", h.Success)
	g.GET("/Confirm", h.Confirm)
	g.GET("/Error", h.Error)
}

// Index shows the registration form with a fresh handle suggestion.
func (h *SitesHandler) Index(c echo.Context) error {
	var form models.RegisterUserForm
	if err := c.Bind(&form); err != nil {
		// Prefill only; a bad query string still gets an empty form.
		h.log.Debug().Err(err).Msg("Ignoring unbindable form prefill")
	}
	form.Handle = h.svc.SuggestHandle()

	return h.renderForm(c, form, nil)
}

func (h *SitesHandler) IndexPost(c echo.Context) error {
	var form models.RegisterUserForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	res, err := h.svc.Register(c.Request().Context(), form, requestHost(c))
	if err != nil {
		h.log.Error().Err(err).Str("handle", form.Handle).Msg("Registration failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}
	if !res.Registered {
		return h.renderForm(c, form, res.Errors)
	}

	return c.Redirect(http.StatusFound, "/sites/Success")
}

func (h *SitesHandler) Success(c echo.Context) error {
	return c.Render(http.StatusOK, "success.html", nil)
}

type errorPage struct {
	Fields []string
}

// Error explains a failed setup. Only field names travel in the query, never
// the messages.
func (h *SitesHandler) Error(c echo.Context) error {
	return c.Render(http.StatusOK, "error.html", errorPage{Fields: c.QueryParams()["field"]})
}

// Confirm finishes the setup of a tenant from the emailed link.
func (h *SitesHandler) Confirm(c echo.Context) error {
	req := services.ConfirmRequest{
		Email:             c.QueryParam("email"),
		Handle:            c.QueryParam("handle"),
		SiteName:          c.QueryParam("siteName"),
		EncryptedPassword: c.QueryParam("ep"),
	}

	res, err := h.svc.Confirm(c.Request().Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("handle", req.Handle).Msg("Confirmation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "setup failed")
	}

	switch res.Outcome {
	case services.ConfirmNotFound:
		return echo.NewHTTPError(http.StatusNotFound)
	case services.ConfirmSetupFailed:
		q := url.Values{}
		for _, fe := range res.Errors {
			h.log.Warn().Str("handle", req.Handle).Str("field", fe.Field).Msg(fe.Message)
			q.Add("field", fe.Field)
		}
		return c.Redirect(http.StatusFound, "/sites/Error?"+q.Encode())
	default:
		return c.Redirect(http.StatusFound, res.TenantPath)
	}
}

func (h *SitesHandler) renderForm(c echo.Context, form models.RegisterUserForm, errs models.FieldErrors) error {
	recipes, err := h.svc.Recipes(c.Request().Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list recipes")
		return echo.NewHTTPError(http.StatusInternalServerError, "recipes unavailable")
	}
	return c.Render(http.StatusOK, "index.html", indexPage{
		Form:    form,
		Errors:  errs,
		Recipes: recipes,
	})
}

// requestHost captures scheme, host and explicit port of the request.
func requestHost(c echo.Context) services.RequestHost {
	rh := services.RequestHost{Scheme: c.Scheme(), Host: c.Request().Host}
	if host, port, err := net.SplitHostPort(c.Request().Host); err == nil {
		rh.Host = host
		if p, err := strconv.Atoi(port); err == nil {
			rh.Port = p
		}
	}
	return rh
}
