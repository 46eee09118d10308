package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/aidbridge/backend/adapters/auth"
	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/usecase"
	"github.com/aidbridge/backend/utils/log"
)

const (
	// Request size limit
	MaxRequestSize = "1MB"

	uidKey  = "uid"
	roleKey = "role"
)

type Handler struct {
	chat       *usecase.ChatService
	accounts   *usecase.AccountService
	help       *usecase.HelpRequestService
	tokens     *auth.Issuer
	adminToken string
}

func NewHandler(
	chat *usecase.ChatService,
	accounts *usecase.AccountService,
	help *usecase.HelpRequestService,
	tokens *auth.Issuer,
	adminToken string,
) *Handler {
	return &Handler{
		chat:       chat,
		accounts:   accounts,
		help:       help,
		tokens:     tokens,
		adminToken: adminToken,
	}
}

// Routes mounts the REST API under /api/v1.
func (h *Handler) Routes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.Use(middleware.BodyLimit(MaxRequestSize))

	// Public endpoints (no auth required)
	api.GET("/health", h.HealthCheck)
	api.POST("/chat", h.Chat)
	api.POST("/volunteers/signup", h.SignupVolunteer)
	api.POST("/volunteers/login", h.LoginVolunteer)
	api.POST("/ngos/signup", h.SignupNGO)
	api.POST("/ngos/login", h.LoginNGO)
	api.GET("/ngos", h.ListNGOs)
	api.GET("/auth/verify", h.VerifyEmail)
	api.POST("/help-requests", h.SubmitHelpRequest)

	// JWT auth required
	volunteer := []echo.MiddlewareFunc{h.JWTMiddleware, h.RequireRole(domain.VolunteerRole)}
	ngo := []echo.MiddlewareFunc{h.JWTMiddleware, h.RequireRole(domain.NGORole)}

	api.POST("/auth/verification", h.ResendVerification, h.JWTMiddleware)
	api.GET("/help-requests", h.ListHelpRequests, h.JWTMiddleware)
	api.GET("/volunteers/me", h.GetVolunteer, volunteer...)
	api.PATCH("/volunteers/me", h.UpdateVolunteer, volunteer...)
	api.GET("/ngos/me", h.GetNGO, ngo...)
	api.PATCH("/ngos/me", h.UpdateNGO, ngo...)

	// Operator endpoints
	api.POST("/ngos/:id/approve", h.ApproveNGO, h.AdminMiddleware)
}

// RequestContext copies the request id into the request context for logging.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id == "" {
			id = c.Request().Header.Get(echo.HeaderXRequestID)
		}
		if id != "" {
			ctx := log.ContextWithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

// JWT middleware for authentication
func (h *Handler) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
		}

		tokenString, ok := auth.BearerToken(authHeader)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		claims, err := h.tokens.Parse(tokenString)
		if err != nil {
			log.WithCtx(c.Request().Context()).Debug("JWT validation error", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		c.Set(uidKey, claims.UID)
		c.Set(roleKey, claims.Role)
		ctx := log.ContextWithUser(c.Request().Context(), claims.UID, string(claims.Role))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func (h *Handler) RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r, _ := c.Get(roleKey).(domain.Role); r != role {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

// AdminMiddleware guards operator endpoints with the X-Admin-Token shared secret.
func (h *Handler) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.adminToken == "" {
			return echo.NewHTTPError(http.StatusForbidden, "Admin endpoints are disabled")
		}
		given := c.Request().Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(given), []byte(h.adminToken)) != 1 {
			return echo.NewHTTPError(http.StatusForbidden, "Invalid admin token")
		}
		return next(c)
	}
}

// Health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "aidbridge",
	})
}

func currentUID(c echo.Context) string {
	uid, _ := c.Get(uidKey).(string)
	return uid
}

func bindError(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
}

// domainError translates usecase errors into HTTP errors.
func domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrWeakPassword):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmailInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrPendingApproval):
		return echo.NewHTTPError(http.StatusForbidden,
			"Your NGO account is pending approval. Please wait for admin verification.")
	case errors.Is(err, domain.ErrProfileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Profile not found. Please contact support.")
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	default:
		log.WithCtx(c.Request().Context()).Error("request failed", zap.Error(err), zap.String("path", c.Path()))
		return echo.NewHTTPError(http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
	}
}
