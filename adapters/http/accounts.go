package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/usecase"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VolunteerSignupRequest struct {
	Credentials
	usecase.VolunteerSignup
}

type NGOSignupRequest struct {
	Credentials
	usecase.NGOSignup
}

type TokenResponse struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresAt time.Time         `json:"expires_at"`
	Volunteer *domain.Volunteer `json:"volunteer,omitempty"`
	NGO       *domain.NGO       `json:"ngo,omitempty"`
}

func (h *Handler) issue(c echo.Context, uid string, role domain.Role) (TokenResponse, error) {
	token, expires, err := h.tokens.Issue(uid, role)
	if err != nil {
		return TokenResponse{}, domainError(c, err)
	}
	return TokenResponse{Token: token, Type: "Bearer", ExpiresAt: expires}, nil
}

func (h *Handler) SignupVolunteer(c echo.Context) error {
	var req VolunteerSignupRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	volunteer, err := h.accounts.RegisterVolunteer(c.Request().Context(), req.Email, req.Password, req.VolunteerSignup)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"volunteer": volunteer,
		"message":   "Account created. Please check your email to verify your address.",
	})
}

func (h *Handler) LoginVolunteer(c echo.Context) error {
	var req Credentials
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	account, volunteer, err := h.accounts.LoginVolunteer(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return domainError(c, err)
	}

	resp, err := h.issue(c, account.UID, domain.VolunteerRole)
	if err != nil {
		return err
	}
	resp.Volunteer = &volunteer
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetVolunteer(c echo.Context) error {
	volunteer, err := h.accounts.Volunteer(c.Request().Context(), currentUID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, volunteer)
}

func (h *Handler) UpdateVolunteer(c echo.Context) error {
	var update usecase.VolunteerUpdate
	if err := c.Bind(&update); err != nil {
		return bindError(err)
	}

	volunteer, err := h.accounts.UpdateVolunteer(c.Request().Context(), currentUID(c), update)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, volunteer)
}

func (h *Handler) SignupNGO(c echo.Context) error {
	var req NGOSignupRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	ngo, err := h.accounts.RegisterNGO(c.Request().Context(), req.Email, req.Password, req.NGOSignup)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"ngo":     ngo,
		"message": "Registration received. Verify your email; your organisation will be reviewed before you can sign in.",
	})
}

func (h *Handler) LoginNGO(c echo.Context) error {
	var req Credentials
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	account, ngo, err := h.accounts.LoginNGO(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return domainError(c, err)
	}

	resp, err := h.issue(c, account.UID, domain.NGORole)
	if err != nil {
		return err
	}
	resp.NGO = &ngo
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetNGO(c echo.Context) error {
	ngo, err := h.accounts.NGO(c.Request().Context(), currentUID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, ngo)
}

func (h *Handler) UpdateNGO(c echo.Context) error {
	var update usecase.NGOUpdate
	if err := c.Bind(&update); err != nil {
		return bindError(err)
	}

	ngo, err := h.accounts.UpdateNGOProfile(c.Request().Context(), currentUID(c), update)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, ngo)
}

// ListNGOs returns the public directory of approved NGOs.
func (h *Handler) ListNGOs(c echo.Context) error {
	ngos, err := h.accounts.ApprovedNGOs(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ngos": ngos})
}

func (h *Handler) ApproveNGO(c echo.Context) error {
	ngo, err := h.accounts.ApproveNGO(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, ngo)
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	account, err := h.accounts.VerifyEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"verified": account.EmailVerified,
		"email":    account.Email,
	})
}

func (h *Handler) ResendVerification(c echo.Context) error {
	if err := h.accounts.ResendVerification(c.Request().Context(), currentUID(c)); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"message": "Verification email sent"})
}
