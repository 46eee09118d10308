package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/usecase"
)

type HelpRequestResponse struct {
	Request    domain.HelpRequest `json:"request"`
	Message    string             `json:"message"`
	SafetyTips []string           `json:"safety_tips"`
}

func (h *Handler) SubmitHelpRequest(c echo.Context) error {
	var input usecase.HelpRequestInput
	if err := c.Bind(&input); err != nil {
		return bindError(err)
	}

	req, err := h.help.Submit(c.Request().Context(), input)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, HelpRequestResponse{
		Request:    req,
		Message:    "Help is on the way! We've received your request and are connecting you with nearby volunteers.",
		SafetyTips: usecase.SafetyTips,
	})
}

func (h *Handler) ListHelpRequests(c echo.Context) error {
	severity := domain.Severity(c.QueryParam("severity"))
	if severity == "" {
		severity = domain.SeverityHigh
	}

	requests, err := h.help.BySeverity(c.Request().Context(), severity)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"requests": requests})
}
