package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type ChatRequest struct {
	Message string `json:"message"`
}

// Chat answers a single utterance. It always responds 200; degraded answers are marked
// with source "fallback".
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	return c.JSON(http.StatusOK, h.chat.Reply(c.Request().Context(), req.Message))
}
