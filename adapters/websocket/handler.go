package websocket

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/aidbridge/backend/adapters/auth"
	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/utils/log"
)

// Handler serves the "/ws" endpoint. A token may be given as ?token= or a bearer header;
// without one the connection is anonymous and only chats.
func (s *Server) Handler(c echo.Context) error {
	uid, role, err := s.authenticate(c)
	if err != nil {
		log.WithCtx(c.Request().Context()).Debug("WebSocket auth failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	// The request context ends with the handler; the client outlives neither.
	client := NewClient(c.Request().Context(), conn, uid, role)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	s.serve(client)
	return nil
}

func (s *Server) authenticate(c echo.Context) (string, domain.Role, error) {
	token := c.QueryParam("token")
	if token == "" {
		if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
			var ok bool
			if token, ok = auth.BearerToken(header); !ok {
				return "", "", auth.ErrInvalidToken
			}
		}
	}
	if token == "" {
		return "", "", nil
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", "", err
	}
	return claims.UID, claims.Role, nil
}
