package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"flip/internal/app"

	"github.com/gin-gonic/gin"
)

func (s *Server) requireLobbyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.lobbyKey == "" {
			c.Next()
			return
		}
		got := c.GetHeader(lobbyKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.lobbyKey)) != 1 {
			abort(c, http.StatusUnauthorized, "invalid lobby key")
			return
		}
		c.Next()
	}
}

// requirePlayer resolves the bearer token and the session named in the path.
// Browsers cannot set headers on websocket upgrades, so ?token= also works.
func (s *Server) requirePlayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			abort(c, http.StatusUnauthorized, "missing player token")
			return
		}
		claims, err := s.tokens.Verify(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, app.ErrInvalidToken.Error())
			return
		}
		if claims.SessionID != c.Param("id") {
			abort(c, http.StatusForbidden, "token belongs to another session")
			return
		}
		sess, err := s.registry.Get(claims.SessionID)
		if err != nil {
			status, msg := statusFor(err)
			abort(c, status, msg)
			return
		}
		c.Set(playerKey, claims.PlayerID)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func caller(c *gin.Context) (string, *app.Session) {
	return c.GetString(playerKey), c.MustGet(sessionKey).(*app.Session)
}
