package httpapi

import (
	"net/http"

	"flip/internal/app"
	"flip/internal/bot"
	"flip/internal/domain"

	"github.com/gin-gonic/gin"
)

// CreateGameResponse carries one token per human seat. Bots get none.
type CreateGameResponse struct {
	SessionID string              `json:"session_id"`
	Players   []domain.PlayerSpec `json:"players"`
	Tokens    map[string]string   `json:"tokens"`
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": len(s.registry.List())})
}

func (s *Server) listGames(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.List())
}

func (s *Server) createGame(c *gin.Context) {
	var spec app.GameSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		abort(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if spec.Bots > 0 && !s.registry.Config().Bots.Enabled {
		abort(c, http.StatusBadRequest, "bots are disabled")
		return
	}

	sess, err := s.registry.CreateGame(c.Request.Context(), spec)
	if err != nil {
		s.logger.Warn("createGame: %v", err)
		status, msg := statusFor(err)
		abort(c, status, msg)
		return
	}

	resp := CreateGameResponse{SessionID: sess.ID(), Players: sess.Players(), Tokens: map[string]string{}}
	for _, p := range resp.Players {
		if p.Bot {
			continue
		}
		token, err := s.tokens.Issue(sess.ID(), p.ID)
		if err != nil {
			s.logger.Error("createGame: failed to issue token for %s: %v", p.ID, err)
			_ = s.registry.Remove(sess.ID())
			abort(c, http.StatusInternalServerError, "failed to issue tokens")
			return
		}
		resp.Tokens[p.ID] = token
	}
	if _, err := bot.Attach(s.ctx, sess, s.bots, s.logger); err != nil {
		s.logger.Error("createGame: failed to start bots for %s: %v", sess.ID(), err)
		_ = s.registry.Remove(sess.ID())
		abort(c, http.StatusInternalServerError, "failed to start bots")
		return
	}

	s.logger.Info("createGame: created %s session %s", spec.Variant, sess.ID())
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) getView(c *gin.Context) {
	player, sess := caller(c)
	view, err := sess.View(player)
	if err != nil {
		status, msg := statusFor(err)
		abort(c, status, msg)
		return
	}
	c.JSON(http.StatusOK, view)
}

// submitCommand answers 200 for rejected commands too; the result carries
// the error list.
func (s *Server) submitCommand(c *gin.Context) {
	player, sess := caller(c)
	var env domain.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		abort(c, http.StatusBadRequest, "invalid command")
		return
	}
	res, err := sess.SubmitEnvelope(c.Request.Context(), player, env)
	if err != nil {
		s.logger.Warn("submitCommand: %s by %s on %s failed: %v", env.Type, player, sess.ID(), err)
		status, msg := statusFor(err)
		abort(c, status, msg)
		return
	}
	c.JSON(http.StatusOK, res)
}
