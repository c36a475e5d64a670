package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"flip/internal/app"
	"flip/internal/domain"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Frame types written to a stream.
const (
	FrameUpdate = "update"
	FrameResult = "result"
	FrameError  = "error"
)

// Frame is one server to client websocket message.
type Frame struct {
	T      string      `json:"t"`
	Update *app.Update `json:"update,omitempty"`
	Result *app.Result `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// stream upgrades to a websocket that pushes every view update of the
// caller. Text frames received on it are decoded as commands and answered
// with a result frame.
func (s *Server) stream(c *gin.Context) {
	player, sess := caller(c)
	sub, err := sess.Subscribe(player)
	if err != nil {
		status, msg := statusFor(err)
		abort(c, status, msg)
		return
	}
	defer sub.Close()

	conn, err := websocket.Accept(rawWriter(c), c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn("stream: upgrade failed for %s: %v", player, err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		select {
		case <-s.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	replies := make(chan Frame, 8)
	go s.readCommands(ctx, cancel, conn, sess, player, replies)

	s.logger.Debug("stream: %s subscribed to %s", player, sess.ID())
	s.writeFrames(ctx, conn, sub, replies)
}

// rawWriter returns the net/http writer under gin's. The handshake must go
// through it: gin buffers WriteHeader until the first body write, so the 101
// never reaches a connection hijacked through gin's writer.
func rawWriter(c *gin.Context) http.ResponseWriter {
	if u, ok := c.Writer.(interface{ Unwrap() http.ResponseWriter }); ok {
		return u.Unwrap()
	}
	return c.Writer
}

func (s *Server) writeFrames(ctx context.Context, conn *websocket.Conn, sub *app.Subscription, replies <-chan Frame) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		var frame Frame
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub.Updates():
			if !ok {
				return
			}
			frame = Frame{T: FrameUpdate, Update: &u}
		case frame = <-replies:
		case <-ping.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
			continue
		}
		if err := wsjson.Write(ctx, conn, frame); err != nil {
			return
		}
	}
}

func (s *Server) readCommands(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *app.Session, player string, replies chan<- Frame) {
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var env domain.Envelope
		reply := Frame{T: FrameError}
		if err := json.Unmarshal(data, &env); err != nil {
			reply.Error = "invalid command"
		} else if res, err := sess.SubmitEnvelope(ctx, player, env); err != nil {
			_, reply.Error = statusFor(err)
		} else {
			reply = Frame{T: FrameResult, Result: &res}
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}
