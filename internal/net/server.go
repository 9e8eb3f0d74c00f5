package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/peterkuimelis/rift/internal/deck"
	"github.com/peterkuimelis/rift/internal/rules"
)

// readLimit bounds a single client message.
const readLimit = 1 << 20

// Server answers protocol requests over WebSocket connections. It is an
// http.Handler so it can be mounted on any mux.
type Server struct {
	Logger *zap.Logger
}

// NewServer creates a server. A nil logger discards output.
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Logger: logger}
}

// ServeHTTP upgrades the request and serves messages until the client leaves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		s.Logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	ctx := r.Context()
	s.Logger.Debug("client connected", zap.String("remote", r.RemoteAddr))

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				s.Logger.Debug("client disconnected", zap.String("remote", r.RemoteAddr))
			} else {
				s.Logger.Info("read message failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			}
			return
		}

		resp := s.Handle(msg)
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			s.Logger.Info("write message failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}
	}
}

// Handle computes the response to a single client message.
func (s *Server) Handle(msg ClientMessage) ServerMessage {
	resp := ServerMessage{ID: msg.ID}

	switch msg.Type {
	case TypePing:
		resp.Type = TypePong
		resp.Message = "pong"

	case TypeDecode:
		d, err := deck.Decode(msg.Code)
		if err != nil {
			return errorMessage(msg.ID, decodeErrorCode(err), err.Error())
		}
		resp.Type = TypeDeck
		resp.Deck = d

	case TypeResolvePermissions:
		res := rules.ResolvePermissions(msg.Permissions)
		resp.Type = TypePermission
		resp.Permission = &res

	case TypeResolveInstructions:
		res := rules.ResolveInstructions(msg.Instructions)
		resp.Type = TypeInstructions
		resp.Instructions = &res

	default:
		return errorMessage(msg.ID, CodeBadRequest, fmt.Sprintf("unknown message type %q", msg.Type))
	}

	s.Logger.Debug("handled message", zap.String("type", msg.Type), zap.String("id", msg.ID))
	return resp
}

func decodeErrorCode(err error) string {
	switch {
	case errors.Is(err, deck.ErrEmptyInput):
		return CodeEmptyInput
	case errors.Is(err, deck.ErrUnrecognizedFormat):
		return CodeUnrecognizedFormat
	default:
		return CodeBadRequest
	}
}

func errorMessage(id, code, text string) ServerMessage {
	return ServerMessage{Type: TypeError, ID: id, ErrorCode: code, Error: text}
}

// ListenAndServe serves the protocol at /ws on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", s)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("protocol server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
