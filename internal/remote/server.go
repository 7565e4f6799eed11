// Package remote lets a phone drive the engine over a websocket: touch,
// pinch and orientation frames go into the gesture router, and the last
// composed pose is served as JSON.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"depthflow/internal/motion"
	"depthflow/internal/utils"
)

// Sink receives decoded remote input. *input.Router satisfies it.
type Sink interface {
	PushPointer(ev motion.PointerEvent) bool
	PushPinch(ev motion.PinchEvent) bool
	PushOrientation(s motion.OrientationSample) bool
	Resume()
}

// PoseReader exposes the most recent composed pose.
type PoseReader interface {
	LastPose() (motion.Pose, bool)
}

type Server struct {
	sink  Sink
	poses PoseReader

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*websocket.Conn
}

func NewServer(sink Sink, poses PoseReader) *Server {
	return &Server{
		sink:  sink,
		poses: poses,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // phones connect from arbitrary origins on the LAN
			},
		},
		sessions: make(map[string]*websocket.Conn),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/pose", s.handlePose)
	return mux
}

// Sessions is the number of connected remotes.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ListenAndServe serves until ctx is cancelled, then closes every session.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	utils.Info("Remote: listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("remote server: %w", err)
	}
	return nil
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conn := range s.sessions {
		conn.Close()
		delete(s.sessions, id)
	}
}

func (s *Server) handlePose(w http.ResponseWriter, r *http.Request) {
	pose, ok := s.poses.LastPose()
	if !ok {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pose); err != nil {
		utils.Warn("Remote: pose encode error: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("Remote: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		utils.Info("Remote: session %s closed", id)
	}()

	utils.Info("Remote: session %s from %s", id, r.RemoteAddr)
	if err := conn.WriteJSON(Reply{Type: TypeHello, Session: id}); err != nil {
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				if conn.WriteJSON(Reply{Type: TypeError, Error: err.Error()}) != nil {
					return
				}
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				utils.Debug("Remote: session %s read error: %v", id, err)
			}
			return
		}

		reply, err := s.dispatch(msg)
		if err != nil {
			utils.Debug("Remote: session %s: %v", id, err)
			reply = &Reply{Type: TypeError, Error: err.Error()}
		}
		if reply != nil {
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(msg Message) (*Reply, error) {
	switch msg.Type {
	case TypePointer:
		ev, err := msg.PointerEvent()
		if err != nil {
			return nil, err
		}
		s.sink.PushPointer(ev)
	case TypePinch:
		ev, err := msg.PinchEvent()
		if err != nil {
			return nil, err
		}
		s.sink.PushPinch(ev)
	case TypeOrientation:
		s.sink.PushOrientation(msg.OrientationSample())
	case TypeResume:
		s.sink.Resume()
	case TypePose:
		pose, ok := s.poses.LastPose()
		if !ok {
			return nil, fmt.Errorf("%w: no frame rendered yet", ErrBadMessage)
		}
		return &Reply{Type: TypePose, Pose: &pose}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrBadMessage, msg.Type)
	}
	return nil, nil
}
