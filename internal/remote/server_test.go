package remote

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depthflow/internal/motion"
)

type recordingSink struct {
	mu           sync.Mutex
	pointers     []motion.PointerEvent
	pinches      []motion.PinchEvent
	orientations []motion.OrientationSample
	resumes      int
}

func (r *recordingSink) PushPointer(ev motion.PointerEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointers = append(r.pointers, ev)
	return true
}

func (r *recordingSink) PushPinch(ev motion.PinchEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pinches = append(r.pinches, ev)
	return true
}

func (r *recordingSink) PushOrientation(s motion.OrientationSample) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orientations = append(r.orientations, s)
	return true
}

func (r *recordingSink) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumes++
}

func (r *recordingSink) counts() (int, int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pointers), len(r.pinches), len(r.orientations), r.resumes
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) Reply {
	t.Helper()
	var r Reply
	require.NoError(t, conn.ReadJSON(&r))
	return r
}

func TestServer_HelloAndDispatch(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	engine := motion.NewEngine(motion.DefaultParams())
	s := NewServer(sink, engine)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	hello := readReply(t, conn)
	assert.Equal(t, TypeHello, hello.Type)
	_, err := uuid.Parse(hello.Session)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.Sessions() == 1 }, time.Second, time.Millisecond)

	frames := []Message{
		{Type: TypePointer, Action: "down", X: 10, Y: 20, Pointers: 1},
		{Type: TypePointer, Action: "move", X: 30, Y: 20, Pointers: 1},
		{Type: TypePointer, Action: "pointer-down", Pointers: 2},
		{Type: TypePinch, Scale: 1.5, InProgress: true},
		{Type: TypeOrientation, Pitch: 90, Roll: -90},
		{Type: TypeResume},
	}
	for _, f := range frames {
		require.NoError(t, conn.WriteJSON(f))
	}

	require.Eventually(t, func() bool {
		p, z, o, r := sink.counts()
		return p == 3 && z == 1 && o == 1 && r == 1
	}, 2*time.Second, time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, motion.PointerEvent{Action: motion.PointerDown, Position: motion.Vec2{X: 10, Y: 20}, Pointers: 1}, sink.pointers[0])
	assert.Equal(t, motion.SecondaryDown, sink.pointers[2].Action)
	assert.Equal(t, motion.PinchEvent{Scale: 1.5, InProgress: true}, sink.pinches[0])
	assert.InDelta(t, math.Pi/2, sink.orientations[0].Pitch, 1e-12)
	assert.InDelta(t, -math.Pi/2, sink.orientations[0].Roll, 1e-12)
}

func TestServer_BadMessagesKeepSession(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	s := NewServer(sink, motion.NewEngine(motion.DefaultParams()))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	readReply(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{broken")))
	assert.Equal(t, TypeError, readReply(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "teleport"}))
	assert.Contains(t, readReply(t, conn).Error, "unknown type")

	require.NoError(t, conn.WriteJSON(Message{Type: TypePointer, Action: "hover"}))
	assert.Contains(t, readReply(t, conn).Error, "unknown pointer action")

	require.NoError(t, conn.WriteJSON(Message{Type: TypePinch, Scale: 0}))
	assert.Equal(t, TypeError, readReply(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePointer, Action: "up"}))
	require.Eventually(t, func() bool {
		p, _, _, _ := sink.counts()
		return p == 1
	}, 2*time.Second, time.Millisecond)
}

func TestServer_Pose(t *testing.T) {
	t.Parallel()
	engine := motion.NewEngine(motion.DefaultParams())
	s := NewServer(&recordingSink{}, engine)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/pose")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	conn := dial(t, srv)
	readReply(t, conn)
	require.NoError(t, conn.WriteJSON(Message{Type: TypePose}))
	assert.Equal(t, TypeError, readReply(t, conn).Type)

	want := engine.Compose(0)

	resp, err = http.Get(srv.URL + "/api/pose")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got motion.Pose
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, want, got)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePose}))
	reply := readReply(t, conn)
	require.NotNil(t, reply.Pose)
	assert.Equal(t, want, *reply.Pose)
}

func TestServer_ServeClosesSessionsOnCancel(t *testing.T) {
	t.Parallel()
	s := NewServer(&recordingSink{}, motion.NewEngine(motion.DefaultParams()))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	readReply(t, conn)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	var r Reply
	assert.Error(t, conn.ReadJSON(&r), "session is closed on shutdown")
	assert.Eventually(t, func() bool { return s.Sessions() == 0 }, time.Second, time.Millisecond)
}

func TestMessageConversion(t *testing.T) {
	t.Parallel()
	for name, want := range actions {
		ev, err := Message{Type: TypePointer, Action: name, Pointers: 1}.PointerEvent()
		require.NoError(t, err)
		assert.Equal(t, want, ev.Action)
		assert.Equal(t, name, ev.Action.String())
	}
	_, err := Message{Action: "down", Pointers: -1}.PointerEvent()
	assert.ErrorIs(t, err, ErrBadMessage)
}
