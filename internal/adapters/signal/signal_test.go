package signal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/stagehand/internal/app"
	"github.com/dkeye/stagehand/internal/app/orch"
	"github.com/dkeye/stagehand/internal/core"
	"github.com/dkeye/stagehand/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, opts Options) (string, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	o := orch.New(app.NewRegistry(), app.NewPhotoStore(), app.SimplePolicy{Action: app.DropFrame}, nil, orch.Options{})
	go o.Run(ctx)

	ctrl := NewSignalWSController(o, opts)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctrl.HandleSignal(ctx, c) })

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", o
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env protocol.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestSignalRelaysBetweenClients(t *testing.T) {
	url, o := startServer(t, Options{})

	dir := dial(t, url)
	require.NoError(t, dir.WriteMessage(websocket.TextMessage, []byte(`{"event":"register-control-client"}`)))
	env := readEnvelope(t, dir)
	assert.Equal(t, protocol.OutClientList, env.Event)
	assert.JSONEq(t, `[]`, string(env.Data))

	cam := dial(t, url)
	require.NoError(t, cam.WriteMessage(websocket.TextMessage, []byte(`{"event":"register-client-a","data":6}`)))
	env = readEnvelope(t, dir)
	assert.Equal(t, protocol.OutClientList, env.Event)
	assert.JSONEq(t, `[6]`, string(env.Data))

	require.NoError(t, dir.WriteMessage(websocket.TextMessage, []byte(`{"event":"control-show-number"}`)))
	env = readEnvelope(t, cam)
	assert.Equal(t, protocol.OutShowNumber, env.Event)
	assert.JSONEq(t, `6`, string(env.Data))

	require.NoError(t, cam.Close())
	env = readEnvelope(t, dir)
	assert.Equal(t, protocol.OutClientList, env.Event)
	assert.JSONEq(t, `[]`, string(env.Data))

	assert.Eventually(t, func() bool { return o.Registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSignalAnswersPing(t *testing.T) {
	url, _ := startServer(t, Options{})
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping"}`)))
	env := readEnvelope(t, conn)
	assert.Equal(t, evPong, env.Event)
}

func TestSignalRejectsOversizedMessage(t *testing.T) {
	url, o := startServer(t, Options{ReadLimit: 128})
	conn := dial(t, url)
	require.Eventually(t, func() bool { return o.Registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	big := `{"event":"photo-to-server","data":{"photoData":"` + strings.Repeat("A", 512) + `"}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))

	assert.Eventually(t, func() bool { return o.Registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWsSignalConnQueue(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 1)}
	require.NoError(t, c.TrySend([]byte("a")))
	assert.ErrorIs(t, c.TrySend([]byte("b")), ErrSendQueueFull)

	c.Close()
	c.Close()
	assert.ErrorIs(t, c.TrySend([]byte("c")), ErrConnClosed)
}
