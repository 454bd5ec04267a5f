package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
)

type recordingHandler struct {
	mu      sync.Mutex
	results []picker.Result
}

func (r *recordingHandler) OnPickerResult(res picker.Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

func (r *recordingHandler) snapshot() []picker.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]picker.Result(nil), r.results...)
}

func startHub(t *testing.T) (*Hub, *monitoring.Metrics, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := monitoring.NewMetrics()
	hub := NewHub(nil, metrics, nil)
	router := gin.New()
	router.GET("/picker", hub.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return hub, metrics, "ws" + strings.TrimPrefix(srv.URL, "http") + "/picker"
}

func dial(t *testing.T, hub *Hub, url string) *websocket.Conn {
	t.Helper()
	before := hub.Connected()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Connected() == before+1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestLaunchWithoutHost(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	err := hub.Launch(context.Background(), picker.Request{RequestCode: 1})
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestLaunchAndResult(t *testing.T) {
	hub, _, url := startHub(t)
	handler := &recordingHandler{}
	hub.Bind(handler)
	conn := dial(t, hub, url)

	err := hub.Launch(context.Background(), picker.Request{
		RequestCode: 65537,
		Action:      picker.OpenDocument,
		Title:       "Select File",
		MimeTypes:   []string{"*/*"},
		Flags:       picker.Read | picker.Write,
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg types.PickerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "launch", msg.Type)
	assert.Equal(t, int64(65537), msg.RequestCode)
	assert.Equal(t, string(picker.OpenDocument), msg.Action)
	assert.Equal(t, int(picker.Read|picker.Write), msg.Flags)

	require.NoError(t, conn.WriteJSON(types.PickerMessage{
		Type:        "result",
		RequestCode: msg.RequestCode,
		OK:          true,
		URI:         "content://docbridge.local/document/primary:a.txt",
		Flags:       int(picker.Read),
	}))

	require.Eventually(t, func() bool { return len(handler.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	got := handler.snapshot()[0]
	assert.Equal(t, int64(65537), got.RequestCode)
	assert.True(t, got.OK)
	assert.Equal(t, picker.Read, got.Flags)
}

func TestViewAndPing(t *testing.T) {
	hub, metrics, url := startHub(t)
	conn := dial(t, hub, url)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	require.NoError(t, hub.View(context.Background(), picker.ViewRequest{URI: "content://x", MimeType: "text/plain"}))
	var msg types.PickerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "view", msg.Type)
	assert.Equal(t, "text/plain", msg.MimeType)

	require.NoError(t, conn.WriteJSON(types.PickerMessage{Type: "ping"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)

	require.NoError(t, conn.WriteJSON(types.PickerMessage{Type: "bogus"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)

	assert.EqualValues(t, 1, metrics.Snapshot().HostConnections)
}

func TestDisconnectRemovesHost(t *testing.T) {
	hub, metrics, url := startHub(t)
	conn := dial(t, hub, url)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connected() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 0, metrics.Snapshot().HostConnections)
	assert.ErrorIs(t, hub.Launch(context.Background(), picker.Request{}), ErrNoHost)
}
