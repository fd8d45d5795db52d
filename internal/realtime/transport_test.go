package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cartify/internal/domain"
	"cartify/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransportServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewWebsocketHandler(hub, logging.Discard(), func(*http.Request) bool { return true }))
	r.GET("/api/events", NewSSEHandler(hub, logging.Discard()))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestWebsocketHandler_DeliversEvents(t *testing.T) {
	hub := startHub(t)
	srv := newTransportServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Publish(context.Background(), event("p1", domain.ActionCreated)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	ev, ok, err := Decode(msg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p1", ev.Product.ID)
	assert.Equal(t, domain.ActionCreated, ev.Action)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return hub.SessionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSSEHandler_DeliversEvents(t *testing.T) {
	hub := startHub(t)
	srv := newTransportServer(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Publish(context.Background(), event("p2", domain.ActionDeleted)))

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	var sawEvent bool
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream ended early")
			if line == "event:"+Topic {
				sawEvent = true
				continue
			}
			if sawEvent && strings.HasPrefix(line, "data:") {
				ev, ok, err := Decode([]byte(strings.TrimPrefix(line, "data:")))
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, "p2", ev.Product.ID)
				return
			}
		case <-timeout:
			t.Fatal("no sse event received")
		}
	}
}
