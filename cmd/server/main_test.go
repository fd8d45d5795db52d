package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"cartify/internal/logging"
	"cartify/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppStop_EndsStreamingSessions(t *testing.T) {
	hub := realtime.NewHub(logging.Discard())
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/events", realtime.NewSSEHandler(hub, logging.Discard()))

	a := &app{log: logging.Discard(), hub: hub, stopHub: stopHub}
	a.setServer(&http.Server{Handler: r, ReadHeaderTimeout: time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- a.srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	streamEnded := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		close(streamEnded)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, a.Stop(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, <-served, http.ErrServerClosed)

	select {
	case <-streamEnded:
	case <-time.After(2 * time.Second):
		t.Fatal("sse stream still open after shutdown")
	}
}
