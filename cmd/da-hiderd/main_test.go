package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/config"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/visibility"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestApplication_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	list := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# test list\nhttps://www.deviantart.com/badartist\n")
	}))
	defer list.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head></head><body>
<div data-testid="deviation_card" id="A"><a data-username="badartist">b</a></div></body></html>`)
	}))
	defer site.Close()

	port := freePort(t)
	t.Setenv("HIDER_BLOCKLIST_URL", list.URL+"/list.txt")
	t.Setenv("HIDER_PROXY_UPSTREAM", site.URL)
	t.Setenv("HIDER_PROXY_PORT", fmt.Sprintf("%d", port))
	t.Setenv("HIDER_LOG_LEVEL", "debug")
	t.Setenv("HIDER_ENV", "dev")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Warnings(), "test list url is not a raw github file")

	app, err := buildApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	appErr := make(chan error, 1)
	go func() { appErr <- app.Run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return app.engine.Armed()
	}, 3*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/gallery")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), visibility.HiddenClass))

	cancel()
	select {
	case err := <-appErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestBuildApplication_RejectsBadHopLimit(t *testing.T) {
	cfg := config.DEFAULT_APP_CONFIG
	cfg.Resolver.HopLimit = 0

	_, err := buildApplication(&cfg)
	require.Error(t, err)
}
