//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/monitoring"
)

// getFreePort returns a free TCP port on localhost.
func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestBuildHandler_ServerLifecycle(t *testing.T) {
	useSQLite(t, sampleRecords()...)
	env, err := initEngine(context.Background(), "serve")
	require.NoError(t, err)
	defer env.Close()

	port := getFreePort(t)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: buildHandler(env.Engine, monitoring.NewCollector(env.Store), dedupe.ScanOptions{}),
	}

	// Start server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)

	// Wait for server to be ready.
	var ready bool
	for i := 0; i < 20; i++ {
		resp, err := http.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, ready, "server did not become ready in time")

	// Scan through the real engine and store.
	resp, err := http.Post(base+"/v1/scan", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep dedupe.ScanReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
	require.Len(t, rep.Groups, 1)

	statsResp, err := http.Get(base + "/v1/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	var snap monitoring.Snapshot
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&snap))
	assert.Equal(t, 4, snap.Records)

	// Graceful shutdown.
	require.NoError(t, srv.Shutdown(context.Background()))

	// Wait for server to finish.
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServeCmd_InvalidServerConfig(t *testing.T) {
	useSQLite(t)
	cfg.Server.Port = 0

	_, err := runCmd(t, serveCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}
