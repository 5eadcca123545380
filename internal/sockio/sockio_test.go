package sockio

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/mbuesch/go-cms/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnSendRecv(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	cc := NewConn(client, wire.MagicDB)
	sc := NewConn(server, wire.MagicDB)

	done := make(chan error, 1)
	go func() {
		done <- cc.SendMsg(wire.DBMsg{Kind: wire.DBMsgGetPage, Path: "foo/bar"})
	}()

	var got wire.DBMsg
	require.NoError(t, sc.RecvMsg(&got))
	require.NoError(t, <-done)

	assert.Equal(t, wire.DBMsgGetPage, got.Kind)
	assert.Equal(t, "foo/bar", got.Path)
}

func TestListenFreshRemovesStaleSocket(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "test.sock")

	stale, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	_ = stale.Close() // leaves the socket file behind on most platforms

	if _, err := os.Stat(sockPath); err != nil {
		t.Skip("platform removed the socket file on Close, nothing to test")
	}

	ln, err := listenFresh(sockPath)
	require.NoError(t, err)
	defer ln.Close()

	assert.Equal(t, "unix", ln.Addr().Network())
}

func TestListenFromSystemdOrPathFallsBackWithoutEnv(t *testing.T) {
	t.Setenv("LISTEN_PID", "")
	t.Setenv("LISTEN_FDS", "")

	dir := t.TempDir()
	sockPath := filepath.Join(dir, "fallback.sock")

	ln, err := ListenFromSystemdOrPath(sockPath, false)
	require.NoError(t, err)
	defer ln.Close()

	assert.Equal(t, "unix", ln.Addr().Network())
}
