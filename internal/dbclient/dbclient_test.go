package dbclient

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/sockio"
	"github.com/mbuesch/go-cms/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers exactly one request with a canned reply and then exits.
func fakeServer(t *testing.T, ln net.Listener, reply wire.DBMsg) {
	t.Helper()

	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		conn := sockio.NewConn(nc, wire.MagicDB)

		var req wire.DBMsg
		if err := conn.RecvMsg(&req); err != nil {
			return
		}
		_ = conn.SendMsg(reply)
	}()
}

func TestClientGetSubPages(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "fsd.sock")

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	fakeServer(t, ln, wire.DBMsg{
		Kind: wire.DBMsgSubPages,
		SubPages: []wire.SubPageInfo{
			{Name: "a", NavLabel: "A", Prio: 100},
		},
	})

	client, err := Dial(sockPath)
	require.NoError(t, err)
	defer client.Close()

	id, err := ident.Parse("").CheckUser()
	require.NoError(t, err)

	subs, err := client.GetSubPages(id)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "a", subs[0].Name)
	assert.Equal(t, uint64(100), subs[0].Prio)
}

func TestClientGetPage(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "fsd.sock")

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	title := "Hello"
	fakeServer(t, ln, wire.DBMsg{Kind: wire.DBMsgPage, Title: &title, Data: []byte("body")})

	client, err := Dial(sockPath)
	require.NoError(t, err)
	defer client.Close()

	id, err := ident.Parse("foo").CheckUser()
	require.NoError(t, err)

	fields, err := client.GetPage(id, true, true, false, false, false, false, false)
	require.NoError(t, err)
	require.NotNil(t, fields.Title)
	assert.Equal(t, "Hello", *fields.Title)
	assert.Equal(t, "body", string(fields.Data))
}
