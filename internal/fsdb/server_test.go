package fsdb

import (
	"path/filepath"
	"testing"

	"github.com/mbuesch/go-cms/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	fs, _ := newTestFS(t)
	cache, err := NewCache(fs, 64)
	require.NoError(t, err)

	return NewServer(cache, 0)
}

func TestHandleGetPage(t *testing.T) {
	fs, root := newTestFS(t)
	writeFile(t, filepath.Join(root, "pages", "foo", "content.html"), "<p>hi</p>")
	writeFile(t, filepath.Join(root, "pages", "foo", "title"), "Foo")

	cache, err := NewCache(fs, 64)
	require.NoError(t, err)
	s := NewServer(cache, 0)

	reply, err := s.handle(wire.DBMsg{
		Kind:     wire.DBMsgGetPage,
		Path:     "foo",
		GetData:  true,
		GetTitle: true,
	})
	require.NoError(t, err)

	assert.Equal(t, wire.DBMsgPage, reply.Kind)
	require.NotNil(t, reply.Title)
	assert.Equal(t, "Foo", *reply.Title)
	assert.Equal(t, "<p>hi</p>", string(reply.Data))
}

func TestHandleGetPageInvalidPath(t *testing.T) {
	s := newTestServer(t)

	reply, err := s.handle(wire.DBMsg{Kind: wire.DBMsgGetPage, Path: "../escape", GetData: true})
	require.NoError(t, err)
	assert.Equal(t, wire.DBMsgPage, reply.Kind)
	assert.Nil(t, reply.Data)
}

func TestHandleGetSubPages(t *testing.T) {
	fs, root := newTestFS(t)
	writeFile(t, filepath.Join(root, "pages", "a", "content.html"), "x")
	writeFile(t, filepath.Join(root, "pages", "b", "content.html"), "x")

	cache, err := NewCache(fs, 64)
	require.NoError(t, err)
	s := NewServer(cache, 0)

	reply, err := s.handle(wire.DBMsg{Kind: wire.DBMsgGetSubPages, Path: ""})
	require.NoError(t, err)
	assert.Equal(t, wire.DBMsgSubPages, reply.Kind)
	assert.Len(t, reply.SubPages, 2)
}

func TestHandleGetMacro(t *testing.T) {
	fs, root := newTestFS(t)
	writeFile(t, filepath.Join(root, "macros", "greet"), "hi")

	cache, err := NewCache(fs, 64)
	require.NoError(t, err)
	s := NewServer(cache, 0)

	reply, err := s.handle(wire.DBMsg{Kind: wire.DBMsgGetMacro, Parent: "a/b", Name: "greet"})
	require.NoError(t, err)
	assert.Equal(t, "hi", string(reply.Data))
}

func TestHandleUnknownKind(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handle(wire.DBMsg{Kind: 255})
	assert.Error(t, err)
}
