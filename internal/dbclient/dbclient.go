// Package dbclient is the backend service's client for the page database
// service's P-DB protocol. It exposes one typed method per request shape
// and serializes them over a single connection, since the protocol
// handles one request at a time per connection (no pipelining).
package dbclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/retry"
	"github.com/mbuesch/go-cms/internal/sockio"
	"github.com/mbuesch/go-cms/internal/wire"
)

// SubPageInfo mirrors fsdb.PageInfo without depending on that package, to
// keep the backend's dependency graph a strict pipeline (fsdb is a
// separate service process; the backend only depends on the wire shape).
type SubPageInfo struct {
	Name     string
	NavLabel string
	NavStop  bool
	Stamp    uint64
	Prio     uint64
}

// PageFields is a sparse view of the page fields requested by GetPage;
// unrequested fields are left nil.
type PageFields struct {
	Title    *string
	Data     []byte
	Stamp    *uint64
	Prio     *uint64
	Redirect *string
	NavStop  *bool
	NavLabel *string
}

// Client talks to one page database service instance over a unix socket.
type Client struct {
	mu   sync.Mutex
	conn *sockio.Conn
	path string
}

// Dial connects to the page database service's socket at path.
func Dial(path string) (*Client, error) {
	conn, err := sockio.Dial(path, wire.MagicDB)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, path: path}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// reconnect re-dials the socket after a transport error, so a transient
// restart of the page database service doesn't wedge every subsequent request.
func (c *Client) reconnect() error {
	_ = c.conn.Close()

	conn, err := sockio.Dial(c.path, wire.MagicDB)
	if err != nil {
		return err
	}
	c.conn = conn

	return nil
}

func (c *Client) roundTrip(req wire.DBMsg) (wire.DBMsg, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var reply wire.DBMsg

	err := retry.DoWithConfig(context.Background(), retry.DBDialConfig(), func() error {
		if err := c.conn.SendMsg(req); err != nil {
			if rerr := c.reconnect(); rerr != nil {
				return rerr
			}

			return err
		}
		if err := c.conn.RecvMsg(&reply); err != nil {
			if rerr := c.reconnect(); rerr != nil {
				return rerr
			}

			return err
		}

		return nil
	})

	return reply, err
}

// GetPage fetches the requested subset of fields for id.
func (c *Client) GetPage(id ident.CheckedIdent, wantTitle, wantData, wantStamp, wantPrio, wantRedirect, wantNavStop, wantNavLabel bool) (PageFields, error) {
	reply, err := c.roundTrip(wire.DBMsg{
		Kind:        wire.DBMsgGetPage,
		Path:        id.Downgrade().String(),
		GetTitle:    wantTitle,
		GetData:     wantData,
		GetStamp:    wantStamp,
		GetPrio:     wantPrio,
		GetRedirect: wantRedirect,
		GetNavStop:  wantNavStop,
		GetNavLabel: wantNavLabel,
	})
	if err != nil {
		return PageFields{}, fmt.Errorf("dbclient: GetPage %s: %w", id.Downgrade(), err)
	}

	return PageFields{
		Title:    reply.Title,
		Data:     reply.Data,
		Stamp:    reply.Stamp,
		Prio:     reply.Prio,
		Redirect: reply.Redirect,
		NavStop:  reply.NavStop,
		NavLabel: reply.NavLabel,
	}, nil
}

// GetHeaders fetches id's concatenated ancestor header markup.
func (c *Client) GetHeaders(id ident.CheckedIdent) ([]byte, error) {
	reply, err := c.roundTrip(wire.DBMsg{Kind: wire.DBMsgGetHeaders, Path: id.Downgrade().String()})
	if err != nil {
		return nil, fmt.Errorf("dbclient: GetHeaders %s: %w", id.Downgrade(), err)
	}

	return reply.Data, nil
}

// GetSubPages fetches id's visible child pages with every per-subpage
// field filled in.
func (c *Client) GetSubPages(id ident.CheckedIdent) ([]SubPageInfo, error) {
	reply, err := c.roundTrip(wire.DBMsg{
		Kind:        wire.DBMsgGetSubPages,
		Path:        id.Downgrade().String(),
		GetNavLabel: true,
		GetNavStop:  true,
		GetStamp:    true,
		GetPrio:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("dbclient: GetSubPages %s: %w", id.Downgrade(), err)
	}

	out := make([]SubPageInfo, len(reply.SubPages))
	for i, s := range reply.SubPages {
		out[i] = SubPageInfo{
			Name:     s.Name,
			NavLabel: s.NavLabel,
			NavStop:  s.NavStop,
			Stamp:    s.Stamp,
			Prio:     s.Prio,
		}
	}

	return out, nil
}

// GetMacro resolves a macro call relative to parent.
func (c *Client) GetMacro(parent ident.CheckedIdent, name ident.CheckedIdentElem) ([]byte, error) {
	reply, err := c.roundTrip(wire.DBMsg{
		Kind:   wire.DBMsgGetMacro,
		Parent: parent.Downgrade().String(),
		Name:   name.Downgrade().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("dbclient: GetMacro %s: %w", name.Downgrade(), err)
	}

	return reply.Data, nil
}

// GetString fetches a global string resource.
func (c *Client) GetString(name ident.CheckedIdentElem) ([]byte, error) {
	reply, err := c.roundTrip(wire.DBMsg{Kind: wire.DBMsgGetString, Name: name.Downgrade().String()})
	if err != nil {
		return nil, fmt.Errorf("dbclient: GetString %s: %w", name.Downgrade(), err)
	}

	return reply.Data, nil
}

// Ping performs a minimal round trip to verify the page database service is
// reachable, used by the admin health endpoint.
func (c *Client) Ping() error {
	_, err := c.GetSubPages(ident.Root)

	return err
}

// GetImage fetches a global image resource.
func (c *Client) GetImage(name ident.CheckedIdentElem) ([]byte, error) {
	reply, err := c.roundTrip(wire.DBMsg{Kind: wire.DBMsgGetImage, Name: name.Downgrade().String()})
	if err != nil {
		return nil, fmt.Errorf("dbclient: GetImage %s: %w", name.Downgrade(), err)
	}

	return reply.Data, nil
}
