// Package postclient is the backend service's client for the P-POST
// protocol spoken to the external Python POST-handler runner (§1, §4.4):
// it hands over the request path plus parsed query and form fields, and
// gets back a rendered body and MIME type.
package postclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/retry"
	"github.com/mbuesch/go-cms/internal/sockio"
	"github.com/mbuesch/go-cms/internal/wire"
)

// Result is the POST-runner's rendered response.
type Result struct {
	Body []byte
	Mime string
}

// Client talks to one POST-runner service instance over a unix socket.
type Client struct {
	mu   sync.Mutex
	conn *sockio.Conn
	path string
}

// Dial connects to the POST-runner service's socket at path.
func Dial(path string) (*Client, error) {
	conn, err := sockio.Dial(path, wire.MagicPost)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, path: path}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) reconnect() error {
	_ = c.conn.Close()

	conn, err := sockio.Dial(c.path, wire.MagicPost)
	if err != nil {
		return err
	}
	c.conn = conn

	return nil
}

// Run dispatches one form submission to the POST-runner and waits for its
// rendered reply. query and formFields are passed through uninterpreted.
func (c *Client) Run(id ident.CheckedIdent, query map[string][]byte, formFields map[string][]byte) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := wire.PostMsg{
		Kind:       wire.PostMsgSubmit,
		Path:       id.Downgrade().String(),
		Query:      query,
		FormFields: formFields,
	}

	var reply wire.PostMsg

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
	if err != nil {
		return Result{}, fmt.Errorf("postclient: run %s: %w", id.Downgrade(), err)
	}

	return Result{Body: reply.Body, Mime: reply.Mime}, nil
}
