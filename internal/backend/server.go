package backend

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/mbuesch/go-cms/internal/reply"
	"github.com/mbuesch/go-cms/internal/sockio"
	"github.com/mbuesch/go-cms/internal/wire"
	"github.com/rs/zerolog/log"
)

// Server answers P-BACK protocol requests out of a Service. One Server can
// be shared across many concurrently accepted connections: Service holds
// no per-request mutable state of its own.
type Server struct {
	svc     *Service
	workers chan struct{}
}

// NewServer wraps svc as a request handler for the backend render service.
// workers bounds the number of connections handled concurrently; a
// non-positive value leaves concurrency unbounded.
func NewServer(svc *Service, workers int) *Server {
	s := &Server{svc: svc}
	if workers > 0 {
		s.workers = make(chan struct{}, workers)
	}

	return s
}

// Serve accepts connections on ln until ctx is cancelled, handling each
// connection sequentially in its own goroutine, matching the "no
// pipelining per connection" rule of the sibling P-DB protocol.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		if s.workers != nil {
			select {
			case s.workers <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
		}

		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("backend: accept: %w", err)
		}

		go func() {
			defer s.release()
			s.handleConn(ctx, sockio.NewConn(nc, wire.MagicBack))
		}()
	}
}

func (s *Server) release() {
	if s.workers != nil {
		<-s.workers
	}
}

func (s *Server) handleConn(ctx context.Context, conn *sockio.Conn) {
	defer conn.Close() //nolint:errcheck // best-effort cleanup on connection teardown

	for {
		if ctx.Err() != nil {
			return
		}

		var req wire.BackMsg
		if err := conn.RecvMsg(&req); err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Msg("backend connection closed")
			}

			return
		}

		resp := s.handle(req)

		if err := conn.SendMsg(resp); err != nil {
			log.Warn().Err(err).Msg("backend reply failed")

			return
		}
	}
}

func (s *Server) handle(req wire.BackMsg) wire.BackMsg {
	var r reply.Reply

	switch req.Kind {
	case wire.BackMsgGet:
		r = s.svc.Get(req.Host, req.Path, req.Https, req.QueryString)
	case wire.BackMsgPost:
		r = s.svc.Post(req.Host, req.Path, req.Https, req.QueryString, req.PostData, req.ContentType)
	default:
		r = reply.InternalError(fmt.Sprintf("backend: unexpected request kind %d", req.Kind))
	}

	return wire.BackMsg{
		Kind:             wire.BackMsgReply,
		Status:           uint32(r.Status),
		Body:             r.Body,
		Mime:             r.Mime,
		ExtraHTTPHeaders: r.ExtraHTTPHeaders,
		ExtraHTMLHeaders: r.ExtraHTMLHeaders,
	}
}
