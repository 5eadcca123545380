package fsdb

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/sockio"
	"github.com/mbuesch/go-cms/internal/wire"
	"github.com/rs/zerolog/log"
)

// Server answers P-DB protocol requests out of a Cache. One Server can be
// shared across many concurrently accepted connections: every method it
// calls on Cache is already safe for concurrent use.
type Server struct {
	cache   *Cache
	workers chan struct{}
}

// NewServer wraps cache as a request handler for the page database
// service. workers bounds the number of connections handled concurrently;
// a non-positive value leaves concurrency unbounded.
func NewServer(cache *Cache, workers int) *Server {
	s := &Server{cache: cache}
	if workers > 0 {
		s.workers = make(chan struct{}, workers)
	}

	return s
}

// Serve accepts connections on ln until ctx is cancelled, handling each
// connection sequentially (one request completes before the next is read)
// in its own goroutine, matching the "no pipelining per connection" rule.
// Accepting blocks once the worker-count bound is reached, so excess
// connections queue in the listen backlog rather than spawning unbounded
// goroutines.
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

			return fmt.Errorf("fsdb: accept: %w", err)
		}

		go func() {
			defer s.release()
			s.handleConn(ctx, sockio.NewConn(nc, wire.MagicDB))
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

		var req wire.DBMsg
		if err := conn.RecvMsg(&req); err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Msg("page database connection closed")
			}

			return
		}

		reply, err := s.handle(req)
		if err != nil {
			log.Warn().Err(err).Msg("page database request failed")

			return
		}

		if err := conn.SendMsg(reply); err != nil {
			log.Warn().Err(err).Msg("page database reply failed")

			return
		}
	}
}

func (s *Server) handle(req wire.DBMsg) (wire.DBMsg, error) {
	switch req.Kind {
	case wire.DBMsgGetPage:
		return s.handleGetPage(req)
	case wire.DBMsgGetHeaders:
		return s.handleGetHeaders(req)
	case wire.DBMsgGetSubPages:
		return s.handleGetSubPages(req)
	case wire.DBMsgGetMacro:
		return s.handleGetMacro(req)
	case wire.DBMsgGetString:
		return s.handleGetString(req)
	case wire.DBMsgGetImage:
		return s.handleGetImage(req)
	default:
		return wire.DBMsg{}, fmt.Errorf("fsdb: unexpected request kind %d", req.Kind)
	}
}

func (s *Server) checkedIdent(path string) (ident.CheckedIdent, error) {
	return ident.Parse(path).Cleaned().CheckUser()
}

// degraded logs a failed filesystem read and substitutes the zero value:
// low-level I/O failures become empty fields in an otherwise successful
// reply, never transport errors.
func degraded[T any](what string, v T, err error) T {
	if err != nil {
		log.Warn().Err(err).Str("field", what).Msg("page database read failed, degrading to empty")

		var zero T

		return zero
	}

	return v
}

func (s *Server) handleGetPage(req wire.DBMsg) (wire.DBMsg, error) {
	id, err := s.checkedIdent(req.Path)
	if err != nil {
		return wire.DBMsg{Kind: wire.DBMsgPage}, nil //nolint:nilerr // invalid path yields an empty page, not a protocol error
	}

	reply := wire.DBMsg{Kind: wire.DBMsgPage}

	if req.GetTitle {
		title, err := s.cache.GetPageTitle(id)
		title = degraded("title", title, err)
		reply.Title = &title
	}
	if req.GetData {
		data, err := s.cache.GetPage(id)
		reply.Data = degraded("data", data, err)
	}
	if req.GetStamp {
		stamp, err := s.cache.GetPageStamp(id)
		stamp = degraded("stamp", stamp, err)
		reply.Stamp = &stamp
	}
	if req.GetPrio {
		prio, err := s.cache.GetPagePrio(id)
		prio = degraded("prio", prio, err)
		reply.Prio = &prio
	}
	if req.GetRedirect {
		redirect, err := s.cache.GetPageRedirect(id)
		redirect = degraded("redirect", redirect, err)
		reply.Redirect = &redirect
	}
	if req.GetNavStop {
		stop, err := s.cache.GetPageNavStop(id)
		stop = degraded("nav_stop", stop, err)
		reply.NavStop = &stop
	}
	if req.GetNavLabel {
		label, err := s.cache.GetPageNavLabel(id)
		label = degraded("nav_label", label, err)
		reply.NavLabel = &label
	}

	return reply, nil
}

func (s *Server) handleGetHeaders(req wire.DBMsg) (wire.DBMsg, error) {
	id, err := s.checkedIdent(req.Path)
	if err != nil {
		return wire.DBMsg{Kind: wire.DBMsgHeaders}, nil //nolint:nilerr // invalid path yields empty headers
	}

	data, err := s.cache.GetHeaders(id)

	return wire.DBMsg{Kind: wire.DBMsgHeaders, Data: degraded("headers", data, err)}, nil
}

func (s *Server) handleGetSubPages(req wire.DBMsg) (wire.DBMsg, error) {
	id, err := s.checkedIdent(req.Path)
	if err != nil {
		return wire.DBMsg{Kind: wire.DBMsgSubPages}, nil //nolint:nilerr // invalid path yields no subpages
	}

	infos, err := s.cache.GetSubPages(id)
	infos = degraded("sub_pages", infos, err)

	sub := make([]wire.SubPageInfo, len(infos))
	for i, p := range infos {
		sub[i].Name = p.Name
		if req.GetNavLabel {
			sub[i].NavLabel = p.NavLabel
		}
		if req.GetNavStop {
			sub[i].NavStop = p.NavStop
		}
		if req.GetStamp {
			sub[i].Stamp = p.Stamp
		}
		if req.GetPrio {
			sub[i].Prio = p.Prio
		}
	}

	return wire.DBMsg{Kind: wire.DBMsgSubPages, SubPages: sub}, nil
}

func (s *Server) handleGetMacro(req wire.DBMsg) (wire.DBMsg, error) {
	id, err := s.checkedIdent(req.Parent)
	if err != nil {
		return wire.DBMsg{Kind: wire.DBMsgMacro}, nil //nolint:nilerr // invalid parent yields an empty macro
	}
	name, err := ident.Parse(req.Name).AsElement()
	if err != nil {
		return wire.DBMsg{Kind: wire.DBMsgMacro}, nil //nolint:nilerr // invalid macro name yields an empty macro
	}

	data, err := s.cache.GetMacro(id, name)

	return wire.DBMsg{Kind: wire.DBMsgMacro, Data: degraded("macro", data, err)}, nil
}

func (s *Server) handleGetString(req wire.DBMsg) (wire.DBMsg, error) {
	name, err := ident.Parse(req.Name).AsElement()
	if err != nil {
		return wire.DBMsg{Kind: wire.DBMsgString}, nil //nolint:nilerr // invalid name yields an empty string
	}

	data, err := s.cache.GetString(name)

	return wire.DBMsg{Kind: wire.DBMsgString, Data: degraded("string", data, err)}, nil
}

func (s *Server) handleGetImage(req wire.DBMsg) (wire.DBMsg, error) {
	name, err := ident.Parse(req.Name).AsElement()
	if err != nil {
		return wire.DBMsg{Kind: wire.DBMsgImage}, nil //nolint:nilerr // invalid name yields an empty image
	}

	data, err := s.cache.GetImage(name)

	return wire.DBMsg{Kind: wire.DBMsgImage, Data: degraded("image", data, err)}, nil
}
