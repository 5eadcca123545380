// Package sockio implements the unix-domain-socket transport shared by
// every CMS service connection: framed blocking send/receive built on
// internal/wire, plus listener setup with systemd socket-activation
// support and a stale-socket-removal fallback.
package sockio

import (
	"fmt"
	"net"
	"os"

	"github.com/mbuesch/go-cms/internal/wire"
	"github.com/rs/zerolog/log"
)

// Conn wraps a unix socket connection and speaks the framed wire
// protocol for one fixed magic value.
type Conn struct {
	nc    net.Conn
	magic uint32
}

// NewConn wraps an already-connected net.Conn (typically from
// net.Dial("unix", ...) or a Listener.Accept()) to speak the given protocol.
func NewConn(nc net.Conn, magic uint32) *Conn {
	return &Conn{nc: nc, magic: magic}
}

// Dial connects to a unix socket at path and wraps it for the given protocol.
func Dial(path string, magic uint32) (*Conn, error) {
	nc, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("sockio: dial %s: %w", path, err)
	}

	return NewConn(nc, magic), nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// RecvMsg blocks until one complete, magic-validated payload has been
// read, and gob-decodes it into v.
func (c *Conn) RecvMsg(v any) error {
	payload, err := wire.ReadFrame(c.nc, c.magic)
	if err != nil {
		return err
	}

	return wire.DecodePayload(payload, v)
}

// SendMsg gob-encodes v with this connection's magic and writes the
// complete frame, blocking until fully sent.
func (c *Conn) SendMsg(v any) error {
	frame, err := wire.EncodeMsg(c.magic, v)
	if err != nil {
		return err
	}

	return wire.WriteFrame(c.nc, frame)
}

// listenFDsStart is the file descriptor number systemd always assigns to
// the first socket it passes to an activated process.
const listenFDsStart = 3

// ListenFromSystemdOrPath returns a unix-socket Listener. If the process
// was started under systemd socket activation (LISTEN_PID matches our
// pid and LISTEN_FDS is at least 1), the first inherited file descriptor
// is used. Otherwise any stale socket file at path is removed and a fresh
// listener is bound there.
func ListenFromSystemdOrPath(path string, noSystemd bool) (net.Listener, error) {
	if !noSystemd {
		if ln, ok := listenFromSystemd(); ok {
			log.Info().Msg("Using systemd-activated socket")

			return ln, nil
		}
	}

	return listenFresh(path)
}

func listenFromSystemd() (net.Listener, bool) {
	pidStr := os.Getenv("LISTEN_PID")
	fdsStr := os.Getenv("LISTEN_FDS")
	if pidStr == "" || fdsStr == "" {
		return nil, false
	}

	var pid, fds int
	if _, err := fmt.Sscanf(pidStr, "%d", &pid); err != nil || pid != os.Getpid() {
		return nil, false
	}
	if _, err := fmt.Sscanf(fdsStr, "%d", &fds); err != nil || fds < 1 {
		return nil, false
	}

	f := os.NewFile(uintptr(listenFDsStart), "systemd-socket")
	ln, err := net.FileListener(f)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to adopt systemd-activated socket, falling back")

		return nil, false
	}

	return ln, true
}

func listenFresh(path string) (net.Listener, error) {
	if fi, err := os.Stat(path); err == nil && fi.Mode()&os.ModeSocket != 0 {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("sockio: remove stale socket %s: %w", path, err)
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("sockio: listen %s: %w", path, err)
	}

	return ln, nil
}
