// Package reply defines the backend service's HTTP-shaped response
// envelope and the canned constructors used throughout the render
// pipeline to build one.
package reply

import (
	"fmt"
	"html"
)

// HTTPStatus is one of the handful of status codes the backend ever
// produces; the CMS deliberately does not expose the full HTTP status space.
type HTTPStatus uint32

const (
	StatusOK                  HTTPStatus = 200
	StatusMovedPermanently    HTTPStatus = 301
	StatusBadRequest          HTTPStatus = 400
	StatusNotFound            HTTPStatus = 404
	StatusInternalServerError HTTPStatus = 500
)

// Text returns the canonical reason phrase for the status.
func (s HTTPStatus) Text() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusMovedPermanently:
		return "Moved Permanently"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// String formats the status the way it's shown in a generated error page, e.g. "404 Not Found".
func (s HTTPStatus) String() string {
	return fmt.Sprintf("%d %s", uint32(s), s.Text())
}

// Reply is the complete result of handling one request: a status, a
// rendered body, its MIME type, any extra headers the page generator or a
// resolver statement asked to be added, and the human-readable error
// message the error-page builder renders into the final document.
type Reply struct {
	Status           HTTPStatus
	Body             []byte
	Mime             string
	ExtraHTTPHeaders map[string]string
	ExtraHTMLHeaders []string

	// ErrMsg is recorded separately from Body so it can be wiped for
	// non-debug 500 replies without also losing the rendered fallback.
	ErrMsg string
}

// OK builds a 200 reply with the given body and MIME type.
func OK(body []byte, mime string) Reply {
	return Reply{Status: StatusOK, Body: body, Mime: mime}
}

func errorReply(status HTTPStatus, msg string) Reply {
	return Reply{
		Status: status,
		Body:   []byte(fmt.Sprintf("<p>%s</p>", html.EscapeString(msg))),
		Mime:   "text/html; charset=UTF-8",
		ErrMsg: msg,
	}
}

// NotFound builds a 404 reply carrying the given human-readable message.
func NotFound(msg string) Reply {
	return errorReply(StatusNotFound, msg)
}

// BadRequest builds a 400 reply carrying the given human-readable message.
func BadRequest(msg string) Reply {
	return errorReply(StatusBadRequest, msg)
}

// InternalError builds a 500 reply carrying the given human-readable message.
func InternalError(msg string) Reply {
	return errorReply(StatusInternalServerError, msg)
}

// Redirect builds a 301 reply pointing at location, setting both the
// Location HTTP header and an HTML meta-refresh fallback for clients that
// ignore it.
func Redirect(location string) Reply {
	return Reply{
		Status:           StatusMovedPermanently,
		Body:             []byte(fmt.Sprintf("Moved to %s", location)),
		Mime:             "text/plain; charset=UTF-8",
		ExtraHTTPHeaders: map[string]string{"Location": location},
		ExtraHTMLHeaders: []string{fmt.Sprintf(`<meta http-equiv="refresh" content="0; url=%s" />`, location)},
	}
}

// IsOK reports whether the reply's status is 200.
func (r Reply) IsOK() bool {
	return r.Status == StatusOK
}

// ErrorPageRequired reports whether this reply's status warrants running
// the dedicated error-page resolver pass instead of returning Body as-is.
// True for any non-200 status, including redirects: the error page is
// built in addition to, not instead of, the redirect's Location header
// and meta-refresh fallback.
func (r Reply) ErrorPageRequired() bool {
	return r.Status != StatusOK
}

// SetStatusAsBody replaces the reply's body with a minimal "<h1>{status}</h1>"
// placeholder, used for 500 replies in non-debug mode so that internal
// error detail never reaches a client.
func (r Reply) SetStatusAsBody() Reply {
	r.Body = []byte(fmt.Sprintf("<h1>%s</h1>", r.Status))
	r.Mime = "text/html; charset=UTF-8"

	return r
}

// StripDebugMessage wipes a 500 reply's message and replaces its body
// with the generic status text unless debug is enabled, preventing
// internal error messages (which may embed paths or resolver state) from
// leaking to clients in production.
func (r Reply) StripDebugMessage(debug bool) Reply {
	if r.Status == StatusInternalServerError && !debug {
		r.ErrMsg = ""

		return r.SetStatusAsBody()
	}

	return r
}
