package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchCSSWrongNameNotFound(t *testing.T) {
	svc := &Service{domain: "example.com", urlBase: "/"}

	r := svc.dispatch("example.com", "/__css/other.css", false, "")
	assert.False(t, r.IsOK())
	assert.Equal(t, uint32(404), uint32(r.Status))
}

func TestDispatchPostNoHandlerConfigured(t *testing.T) {
	svc := &Service{domain: "example.com", urlBase: "/"}

	r := svc.dispatchPost("/contact", "", []byte("--x--\r\n"), "multipart/form-data; boundary=x")
	assert.False(t, r.IsOK())
	assert.Equal(t, uint32(500), uint32(r.Status))
}

func TestDispatchPostInvalidContentType(t *testing.T) {
	svc := &Service{domain: "example.com", urlBase: "/"}

	// Body validation runs before the nil-POST-runner check, so this
	// reaches the content-type failure regardless of collaborator wiring.
	r := svc.dispatchPost("/contact", "", []byte("irrelevant"), "text/plain")
	assert.False(t, r.IsOK())
	assert.Equal(t, uint32(400), uint32(r.Status))
}

func TestDispatchPostInvalidPath(t *testing.T) {
	svc := &Service{domain: "example.com", urlBase: "/"}

	r := svc.dispatchPost("/__sys/contact", "", nil, "text/plain")
	assert.False(t, r.IsOK())
	assert.Equal(t, uint32(400), uint32(r.Status))
}
