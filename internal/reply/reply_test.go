package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "404 Not Found", StatusNotFound.String())
	assert.Equal(t, "200 OK", StatusOK.String())
}

func TestRedirectSetsHeaders(t *testing.T) {
	r := Redirect("/elsewhere.html")
	assert.Equal(t, StatusMovedPermanently, r.Status)
	assert.Equal(t, "/elsewhere.html", r.ExtraHTTPHeaders["Location"])
	assert.Contains(t, r.ExtraHTMLHeaders[0], "/elsewhere.html")
}

func TestErrorPageRequired(t *testing.T) {
	assert.True(t, NotFound("x").ErrorPageRequired())
	assert.True(t, BadRequest("x").ErrorPageRequired())
	assert.True(t, InternalError("x").ErrorPageRequired())
	assert.True(t, Redirect("/elsewhere.html").ErrorPageRequired())
	assert.False(t, OK([]byte("x"), "text/plain").ErrorPageRequired())
}

func TestStripDebugMessage(t *testing.T) {
	r := InternalError("sensitive stack trace")

	stripped := r.StripDebugMessage(false)
	assert.Equal(t, "<h1>500 Internal Server Error</h1>", string(stripped.Body))
	assert.Empty(t, stripped.ErrMsg)

	kept := r.StripDebugMessage(true)
	assert.Equal(t, "<p>sensitive stack trace</p>", string(kept.Body))
	assert.Equal(t, "sensitive stack trace", kept.ErrMsg)
}

func TestErrorRepliesEscapeMessageIntoBody(t *testing.T) {
	r := NotFound(`no such page: <script>`)
	assert.Equal(t, "<p>no such page: &lt;script&gt;</p>", string(r.Body))
	assert.Equal(t, "no such page: <script>", r.ErrMsg)
}

func TestSetStatusAsBody(t *testing.T) {
	r := NotFound("whatever").SetStatusAsBody()
	assert.Equal(t, "<h1>404 Not Found</h1>", string(r.Body))
	assert.Equal(t, "text/html; charset=UTF-8", r.Mime)
}
