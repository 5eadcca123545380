package backend

import (
	"testing"

	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage(t *testing.T, raw string) ident.CheckedIdent {
	t.Helper()

	id, err := ident.Parse(raw).CheckUser()
	require.NoError(t, err)

	return id
}

func TestStandardVarsBasicFields(t *testing.T) {
	ctx := pageContext{
		page:      testPage(t, "foo/bar"),
		protocol:  "https",
		domain:    "example.com",
		base:      "/",
		imagesDir: "/__images",
		thumbsDir: "/__thumbs",
		debug:     true,
	}

	vars := standardVars(ctx)

	assert.Equal(t, "foo/bar", vars["PAGEIDENT"])
	assert.Equal(t, "foo/bar", vars["PAGE"])
	assert.Equal(t, "foo", vars["GROUP"])
	assert.Equal(t, "https", vars["PROTOCOL"])
	assert.Equal(t, "example.com", vars["DOMAIN"])
	assert.Equal(t, "/__images", vars["IMAGES_DIR"])
	assert.Equal(t, "/__thumbs", vars["THUMBS_DIR"])
	assert.Equal(t, "1", vars["DEBUG"])
	assert.Contains(t, vars["CMS_PAGEIDENT"], "foo/bar.html")
}

func TestStandardVarsRootHasEmptyGroup(t *testing.T) {
	ctx := pageContext{page: ident.Root, base: "/"}

	vars := standardVars(ctx)
	assert.Equal(t, "", vars["GROUP"])
	assert.Equal(t, "", vars["PAGE"])
}

func TestStandardVarsDebugFalse(t *testing.T) {
	ctx := pageContext{page: ident.Root, base: "/", debug: false}
	vars := standardVars(ctx)
	assert.Equal(t, "0", vars["DEBUG"])
}

func TestQueryKeyFromVarName(t *testing.T) {
	assert.Equal(t, "foo", queryKeyFromVarName("Q_foo"))
	assert.Equal(t, "bar", queryKeyFromVarName("QRAW_bar"))
	assert.Equal(t, "", queryKeyFromVarName("NOUNDERSCORE"))
}

func TestPrefixFuncsEscapesAndPassesThrough(t *testing.T) {
	q := parseQuery("name=%3Cb%3Ehi%3C%2Fb%3E")
	funcs := prefixFuncs(q)

	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", funcs["Q"]("Q_name"))
	assert.Equal(t, "<b>hi</b>", funcs["QRAW"]("QRAW_name"))
}

func TestPrefixFuncsMissingKeyYieldsEmpty(t *testing.T) {
	q := parseQuery("")
	funcs := prefixFuncs(q)

	assert.Equal(t, "", funcs["Q"]("Q_missing"))
	assert.Equal(t, "", funcs["QRAW"]("QRAW_missing"))
}

func TestBoolFlag(t *testing.T) {
	assert.Equal(t, "1", boolFlag(true))
	assert.Equal(t, "0", boolFlag(false))
}
