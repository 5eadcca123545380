package ident

import (
	"strings"
	"testing"
)

func FuzzCheckUserPathSafety(f *testing.F) {
	f.Add("foo/bar")
	f.Add("../../etc/passwd")
	f.Add("a/./b")
	f.Add("index.html")
	f.Add(strings.Repeat("a/", 40))

	f.Fuzz(func(t *testing.T, raw string) {
		id, err := Parse(raw).Cleaned().CheckUser()
		if err != nil {
			return
		}

		p := id.ToFsPath("/base", TailNone())
		if !strings.HasPrefix(p, "/base") {
			t.Fatalf("fs path %q escapes its base for input %q", p, raw)
		}
		for _, comp := range strings.Split(p, "/") {
			if comp == ".." || strings.HasPrefix(comp, ".") {
				t.Fatalf("fs path %q contains dot component for input %q", p, raw)
			}
		}
	})
}
