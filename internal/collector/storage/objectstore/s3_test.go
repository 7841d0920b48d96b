package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizePrefix(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"already clean", "catalogue", "catalogue/"},
		{"leading slash", "/catalogue", "catalogue/"},
		{"trailing slash", "catalogue/", "catalogue/"},
		{"both slashes", "/catalogue/", "catalogue/"},
		{"only slashes", "///", ""},
		{"nested", "/a/b/", "a/b/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanonicalizePrefix(tc.in))
		})
	}
}

func TestFiler_KeyPrependsPrefix(t *testing.T) {
	f := &Filer{prefix: "catalogue/"}
	assert.Equal(t, "catalogue/index.json", f.key("index.json"))

	bare := &Filer{}
	assert.Equal(t, "index.json", bare.key("index.json"))
}

func TestNormalizedPrefix(t *testing.T) {
	assert.Equal(t, "", normalizedPrefix(""))
	assert.Equal(t, "sub/", normalizedPrefix("sub"))
	assert.Equal(t, "sub/", normalizedPrefix("sub/"))
}
