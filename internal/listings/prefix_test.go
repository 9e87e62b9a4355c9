package listings

import "testing"

func TestPrefix(t *testing.T) {
	cases := []struct {
		path     string
		dir      string
		base     string
	}{
		{".", ".", ""},
		{".foo", ".", "foo"},
		{".foo.", ".foo.", ""},
		{".foo.bar", ".foo.", "bar"},
		{"", "", ""},
		{"foo", "", "foo"},
		{"foo.", "foo.", ""},
		{"foo.bar", "foo.", "bar"},
		{".origin.a", ".origin.", "a"},
	}
	for _, c := range cases {
		dir, base := Prefix(c.path)
		if dir != c.dir || base != c.base {
			t.Errorf("Prefix(%q) = (%q, %q), want (%q, %q)", c.path, dir, base, c.dir, c.base)
		}
	}
}
