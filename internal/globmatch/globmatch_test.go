package globmatch

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"node_modules/**", "node_modules/foo/index.js", true},
		{"node_modules/**", "src/node_modules_fake/index.js", false},
		{"*.min.js", "dist/app.min.js", true},
		{"*.min.js", "app.min.js", true},
		{".git/**", ".git/HEAD", true},
		{"**/bin/**", "a/b/bin/c.o", true},
		{"go.sum", "go.sum", true},
		{"go.sum", "sub/go.sum", true},
	}
	for _, c := range cases {
		if got := Match(c.pattern, c.path); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}
