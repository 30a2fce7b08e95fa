package orchestrator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav100000/consilium-codegraph/internal/store"
)

// TestScanFullThenIncremental exercises the full lifecycle: an initial full
// scan of a three-file repo, followed by an incremental scan after adding,
// modifying, and deleting a file, verifying the second scan touches fewer
// files than the first.
func TestScanFullThenIncremental(t *testing.T) {
	testDir := t.TempDir()
	repoDir := filepath.Join(testDir, "repo")
	require.NoError(t, os.MkdirAll(repoDir, 0o755))

	runGit(t, repoDir, "init")
	runGit(t, repoDir, "config", "user.email", "test@example.com")
	runGit(t, repoDir, "config", "user.name", "Test User")

	writeFile(t, filepath.Join(repoDir, "go.mod"), "module example.com/demo\n\ngo 1.24\n")
	writeFile(t, filepath.Join(repoDir, "main.go"), `package main

func main() {
	Hello()
}
`)
	writeFile(t, filepath.Join(repoDir, "hello.go"), `package main

func Hello() {
	Greet("world")
}

func Greet(name string) {
	_ = name
}
`)
	writeFile(t, filepath.Join(repoDir, "utils.go"), `package main

func Add(a, b int) int {
	return a + b
}
`)
	runGit(t, repoDir, "add", ".")
	runGit(t, repoDir, "commit", "-m", "initial")

	s, err := store.Open(store.Config{DataDir: filepath.Join(testDir, "data")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	orch := New(s, nil, Config{ExcludeGlobs: []string{".git/**"}}, nil)
	ctx := context.Background()

	result1, err := orch.Scan(ctx, repoDir, "")
	require.NoError(t, err)
	assert.Equal(t, 4, result1.FilesParsed) // go.mod has no harness, skipped; 3 go files parsed
	assert.Equal(t, 0, result1.FilesKept)
	assert.Greater(t, result1.Symbols, 0)

	writeFile(t, filepath.Join(repoDir, "new_file.go"), `package main

func NewFunction() string {
	return "new"
}
`)
	writeFile(t, filepath.Join(repoDir, "hello.go"), `package main

func Hello() {
	Greet("world")
}

func Greet(name string) {
	_ = name
}

func Goodbye() {}
`)
	require.NoError(t, os.Remove(filepath.Join(repoDir, "utils.go")))
	runGit(t, repoDir, "add", ".")
	runGit(t, repoDir, "commit", "-m", "modify")

	result2, err := orch.Scan(ctx, repoDir, "")
	require.NoError(t, err)
	assert.Less(t, result2.FilesParsed, result1.FilesParsed)
	assert.Greater(t, result2.FilesKept, 0)
	assert.Equal(t, 1, result2.FilesDeleted)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Run())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
