package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// GoldenFile reads the content of the golden file of the current test.
// Subtest separators are replaced by underscores (TestA/B => TestA_B.md).
func GoldenFile(t *testing.T) []byte {
	return GoldenFileNamed(t, goldenName(t)+".md")
}

// GoldenFileNamed reads the content of the given golden file in testdata/.
func GoldenFileNamed(t *testing.T, filename string) []byte {
	t.Helper()
	path := filepath.Join("testdata", filename)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed reading golden file %s: %v", path, err)
	}
	return b
}

// SetUpFromGoldenFileNamed copies the given golden file into a temp directory and returns the new path.
func SetUpFromGoldenFileNamed(t *testing.T, filename string) string {
	t.Helper()
	return SetUpFromFileContent(t, filename, string(GoldenFileNamed(t, filename)))
}

// SetUpFromFileContent creates a temp file based on the given file content.
func SetUpFromFileContent(t *testing.T, filename string, content string) string {
	t.Helper()
	dir := t.TempDir()

	fileOut := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(fileOut), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fileOut, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	return fileOut
}

func goldenName(t *testing.T) string {
	return strings.ReplaceAll(t.Name(), "/", "_")
}
