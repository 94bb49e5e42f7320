package atac

import (
	"io/ioutil"
	"os"
	"path/filepath"
)

// createSeeded writes content at path, creating parent directories, and
// returns path. Tests use it to pre-populate cached outputs.
func createSeeded(path, content string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return "", err
	}
	return path, ioutil.WriteFile(path, []byte(content), 0644)
}
