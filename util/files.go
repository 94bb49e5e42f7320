// Package util contains small filesystem helpers shared by the pipeline
// stages: existence checks, directory creation, and the transactional write
// discipline used for every file this module produces.
package util

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
)

// FileExists reports whether path names an existing, non-empty regular file.
// Zero-length files are treated as missing so that a crash between create and
// write does not poison the idempotence checks.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// SafeMkdir creates dir (and any parents) if needed and returns dir.
func SafeMkdir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0775); err != nil {
		return "", errors.E(err, "creating directory:", dir)
	}
	return dir, nil
}

// WithTransaction runs fn with a temporary path in the same directory as
// path, and promotes the temporary file to path only if fn succeeds. On
// failure the temporary file is removed and path is left untouched, so a
// cached result at path is never replaced by a partial write. The rename is
// atomic on POSIX filesystems; concurrent writers race to last-writer-wins.
func WithTransaction(path string, fn func(tmpPath string) error) error {
	dir := filepath.Dir(path)
	if _, err := SafeMkdir(dir); err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(dir, "."+filepath.Base(path)+".tx")
	if err != nil {
		return errors.E(err, "creating transaction file for:", path)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.E(err, "closing transaction file:", tmpPath)
	}
	if err := fn(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.E(err, "promoting transaction file to:", path)
	}
	return nil
}
