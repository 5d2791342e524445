package pipeline

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// Spool copies r into a new temp file under dir and returns its path and the
// hex SHA-256 of the content. The caller owns the file. On error nothing is
// left behind and the path is empty.
func Spool(r io.Reader, dir string) (path, hash string, err error) {
	f, err := os.CreateTemp(dir, "wikigest-dump-*.xml")
	if err != nil {
		return "", "", fmt.Errorf("create spool file: %w", err)
	}
	return spool(f, r)
}

// spoolFile is what spool needs from *os.File.
type spoolFile interface {
	io.WriteCloser
	Name() string
}

func spool(f spoolFile, r io.Reader) (path, hash string, err error) {
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close spool file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(f.Name())
			path, hash = "", ""
		}
	}()

	h := sha256.New()
	if _, err = io.Copy(io.MultiWriter(f, h), r); err != nil {
		return "", "", fmt.Errorf("spool dump: %w", err)
	}
	return f.Name(), fmt.Sprintf("%x", h.Sum(nil)), nil
}
