package secrets

import (
	"bytes"
	"errors"
	"os"
	"strings"
)

var ErrNotFound = errors.New("secret not found")

// maxSecretBytes bounds what is read from a secret file.
const maxSecretBytes = 64 << 10

// ReadFile returns the contents of a mounted secret file with surrounding
// whitespace removed.
func ReadFile(path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNotFound
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("secret path is a directory")
	}
	if info.Size() > maxSecretBytes {
		return nil, errors.New("secret file too large")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, ErrNotFound
	}
	return b, nil
}
