package engine

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/sirupsen/logrus"
)

var errNotUTF8 = errors.New("content is not valid UTF-8")

// loadContent returns the bytes of a non-empty file and a release func that
// must be called once the bytes are no longer referenced. A read-only memory
// map is tried first; any mapping or decoding failure falls back to a plain
// read. Both paths require valid UTF-8.
func loadContent(path string, useMmap bool) ([]byte, func(), error) {
	if useMmap {
		data, release, err := mapFile(path)
		if err == nil {
			return data, release, nil
		}
		logrus.WithFields(logrus.Fields{"file": path, "err": err}).Debug("mmap unavailable, reading file")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	if !utf8.Valid(b) {
		return nil, nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, errNotUTF8)
	}
	return b, func() {}, nil
}

func mapFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	if !utf8.Valid(m) {
		_ = m.Unmap()
		return nil, nil, errNotUTF8
	}
	return m, func() {
		if err := m.Unmap(); err != nil {
			logrus.WithFields(logrus.Fields{"file": path, "err": err}).Debug("unmap failed")
		}
	}, nil
}
