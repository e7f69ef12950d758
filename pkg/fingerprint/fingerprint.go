// Package fingerprint computes blake2b digests of files and of file trees.
//
// Digests are used to tell whether synced content reflects its source, and
// to record a checksum of a reference's cached content.
package fingerprint

import (
	"encoding/hex"
	"io"
	"sort"

	units "github.com/docker/go-units"
	blake2b "github.com/minio/blake2b-simd"
)

// DefaultSize is the default digest size, in bytes
const DefaultSize = 32

// Option configures a Maker
type Option func(*Maker)

// Size sets the digest size in bytes (1 to 64)
func Size(sz uint8) Option {
	return func(m *Maker) {
		m.size = sz
	}
}

// BufferSize sets the size of the read buffer used when digesting streams
func BufferSize(sz int64) Option {
	return func(m *Maker) {
		m.bufferSize = sz
	}
}

// Maker computes digests
type Maker struct {
	size       uint8
	bufferSize int64
}

// New digest maker
func New(opts ...Option) *Maker {
	m := &Maker{
		size:       DefaultSize,
		bufferSize: 32 * units.KiB,
	}
	for _, apply := range opts {
		apply(m)
	}
	if m.size == 0 || m.size > blake2b.Size {
		m.size = DefaultSize
	}
	return m
}

// Reader returns the hex digest of a stream
func (m *Maker) Reader(r io.Reader) (string, error) {
	h, err := blake2b.New(&blake2b.Config{Size: m.size})
	if err != nil {
		return "", err
	}
	if _, err = io.CopyBuffer(h, r, make([]byte, m.bufferSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes returns the hex digest of some content
func (m *Maker) Bytes(b []byte) string {
	h, err := blake2b.New(&blake2b.Config{Size: m.size})
	if err != nil {
		// only an invalid size may fail, which New prevents
		panic(err)
	}
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// Tree returns the hex digest of a tree, given as a mapping of relative paths to file digests.
//
// The result does not depend on map iteration order.
func (m *Maker) Tree(files map[string]string) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h, err := blake2b.New(&blake2b.Config{Size: m.size})
	if err != nil {
		panic(err)
	}
	for _, p := range paths {
		_, _ = io.WriteString(h, p)
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, files[p])
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

var defaultMaker = New()

// Reader returns the hex digest of a stream, with default settings
func Reader(r io.Reader) (string, error) {
	return defaultMaker.Reader(r)
}

// Bytes returns the hex digest of some content, with default settings
func Bytes(b []byte) string {
	return defaultMaker.Bytes(b)
}

// Tree returns the hex digest of a tree, with default settings
func Tree(files map[string]string) string {
	return defaultMaker.Tree(files)
}
