// Package rand produces random names and file contents for tests.
package rand

import (
	"bytes"
	"math/rand"
	"strings"
	"sync"
	"time"
)

var (
	onceSource  sync.Once
	rgen        *rand.Rand
	onceLetters sync.Once
	randMutex   sync.Mutex
	letters     []byte
)

func seed() {
	src := rand.NewSource(time.Now().UnixNano())
	rgen = rand.New(src) // #nosec
}

// Bytes returns a random slice of bytes, usually binary
func Bytes(n int) []byte {
	onceSource.Do(seed)
	buf := make([]byte, n)
	randMutex.Lock()
	_, _ = rgen.Read(buf)
	randMutex.Unlock()
	return buf
}

func makeLetters() {
	// pads over 256 locations, so "a" is slightly more frequent than other signs
	letters = bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789a"), 7)
}

// LetterBytes returns a random slice of bytes picked in the [0-9]|[a-z] range
func LetterBytes(n int) []byte {
	onceLetters.Do(makeLetters)
	buf := Bytes(n)
	for i, b := range buf {
		buf[i] = letters[b]
	}
	return buf
}

// LetterString returns a random string picked in the [0-9]|[a-z] range
func LetterString(n int) string {
	return string(LetterBytes(n))
}

// Name returns a random name, valid as a reference, bundle or registry name
func Name(prefix string) string {
	return prefix + "-" + LetterString(8)
}

// Text returns a random text document of n lines, each prefixed by its line number
func Text(lines int) []byte {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("line ")
		b.WriteString(LetterString(1 + i%3))
		b.WriteByte(' ')
		b.WriteString(LetterString(24))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Binary returns random content guaranteed to be detected as binary
func Binary(n int) []byte {
	if n < 1 {
		n = 1
	}
	buf := Bytes(n)
	buf[0] = 0
	return buf
}
