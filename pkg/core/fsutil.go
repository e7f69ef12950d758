package core

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oneconcern/refstore/pkg/fingerprint"
	"github.com/oneconcern/refstore/pkg/storage"
	"github.com/oneconcern/refstore/pkg/storage/localfs"
	"github.com/spf13/afero"
)

const gitDir = ".git"

// rootedFs confines file system operations to a directory
func rootedFs(root string) afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), root)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func isVCSKey(key string) bool {
	return key == gitDir || strings.HasPrefix(key, gitDir+"/") || strings.Contains(key, "/"+gitDir+"/")
}

// contentKeys lists the files of a store, leaving out version control metadata
func contentKeys(ctx context.Context, store storage.Store) ([]string, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	res := keys[:0]
	for _, key := range keys {
		if !isVCSKey(key) {
			res = append(res, key)
		}
	}
	return res, nil
}

// copyKeys copies objects from one store to another, under some destination prefix
func copyKeys(ctx context.Context, src storage.Store, keys []string, dst storage.Store, prefix string) error {
	for _, key := range keys {
		if err := copyKey(ctx, src, key, dst, path.Join(prefix, key)); err != nil {
			return err
		}
	}
	return nil
}

func copyKey(ctx context.Context, src storage.Store, key string, dst storage.Store, target string) error {
	reader, err := src.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()
	return dst.Put(ctx, target, reader, storage.OverWrite)
}

// digestKeys computes the fingerprint of each object of a store
func digestKeys(ctx context.Context, store storage.Store, keys []string) (map[string]string, error) {
	digests := make(map[string]string, len(keys))
	for _, key := range keys {
		reader, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		digest, err := fingerprint.Reader(reader)
		_ = reader.Close()
		if err != nil {
			return nil, err
		}
		digests[key] = digest
	}
	return digests, nil
}

// treeDigest computes the fingerprint of all files under root
func treeDigest(ctx context.Context, root string) (string, error) {
	store := localfs.New(rootedFs(root))
	keys, err := contentKeys(ctx, store)
	if err != nil {
		return "", err
	}
	digests, err := digestKeys(ctx, store, keys)
	if err != nil {
		return "", err
	}
	return fingerprint.Tree(digests), nil
}

// treeSize returns the number of files under root and their total size
func treeSize(root string) (int, int64, error) {
	var (
		count int
		size  int64
	)
	if !exists(root) {
		return 0, 0, nil
	}
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == gitDir {
				return filepath.SkipDir
			}
			return nil
		}
		count++
		size += info.Size()
		return nil
	})
	return count, size, err
}

// ensureLines appends the missing lines to a text file, creating it if needed
func ensureLines(file string, lines ...string) error {
	content, err := os.ReadFile(file)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	present := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		present[strings.TrimSpace(scanner.Text())] = struct{}{}
	}

	var missing bytes.Buffer
	for _, line := range lines {
		if _, ok := present[line]; ok {
			continue
		}
		missing.WriteString(line)
		missing.WriteByte('\n')
	}
	if missing.Len() == 0 {
		return nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if len(content) > 0 && content[len(content)-1] != '\n' {
		if _, err = f.Write([]byte{'\n'}); err != nil {
			_ = f.Close()
			return err
		}
	}
	if _, err = io.Copy(f, &missing); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// isBinary tells if some content looks binary, i.e. has a NUL byte in its first 8KiB
func isBinary(content []byte) bool {
	const sniffLen = 8 * 1024
	if len(content) > sniffLen {
		content = content[:sniffLen]
	}
	return bytes.IndexByte(content, 0) >= 0
}
