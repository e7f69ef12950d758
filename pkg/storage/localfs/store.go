// Copyright © 2018 One Concern

// Package localfs implements a storage.Store on top of an afero.Fs.
package localfs

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oneconcern/refstore/pkg/storage"
	"github.com/oneconcern/refstore/pkg/storage/status"
	"github.com/spf13/afero"
)

// New creates a new local file system backed store.
//
// Use afero.NewBasePathFs to root the store in some directory: the store never
// removes that root.
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), ".")
	}
	return &localFS{
		fs: fs,
	}
}

type localFS struct {
	fs afero.Fs
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + filepath.ToSlash(key))
	if k == "/" {
		return "", status.ErrInvalidKey.Wrapf("empty key %q", key)
	}
	return strings.TrimPrefix(k, "/"), nil
}

func (l *localFS) Has(_ context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(filepath.FromSlash(k))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, status.ErrStorageAPI.Wrap(err)
	}
	return !fi.IsDir(), nil
}

type localReader struct {
	objectReader io.ReadCloser
}

func (r localReader) WriteTo(writer io.Writer) (n int64, err error) {
	return storage.PipeIO(writer, r.objectReader)
}

func (r localReader) Close() error {
	return r.objectReader.Close()
}

func (r localReader) Read(p []byte) (n int, err error) {
	return r.objectReader.Read(p)
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotExists.Wrapf("key %q", key)
	}
	k, _ := cleanKey(key)
	t, err := l.fs.Open(filepath.FromSlash(k))
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	return localReader{
		objectReader: t,
	}, nil
}

func (l *localFS) Put(_ context.Context, key string, source io.Reader, exclusive bool) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	name := filepath.FromSlash(k)
	if dir := filepath.Dir(name); dir != "." {
		if err = l.fs.MkdirAll(dir, 0o755); err != nil {
			return status.ErrStorageAPI.Wrapf("ensuring directories for %q: %v", key, err)
		}
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if exclusive {
		flag |= os.O_EXCL
	}
	target, err := l.fs.OpenFile(name, flag, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return status.ErrExists.Wrapf("key %q", key)
		}
		return status.ErrStorageAPI.Wrapf("create record for %q: %v", key, err)
	}
	if _, err = storage.PipeIO(target, source); err != nil {
		_ = target.Close()
		return status.ErrStorageAPI.Wrapf("write record for %q: %v", key, err)
	}
	return target.Close()
}

// Delete removes an object, then the parent directories it leaves empty
func (l *localFS) Delete(_ context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	name := filepath.FromSlash(k)
	if err := l.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		return status.ErrStorageAPI.Wrapf("removing %q: %v", key, err)
	}
	return l.pruneParents(name)
}

// DeletePrefix removes a whole directory of objects, then the parent directories it leaves empty
func (l *localFS) DeletePrefix(_ context.Context, prefix string) error {
	k, err := cleanKey(prefix)
	if err != nil {
		return err
	}
	name := filepath.FromSlash(k)
	if err := l.fs.RemoveAll(name); err != nil {
		return status.ErrStorageAPI.Wrapf("removing %q: %v", prefix, err)
	}
	return l.pruneParents(name)
}

func (l *localFS) pruneParents(name string) error {
	for dir := filepath.Dir(name); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		entries, err := afero.ReadDir(l.fs, dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return status.ErrStorageAPI.Wrap(err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := l.fs.Remove(dir); err != nil && !os.IsNotExist(err) {
			return status.ErrStorageAPI.Wrap(err)
		}
	}
	return nil
}

// Keys lists all objects, sorted
func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	return l.walk(".")
}

// KeysPrefix lists the objects under a directory, sorted
func (l *localFS) KeysPrefix(_ context.Context, prefix string) ([]string, error) {
	k, err := cleanKey(prefix)
	if err != nil {
		return l.walk(".")
	}
	return l.walk(filepath.FromSlash(k))
}

func (l *localFS) walk(root string) ([]string, error) {
	if _, err := l.fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	res := make([]string, 0, 100)
	e := afero.Walk(l.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		res = append(res, strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "/"))
		return nil
	})
	if e != nil {
		return nil, status.ErrStorageAPI.Wrap(e)
	}
	sort.Strings(res)
	return res, nil
}

// Clear removes all objects, but not the root of the store
func (l *localFS) Clear(_ context.Context) error {
	entries, err := afero.ReadDir(l.fs, ".")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return status.ErrStorageAPI.Wrap(err)
	}
	for _, entry := range entries {
		if err := l.fs.RemoveAll(entry.Name()); err != nil {
			return status.ErrStorageAPI.Wrap(err)
		}
	}
	return nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	return describe(localfs, l.fs)
}

func describe(kind string, fs afero.Fs) string {
	switch fs := fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return kind
		}
		return kind + "@" + pp
	default:
		return kind
	}
}

/* atomic local storage implementation.
 * use a decorator pattern to implement atomic Put()s via atomicity of afero.Fs.Rename():
 * files are placed in a staging area, then Rename()d into place.
 * Readers of the store never observe a partially written object.
 */

const (
	// StageName is the name of the put staging area, at the root of atomic stores
	StageName = ".put-stage"
)

func maybeInvalidKey(key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if k == StageName || strings.HasPrefix(k, StageName+"/") {
		return status.ErrInvalidKey.Wrapf("key %q conflicts with put staging area name %q", key, StageName)
	}
	return nil
}

func filterInvalidKeys(ks []string) []string {
	ksFiltered := ks[:0]
	for _, key := range ks {
		if err := maybeInvalidKey(key); err == nil {
			ksFiltered = append(ksFiltered, key)
		}
	}
	return ksFiltered
}

// NewAtomic creates a local file system backed store with atomic writes
func NewAtomic(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), ".")
	}
	return &localFSAtomic{
		storeImpl: localFS{fs: fs},
	}
}

type localFSAtomic struct {
	storeImpl localFS
}

func (l *localFSAtomic) Has(ctx context.Context, key string) (bool, error) {
	if err := maybeInvalidKey(key); err != nil {
		return false, err
	}
	return l.storeImpl.Has(ctx, key)
}

func (l *localFSAtomic) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := maybeInvalidKey(key); err != nil {
		return nil, err
	}
	return l.storeImpl.Get(ctx, key)
}

func (l *localFSAtomic) Delete(ctx context.Context, key string) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	return l.storeImpl.Delete(ctx, key)
}

func (l *localFSAtomic) DeletePrefix(ctx context.Context, prefix string) error {
	if err := maybeInvalidKey(prefix); err != nil {
		return err
	}
	return l.storeImpl.DeletePrefix(ctx, prefix)
}

func (l *localFSAtomic) Keys(ctx context.Context) ([]string, error) {
	ks, err := l.storeImpl.Keys(ctx)
	if err != nil {
		return ks, err
	}
	return filterInvalidKeys(ks), nil
}

func (l *localFSAtomic) KeysPrefix(ctx context.Context, prefix string) ([]string, error) {
	ks, err := l.storeImpl.KeysPrefix(ctx, prefix)
	if err != nil {
		return ks, err
	}
	return filterInvalidKeys(ks), nil
}

func (l *localFSAtomic) Clear(ctx context.Context) error {
	return l.storeImpl.Clear(ctx)
}

// Put stages the object, then renames it into place. The staging area is removed once empty.
func (l *localFSAtomic) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	k, _ := cleanKey(key)
	if exclusive {
		has, err := l.storeImpl.Has(ctx, k)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists.Wrapf("key %q", key)
		}
	}
	putStageKey := path.Join(StageName, k)
	if err := l.storeImpl.Put(ctx, putStageKey, source, storage.OverWrite); err != nil {
		return err
	}
	name := filepath.FromSlash(k)
	// Rename() doesn't create directories automatically
	if dir := filepath.Dir(name); dir != "." {
		if err := l.storeImpl.fs.MkdirAll(dir, 0o755); err != nil {
			return status.ErrStorageAPI.Wrapf("ensuring directories for %q: %v", key, err)
		}
	}
	if err := l.storeImpl.fs.Rename(filepath.FromSlash(putStageKey), name); err != nil {
		return status.ErrStorageAPI.Wrapf("moving %q into place: %v", key, err)
	}
	return l.storeImpl.pruneParents(filepath.FromSlash(putStageKey))
}

func (l *localFSAtomic) String() string {
	return describe("localfs-atomic", l.storeImpl.fs)
}
