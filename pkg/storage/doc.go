// Copyright © 2018 One Concern

// Package storage provides an interface to handle stored files as keyed objects.
//
// Keys are slash-separated paths relative to the root of the store.
//
// This package supports the following backends:
//   - local file system, or any afero.Fs (see package localfs)
package storage
