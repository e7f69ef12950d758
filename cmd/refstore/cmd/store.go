// Copyright © 2018 One Concern

package cmd

import (
	"os"
	"strings"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

// storeCmd represents the commands managing the local registry
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Commands to manage references of the local registry",
	Long: `Commands to manage references of the local registry.

A reference is a named unit of content: a file, a directory, or an external git repository.
Its content is cached in the registry, and every change is committed to the registry's
git history, so that projects may pin a reference to a tag or commit.`,
}

// parseSource tells a git url from a local path
func parseSource(source string) model.Source {
	for _, scheme := range []string{"https://", "http://", "ssh://", "git://", "git@", "file://"} {
		if strings.HasPrefix(source, scheme) {
			return model.GitSource(source, refstoreFlags.reference.Ref, refstoreFlags.reference.Subpath)
		}
	}
	if strings.HasSuffix(source, ".git") {
		if fi, err := os.Stat(source); err != nil || fi.IsDir() {
			return model.GitSource(source, refstoreFlags.reference.Ref, refstoreFlags.reference.Subpath)
		}
	}
	return model.LocalSource(source)
}

func init() {
	rootCmd.AddCommand(storeCmd)
}
