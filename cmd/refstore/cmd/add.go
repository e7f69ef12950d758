// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a reference or bundle to the project manifest",
	Long: `Add a reference or bundle to the project manifest.

The name must resolve in the local registry or in one of the remote registries.
Entries may be pinned to a registry tag or commit, and filtered with include/exclude globs.
Filters given with a bundle apply to each of its members.`,
	Example: `% refstore add go-style --include '**/*.md' --exclude 'drafts/**'
% refstore add backend-docs --bundle
% refstore add api-spec --pin v1.2 --path specs/api --sync`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name := args[0]
		_, project, err := openAll(ctx)
		if err != nil {
			wrapFatalln("open project", err)
			return
		}

		entry := model.ManifestEntry{
			Path:    refstoreFlags.entry.Path,
			Version: refstoreFlags.entry.Pin,
			Include: refstoreFlags.entry.Include,
			Exclude: refstoreFlags.entry.Exclude,
		}
		if err = project.Add(ctx, name, entry, refstoreFlags.bundle.IsBundle); err != nil {
			wrapFatalln("add entry", err)
			return
		}
		kind := model.EntityReference
		if refstoreFlags.bundle.IsBundle {
			kind = model.EntityBundle
		}
		infoLogger.Printf("Added %s %q to %s", kind, name, model.ManifestFile)

		if !refstoreFlags.entry.Sync {
			return
		}
		results, err := project.Sync(ctx, name, false)
		if err != nil {
			wrapFatalln("sync", err)
			return
		}
		if err = render(results, syncFormatter); err != nil {
			wrapFatalln("print sync report", err)
			return
		}
	},
}

func init() {
	addBundleFlag(addCmd)
	addPinFlag(addCmd)
	addEntryPathFlag(addCmd)
	addIncludeFlag(addCmd)
	addExcludeFlag(addCmd)
	addSyncNowFlag(addCmd)
	rootCmd.AddCommand(addCmd)
}
