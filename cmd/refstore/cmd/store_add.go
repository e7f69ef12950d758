// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var storeAdd = &cobra.Command{
	Use:   "add <name> <source>",
	Short: "Add a reference to the local registry",
	Long: `Add a reference to the local registry.

The source is a local file, a local directory, or the url of a git repository.
Git repositories are cloned shallowly, at --ref when given, and may be narrowed to --subpath.`,
	Example: `% refstore store add go-style ~/notes/go-style --tag go --tag style
% refstore store add cobra-docs https://github.com/spf13/cobra.git --subpath site/content`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name, source := args[0], args[1]
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		ref, err := repo.Local().Add(ctx, name, parseSource(source),
			model.ReferenceDescription(refstoreFlags.reference.Description),
			model.ReferenceTags(refstoreFlags.reference.Tags),
		)
		if err != nil {
			wrapFatalln("add reference", err)
			return
		}
		infoLogger.Printf("Added %s %q (%s) to the local registry", model.EntityReference, ref.Name, ref.Kind)
		infoLogger.Printf("Content cached at: %s", repo.Local().ContentPath(ref.Name))
	},
}

func init() {
	addDescriptionFlag(storeAdd)
	addTagsFlag(storeAdd)
	addGitRefFlag(storeAdd)
	addSubpathFlag(storeAdd)
	storeCmd.AddCommand(storeAdd)
}
