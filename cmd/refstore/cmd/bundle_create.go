// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"strings"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var bundleCreate = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a bundle in the local registry",
	Example: `% refstore bundle create backend --ref go-style --ref api-spec -d "backend service docs"`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name := args[0]
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		b, err := repo.Local().BundleCreate(ctx, name, refstoreFlags.bundle.Members,
			model.BundleDescription(refstoreFlags.bundle.Description),
			model.BundleTags(refstoreFlags.bundle.Tags),
		)
		if err != nil {
			wrapFatalln("create bundle", err)
			return
		}
		infoLogger.Printf("Created %s %q with references: %s", model.EntityBundle, b.Name, strings.Join(b.References, ", "))
	},
}

func init() {
	requireFlags(bundleCreate, addBundleMembersFlag(bundleCreate))
	addBundleDescriptionFlag(bundleCreate)
	addBundleTagsFlag(bundleCreate)
	bundleCmd.AddCommand(bundleCreate)
}
