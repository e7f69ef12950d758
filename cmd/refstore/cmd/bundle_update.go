// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"strings"

	"github.com/oneconcern/refstore/pkg/core"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var bundleUpdate = &cobra.Command{
	Use:   "update <name>",
	Short: "Add or remove references of a bundle, or change its description",
	Example: `% refstore bundle update backend --add-ref db-schema --remove-ref api-spec
% refstore bundle update backend -d "backend service docs" -t go`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name := args[0]
		var changes []core.BundleChange
		if len(refstoreFlags.bundle.AddRefs) > 0 {
			changes = append(changes, core.AddBundleMembers(refstoreFlags.bundle.AddRefs...))
		}
		if len(refstoreFlags.bundle.RemoveRefs) > 0 {
			changes = append(changes, core.RemoveBundleMembers(refstoreFlags.bundle.RemoveRefs...))
		}
		if cmd.Flags().Changed("description") {
			changes = append(changes, core.SetBundleDescription(refstoreFlags.bundle.Description))
		}
		if cmd.Flags().Changed("tag") {
			changes = append(changes, core.SetBundleTags(refstoreFlags.bundle.Tags))
		}
		if len(changes) == 0 {
			wrapFatalln("nothing to update: use --add-ref, --remove-ref, --description or --tag", nil)
			return
		}

		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		b, err := repo.Local().BundleUpdate(ctx, name, changes...)
		if err != nil {
			wrapFatalln("update bundle", err)
			return
		}
		infoLogger.Printf("Updated %s %q, references: %s", model.EntityBundle, b.Name, strings.Join(b.References, ", "))
	},
}

func init() {
	addBundleAddRefsFlag(bundleUpdate)
	addBundleRemoveRefsFlag(bundleUpdate)
	addBundleDescriptionFlag(bundleUpdate)
	addBundleTagsFlag(bundleUpdate)
	bundleCmd.AddCommand(bundleUpdate)
}
