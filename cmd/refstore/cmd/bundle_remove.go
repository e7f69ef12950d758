// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var bundleRemove = &cobra.Command{
	Use:     "remove <name>",
	Short:   "Remove a bundle from the local registry",
	Long:    `Remove a bundle from the local registry. Its member references are kept.`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name := args[0]
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		if _, err = repo.Local().Bundle(name); err != nil {
			wrapFatalln("remove bundle", err)
			return
		}
		if !refstoreFlags.force && !userConfirm("remove bundle", name) {
			wrapFatalln("user aborted", nil)
			return
		}
		if err = repo.Local().BundleRemove(ctx, name); err != nil {
			wrapFatalln("remove bundle", err)
			return
		}
		infoLogger.Printf("Removed %s %q from the local registry", model.EntityBundle, name)
	},
}

func init() {
	addForceFlag(bundleRemove)
	bundleCmd.AddCommand(bundleRemove)
}
