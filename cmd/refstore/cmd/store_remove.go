// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var storeRemove = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a reference from the local registry",
	Long: `Remove a reference and its cached content from the local registry.

A reference still listed by a bundle cannot be removed. The removal is committed:
the content remains available to entries pinned to an earlier revision.`,
	Example: `% refstore store remove go-style --force`,
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
		if _, err = repo.Local().Get(name); err != nil {
			wrapFatalln("remove reference", err)
			return
		}
		if !refstoreFlags.force && !userConfirm("remove reference", name) {
			wrapFatalln("user aborted", nil)
			return
		}
		if err = repo.Local().Remove(ctx, name, true); err != nil {
			wrapFatalln("remove reference", err)
			return
		}
		infoLogger.Printf("Removed %s %q from the local registry", model.EntityReference, name)
	},
}

func init() {
	addForceFlag(storeRemove)
	storeCmd.AddCommand(storeRemove)
}
