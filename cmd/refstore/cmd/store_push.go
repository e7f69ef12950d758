// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var storePush = &cobra.Command{
	Use:   "push <name>",
	Short: "Push a reference from the local registry to another registry",
	Long: `Push a reference from the local registry to another registry.

The target is the working tree of a registry, e.g. a clone of a team registry created with
"refstore registry init". The reference and its content are committed to the target; publishing
that commit is left to git.`,
	Example: `% refstore store push go-style --to ~/src/team-registry`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name := args[0]
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		if err = repo.Push(ctx, name, refstoreFlags.reference.Target, refstoreFlags.reference.Overwrite); err != nil {
			wrapFatalln("push reference", err)
			return
		}
		infoLogger.Printf("Pushed %s %q to %s", model.EntityReference, name, refstoreFlags.reference.Target)
	},
}

func init() {
	requireFlags(storePush, addPushTargetFlag(storePush))
	addOverwriteFlag(storePush)
	storeCmd.AddCommand(storePush)
}
