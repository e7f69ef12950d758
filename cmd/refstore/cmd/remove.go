// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a reference or bundle from the project manifest",
	Long: `Remove a reference or bundle from the project manifest.

The registries are left untouched. With --purge, the synced content no longer claimed
by any remaining entry is deleted from the references directory.`,
	Example: `% refstore remove go-style --purge`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name := args[0]
		_, project, err := openAll(ctx)
		if err != nil {
			wrapFatalln("open project", err)
			return
		}
		if err = project.Remove(ctx, name, refstoreFlags.entry.Purge); err != nil {
			wrapFatalln("remove entry", err)
			return
		}
		infoLogger.Printf("Removed %q from %s", name, model.ManifestFile)
	},
}

func init() {
	addPurgeFlag(removeCmd)
	rootCmd.AddCommand(removeCmd)
}
