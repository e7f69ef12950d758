// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"log"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var storeUpdate = &cobra.Command{
	Use:   "update [name]",
	Short: "Refresh the cached content of references from their source",
	Long: `Refresh the cached content of references from their source.

Without a name, every reference of the local registry is refreshed. References
failing to refresh are reported and left unchanged.`,
	Example: `% refstore store update go-style
% refstore store update`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}

		if len(args) > 0 {
			ref, err := repo.Local().Update(ctx, args[0])
			if err != nil {
				wrapFatalln("update reference", err)
				return
			}
			infoLogger.Printf("Updated %s %q", model.EntityReference, ref.Name)
			return
		}

		updated, err := repo.Local().UpdateAll(ctx)
		for _, ref := range updated {
			infoLogger.Printf("Updated %s %q", model.EntityReference, ref.Name)
		}
		if err != nil {
			failures := multierr.Errors(err)
			for _, failure := range failures {
				log.Println(failure)
			}
			wrapFatalln("update references", err)
			return
		}
		if len(updated) == 0 {
			infoLogger.Println("No references in the local registry.")
		}
	},
}

func init() {
	storeCmd.AddCommand(storeUpdate)
}
