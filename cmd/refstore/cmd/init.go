// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/refstore/pkg/core"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize refstore in a project",
	Long: `Initialize refstore in a project by creating an empty refstore.toml manifest.

Synced references land in the .references/ directory of the project, which is added to
the project's .gitignore unless --commit-references is given.`,
	Example: `% refstore init
Initialized refstore in /home/me/src/widgets`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		dir := refstoreFlags.project.Path
		if dir == "" {
			if dir, err = projectDir(); err != nil {
				wrapFatalln("locate project", err)
				return
			}
		}
		project, err := core.InitProject(ctx, dir, repo, !refstoreFlags.project.CommitReferences, core.WithLogger(logger))
		if err != nil {
			wrapFatalln("initialize project", err)
			return
		}
		infoLogger.Printf("Initialized refstore in %s", project.Root())
		infoLogger.Printf("Manifest: %s", model.ManifestFile)
	},
}

func init() {
	addCommitReferencesFlag(initCmd)
	addInitPathFlag(initCmd)
	rootCmd.AddCommand(initCmd)
}
