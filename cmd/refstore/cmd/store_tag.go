// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

var storeTag = &cobra.Command{
	Use:   "tag <tag>",
	Short: "Tag the current state of the local registry",
	Long: `Tag the current state of the local registry.

Project entries may then be pinned to this tag: they sync the content of the
reference as it was when the tag was created.`,
	Example: `% refstore store tag v1.0 -m "first stable set"`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		if err = repo.Local().Tag(ctx, args[0], refstoreFlags.reference.Message); err != nil {
			wrapFatalln("tag registry", err)
			return
		}
		infoLogger.Printf("Tagged the local registry as %q", args[0])
	},
}

var storeTags = &cobra.Command{
	Use:   "tags",
	Short: "List the tags of the local registry",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		tags, err := repo.Local().Tags(ctx)
		if err != nil {
			wrapFatalln("list tags", err)
			return
		}
		if err = render(tags, tagsFormatter); err != nil {
			wrapFatalln("print tags", err)
			return
		}
	},
}

var tagsFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	tags := data.([]string)
	if len(tags) == 0 {
		_, err := io.WriteString(w, "No tags.\n")
		return err
	}
	for _, tag := range tags {
		if _, err := io.WriteString(w, tag+"\n"); err != nil {
			return err
		}
	}
	return nil
})

func init() {
	addTagMessageFlag(storeTag)
	storeCmd.AddCommand(storeTag)
	storeCmd.AddCommand(storeTags)
}
