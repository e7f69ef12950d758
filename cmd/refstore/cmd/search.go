// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"io"

	"github.com/fatih/color"
	"github.com/oneconcern/refstore/pkg/core"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search references across registries",
	Long: `Search references across registries, ignoring case.

Names, descriptions and tags are matched, as well as the content of cached files.
Binary files and files larger than 1 MiB are skipped.`,
	Example: `% refstore search "error handling" --ref go-style
local:go-style:errors.md:3: Wrap errors with context`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if refstoreFlags.search.ContentOnly && refstoreFlags.search.MetadataOnly {
			wrapFatalln("--content-only and --metadata-only are mutually exclusive", nil)
			return
		}
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}

		opts := []core.SearchOption{
			core.SearchLimit(refstoreFlags.search.Limit),
			core.SearchScope(refstoreFlags.search.Reference),
			core.SearchRegistry(refstoreFlags.search.Registry),
		}
		if refstoreFlags.search.ContentOnly {
			opts = append(opts, core.SearchContentOnly())
		}
		if refstoreFlags.search.MetadataOnly {
			opts = append(opts, core.SearchMetadataOnly())
		}
		results, err := repo.Search(ctx, args[0], opts...)
		if err != nil {
			wrapFatalln("search", err)
			return
		}
		if err = render(results, searchFormatter); err != nil {
			wrapFatalln("print search results", err)
			return
		}
	},
}

var searchFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	results := data.([]core.SearchResult)
	if len(results) == 0 {
		_, err := io.WriteString(w, "No matches.\n")
		return err
	}
	for _, r := range results {
		if _, err := io.WriteString(w, color.CyanString("%s", r.String())+"\n"); err != nil {
			return err
		}
	}
	return nil
})

func init() {
	addSearchReferenceFlag(searchCmd)
	addSearchRegistryFlag(searchCmd)
	addSearchLimitFlag(searchCmd)
	addContentOnlyFlag(searchCmd)
	addMetadataOnlyFlag(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
