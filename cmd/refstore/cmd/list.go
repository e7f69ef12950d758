// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"io"

	"github.com/fatih/color"
	"github.com/oneconcern/refstore/pkg/core"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the references available across registries",
	Long: `List the references available across registries.

The local registry comes first, then remote registries by name. A reference shadowed
by a registry of higher precedence is marked as such: it does not resolve.`,
	Example: `% refstore list --tag go
NAME      KIND       REGISTRY  DESCRIPTION            TAGS
go-style  directory  local     Go style conventions   [go, style]`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		filter := core.ListFilter{Tag: refstoreFlags.list.Tag}
		if refstoreFlags.reference.Kind != "" {
			kind, err := model.ParseReferenceKind(refstoreFlags.reference.Kind)
			if err != nil {
				wrapFatalln("invalid kind", err)
				return
			}
			filter.Kind = kind
		}
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		if err = render(repo.List(filter), referenceListFormatter); err != nil {
			wrapFatalln("print references", err)
			return
		}
	},
}

var referenceListFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	refs := data.([]core.ListedReference)
	if len(refs) == 0 {
		_, err := io.WriteString(w, "No references found.\n")
		return err
	}
	table := newTable("NAME", "KIND", "REGISTRY", "DESCRIPTION", "TAGS")
	for _, r := range refs {
		name := r.Reference.Name
		if r.Shadowed {
			name = color.HiBlackString("%s (shadowed)", name)
		}
		table.AddRow(name, r.Reference.Kind, r.Registry, r.Reference.Description, joinTags(r.Reference.Tags))
	}
	return printTable(w, table)
})

func init() {
	addListTagFlag(listCmd)
	addKindFlag(listCmd)
	rootCmd.AddCommand(listCmd)
}
