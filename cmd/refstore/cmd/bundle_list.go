// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/oneconcern/refstore/pkg/core"
	"github.com/spf13/cobra"
)

var bundleList = &cobra.Command{
	Use:     "list",
	Short:   "List the bundles available across registries",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		if err = render(repo.ListBundles(refstoreFlags.list.Tag), bundleListFormatter); err != nil {
			wrapFatalln("print bundles", err)
			return
		}
	},
}

var bundleListFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	bundles := data.([]core.ListedBundle)
	if len(bundles) == 0 {
		_, err := io.WriteString(w, "No bundles found.\n")
		return err
	}
	table := newTable("NAME", "REGISTRY", "REFERENCES", "DESCRIPTION", "TAGS")
	for _, b := range bundles {
		name := b.Bundle.Name
		if b.Shadowed {
			name = color.HiBlackString("%s (shadowed)", name)
		}
		table.AddRow(name, b.Registry, fmt.Sprint(len(b.Bundle.References)), b.Bundle.Description, joinTags(b.Bundle.Tags))
	}
	return printTable(w, table)
})

var bundleInfo = &cobra.Command{
	Use:   "info <name>",
	Short: "Show detailed information about a bundle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		b, registry, err := repo.ResolveBundle(args[0])
		if err != nil {
			wrapFatalln("resolve bundle", err)
			return
		}
		listed := core.ListedBundle{Registry: registry.Name(), Bundle: b}
		if err = render(listed, FormatterFunc(func(w io.Writer, data interface{}) error {
			l := data.(core.ListedBundle)
			return bundleDetails(w, l.Registry, l.Bundle)
		})); err != nil {
			wrapFatalln("print bundle", err)
			return
		}
	},
}

func init() {
	addListTagFlag(bundleList)
	bundleCmd.AddCommand(bundleList)
	bundleCmd.AddCommand(bundleInfo)
}
