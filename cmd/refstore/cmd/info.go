// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/oneconcern/refstore/pkg/core"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show detailed information about a reference or bundle",
	Long: `Show detailed information about a reference or bundle.

The name resolves with the usual precedence: the local registry first, then remote
registries by name. References are looked up before bundles.`,
	Example: `% refstore info go-style
Name:         go-style
Kind:         directory
Registry:     local
Source:       /home/me/notes/go-style
Files:        12
Size:         48.2kB`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		info, err := repo.Info(args[0])
		if err != nil {
			wrapFatalln("resolve", err)
			return
		}
		if err = render(info, infoFormatter); err != nil {
			wrapFatalln("print info", err)
			return
		}
	},
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}

var infoFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	info := data.(core.Info)
	if info.IsBundle() {
		return bundleDetails(w, info.Registry, *info.Bundle)
	}
	ref := info.Reference
	return details(w, [][2]string{
		{"Name", ref.Name},
		{"Kind", ref.Kind.String()},
		{"Registry", info.Registry},
		{"Source", ref.Source.String()},
		{"Description", ref.Description},
		{"Tags", strings.Join(ref.Tags, ", ")},
		{"Added", formatTime(ref.AddedAt)},
		{"Updated", formatTime(ref.UpdatedAt)},
		{"Checksum", ref.Checksum},
		{"Content", info.ContentPath},
		{"Files", fmt.Sprint(info.Files)},
		{"Size", units.HumanSize(float64(info.Size))},
		{"Bundles", strings.Join(info.Dependents, ", ")},
	})
})

func init() {
	rootCmd.AddCommand(infoCmd)
}
