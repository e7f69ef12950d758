// Copyright © 2018 One Concern

package cmd

import (
	"io"
	"strings"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

// bundleCmd represents the bundle related commands
var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Commands to manage bundles of references",
	Long: `Commands to manage bundles of references.

A bundle is a named set of references, e.g. all the documentation a backend service needs.
Adding a bundle to a project is equivalent to adding each of its members.

Members need not exist when the bundle is created: they must resolve when a project syncs.`,
}

func bundleDetails(w io.Writer, registry string, b model.Bundle) error {
	return details(w, [][2]string{
		{"Name", b.Name},
		{"Kind", "bundle"},
		{"Registry", registry},
		{"Description", b.Description},
		{"Tags", strings.Join(b.Tags, ", ")},
		{"References", strings.Join(b.References, ", ")},
		{"Created", formatTime(b.CreatedAt)},
		{"Updated", formatTime(b.UpdatedAt)},
	})
}

func init() {
	rootCmd.AddCommand(bundleCmd)
}
