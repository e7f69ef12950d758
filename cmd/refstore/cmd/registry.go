// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/oneconcern/refstore/pkg/core"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

// registryCmd represents the registry related commands
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Commands to manage registries",
	Long: `Commands to manage registries.

The local registry lives in the data directory. Remote registries are git repositories
shared by other teams, tracked as submodules of the data directory. They are read-only.

Names resolve in the local registry first, then in remote registries by name.`,
}

var registryList = &cobra.Command{
	Use:     "list",
	Short:   "List the registries, in precedence order",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		if err = render(repo.Registries(), registryListFormatter); err != nil {
			wrapFatalln("print registries", err)
			return
		}
	},
}

var registryListFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	registries := data.([]core.RegistryInfo)
	table := newTable("NAME", "REFERENCES", "BUNDLES", "MODE", "URL")
	for _, r := range registries {
		mode := color.GreenString("read-write")
		if r.ReadOnly {
			mode = color.HiBlackString("read-only")
		}
		url := r.URL
		if url == "" {
			url = r.Path
		}
		table.AddRow(r.Name, r.References, r.Bundles, mode, url)
	}
	return printTable(w, table)
})

var registryAdd = &cobra.Command{
	Use:     "add <name> <url>",
	Short:   "Add a remote registry",
	Example: `% refstore registry add team git@github.com:acme/refs.git`,
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name, url := args[0], args[1]
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		remote, err := repo.RegistryAdd(ctx, name, url)
		if err != nil {
			wrapFatalln("add registry", err)
			return
		}
		refs, bundles := remote.Counts()
		infoLogger.Printf("Added %s %q: %d references, %d bundles", model.EntityRegistry, name, refs, bundles)
	},
}

var registryUpdate = &cobra.Command{
	Use:   "update [name]",
	Short: "Pull the latest state of remote registries",
	Long:  `Pull the latest state of a remote registry, or of all remote registries when no name is given.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		if err = repo.RegistryUpdate(ctx, name); err != nil {
			wrapFatalln("update registry", err)
			return
		}
		if name == "" {
			infoLogger.Println("Updated all registries")
			return
		}
		infoLogger.Printf("Updated %s %q", model.EntityRegistry, name)
	},
}

var registryRemove = &cobra.Command{
	Use:     "remove <name>",
	Short:   "Remove a remote registry",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name := args[0]
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		confirmed := refstoreFlags.force || userConfirm("remove registry", name)
		if err = repo.RegistryRemove(ctx, name, confirmed); err != nil {
			wrapFatalln("remove registry", err)
			return
		}
		infoLogger.Printf("Removed %s %q", model.EntityRegistry, name)
	},
}

var registryInit = &cobra.Command{
	Use:   "init <path>",
	Short: "Initialize a new registry",
	Long: `Initialize a new, empty registry at the given path.

The registry is a git repository: push it to a shared remote, then add it to
other refstore installations with "refstore registry add".`,
	Example: `% refstore registry init ~/src/team-registry`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		path, err := filepath.Abs(args[0])
		if err != nil {
			wrapFatalln("resolve path", err)
			return
		}
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		registry, err := repo.RegistryInit(ctx, path)
		if err != nil {
			wrapFatalln("initialize registry", err)
			return
		}
		infoLogger.Printf("Initialized %s at %s", model.EntityRegistry, registry.Root())
	},
}

func init() {
	addForceFlag(registryRemove)
	registryCmd.AddCommand(registryList)
	registryCmd.AddCommand(registryAdd)
	registryCmd.AddCommand(registryUpdate)
	registryCmd.AddCommand(registryRemove)
	registryCmd.AddCommand(registryInit)
	rootCmd.AddCommand(registryCmd)
}
