// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"io"
	"path/filepath"

	"github.com/oneconcern/refstore/pkg/model"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the refstore configuration",
	Long: `Commands to manage the refstore configuration.

The configuration is stored in config.yaml in the data directory. Keys may be overridden
by environment variables prefixed with REFSTORE_, e.g. REFSTORE_GIT_DEPTH.

Keys:
  mcp_scope        read_only (default) or read_write: whether agents may modify registries
  git_depth        depth of shallow clones of git references (default 1)
  default_branch   branch cloned when a git reference is added without --ref
  registries       remote registries, managed by "refstore registry"`,
}

var configShow = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		if err = render(repo.Config(), configFormatter(repo.Root())); err != nil {
			wrapFatalln("print configuration", err)
			return
		}
	},
}

func configFormatter(dataDir string) Formatter {
	return FormatterFunc(func(w io.Writer, data interface{}) error {
		cfg := data.(model.Config)
		rows := [][2]string{{"data_dir", dataDir}, {"config_file", filepath.Join(dataDir, model.ConfigFile)}}
		for _, key := range model.ConfigKeys() {
			value, err := cfg.Get(key)
			if err != nil {
				return err
			}
			rows = append(rows, [2]string{key, value})
		}
		return details(w, rows)
	})
}

var configGet = &cobra.Command{
	Use:     "get <key>",
	Short:   "Get a configuration value",
	Example: `% refstore config get git_depth`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		value, err := repo.Config().Get(args[0])
		if err != nil {
			wrapFatalln("get configuration", err)
			return
		}
		infoLogger.Println(value)
	},
}

var configSet = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Set a configuration value",
	Example: `% refstore config set mcp_scope read_write`,
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		key, value := args[0], args[1]
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		cfg, err := repo.SetConfig(ctx, key, value)
		if err != nil {
			wrapFatalln("set configuration", err)
			return
		}
		stored, _ := cfg.Get(key)
		infoLogger.Printf("Set %s = %s", key, stored)
	},
}

func init() {
	configCmd.AddCommand(configShow)
	configCmd.AddCommand(configGet)
	configCmd.AddCommand(configSet)
	rootCmd.AddCommand(configCmd)
}
