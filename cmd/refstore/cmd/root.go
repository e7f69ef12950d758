// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/oneconcern/refstore/internal/paths"
	"github.com/oneconcern/refstore/pkg/core"
	"github.com/oneconcern/refstore/pkg/dlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "refstore",
	Short: "refstore manages reference material for coding agents",
	Long: `refstore manages reference material (documentation, code samples, specifications) for coding agents.

References are stored once in a central, git-versioned registry. Remote registries shared by other
teams are tracked as git submodules. Projects declare the references they need in a refstore.toml
manifest and sync them into a local .references/ directory.
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		logger, err = dlogger.GetLogger(viper.GetString(logLevelKey))
		if err != nil {
			wrapFatalln(fmt.Sprintf("invalid log level %q", viper.GetString(logLevelKey)), err)
			return
		}
	},
}

var logger = zap.NewNop()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	for key, flag := range map[string]string{
		dataDirKey:  addDataDirFlag(rootCmd),
		logLevelKey: addLogLevel(rootCmd),
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			wrapFatalln(fmt.Sprintf("binding flag %q", flag), err)
			return
		}
	}
	addProjectDirFlag(rootCmd)
	addOutputFlag(rootCmd)
	addTemplateFlag(rootCmd)
}

// initConfig reads ENV variables if set.
//
// The configuration of the registry itself lives in the data directory and is loaded with the repository.
func initConfig() {
	viper.SetEnvPrefix(core.EnvPrefix)
	viper.AutomaticEnv() // REFSTORE_DATA_DIR, REFSTORE_LOGLEVEL
	viper.SetDefault(logLevelKey, dlogger.LogLevelInfo)
}

func dataDir() (string, error) {
	return paths.ResolveDataDir(viper.GetString(dataDirKey))
}

// openRepository opens the data directory, initializing it on first use
func openRepository(ctx context.Context) (*core.Repository, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	repo, err := core.OpenRepository(ctx, dir, core.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if failures := repo.LoadFailures(); failures != nil {
		logger.Warn("some registries could not be loaded", zap.Error(failures))
	}
	return repo, nil
}

func projectDir() (string, error) {
	if refstoreFlags.root.project != "" {
		return refstoreFlags.root.project, nil
	}
	return os.Getwd()
}

// openProject locates the manifest from the project directory upwards
func openProject(ctx context.Context, repo *core.Repository) (*core.Project, error) {
	start, err := projectDir()
	if err != nil {
		return nil, err
	}
	return core.OpenProject(ctx, start, repo, core.WithLogger(logger))
}

// openAll opens both the repository and the current project
func openAll(ctx context.Context) (*core.Repository, *core.Project, error) {
	repo, err := openRepository(ctx)
	if err != nil {
		return nil, nil, err
	}
	project, err := openProject(ctx, repo)
	if err != nil {
		return nil, nil, err
	}
	return repo, project, nil
}
