package core

import (
	"bytes"
	"context"
	"io/fs"
	"path/filepath"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/storage"
	"github.com/oneconcern/refstore/pkg/storage/localfs"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes environment variables overriding configuration keys, e.g. REFSTORE_GIT_DEPTH
const EnvPrefix = "REFSTORE"

// LoadConfig reads the configuration file of a data directory.
//
// A missing file yields the default configuration. Keys may be overridden by environment variables.
func LoadConfig(dataDir string) (model.Config, error) {
	defaults := model.DefaultConfig()
	v := viper.New()
	v.SetConfigFile(filepath.Join(dataDir, model.ConfigFile))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(model.ConfigKeyScope, string(defaults.MCPScope))
	v.SetDefault(model.ConfigKeyGitDepth, defaults.GitDepth)
	v.SetDefault(model.ConfigKeyDefaultBranch, defaults.DefaultBranch)

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return model.Config{}, status.ErrInvalidConfig.Wrap(err)
	}

	var cfg model.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return model.Config{}, status.ErrInvalidConfig.Wrap(err)
	}
	scope, err := model.ParseScope(string(cfg.MCPScope))
	if err != nil {
		return model.Config{}, err
	}
	cfg.MCPScope = scope
	if err = cfg.Validate(); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

// SaveConfig writes the configuration file of a data directory
func SaveConfig(ctx context.Context, dataDir string, cfg model.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	store := localfs.NewAtomic(rootedFs(dataDir))
	return store.Put(ctx, model.ConfigFile, bytes.NewReader(buf), storage.OverWrite)
}

func (r *Repository) saveConfig(ctx context.Context, cfg model.Config) error {
	if err := SaveConfig(ctx, r.root, cfg); err != nil {
		return err
	}
	r.config = cfg
	return nil
}

// SetConfig updates one configuration key and saves the configuration
func (r *Repository) SetConfig(ctx context.Context, key, value string) (model.Config, error) {
	cfg := r.config
	cfg.Registries = append([]model.RemoteRegistry(nil), r.config.Registries...)
	if err := cfg.Set(key, value); err != nil {
		return r.config, err
	}
	if err := r.saveConfig(ctx, cfg); err != nil {
		return r.config, err
	}
	return cfg, nil
}

// RequireWritable gates write operations requested by tool-surface callers on the configured scope
func RequireWritable(cfg model.Config) error {
	if !cfg.AllowsWrites() {
		return status.ErrReadOnly.For("scope", string(cfg.MCPScope))
	}
	return nil
}
